package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mejapos/api/internal/auth"
	"github.com/mejapos/api/internal/database"
	"github.com/mejapos/api/internal/enum"
	"github.com/mejapos/api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key"

// --- Mock store ---

type mockAuthStore struct {
	users map[uuid.UUID]database.User
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (database.User, error) {
	for _, u := range m.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) addUser(t *testing.T, email, password string, role enum.UserRole) database.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := database.User{
		ID:           uuid.New(),
		FullName:     "Test Staff",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Login tests ---

func TestLogin_Success(t *testing.T) {
	store := newMockAuthStore()
	user := store.addUser(t, "kasir@mejapos.id", "rahasia-123", enum.UserRoleCashier)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "kasir@mejapos.id",
		"password": "rahasia-123",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	accessToken, _ := resp["access_token"].(string)
	if accessToken == "" {
		t.Fatal("expected access_token in response")
	}
	if resp["refresh_token"] == "" {
		t.Error("expected refresh_token in response")
	}

	claims, err := auth.ValidateToken(testJWTSecret, accessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("user ID: got %s, want %s", claims.UserID, user.ID)
	}
	if claims.Role != string(enum.UserRoleCashier) {
		t.Errorf("role: got %q", claims.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMockAuthStore()
	store.addUser(t, "kasir@mejapos.id", "rahasia-123", enum.UserRoleCashier)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "kasir@mejapos.id",
		"password": "salah",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router := setupAuthRouter(newMockAuthStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "nobody@mejapos.id",
		"password": "whatever",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	router := setupAuthRouter(newMockAuthStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{"email": "kasir@mejapos.id"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Refresh tests ---

func TestRefresh_Success(t *testing.T) {
	store := newMockAuthStore()
	user := store.addUser(t, "kasir@mejapos.id", "rahasia-123", enum.UserRoleCashier)
	router := setupAuthRouter(store)

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["access_token"] == "" {
		t.Error("expected a fresh access_token")
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	router := setupAuthRouter(newMockAuthStore())

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": "not.a.jwt",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_DeletedUser(t *testing.T) {
	store := newMockAuthStore()
	user := store.addUser(t, "kasir@mejapos.id", "rahasia-123", enum.UserRoleCashier)
	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}
	delete(store.users, user.ID)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
