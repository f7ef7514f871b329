package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mejapos/api/internal/database"
	"github.com/mejapos/api/internal/handler"
)

// --- Mock store ---

type mockMenuStore struct {
	categories map[uuid.UUID]database.MenuCategory
	items      map[uuid.UUID]database.MenuItem
	modifiers  map[uuid.UUID]database.ModifierOption
}

func newMockMenuStore() *mockMenuStore {
	return &mockMenuStore{
		categories: make(map[uuid.UUID]database.MenuCategory),
		items:      make(map[uuid.UUID]database.MenuItem),
		modifiers:  make(map[uuid.UUID]database.ModifierOption),
	}
}

func (m *mockMenuStore) CreateMenuCategory(_ context.Context, arg database.CreateMenuCategoryParams) (database.MenuCategory, error) {
	c := database.MenuCategory{
		ID:        uuid.New(),
		Name:      arg.Name,
		SortOrder: arg.SortOrder,
		CreatedAt: time.Now(),
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockMenuStore) ListMenuCategories(_ context.Context) ([]database.MenuCategory, error) {
	result := []database.MenuCategory{}
	for _, c := range m.categories {
		result = append(result, c)
	}
	return result, nil
}

func (m *mockMenuStore) DeleteMenuCategory(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.categories[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.categories, id)
	return id, nil
}

func (m *mockMenuStore) CreateMenuItem(_ context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	it := database.MenuItem{
		ID:          uuid.New(),
		CategoryID:  arg.CategoryID,
		Name:        arg.Name,
		Description: arg.Description,
		Price:       arg.Price,
		ImageURL:    arg.ImageURL,
		IsAvailable: true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *mockMenuStore) GetMenuItem(_ context.Context, id uuid.UUID) (database.MenuItem, error) {
	it, ok := m.items[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockMenuStore) ListMenuItems(_ context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error) {
	result := []database.MenuItem{}
	for _, it := range m.items {
		if arg.CategoryID.Valid && it.CategoryID != uuid.UUID(arg.CategoryID.Bytes) {
			continue
		}
		if arg.AvailableOnly && !it.IsAvailable {
			continue
		}
		result = append(result, it)
	}
	return result, nil
}

func (m *mockMenuStore) UpdateMenuItem(_ context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	it, ok := m.items[arg.ID]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	it.CategoryID = arg.CategoryID
	it.Name = arg.Name
	it.Description = arg.Description
	it.Price = arg.Price
	it.ImageURL = arg.ImageURL
	it.IsAvailable = arg.IsAvailable
	m.items[it.ID] = it
	return it, nil
}

func (m *mockMenuStore) DeleteMenuItem(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.items[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.items, id)
	return id, nil
}

func (m *mockMenuStore) CreateModifierOption(_ context.Context, arg database.CreateModifierOptionParams) (database.ModifierOption, error) {
	mo := database.ModifierOption{
		ID:         uuid.New(),
		MenuItemID: arg.MenuItemID,
		Name:       arg.Name,
		Price:      arg.Price,
		CreatedAt:  time.Now(),
	}
	m.modifiers[mo.ID] = mo
	return mo, nil
}

func (m *mockMenuStore) ListModifierOptionsByMenuItem(_ context.Context, menuItemID uuid.UUID) ([]database.ModifierOption, error) {
	result := []database.ModifierOption{}
	for _, mo := range m.modifiers {
		if mo.MenuItemID == menuItemID {
			result = append(result, mo)
		}
	}
	return result, nil
}

func (m *mockMenuStore) DeleteModifierOption(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.modifiers[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.modifiers, id)
	return id, nil
}

// --- Helpers ---

func setupMenuRouter(store *mockMenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	h.RegisterAdminRoutes(r)
	return r
}

func decodeInto(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// --- Item tests ---

func TestMenuItemCreate_Success(t *testing.T) {
	store := newMockMenuStore()
	cat, _ := store.CreateMenuCategory(context.Background(), database.CreateMenuCategoryParams{Name: "Makanan", SortOrder: 1})
	router := setupMenuRouter(store)

	rr := doRequest(t, router, "POST", "/menu/items", map[string]interface{}{
		"category_id": cat.ID.String(),
		"name":        "Nasi Goreng",
		"price":       "25000",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["name"] != "Nasi Goreng" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["price"] != "25000.00" {
		t.Errorf("price: got %v", resp["price"])
	}
	if resp["is_available"] != true {
		t.Errorf("is_available: got %v", resp["is_available"])
	}
}

func TestMenuItemCreate_NegativePrice(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	rr := doRequest(t, router, "POST", "/menu/items", map[string]interface{}{
		"category_id": uuid.New().String(),
		"name":        "Gratisan",
		"price":       "-5",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMenuItemList_AvailableOnly(t *testing.T) {
	store := newMockMenuStore()
	cat, _ := store.CreateMenuCategory(context.Background(), database.CreateMenuCategoryParams{Name: "Makanan", SortOrder: 1})
	available, _ := store.CreateMenuItem(context.Background(), database.CreateMenuItemParams{
		CategoryID: cat.ID, Name: "Ada", Price: makeNumeric(t, "10000.00"),
	})
	soldOut, _ := store.CreateMenuItem(context.Background(), database.CreateMenuItemParams{
		CategoryID: cat.ID, Name: "Habis", Price: makeNumeric(t, "12000.00"),
	})
	soldOut.IsAvailable = false
	store.items[soldOut.ID] = soldOut
	router := setupMenuRouter(store)

	rr := doRequest(t, router, "GET", "/menu/items?available=true", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp []map[string]interface{}
	decodeInto(t, rr.Body.Bytes(), &resp)
	if len(resp) != 1 {
		t.Fatalf("items: got %d, want 1", len(resp))
	}
	if resp[0]["id"] != available.ID.String() {
		t.Errorf("item: got %v", resp[0]["id"])
	}
}

func TestMenuItemGet_NotFound(t *testing.T) {
	router := setupMenuRouter(newMockMenuStore())

	rr := doRequest(t, router, "GET", "/menu/items/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestModifierCreateAndList(t *testing.T) {
	store := newMockMenuStore()
	cat, _ := store.CreateMenuCategory(context.Background(), database.CreateMenuCategoryParams{Name: "Makanan", SortOrder: 1})
	item, _ := store.CreateMenuItem(context.Background(), database.CreateMenuItemParams{
		CategoryID: cat.ID, Name: "Nasi Goreng", Price: makeNumeric(t, "25000.00"),
	})
	router := setupMenuRouter(store)

	rr := doRequest(t, router, "POST", "/menu/items/"+item.ID.String()+"/modifiers", map[string]string{
		"name":  "Extra Pedas",
		"price": "2000",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, router, "GET", "/menu/items/"+item.ID.String()+"/modifiers", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	var resp []map[string]interface{}
	decodeInto(t, rr.Body.Bytes(), &resp)
	if len(resp) != 1 {
		t.Fatalf("modifiers: got %d, want 1", len(resp))
	}
	if resp[0]["name"] != "Extra Pedas" {
		t.Errorf("name: got %v", resp[0]["name"])
	}
	if resp[0]["price"] != "2000.00" {
		t.Errorf("price: got %v", resp[0]["price"])
	}
}

func TestCategoryDelete_NotFound(t *testing.T) {
	router := setupMenuRouter(newMockMenuStore())

	rr := doRequest(t, router, "DELETE", "/menu/categories/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
