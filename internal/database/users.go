package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mejapos/api/internal/enum"
)

const userColumns = `id, full_name, email, password_hash, role, is_active,
	deleted_at, created_at, updated_at`

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.DeletedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

type CreateUserParams struct {
	FullName     string
	Email        string
	PasswordHash string
	Role         enum.UserRole
}

const createUser = `
INSERT INTO users (full_name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.FullName, arg.Email, arg.PasswordHash, arg.Role)
	return scanUser(row)
}

const getUserByEmail = `
SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL AND is_active`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `
SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const listUsers = `
SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL ORDER BY full_name`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type UpdateUserParams struct {
	ID       uuid.UUID
	FullName string
	Role     enum.UserRole
	IsActive bool
}

const updateUser = `
UPDATE users SET full_name = $2, role = $3, is_active = $4, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + userColumns

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUser, arg.ID, arg.FullName, arg.Role, arg.IsActive))
}

const softDeleteUser = `
UPDATE users SET deleted_at = now(), is_active = false, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING id`

func (q *Queries) SoftDeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteUser, id).Scan(&out)
	return out, err
}

// --- Customers ---

type CreateCustomerParams struct {
	Name  string
	Phone pgtype.Text
	Email pgtype.Text
}

const createCustomer = `
INSERT INTO customers (name, phone, email)
VALUES ($1, $2, $3)
RETURNING id, name, phone, email, created_at`

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, createCustomer, arg.Name, arg.Phone, arg.Email).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	return c, err
}

const getCustomer = `SELECT id, name, phone, email, created_at FROM customers WHERE id = $1`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, getCustomer, id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	return c, err
}

const listCustomers = `SELECT id, name, phone, email, created_at FROM customers ORDER BY name`

func (q *Queries) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
