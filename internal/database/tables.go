package database

import (
	"context"

	"github.com/google/uuid"
)

type CreateTableParams struct {
	Number   string
	Capacity int32
}

const createTable = `
INSERT INTO tables (number, capacity)
VALUES ($1, $2)
RETURNING id, number, capacity, is_active, created_at`

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, createTable, arg.Number, arg.Capacity).
		Scan(&t.ID, &t.Number, &t.Capacity, &t.IsActive, &t.CreatedAt)
	return t, err
}

const getTable = `SELECT id, number, capacity, is_active, created_at FROM tables WHERE id = $1`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, getTable, id).
		Scan(&t.ID, &t.Number, &t.Capacity, &t.IsActive, &t.CreatedAt)
	return t, err
}

const listTables = `SELECT id, number, capacity, is_active, created_at FROM tables ORDER BY number`

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type UpdateTableParams struct {
	ID       uuid.UUID
	Number   string
	Capacity int32
	IsActive bool
}

const updateTable = `
UPDATE tables SET number = $2, capacity = $3, is_active = $4
WHERE id = $1
RETURNING id, number, capacity, is_active, created_at`

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, updateTable, arg.ID, arg.Number, arg.Capacity, arg.IsActive).
		Scan(&t.ID, &t.Number, &t.Capacity, &t.IsActive, &t.CreatedAt)
	return t, err
}
