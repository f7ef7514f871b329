package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Menu categories ---

type CreateMenuCategoryParams struct {
	Name      string
	SortOrder int32
}

const createMenuCategory = `
INSERT INTO menu_categories (name, sort_order)
VALUES ($1, $2)
RETURNING id, name, sort_order, created_at`

func (q *Queries) CreateMenuCategory(ctx context.Context, arg CreateMenuCategoryParams) (MenuCategory, error) {
	var c MenuCategory
	err := q.db.QueryRow(ctx, createMenuCategory, arg.Name, arg.SortOrder).
		Scan(&c.ID, &c.Name, &c.SortOrder, &c.CreatedAt)
	return c, err
}

const listMenuCategories = `
SELECT id, name, sort_order, created_at FROM menu_categories ORDER BY sort_order, name`

func (q *Queries) ListMenuCategories(ctx context.Context) ([]MenuCategory, error) {
	rows, err := q.db.Query(ctx, listMenuCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []MenuCategory
	for rows.Next() {
		var c MenuCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

const deleteMenuCategory = `DELETE FROM menu_categories WHERE id = $1 RETURNING id`

func (q *Queries) DeleteMenuCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, deleteMenuCategory, id).Scan(&out)
	return out, err
}

// --- Menu items ---

const menuItemColumns = `id, category_id, name, description, price, image_url,
	is_available, created_at, updated_at`

func scanMenuItem(row scanner) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(
		&m.ID,
		&m.CategoryID,
		&m.Name,
		&m.Description,
		&m.Price,
		&m.ImageURL,
		&m.IsAvailable,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

type CreateMenuItemParams struct {
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageURL    pgtype.Text
}

const createMenuItem = `
INSERT INTO menu_items (category_id, name, description, price, image_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + menuItemColumns

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ImageURL,
	)
	return scanMenuItem(row)
}

const getMenuItem = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

// GetMenuItemForOrder only returns available items; price snapshots are read
// through this at order time.
const getMenuItemForOrder = `
SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1 AND is_available`

func (q *Queries) GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItemForOrder, id))
}

type ListMenuItemsParams struct {
	CategoryID    pgtype.UUID
	AvailableOnly bool
}

const listMenuItems = `
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE ($1::uuid IS NULL OR category_id = $1)
  AND (NOT $2::bool OR is_available)
ORDER BY name`

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, arg.CategoryID, arg.AvailableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageURL    pgtype.Text
	IsAvailable bool
}

const updateMenuItem = `
UPDATE menu_items SET
	category_id = $2,
	name = $3,
	description = $4,
	price = $5,
	image_url = $6,
	is_available = $7,
	updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ImageURL,
		arg.IsAvailable,
	)
	return scanMenuItem(row)
}

const deleteMenuItem = `DELETE FROM menu_items WHERE id = $1 RETURNING id`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, deleteMenuItem, id).Scan(&out)
	return out, err
}

// --- Modifier options ---

type CreateModifierOptionParams struct {
	MenuItemID uuid.UUID
	Name       string
	Price      pgtype.Numeric
}

const createModifierOption = `
INSERT INTO modifier_options (menu_item_id, name, price)
VALUES ($1, $2, $3)
RETURNING id, menu_item_id, name, price, created_at`

func (q *Queries) CreateModifierOption(ctx context.Context, arg CreateModifierOptionParams) (ModifierOption, error) {
	var m ModifierOption
	err := q.db.QueryRow(ctx, createModifierOption, arg.MenuItemID, arg.Name, arg.Price).
		Scan(&m.ID, &m.MenuItemID, &m.Name, &m.Price, &m.CreatedAt)
	return m, err
}

const getModifierOptionForOrder = `
SELECT id, menu_item_id, name, price, created_at FROM modifier_options WHERE id = $1`

func (q *Queries) GetModifierOptionForOrder(ctx context.Context, id uuid.UUID) (ModifierOption, error) {
	var m ModifierOption
	err := q.db.QueryRow(ctx, getModifierOptionForOrder, id).
		Scan(&m.ID, &m.MenuItemID, &m.Name, &m.Price, &m.CreatedAt)
	return m, err
}

const listModifierOptionsByMenuItem = `
SELECT id, menu_item_id, name, price, created_at
FROM modifier_options WHERE menu_item_id = $1 ORDER BY name`

func (q *Queries) ListModifierOptionsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]ModifierOption, error) {
	rows, err := q.db.Query(ctx, listModifierOptionsByMenuItem, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []ModifierOption
	for rows.Next() {
		var m ModifierOption
		if err := rows.Scan(&m.ID, &m.MenuItemID, &m.Name, &m.Price, &m.CreatedAt); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

const deleteModifierOption = `DELETE FROM modifier_options WHERE id = $1 RETURNING id`

func (q *Queries) DeleteModifierOption(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, deleteModifierOption, id).Scan(&out)
	return out, err
}
