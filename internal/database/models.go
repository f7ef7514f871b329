package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mejapos/api/internal/enum"
)

// Order is a customer's full tab at one table.
type Order struct {
	ID             uuid.UUID
	TableID        uuid.UUID
	CustomerID     pgtype.UUID
	OrderNumber    string
	Status         enum.OrderStatus
	Subtotal       pgtype.Numeric
	DiscountType   pgtype.Text
	DiscountValue  pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TaxAmount      pgtype.Numeric
	TotalAmount    pgtype.Numeric
	PaymentMethod  pgtype.Text
	TransactionID  pgtype.Text
	CompletedAt    pgtype.Timestamptz
	Notes          pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem is one line within an order. PriceAtOrder is a snapshot of the
// menu price at order time and is never recomputed from the live menu.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	MenuItemID   uuid.UUID
	Quantity     int32
	PriceAtOrder pgtype.Numeric
	Status       enum.ItemStatus
	RejectReason pgtype.Text
	Notes        pgtype.Text
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderItemModifier is a priced customization on an order item, price
// snapshotted at order time.
type OrderItemModifier struct {
	ID               uuid.UUID
	OrderItemID      uuid.UUID
	ModifierOptionID uuid.UUID
	Price            pgtype.Numeric
}

// Table is a physical table in the restaurant.
type Table struct {
	ID        uuid.UUID
	Number    string
	Capacity  int32
	IsActive  bool
	CreatedAt time.Time
}

type MenuCategory struct {
	ID        uuid.UUID
	Name      string
	SortOrder int32
	CreatedAt time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageURL    pgtype.Text
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ModifierOption struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Price      pgtype.Numeric
	CreatedAt  time.Time
}

type User struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
	Role         enum.UserRole
	IsActive     bool
	DeletedAt    pgtype.Timestamptz
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     pgtype.Text
	Email     pgtype.Text
	CreatedAt time.Time
}
