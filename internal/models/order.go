package models

import (
	"github.com/shopspring/decimal"
)

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Next returns the only status an order may advance to from s.
// Delivered and cancelled orders have no successor.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusPending:
		return OrderStatusPreparing, true
	case OrderStatusPreparing:
		return OrderStatusReady, true
	case OrderStatusReady:
		return OrderStatusDelivered, true
	default:
		return "", false
	}
}

// Active reports whether the order still shows up on the monitor.
func (s OrderStatus) Active() bool {
	return s == OrderStatusPending || s == OrderStatusPreparing || s == OrderStatusReady
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Label is the human readable status name.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pendente"
	case OrderStatusPreparing:
		return "Preparando"
	case OrderStatusReady:
		return "Pronto"
	case OrderStatusDelivered:
		return "Finalizado"
	case OrderStatusCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}

// ActionLabel names the action that moves an order out of s, or "" when
// there is none.
func (s OrderStatus) ActionLabel() string {
	switch s {
	case OrderStatusPending:
		return "Iniciar Preparo"
	case OrderStatusPreparing:
		return "Marcar como Pronto"
	case OrderStatusReady:
		return "Marcar como Finalizado"
	default:
		return ""
	}
}

// OrderItem represents one line of a submitted order
type OrderItem struct {
	MenuItemID      string          `json:"menu_item_id"`
	MenuItemName    string          `json:"menu_item_name"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	SpecialRequests *string         `json:"special_requests,omitempty"`
}

// Subtotal is price times quantity for the line.
func (oi OrderItem) Subtotal() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// Order represents a table order as the backend stores it
type Order struct {
	ID              string          `json:"id"`
	TableNumber     int             `json:"table_number"`
	Items           []OrderItem     `json:"items"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	WaiterName      string          `json:"waiter_name"`
	CreatedAt       Timestamp       `json:"created_at"`
	UpdatedAt       Timestamp       `json:"updated_at"`
	SpecialRequests *string         `json:"special_requests"`
}

// CreateOrderRequest is the payload that creates an order.
// SpecialRequests is sent as null when empty.
type CreateOrderRequest struct {
	TableNumber     int         `json:"table_number"`
	Items           []OrderItem `json:"items"`
	WaiterName      string      `json:"waiter_name"`
	SpecialRequests *string     `json:"special_requests"`
}

// StatusUpdate is the payload of an order status change.
type StatusUpdate struct {
	Status OrderStatus `json:"status"`
}

// SumItems totals a list of order lines.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
