package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CategoryAll is the synthetic category that matches every menu item.
const CategoryAll = "all"

func init() {
	// The backend speaks JSON numbers for money, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MenuItem represents a dish or drink offered by the café
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image,omitempty"`
	Available   bool            `json:"available"`
}

// Category is one entry of the menu category listing
type Category struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// InCategory reports whether the item passes the given category filter.
// CategoryAll matches every item; anything else must match exactly.
func (mi MenuItem) InCategory(category string) bool {
	return category == CategoryAll || mi.Category == category
}

// ValidateMenuItem validates a menu item before it is stored
func ValidateMenuItem(item *MenuItem) error {
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Category == "" {
		return fmt.Errorf("menu item category is required")
	}
	if item.Price.IsNegative() {
		return fmt.Errorf("menu item price must not be negative")
	}
	return nil
}

// FormatMoney renders an amount the way the café prints prices.
func FormatMoney(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}
