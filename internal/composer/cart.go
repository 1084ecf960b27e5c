package composer

import (
	"cafeteria/internal/models"

	"github.com/shopspring/decimal"
)

// CartLine is one menu item in the cart with a snapshot of its name and price
type CartLine struct {
	MenuItemID string
	Name       string
	Price      decimal.Decimal
	Quantity   int
}

// Subtotal is price times quantity
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines of an order being composed. It keeps at most one
// line per menu item and never a line with a quantity below one.
// Cart is not safe for concurrent use; Composer guards it.
type Cart struct {
	lines []CartLine
}

// Add increments the line for item, or appends a new line with quantity 1.
func (c *Cart) Add(item models.MenuItem) {
	for i := range c.lines {
		if c.lines[i].MenuItemID == item.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, CartLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   1,
	})
}

// Remove decrements the line for id and deletes it when it would reach zero.
// Removing an item that is not in the cart does nothing.
func (c *Cart) Remove(id string) {
	for i := range c.lines {
		if c.lines[i].MenuItemID != id {
			continue
		}
		if c.lines[i].Quantity > 1 {
			c.lines[i].Quantity--
			return
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return
	}
}

// Lines returns a copy of the cart lines in insertion order
func (c *Cart) Lines() []CartLine {
	return append([]CartLine(nil), c.lines...)
}

// Len is the number of distinct lines
func (c *Cart) Len() int {
	return len(c.lines)
}

// Quantity returns the quantity of id in the cart, zero if absent
func (c *Cart) Quantity(id string) int {
	for _, l := range c.lines {
		if l.MenuItemID == id {
			return l.Quantity
		}
	}
	return 0
}

// Total sums price times quantity over every line
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.lines = nil
}

// OrderItems converts the cart to order lines
func (c *Cart) OrderItems() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, models.OrderItem{
			MenuItemID:   l.MenuItemID,
			MenuItemName: l.Name,
			Quantity:     l.Quantity,
			Price:        l.Price,
		})
	}
	return items
}
