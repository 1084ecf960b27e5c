package models

// TableStatus represents the occupancy of a table
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
)

// Table represents a seating table in the café
type Table struct {
	ID               string      `json:"id"`
	Number           int         `json:"number"`
	Capacity         int         `json:"capacity"`
	Status           TableStatus `json:"status"`
	CurrentCustomers int         `json:"current_customers"`
}

// Available reports whether new orders may be placed against the table.
func (t Table) Available() bool {
	return t.Status == TableStatusAvailable
}
