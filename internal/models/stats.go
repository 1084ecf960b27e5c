package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats is the read-only snapshot shown on the manager dashboard
type DashboardStats struct {
	Orders       map[OrderStatus]int `json:"orders"`
	Tables       map[TableStatus]int `json:"tables"`
	TodayRevenue decimal.Decimal     `json:"today_revenue"`
	Timestamp    string              `json:"timestamp"`
}

// OrderCount returns the number of orders in the given status.
func (s DashboardStats) OrderCount(status OrderStatus) int {
	return s.Orders[status]
}

// StatsTimestamp formats the time the way the backend stamps stats.
func StatsTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999")
}
