package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cafeteria/internal/models"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateTable = errors.New("table number already exists")
)

type menuItemRow struct {
	ID          string `gorm:"primary_key"`
	Name        string
	Description string
	Category    string `gorm:"index"`
	Price       string
	Image       *string
	Available   bool
	CreatedAt   time.Time
}

func (menuItemRow) TableName() string { return "menu_items" }

type tableRow struct {
	ID               string `gorm:"primary_key"`
	Number           int    `gorm:"unique_index"`
	Capacity         int
	Status           string
	CurrentCustomers int
}

func (tableRow) TableName() string { return "tables" }

type orderRow struct {
	ID              string `gorm:"primary_key"`
	TableNumber     int
	Items           string `gorm:"type:text"`
	Status          string `gorm:"index"`
	TotalAmount     string
	WaiterName      string
	SpecialRequests *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (orderRow) TableName() string { return "orders" }

// Store keeps the dev backend's menu, tables and orders in a gorm database
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore migrates the schema and returns a store over db
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&menuItemRow{}, &tableRow{}, &orderRow{}).Error; err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Menu lists the available menu items
func (s *Store) Menu() ([]models.MenuItem, error) {
	var rows []menuItemRow
	if err := s.db.Where("available = ?", true).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]models.MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.model())
	}
	return items, nil
}

// CreateMenuItem stores a new available menu item
func (s *Store) CreateMenuItem(item models.MenuItem) (models.MenuItem, error) {
	if err := models.ValidateMenuItem(&item); err != nil {
		return models.MenuItem{}, err
	}
	row := menuItemRow{
		ID:          uuid.NewString(),
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       item.Price.String(),
		Image:       item.Image,
		Available:   true,
		CreatedAt:   s.now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return models.MenuItem{}, err
	}
	return row.model(), nil
}

// Categories counts available menu items per category, sorted by name
func (s *Store) Categories() ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.Model(&menuItemRow{}).
		Select("category, count(*) as count").
		Where("available = ?", true).
		Group("category").
		Order("category").
		Scan(&categories).Error
	return categories, err
}

// Tables lists every table sorted by number
func (s *Store) Tables() ([]models.Table, error) {
	var rows []tableRow
	if err := s.db.Order("number").Find(&rows).Error; err != nil {
		return nil, err
	}
	tables := make([]models.Table, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, row.model())
	}
	return tables, nil
}

// CreateTable adds an available table
func (s *Store) CreateTable(number, capacity int) (models.Table, error) {
	var count int
	if err := s.db.Model(&tableRow{}).Where("number = ?", number).Count(&count).Error; err != nil {
		return models.Table{}, err
	}
	if count > 0 {
		return models.Table{}, ErrDuplicateTable
	}
	row := tableRow{
		ID:       uuid.NewString(),
		Number:   number,
		Capacity: capacity,
		Status:   string(models.TableStatusAvailable),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return models.Table{}, err
	}
	return row.model(), nil
}

// SetTableStatus changes the status of the table with the given id
func (s *Store) SetTableStatus(id string, status models.TableStatus) error {
	res := s.db.Model(&tableRow{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Orders lists every order, newest first
func (s *Store) Orders() ([]models.Order, error) {
	return s.findOrders(s.db.Order("created_at desc"))
}

// ActiveOrders lists pending, preparing and ready orders, oldest first
func (s *Store) ActiveOrders() ([]models.Order, error) {
	active := []string{
		string(models.OrderStatusPending),
		string(models.OrderStatusPreparing),
		string(models.OrderStatusReady),
	}
	return s.findOrders(s.db.Where("status IN (?)", active).Order("created_at"))
}

func (s *Store) findOrders(q *gorm.DB) ([]models.Order, error) {
	var rows []orderRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.model()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// CreateOrder stores a pending order with a computed total and marks its
// table occupied
func (s *Store) CreateOrder(req models.CreateOrderRequest) (models.Order, error) {
	items, err := json.Marshal(req.Items)
	if err != nil {
		return models.Order{}, fmt.Errorf("encode items: %w", err)
	}
	now := s.now()
	row := orderRow{
		ID:              uuid.NewString(),
		TableNumber:     req.TableNumber,
		Items:           string(items),
		Status:          string(models.OrderStatusPending),
		TotalAmount:     models.SumItems(req.Items).String(),
		WaiterName:      req.WaiterName,
		SpecialRequests: req.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return setTableStatusByNumber(tx, req.TableNumber, models.TableStatusOccupied)
	})
	if err != nil {
		return models.Order{}, err
	}
	return row.model()
}

// UpdateOrderStatus sets the status of an order. Delivering an order frees
// its table.
func (s *Store) UpdateOrderStatus(id string, status models.OrderStatus) (models.Order, error) {
	var row orderRow
	err := s.transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		row.Status = string(status)
		row.UpdatedAt = s.now()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		if status == models.OrderStatusDelivered {
			return setTableStatusByNumber(tx, row.TableNumber, models.TableStatusAvailable)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, notFound(err)
	}
	return row.model()
}

// CancelOrder marks an order cancelled and frees its table
func (s *Store) CancelOrder(id string) (models.Order, error) {
	var row orderRow
	err := s.transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		row.Status = string(models.OrderStatusCancelled)
		row.UpdatedAt = s.now()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		return setTableStatusByNumber(tx, row.TableNumber, models.TableStatusAvailable)
	})
	if err != nil {
		return models.Order{}, notFound(err)
	}
	return row.model()
}

type statusCount struct {
	Status string
	Count  int
}

// Stats aggregates order and table counts by status and the revenue of
// orders delivered today (UTC)
func (s *Store) Stats() (models.DashboardStats, error) {
	now := s.now()
	stats := models.DashboardStats{
		Orders:       map[models.OrderStatus]int{},
		Tables:       map[models.TableStatus]int{},
		TodayRevenue: decimal.Zero,
		Timestamp:    models.StatsTimestamp(now),
	}

	var orderCounts, tableCounts []statusCount
	if err := s.db.Model(&orderRow{}).Select("status, count(*) as count").Group("status").Scan(&orderCounts).Error; err != nil {
		return models.DashboardStats{}, err
	}
	if err := s.db.Model(&tableRow{}).Select("status, count(*) as count").Group("status").Scan(&tableCounts).Error; err != nil {
		return models.DashboardStats{}, err
	}
	for _, c := range orderCounts {
		stats.Orders[models.OrderStatus(c.Status)] = c.Count
	}
	for _, c := range tableCounts {
		stats.Tables[models.TableStatus(c.Status)] = c.Count
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var delivered []orderRow
	err := s.db.Where("status = ? AND created_at >= ?", string(models.OrderStatusDelivered), dayStart).
		Find(&delivered).Error
	if err != nil {
		return models.DashboardStats{}, err
	}
	for _, row := range delivered {
		amount, err := decimal.NewFromString(row.TotalAmount)
		if err != nil {
			return models.DashboardStats{}, fmt.Errorf("order %s total: %w", row.ID, err)
		}
		stats.TodayRevenue = stats.TodayRevenue.Add(amount)
	}
	return stats, nil
}

func (s *Store) transaction(fn func(tx *gorm.DB) error) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func setTableStatusByNumber(tx *gorm.DB, number int, status models.TableStatus) error {
	return tx.Model(&tableRow{}).Where("number = ?", number).Update("status", string(status)).Error
}

func notFound(err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	return err
}

func (r menuItemRow) model() models.MenuItem {
	price, _ := decimal.NewFromString(r.Price)
	return models.MenuItem{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       price,
		Image:       r.Image,
		Available:   r.Available,
	}
}

func (r tableRow) model() models.Table {
	return models.Table{
		ID:               r.ID,
		Number:           r.Number,
		Capacity:         r.Capacity,
		Status:           models.TableStatus(r.Status),
		CurrentCustomers: r.CurrentCustomers,
	}
}

func (r orderRow) model() (models.Order, error) {
	var items []models.OrderItem
	if err := json.Unmarshal([]byte(r.Items), &items); err != nil {
		return models.Order{}, fmt.Errorf("order %s items: %w", r.ID, err)
	}
	total, err := decimal.NewFromString(r.TotalAmount)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %s total: %w", r.ID, err)
	}
	return models.Order{
		ID:              r.ID,
		TableNumber:     r.TableNumber,
		Items:           items,
		Status:          models.OrderStatus(r.Status),
		TotalAmount:     total,
		WaiterName:      r.WaiterName,
		CreatedAt:       models.NewTimestamp(r.CreatedAt),
		UpdatedAt:       models.NewTimestamp(r.UpdatedAt),
		SpecialRequests: r.SpecialRequests,
	}, nil
}
