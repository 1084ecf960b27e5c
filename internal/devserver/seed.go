package devserver

import (
	"cafeteria/internal/models"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Seed messages returned by init-data
const (
	SeedAlreadyDone = "Data already initialized"
	SeedDone        = "Default data initialized successfully"
)

// DefaultTableCount tables of DefaultTableCapacity seats are created by Seed
const (
	DefaultTableCount    = 10
	DefaultTableCapacity = 4
)

type seedItem struct {
	name, description, price, category string
}

var defaultMenu = []seedItem{
	{"Café Expresso", "Café forte e encorpado", "3.50", "Bebidas Quentes"},
	{"Cappuccino", "Café com leite vaporizado e espuma", "5.00", "Bebidas Quentes"},
	{"Latte", "Café com muito leite vaporizado", "5.50", "Bebidas Quentes"},
	{"Mocha", "Café com chocolate e chantilly", "6.00", "Bebidas Quentes"},
	{"Suco de Laranja", "Suco natural de laranja", "4.00", "Bebidas Frias"},
	{"Smoothie de Frutas", "Smoothie com frutas da estação", "7.00", "Bebidas Frias"},
	{"Pão na Chapa", "Pão francês na chapa com manteiga", "4.50", "Lanches"},
	{"Sanduíche Natural", "Sanduíche com peito de peru e salada", "8.00", "Lanches"},
	{"Croissant", "Croissant fresco com geleia", "5.50", "Lanches"},
	{"Bolo de Chocolate", "Fatia de bolo de chocolate caseiro", "6.50", "Sobremesas"},
	{"Cheesecake", "Cheesecake de frutas vermelhas", "7.50", "Sobremesas"},
	{"Pudim", "Pudim de leite condensado", "5.00", "Sobremesas"},
}

// Seed creates the default menu and tables unless both already hold data.
// A collection that already holds rows is left alone. It returns the
// init-data message.
func (s *Store) Seed() (string, error) {
	var menuCount, tableCount int
	if err := s.db.Model(&menuItemRow{}).Count(&menuCount).Error; err != nil {
		return "", err
	}
	if err := s.db.Model(&tableRow{}).Count(&tableCount).Error; err != nil {
		return "", err
	}
	if menuCount > 0 && tableCount > 0 {
		return SeedAlreadyDone, nil
	}

	err := s.transaction(func(tx *gorm.DB) error {
		if menuCount == 0 {
			if err := s.seedMenu(tx); err != nil {
				return err
			}
		}
		if tableCount == 0 {
			return seedTables(tx)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return SeedDone, nil
}

func (s *Store) seedMenu(tx *gorm.DB) error {
	for _, item := range defaultMenu {
		row := menuItemRow{
			ID:          uuid.NewString(),
			Name:        item.name,
			Description: item.description,
			Category:    item.category,
			Price:       decimal.RequireFromString(item.price).StringFixed(2),
			Available:   true,
			CreatedAt:   s.now(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedTables(tx *gorm.DB) error {
	for n := 1; n <= DefaultTableCount; n++ {
		row := tableRow{
			ID:       uuid.NewString(),
			Number:   n,
			Capacity: DefaultTableCapacity,
			Status:   string(models.TableStatusAvailable),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
