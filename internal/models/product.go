package models

import "time"

// Product belongs to a single supplier. StockQuantity is the supplier-side
// stock counter: it is decremented exactly once per order, at supplier
// confirmation time.
type Product struct {
	ID            uint `gorm:"primaryKey"`
	SupplierID    uint `gorm:"index;not null"`
	Supplier      Supplier
	Name          string  `gorm:"size:150;not null"`
	SKU           string  `gorm:"size:50;index"`
	Description   string  `gorm:"size:500"`
	Price         float64 `gorm:"not null"`
	StockQuantity int     `gorm:"not null;default:0"`
	ReorderLevel  int     `gorm:"not null;default:10"`
	UnitOfMeasure string  `gorm:"size:20;default:pcs"`
	IsActive      bool    `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
