package models

import "time"

type Supplier struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyName string `gorm:"size:100;not null"`
	ContactName string `gorm:"size:100"`
	Email       string `gorm:"size:100"`
	Phone       string `gorm:"size:20"`
	Address     string `gorm:"size:200"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Products []Product `gorm:"foreignKey:SupplierID"`
}
