package models

import "time"

type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleWarehouseStaff UserRole = "warehouse_staff"
	RoleSupplier       UserRole = "supplier"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	// Role linkage: warehouse staff belong to a warehouse, supplier users to a supplier.
	WarehouseID *uint
	Warehouse   *Warehouse
	SupplierID  *uint
	Supplier    *Supplier
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
