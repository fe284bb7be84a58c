package models

import "time"

type WarehouseTaskType string

const (
	TaskPutaway    WarehouseTaskType = "putaway"
	TaskPick       WarehouseTaskType = "pick"
	TaskCycleCount WarehouseTaskType = "cycle_count"
)

type WarehouseTaskStatus string

const (
	TaskStatusOpen       WarehouseTaskStatus = "open"
	TaskStatusInProgress WarehouseTaskStatus = "in_progress"
	TaskStatusDone       WarehouseTaskStatus = "done"
)

// WarehouseTask is a work item for warehouse staff. Putaway tasks are
// created automatically when a shipment is received into stock.
type WarehouseTask struct {
	ID               uint `gorm:"primaryKey"`
	WarehouseID      uint `gorm:"index;not null"`
	ProductID        uint `gorm:"index;not null"`
	Product          Product
	Quantity         int                 `gorm:"not null"`
	Bin              string              `gorm:"size:50"`
	Type             WarehouseTaskType   `gorm:"size:20;not null"`
	Status           WarehouseTaskStatus `gorm:"size:20;index;not null"`
	DueDate          *time.Time
	AssignedToUserID *uint
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
