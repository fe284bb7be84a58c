package task

import (
	"time"

	"supplychain-backend/internal/models"

	"gorm.io/gorm"
)

// CreatePutaway appends a putaway work item for goods just received into
// stock. Runs inside the caller's transaction; no scheduling logic here.
func CreatePutaway(tx *gorm.DB, warehouseID, productID uint, qty int, bin string) error {
	due := time.Now().AddDate(0, 0, 1)
	t := models.WarehouseTask{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Quantity:    qty,
		Bin:         bin,
		Type:        models.TaskPutaway,
		Status:      models.TaskStatusOpen,
		DueDate:     &due,
	}
	return tx.Create(&t).Error
}
