package masterdata

import (
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type WarehouseRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// GET /api/warehouses
func ListWarehousesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var warehouses []models.Warehouse
		if err := database.DB.Order("name ASC").Find(&warehouses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list warehouses")
		}
		return c.JSON(warehouses)
	}
}

// GET /api/warehouses/:id
func GetWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid warehouse id")
		}
		var warehouse models.Warehouse
		if err := database.DB.First(&warehouse, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Warehouse not found")
		}
		return c.JSON(warehouse)
	}
}

// POST /api/warehouses
func CreateWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req WarehouseRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Name == "" || req.Location == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name and location are required")
		}
		warehouse := models.Warehouse{
			Name:     req.Name,
			Location: req.Location,
			Phone:    req.Phone,
			Email:    req.Email,
		}
		if err := database.DB.Create(&warehouse).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create warehouse")
		}
		return c.Status(fiber.StatusCreated).JSON(warehouse)
	}
}

// PUT /api/warehouses/:id
func UpdateWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid warehouse id")
		}
		var warehouse models.Warehouse
		if err := database.DB.First(&warehouse, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Warehouse not found")
		}
		var req WarehouseRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Name != "" {
			warehouse.Name = req.Name
		}
		if req.Location != "" {
			warehouse.Location = req.Location
		}
		warehouse.Phone = req.Phone
		warehouse.Email = req.Email
		if err := database.DB.Save(&warehouse).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update warehouse")
		}
		return c.JSON(warehouse)
	}
}

// DELETE /api/warehouses/:id
// Refused while orders or inventory reference the warehouse.
func DeleteWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid warehouse id")
		}

		var orderCount int64
		if err := database.DB.Model(&models.Order{}).Where("warehouse_id = ?", id).Count(&orderCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check warehouse orders")
		}
		var invCount int64
		if err := database.DB.Model(&models.Inventory{}).Where("warehouse_id = ?", id).Count(&invCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check warehouse inventory")
		}
		if orderCount > 0 || invCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Warehouse is in use and cannot be deleted")
		}

		if err := database.DB.Delete(&models.Warehouse{}, id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete warehouse")
		}
		return c.JSON(fiber.Map{"message": "Warehouse deleted"})
	}
}
