package shipment

import (
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateShipmentRequest struct {
	OrderID        uint   `json:"order_id"`
	Courier        string `json:"courier"`
	TrackingNumber string `json:"tracking_number"`
	InTransit      bool   `json:"in_transit"`
}

type UpdateShipmentRequest struct {
	Courier        *string `json:"courier"`
	TrackingNumber *string `json:"tracking_number"`
}

// GET /api/shipments
func ListShipmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("Order").
			Joins("JOIN orders ON orders.id = shipments.order_id").
			Order("shipments.id DESC")
		switch {
		case actor.HasRole(models.RoleSupplier):
			if actor.SupplierID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a supplier")
			}
			query = query.Where("orders.supplier_id = ?", *actor.SupplierID)
		case actor.HasRole(models.RoleWarehouseStaff):
			if actor.WarehouseID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a warehouse")
			}
			query = query.Where("orders.warehouse_id = ?", *actor.WarehouseID)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("shipments.status = ?", status)
		}

		var shipments []models.Shipment
		if err := query.Find(&shipments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list shipments")
		}
		return c.JSON(shipments)
	}
}

// GET /api/shipments/:id
func GetShipmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid shipment id")
		}

		var s models.Shipment
		if err := database.DB.Preload("Order").Preload("Order.Items").First(&s, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Shipment not found")
		}
		if actor.HasRole(models.RoleSupplier) && !actor.OwnsSupplier(s.Order.SupplierID) {
			return fiber.NewError(fiber.StatusForbidden, "Shipment belongs to another supplier")
		}
		if actor.HasRole(models.RoleWarehouseStaff) && !actor.OwnsWarehouse(s.Order.WarehouseID) {
			return fiber.NewError(fiber.StatusForbidden, "Shipment belongs to another warehouse")
		}
		return c.JSON(s)
	}
}

// POST /api/shipments
func CreateShipmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		var req CreateShipmentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		s, err := Create(database.DB, actor, CreateInput{
			OrderID:        req.OrderID,
			Courier:        req.Courier,
			TrackingNumber: req.TrackingNumber,
			InTransit:      req.InTransit,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// PATCH /api/shipments/:id
func UpdateShipmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid shipment id")
		}
		var req UpdateShipmentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		s, err := Update(database.DB, actor, uint(id), UpdateInput{
			Courier:        req.Courier,
			TrackingNumber: req.TrackingNumber,
		})
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// POST /api/shipments/:id/ship
func MarkShippedHandler() fiber.Handler {
	return shipmentAction(MarkShipped)
}

// POST /api/shipments/:id/deliver
func MarkDeliveredHandler() fiber.Handler {
	return shipmentAction(MarkDelivered)
}

// POST /api/shipments/:id/delay
func MarkDelayedHandler() fiber.Handler {
	return shipmentAction(MarkDelayed)
}

// POST /api/shipments/:id/cancel
func CancelShipmentHandler() fiber.Handler {
	return shipmentAction(Cancel)
}

func shipmentAction(step func(db *gorm.DB, actor auth.Actor, shipmentID uint) (*models.Shipment, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid shipment id")
		}
		s, err := step(database.DB, actor, uint(id))
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}
