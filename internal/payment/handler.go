package payment

import (
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StartPaymentRequest struct {
	OrderID uint   `json:"order_id"`
	Method  string `json:"method"`
}

// GET /api/payments
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("Order").
			Joins("JOIN orders ON orders.id = payments.order_id").
			Order("payments.id DESC")
		switch {
		case actor.HasRole(models.RoleWarehouseStaff):
			if actor.WarehouseID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a warehouse")
			}
			query = query.Where("orders.warehouse_id = ?", *actor.WarehouseID)
		case actor.HasRole(models.RoleSupplier):
			if actor.SupplierID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a supplier")
			}
			query = query.Where("orders.supplier_id = ?", *actor.SupplierID)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("payments.status = ?", status)
		}

		var payments []models.Payment
		if err := query.Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list payments")
		}
		return c.JSON(payments)
	}
}

// POST /api/payments
func StartPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		var req StartPaymentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		p, err := Start(database.DB, actor, req.OrderID, models.PaymentMethod(req.Method))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// POST /api/payments/:id/capture
func CapturePaymentHandler() fiber.Handler {
	return paymentAction(Capture)
}

// POST /api/payments/:id/fail
func FailPaymentHandler() fiber.Handler {
	return paymentAction(Fail)
}

// POST /api/payments/:id/cancel
func CancelPaymentHandler() fiber.Handler {
	return paymentAction(Cancel)
}

func paymentAction(step func(db *gorm.DB, actor auth.Actor, paymentID uint) (*models.Payment, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payment id")
		}
		p, err := step(database.DB, actor, uint(id))
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}
