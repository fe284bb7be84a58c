package order

import (
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateOrderRequest struct {
	SupplierID uint   `json:"supplier_id"`
	Notes      string `json:"notes"`
	ProductID  uint   `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

type ItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type ShipRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

type PayRequest struct {
	Method string `json:"method"`
}

// POST /api/orders
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		var req CreateOrderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		o, err := CreateDraft(database.DB, actor, CreateDraftInput{
			SupplierID:      req.SupplierID,
			Notes:           req.Notes,
			InitialProduct:  req.ProductID,
			InitialQuantity: req.Quantity,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

// GET /api/orders
// Role-scoped listing with optional status and supplier-name filtering,
// plus per-status counts for the caller's scope.
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		base := database.DB.Model(&models.Order{})
		switch {
		case actor.HasRole(models.RoleWarehouseStaff):
			if actor.WarehouseID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a warehouse")
			}
			base = base.Where("orders.warehouse_id = ?", *actor.WarehouseID)
		case actor.HasRole(models.RoleSupplier):
			if actor.SupplierID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a supplier")
			}
			base = base.Where("orders.supplier_id = ? AND orders.status <> ?", *actor.SupplierID, models.OrderStatusDraft)
		}

		type statusCount struct {
			Status models.OrderStatus `json:"status"`
			Count  int64              `json:"count"`
		}
		var counts []statusCount
		if err := base.Session(&gorm.Session{}).
			Select("orders.status AS status, COUNT(*) AS count").
			Group("orders.status").
			Scan(&counts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count orders")
		}

		query := base.Session(&gorm.Session{}).
			Preload("Items").Preload("Supplier").Preload("Warehouse").
			Order("orders.id DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("orders.status = ?", status)
		}
		if search := c.Query("search"); search != "" {
			query = query.Joins("JOIN suppliers ON suppliers.id = orders.supplier_id").
				Where("suppliers.company_name LIKE ?", "%"+search+"%")
		}

		var orders []models.Order
		if err := query.Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list orders")
		}
		return c.JSON(fiber.Map{
			"orders": orders,
			"counts": counts,
		})
	}
}

// GET /api/orders/:id
// Detail view with shipments, payments, invoice and the amount still due.
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}

		o, err := Get(database.DB, actor, uint(id))
		if err != nil {
			return err
		}

		var shipments []models.Shipment
		if err := database.DB.Where("order_id = ?", o.ID).Order("id ASC").Find(&shipments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load shipments")
		}
		var payments []models.Payment
		if err := database.DB.Where("order_id = ?", o.ID).Order("id ASC").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load payments")
		}
		var inv *models.Invoice
		var found models.Invoice
		if err := database.DB.Where("order_id = ?", o.ID).First(&found).Error; err == nil {
			inv = &found
		}

		paid := 0.0
		for _, p := range payments {
			if p.Status == models.PaymentStatusCaptured {
				paid += p.Amount
			}
		}
		due := o.TotalAmount() - paid
		if due < 0 {
			due = 0
		}

		return c.JSON(fiber.Map{
			"order":      o,
			"shipments":  shipments,
			"payments":   payments,
			"invoice":    inv,
			"amount_due": due,
		})
	}
}

// POST /api/orders/:id/submit
func SubmitHandler() fiber.Handler {
	return simpleTransition(Submit)
}

// POST /api/orders/:id/approve
func ApproveHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		var req NotesRequest
		_ = c.BodyParser(&req)
		o, err := Approve(database.DB, actor, uint(id), req.Notes)
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// POST /api/orders/:id/reject
func RejectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		var req NotesRequest
		_ = c.BodyParser(&req)
		o, err := Reject(database.DB, actor, uint(id), req.Notes)
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// POST /api/orders/:id/send
func SendToSupplierHandler() fiber.Handler {
	return simpleTransition(SendToSupplier)
}

// POST /api/orders/:id/confirm
func SupplierConfirmHandler() fiber.Handler {
	return simpleTransition(SupplierConfirm)
}

// POST /api/orders/:id/start-processing
func SupplierStartProcessingHandler() fiber.Handler {
	return simpleTransition(SupplierStartProcessing)
}

// POST /api/orders/:id/process
func ProcessHandler() fiber.Handler {
	return simpleTransition(Process)
}

// POST /api/orders/:id/ship
func ShipHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		var req ShipRequest
		_ = c.BodyParser(&req)
		o, err := Ship(database.DB, actor, uint(id), req.TrackingNumber)
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// POST /api/orders/:id/cancel
func CancelHandler() fiber.Handler {
	return simpleTransition(Cancel)
}

// POST /api/orders/:id/pay
func PayHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		var req PayRequest
		_ = c.BodyParser(&req)
		o, err := Pay(database.DB, actor, uint(id), req.Method)
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// POST /api/orders/:id/items
func AddItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		var req ItemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		o, err := AddItem(database.DB, actor, uint(id), req.ProductID, req.Quantity)
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// PATCH /api/orders/:id/items/:productId
// Body quantity is a signed delta; zero or below removes the line.
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		productID, err := c.ParamsInt("productId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}
		var req ItemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		o, err := UpdateItemQuantity(database.DB, actor, uint(id), uint(productID), req.Quantity)
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// DELETE /api/orders/:id/items/:productId
func RemoveItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		productID, err := c.ParamsInt("productId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}
		o, err := RemoveItem(database.DB, actor, uint(id), uint(productID))
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// DELETE /api/orders/:id
func DeleteOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		if err := Delete(database.DB, actor, uint(id)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Order deleted"})
	}
}

// simpleTransition adapts a no-argument lifecycle step to a route.
func simpleTransition(step func(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		o, err := step(database.DB, actor, uint(id))
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}
