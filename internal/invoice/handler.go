package invoice

import (
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/invoices
// Suppliers see their own invoices, warehouse staff those of their
// warehouse's orders, admins everything.
func ListInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("Order").Order("id DESC")
		switch {
		case actor.HasRole(models.RoleSupplier):
			if actor.SupplierID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a supplier")
			}
			query = query.Where("supplier_id = ?", *actor.SupplierID)
		case actor.HasRole(models.RoleWarehouseStaff):
			if actor.WarehouseID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a warehouse")
			}
			query = query.Joins("JOIN orders ON orders.id = invoices.order_id").
				Where("orders.warehouse_id = ?", *actor.WarehouseID)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("invoices.status = ?", status)
		}

		var invoices []models.Invoice
		if err := query.Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list invoices")
		}
		return c.JSON(invoices)
	}
}

// GET /api/invoices/:id
func GetInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid invoice id")
		}

		var inv models.Invoice
		if err := database.DB.Preload("Order.Items").First(&inv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		}

		if actor.HasRole(models.RoleSupplier) && !actor.OwnsSupplier(inv.SupplierID) {
			return fiber.NewError(fiber.StatusForbidden, "Invoice belongs to another supplier")
		}
		if actor.HasRole(models.RoleWarehouseStaff) && !actor.OwnsWarehouse(inv.Order.WarehouseID) {
			return fiber.NewError(fiber.StatusForbidden, "Invoice belongs to another warehouse")
		}

		return c.JSON(inv)
	}
}
