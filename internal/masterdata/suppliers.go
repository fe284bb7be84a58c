package masterdata

import (
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SupplierRequest struct {
	CompanyName string `json:"company_name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Order("company_name ASC")
		if search := c.Query("search"); search != "" {
			query = query.Where("company_name LIKE ?", "%"+search+"%")
		}
		var suppliers []models.Supplier
		if err := query.Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list suppliers")
		}
		return c.JSON(suppliers)
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid supplier id")
		}
		var supplier models.Supplier
		if err := database.DB.Preload("Products").First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		return c.JSON(supplier)
	}
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SupplierRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.CompanyName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Company name is required")
		}
		supplier := models.Supplier{
			CompanyName: req.CompanyName,
			ContactName: req.ContactName,
			Email:       req.Email,
			Phone:       req.Phone,
			Address:     req.Address,
		}
		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create supplier")
		}
		return c.Status(fiber.StatusCreated).JSON(supplier)
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid supplier id")
		}
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		var req SupplierRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.CompanyName != "" {
			supplier.CompanyName = req.CompanyName
		}
		supplier.ContactName = req.ContactName
		supplier.Email = req.Email
		supplier.Phone = req.Phone
		supplier.Address = req.Address
		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update supplier")
		}
		return c.JSON(supplier)
	}
}

// DELETE /api/suppliers/:id
// Refused while the supplier still has orders.
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		if !actor.HasRole(models.RoleAdmin) {
			return fiber.NewError(fiber.StatusForbidden, "Only admins can delete suppliers")
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid supplier id")
		}

		var orderCount int64
		if err := database.DB.Model(&models.Order{}).Where("supplier_id = ?", id).Count(&orderCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check supplier orders")
		}
		if orderCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Supplier has orders and cannot be deleted")
		}

		if err := database.DB.Delete(&models.Supplier{}, id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete supplier")
		}
		return c.JSON(fiber.Map{"message": "Supplier deleted"})
	}
}
