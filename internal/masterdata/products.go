package masterdata

import (
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductRequest struct {
	SupplierID    uint    `json:"supplier_id"`
	Name          string  `json:"name"`
	SKU           string  `json:"sku"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	StockQuantity *int    `json:"stock_quantity"`
	ReorderLevel  *int    `json:"reorder_level"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	IsActive      *bool   `json:"is_active"`
}

// Suppliers manage only their own catalog; admins manage all of it.
func productScope(actor auth.Actor, supplierID uint) error {
	if actor.HasRole(models.RoleAdmin) {
		return nil
	}
	if actor.HasRole(models.RoleSupplier) && actor.OwnsSupplier(supplierID) {
		return nil
	}
	return fiber.NewError(fiber.StatusForbidden, "Product belongs to another supplier")
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Preload("Supplier").Order("name ASC")
		if supplierID := c.QueryInt("supplier_id"); supplierID > 0 {
			query = query.Where("supplier_id = ?", supplierID)
		}
		if search := c.Query("search"); search != "" {
			query = query.Where("name LIKE ? OR sku LIKE ?", "%"+search+"%", "%"+search+"%")
		}
		if c.Query("active") == "true" {
			query = query.Where("is_active = ?", true)
		}
		var products []models.Product
		if err := query.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}
		return c.JSON(products)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}
		var product models.Product
		if err := database.DB.Preload("Supplier").First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return c.JSON(product)
	}
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		var req ProductRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		// Supplier users always create under their own supplier.
		if actor.HasRole(models.RoleSupplier) {
			if actor.SupplierID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a supplier")
			}
			req.SupplierID = *actor.SupplierID
		}
		if err := productScope(actor, req.SupplierID); err != nil {
			return err
		}
		if req.Name == "" || req.SupplierID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Name and supplier_id are required")
		}
		if req.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Price cannot be negative")
		}

		product := models.Product{
			SupplierID:    req.SupplierID,
			Name:          req.Name,
			SKU:           req.SKU,
			Description:   req.Description,
			Price:         req.Price,
			UnitOfMeasure: req.UnitOfMeasure,
			IsActive:      true,
		}
		if req.StockQuantity != nil {
			if *req.StockQuantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Stock quantity cannot be negative")
			}
			product.StockQuantity = *req.StockQuantity
		}
		if req.ReorderLevel != nil {
			product.ReorderLevel = *req.ReorderLevel
		}
		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}
		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// PUT /api/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}
		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		if err := productScope(actor, product.SupplierID); err != nil {
			return err
		}

		var req ProductRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Name != "" {
			product.Name = req.Name
		}
		if req.SKU != "" {
			product.SKU = req.SKU
		}
		if req.Description != "" {
			product.Description = req.Description
		}
		if req.Price > 0 {
			product.Price = req.Price
		}
		if req.StockQuantity != nil {
			if *req.StockQuantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Stock quantity cannot be negative")
			}
			product.StockQuantity = *req.StockQuantity
		}
		if req.ReorderLevel != nil {
			product.ReorderLevel = *req.ReorderLevel
		}
		if req.UnitOfMeasure != "" {
			product.UnitOfMeasure = req.UnitOfMeasure
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}
		return c.JSON(product)
	}
}

// DELETE /api/products/:id
// Products that appear on orders are deactivated instead of removed.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}
		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		if err := productScope(actor, product.SupplierID); err != nil {
			return err
		}

		var itemCount int64
		if err := database.DB.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&itemCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check product usage")
		}
		if itemCount > 0 {
			if err := database.DB.Model(&product).Update("is_active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate product")
			}
			return c.JSON(fiber.Map{"message": "Product is referenced by orders and was deactivated"})
		}

		if err := database.DB.Delete(&models.Product{}, id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product")
		}
		return c.JSON(fiber.Map{"message": "Product deleted"})
	}
}
