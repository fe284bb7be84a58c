package stock

import (
	"time"

	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateInventoryRequest struct {
	ProductID       uint   `json:"product_id"`
	WarehouseID     *uint  `json:"warehouse_id"` // admin only; staff use their own
	QuantityOnHand  int    `json:"quantity_on_hand"`
	DamagedQuantity int    `json:"damaged_quantity"`
	ReorderLevel    int    `json:"reorder_level"`
	Aisle           string `json:"aisle"`
	Shelf           string `json:"shelf"`
	Bin             string `json:"bin"`
	ExpiryDate      string `json:"expiry_date"` // "2006-01-02", optional
}

type UpdateInventoryRequest struct {
	QuantityOnHand  *int    `json:"quantity_on_hand"`
	DamagedQuantity *int    `json:"damaged_quantity"`
	ReorderLevel    *int    `json:"reorder_level"`
	Aisle           *string `json:"aisle"`
	Shelf           *string `json:"shelf"`
	Bin             *string `json:"bin"`
}

type InventoryResponse struct {
	ID                uint   `json:"id"`
	WarehouseID       uint   `json:"warehouse_id"`
	ProductID         uint   `json:"product_id"`
	ProductName       string `json:"product_name"`
	QuantityOnHand    int    `json:"quantity_on_hand"`
	DamagedQuantity   int    `json:"damaged_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	ReorderLevel      int    `json:"reorder_level"`
	NeedsReorder      bool   `json:"needs_reorder"`
	Aisle             string `json:"aisle"`
	Shelf             string `json:"shelf"`
	Bin               string `json:"bin"`
}

func toInventoryResponse(inv *models.Inventory) InventoryResponse {
	return InventoryResponse{
		ID:                inv.ID,
		WarehouseID:       inv.WarehouseID,
		ProductID:         inv.ProductID,
		ProductName:       inv.Product.Name,
		QuantityOnHand:    inv.QuantityOnHand,
		DamagedQuantity:   inv.DamagedQuantity,
		AvailableQuantity: inv.AvailableQuantity(),
		ReorderLevel:      inv.ReorderLevel,
		NeedsReorder:      inv.NeedsReorder(),
		Aisle:             inv.Aisle,
		Shelf:             inv.Shelf,
		Bin:               inv.Bin,
	}
}

// resolveWarehouseID picks the warehouse scope for the request: staff are
// pinned to their own warehouse, admins may select one.
func resolveWarehouseID(c *fiber.Ctx, actor auth.Actor, requested *uint) (uint, error) {
	if actor.HasRole(models.RoleWarehouseStaff) {
		if actor.WarehouseID == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a warehouse")
		}
		return *actor.WarehouseID, nil
	}
	if requested != nil {
		return *requested, nil
	}
	return 0, fiber.NewError(fiber.StatusBadRequest, "warehouse_id is required")
}

// GET /api/inventories
func ListInventoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("Product").Order("id ASC")
		if actor.HasRole(models.RoleWarehouseStaff) {
			if actor.WarehouseID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a warehouse")
			}
			query = query.Where("warehouse_id = ?", *actor.WarehouseID)
		} else if wid := c.QueryInt("warehouse_id", 0); wid > 0 {
			query = query.Where("warehouse_id = ?", wid)
		}

		var rows []models.Inventory
		if err := query.Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list inventories")
		}

		resp := make([]InventoryResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, toInventoryResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/inventories
func CreateInventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		var body CreateInventoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
		}
		if body.QuantityOnHand < 0 || body.DamagedQuantity < 0 || body.ReorderLevel < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantities cannot be negative")
		}

		warehouseID, err := resolveWarehouseID(c, actor, body.WarehouseID)
		if err != nil {
			return err
		}

		var existing models.Inventory
		if err := database.DB.Where("warehouse_id = ? AND product_id = ?", warehouseID, body.ProductID).
			First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Inventory row already exists for this warehouse and product")
		}

		inv := models.Inventory{
			WarehouseID:     warehouseID,
			ProductID:       body.ProductID,
			QuantityOnHand:  body.QuantityOnHand,
			DamagedQuantity: body.DamagedQuantity,
			ReorderLevel:    body.ReorderLevel,
			Aisle:           body.Aisle,
			Shelf:           body.Shelf,
			Bin:             body.Bin,
		}
		if body.ExpiryDate != "" {
			d, err := time.Parse("2006-01-02", body.ExpiryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "expiry_date must be 'YYYY-MM-DD'")
			}
			inv.ExpiryDate = &d
		}

		if err := database.DB.Create(&inv).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create inventory")
		}

		database.DB.Preload("Product").First(&inv, inv.ID)
		return c.Status(fiber.StatusCreated).JSON(toInventoryResponse(&inv))
	}
}

// PUT /api/inventories/:id
// Warehouse id is preserved server-side so staff cannot move rows between warehouses.
func UpdateInventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid inventory id")
		}

		var inv models.Inventory
		if err := database.DB.First(&inv, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Inventory not found")
		}

		if actor.HasRole(models.RoleWarehouseStaff) && !actor.OwnsWarehouse(inv.WarehouseID) {
			return fiber.NewError(fiber.StatusForbidden, "Inventory belongs to another warehouse")
		}

		var body UpdateInventoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		updates := map[string]interface{}{}
		if body.QuantityOnHand != nil {
			if *body.QuantityOnHand < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quantity_on_hand cannot be negative")
			}
			updates["quantity_on_hand"] = *body.QuantityOnHand
		}
		if body.DamagedQuantity != nil {
			if *body.DamagedQuantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "damaged_quantity cannot be negative")
			}
			updates["damaged_quantity"] = *body.DamagedQuantity
		}
		if body.ReorderLevel != nil {
			updates["reorder_level"] = *body.ReorderLevel
		}
		if body.Aisle != nil {
			updates["aisle"] = *body.Aisle
		}
		if body.Shelf != nil {
			updates["shelf"] = *body.Shelf
		}
		if body.Bin != nil {
			updates["bin"] = *body.Bin
		}

		if len(updates) > 0 {
			if err := database.DB.Model(&inv).Updates(updates).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update inventory")
			}
		}

		database.DB.Preload("Product").First(&inv, inv.ID)
		return c.JSON(toInventoryResponse(&inv))
	}
}

// GET /api/inventory-transactions
// Read-only view of the append-only movement log, with optional filters.
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("Product").Order("created_at DESC, id DESC").Limit(500)
		if actor.HasRole(models.RoleWarehouseStaff) {
			if actor.WarehouseID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a warehouse")
			}
			query = query.Where("warehouse_id = ?", *actor.WarehouseID)
		} else if wid := c.QueryInt("warehouse_id", 0); wid > 0 {
			query = query.Where("warehouse_id = ?", wid)
		}
		if pid := c.QueryInt("product_id", 0); pid > 0 {
			query = query.Where("product_id = ?", pid)
		}
		if txType := c.Query("type"); txType != "" {
			query = query.Where("type = ?", txType)
		}
		if from := c.Query("from"); from != "" {
			d, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from must be 'YYYY-MM-DD'")
			}
			query = query.Where("created_at >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to must be 'YYYY-MM-DD'")
			}
			query = query.Where("created_at < ?", d.AddDate(0, 0, 1))
		}

		var rows []models.InventoryTransaction
		if err := query.Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list inventory transactions")
		}
		return c.JSON(rows)
	}
}
