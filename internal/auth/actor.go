package auth

import (
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Actor identifies the authenticated caller for authorization checks.
// Every lifecycle transition consults it before touching any state and
// fails closed when a check comes back false.
type Actor struct {
	UserID      uint
	Role        models.UserRole
	WarehouseID *uint
	SupplierID  *uint
}

func (a Actor) HasRole(role models.UserRole) bool {
	return a.Role == role
}

// OwnsWarehouse reports whether the actor is linked to the given warehouse.
func (a Actor) OwnsWarehouse(id uint) bool {
	return a.WarehouseID != nil && *a.WarehouseID == id
}

// OwnsSupplier reports whether the actor is linked to the given supplier.
func (a Actor) OwnsSupplier(id uint) bool {
	return a.SupplierID != nil && *a.SupplierID == id
}

// ActorFromContext rebuilds the Actor placed in locals by JWTMiddleware.
func ActorFromContext(c *fiber.Ctx) (Actor, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "User identity missing from request context")
	}
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "User role missing from request context")
	}

	actor := Actor{UserID: userID, Role: role}
	if w, ok := c.Locals(CtxWarehouseIDKey).(*uint); ok {
		actor.WarehouseID = w
	}
	if s, ok := c.Locals(CtxSupplierIDKey).(*uint); ok {
		actor.SupplierID = s
	}
	return actor, nil
}
