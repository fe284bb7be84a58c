package task

import (
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/tasks
func ListTasksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("Product").Order("status ASC, due_date ASC").Limit(200)
		if actor.HasRole(models.RoleWarehouseStaff) {
			if actor.WarehouseID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Your account is not linked to a warehouse")
			}
			query = query.Where("warehouse_id = ?", *actor.WarehouseID)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var tasks []models.WarehouseTask
		if err := query.Find(&tasks).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list warehouse tasks")
		}
		return c.JSON(tasks)
	}
}

// GET /api/tasks/my
// Tasks assigned to the caller plus unassigned tasks in their warehouse.
func MyTasksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		var tasks []models.WarehouseTask
		if err := database.DB.Preload("Product").
			Where("assigned_to_user_id = ? OR (assigned_to_user_id IS NULL AND warehouse_id = ?)", actor.UserID, actor.WarehouseID).
			Order("status ASC, due_date ASC").
			Limit(50).
			Find(&tasks).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list warehouse tasks")
		}
		return c.JSON(tasks)
	}
}

// POST /api/tasks/:id/start
func StartTaskHandler() fiber.Handler {
	return taskStatusHandler(models.TaskStatusInProgress)
}

// POST /api/tasks/:id/complete
func CompleteTaskHandler() fiber.Handler {
	return taskStatusHandler(models.TaskStatusDone)
}

// Starting or completing a task claims it for the acting staff member.
func taskStatusHandler(next models.WarehouseTaskStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid task id")
		}

		var t models.WarehouseTask
		if err := database.DB.First(&t, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Task not found")
		}

		if !actor.OwnsWarehouse(t.WarehouseID) {
			return fiber.NewError(fiber.StatusForbidden, "Task belongs to another warehouse")
		}

		t.Status = next
		t.AssignedToUserID = &actor.UserID
		if err := database.DB.Save(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update task")
		}
		return c.JSON(t)
	}
}
