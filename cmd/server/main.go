package main

import (
	"errors"
	"log"
	"strings"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/config"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/invoice"
	"supplychain-backend/internal/masterdata"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/order"
	"supplychain-backend/internal/payment"
	"supplychain-backend/internal/shipment"
	"supplychain-backend/internal/stock"
	"supplychain-backend/internal/task"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				body := fiber.Map{"error": appErr.Message()}
				if details := appErr.Details(); len(details) > 0 {
					body["details"] = details
				}
				return c.Status(appErr.StatusCode()).JSON(body)
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin-only routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler())
	adminRoutes.Post("/warehouses", masterdata.CreateWarehouseHandler())
	adminRoutes.Put("/warehouses/:id", masterdata.UpdateWarehouseHandler())
	adminRoutes.Delete("/warehouses/:id", masterdata.DeleteWarehouseHandler())
	adminRoutes.Post("/suppliers", masterdata.CreateSupplierHandler())
	adminRoutes.Put("/suppliers/:id", masterdata.UpdateSupplierHandler())
	adminRoutes.Delete("/suppliers/:id", masterdata.DeleteSupplierHandler())
	adminRoutes.Delete("/orders/:id", order.DeleteOrderHandler())

	// Master data reads
	protected.Get("/warehouses", masterdata.ListWarehousesHandler())
	protected.Get("/warehouses/:id", masterdata.GetWarehouseHandler())
	protected.Get("/suppliers", masterdata.ListSuppliersHandler())
	protected.Get("/suppliers/:id", masterdata.GetSupplierHandler())

	// Product catalog (suppliers manage their own, admins everything)
	protected.Get("/products", masterdata.ListProductsHandler())
	protected.Get("/products/:id", masterdata.GetProductHandler())
	protected.Post("/products", auth.RequireRole(models.RoleAdmin, models.RoleSupplier), masterdata.CreateProductHandler())
	protected.Put("/products/:id", auth.RequireRole(models.RoleAdmin, models.RoleSupplier), masterdata.UpdateProductHandler())
	protected.Delete("/products/:id", auth.RequireRole(models.RoleAdmin, models.RoleSupplier), masterdata.DeleteProductHandler())

	// Orders and the lifecycle
	protected.Post("/orders", auth.RequireRole(models.RoleWarehouseStaff), order.CreateOrderHandler())
	protected.Post("/orders/import", auth.RequireRole(models.RoleWarehouseStaff), order.ImportOrderHandler())
	protected.Get("/orders", order.ListOrdersHandler())
	protected.Get("/orders/:id", order.GetOrderHandler())

	protected.Post("/orders/:id/items", order.AddItemHandler())
	protected.Patch("/orders/:id/items/:productId", order.UpdateItemHandler())
	protected.Delete("/orders/:id/items/:productId", order.RemoveItemHandler())

	protected.Post("/orders/:id/submit", order.SubmitHandler())
	protected.Post("/orders/:id/approve", order.ApproveHandler())
	protected.Post("/orders/:id/reject", order.RejectHandler())
	protected.Post("/orders/:id/send", order.SendToSupplierHandler())
	protected.Post("/orders/:id/confirm", order.SupplierConfirmHandler())
	protected.Post("/orders/:id/start-processing", order.SupplierStartProcessingHandler())
	protected.Post("/orders/:id/process", order.ProcessHandler())
	protected.Post("/orders/:id/ship", order.ShipHandler())
	protected.Post("/orders/:id/cancel", order.CancelHandler())
	protected.Post("/orders/:id/pay", order.PayHandler())

	// Shipments
	protected.Get("/shipments", shipment.ListShipmentsHandler())
	protected.Get("/shipments/:id", shipment.GetShipmentHandler())
	protected.Post("/shipments", shipment.CreateShipmentHandler())
	protected.Patch("/shipments/:id", shipment.UpdateShipmentHandler())
	protected.Post("/shipments/:id/ship", shipment.MarkShippedHandler())
	protected.Post("/shipments/:id/deliver", shipment.MarkDeliveredHandler())
	protected.Post("/shipments/:id/delay", shipment.MarkDelayedHandler())
	protected.Post("/shipments/:id/cancel", shipment.CancelShipmentHandler())

	// Warehouse inventory and the transaction log
	protected.Get("/inventories", stock.ListInventoriesHandler())
	protected.Post("/inventories", stock.CreateInventoryHandler())
	protected.Put("/inventories/:id", stock.UpdateInventoryHandler())
	protected.Get("/inventory-transactions", stock.ListTransactionsHandler())

	// Warehouse tasks
	protected.Get("/tasks", task.ListTasksHandler())
	protected.Get("/tasks/my", task.MyTasksHandler())
	protected.Post("/tasks/:id/start", task.StartTaskHandler())
	protected.Post("/tasks/:id/complete", task.CompleteTaskHandler())

	// Invoices
	protected.Get("/invoices", invoice.ListInvoicesHandler())
	protected.Get("/invoices/:id", invoice.GetInvoiceHandler())

	// Payments (sandbox gateway)
	protected.Get("/payments", payment.ListPaymentsHandler())
	protected.Post("/payments", payment.StartPaymentHandler())
	protected.Post("/payments/:id/capture", payment.CapturePaymentHandler())
	protected.Post("/payments/:id/fail", payment.FailPaymentHandler())
	protected.Post("/payments/:id/cancel", payment.CancelPaymentHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
