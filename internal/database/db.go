package database

import (
	"log"

	"supplychain-backend/internal/config"
	"supplychain-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected, migration complete.")
}

// Migrate runs schema migration for every model. Split out so tests can
// run it against their own connection.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Warehouse{},
		&models.Supplier{},
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Inventory{},
		&models.InventoryTransaction{},
		&models.Shipment{},
		&models.WarehouseTask{},
		&models.Invoice{},
		&models.Payment{},
	)
}
