package persistence

import (
	"github.com/evmarket/backend/internal/infrastructure/event"
	"github.com/evmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AutoMigrate creates the settlement tables from the GORM models
func AutoMigrate(db *gorm.DB) error {
	for _, table := range []string{models.ChargingSessionsTable, models.FoodOrdersTable} {
		if err := db.Table(table).AutoMigrate(&models.TransactionModel{}); err != nil {
			return err
		}
	}
	return db.AutoMigrate(
		&models.VendorModel{},
		&models.SettlementModel{},
		&models.SettlementHoldModel{},
		&event.OutboxModel{},
	)
}
