package models

import (
	"log"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &User{},
		&Product{}, &ProductVariation{},
		&InventoryLocation{},
		&StockSummary{}, &StockMovement{},
		&History{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
