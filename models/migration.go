package models

import (
	"log"

	"bitbucket.org/auricsoft/atelier_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Company{}, &AppUser{},
		&Warehouse{}, &Karigar{}, &Supplier{},
		&GoldBatch{}, &DiamondLot{},
		&JobBag{}, &GoldIssue{}, &DiamondIssue{},
		&GoldConsumption{}, &DiamondConsumption{},
		&InventoryItem{},
		&StockTransfer{}, &StockTransferItem{},
		&SalesInvoice{}, &SalesInvoiceDetail{},
		&MemoTransaction{}, &MemoItem{},
		&SalesReturn{}, &SalesReturnItem{},
		&StockMovementRecord{},
		&History{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
