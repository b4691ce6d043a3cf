package models_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/models"
	"bitbucket.org/auricsoft/atelier_backend/utils"
)

// Regression: the memo and sales return flows against real MySQL + Redis.
// Run (requires Docker): INTEGRATION_TESTS=1 go test ./models -run MemoAndSalesReturn -v
func TestMemoAndSalesReturn_Lifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "atelier_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		LegalName:   "Memo Jewels Pvt Ltd",
		CompanyCode: "MEMO",
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	ctx = utils.SetCompanyIdInContext(ctx, company.ID)

	branch, err := models.CreateWarehouse(ctx, &models.NewWarehouse{
		WarehouseCode: "BR01",
		Name:          "Showroom",
		WarehouseType: models.WarehouseTypeBranch,
	})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		SupplierName: "Surat Gems",
		City:         "Surat",
		CreditDays:   30,
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	if _, err := models.CreateGoldBatch(ctx, &models.NewGoldBatch{
		BatchNumber:  "GB-SUP",
		PurityKarat:  "22K",
		TotalWeightG: d("50.000"),
		SupplierId:   supplier.ID,
		WarehouseId:  branch.ID,
	}); err != nil {
		t.Fatalf("CreateGoldBatch with supplier: %v", err)
	}
	if _, err := models.CreateGoldBatch(ctx, &models.NewGoldBatch{
		BatchNumber:  "GB-BADSUP",
		PurityKarat:  "22K",
		TotalWeightG: d("50.000"),
		SupplierId:   supplier.ID + 999,
		WarehouseId:  branch.ID,
	}); err == nil {
		t.Fatalf("batch with unknown supplier must fail")
	}

	db := config.GetDB()
	ring := models.InventoryItem{
		CompanyId:    company.ID,
		Barcode:      "RING-01",
		ItemName:     "Ring",
		GrossWeightG: d("5.000"),
		NetWeightG:   d("5.000"),
		Status:       models.InventoryItemStatusInStock,
		WarehouseId:  branch.ID,
		CreatedBy:    1,
	}
	chain := models.InventoryItem{
		CompanyId:    company.ID,
		Barcode:      "CHAIN-01",
		ItemName:     "Chain",
		GrossWeightG: d("12.000"),
		NetWeightG:   d("12.000"),
		Status:       models.InventoryItemStatusInStock,
		WarehouseId:  branch.ID,
		CreatedBy:    1,
	}
	if err := db.WithContext(ctx).Create(&ring).Error; err != nil {
		t.Fatalf("seed ring: %v", err)
	}
	if err := db.WithContext(ctx).Create(&chain).Error; err != nil {
		t.Fatalf("seed chain: %v", err)
	}

	// sell the ring, then take it back against the invoice
	invoice, err := models.POSConfirmSale(ctx, &models.NewPOSSale{
		CustomerName: "Asha",
		WarehouseId:  branch.ID,
		Items: []models.POSSaleItem{
			{InventoryItemId: ring.ID, SalePrice: d("45000.00")},
		},
	})
	if err != nil {
		t.Fatalf("POSConfirmSale: %v", err)
	}
	if invoice.InvoiceNumber != "INV-000001" {
		t.Fatalf("invoice number = %s, want INV-000001", invoice.InvoiceNumber)
	}

	ret, err := models.CompleteSalesReturn(ctx, &models.NewSalesReturn{
		ReturnNumber:     "SR-001",
		SalesInvoiceId:   invoice.ID,
		InventoryItemIds: []int{ring.ID},
		Reason:           "size exchange",
	})
	if err != nil {
		t.Fatalf("CompleteSalesReturn: %v", err)
	}
	if ret.RefundAmount.StringFixed(2) != "45000.00" {
		t.Fatalf("refund = %s, want 45000.00", ret.RefundAmount)
	}
	var freshRing models.InventoryItem
	if err := db.WithContext(ctx).First(&freshRing, ring.ID).Error; err != nil {
		t.Fatalf("reload ring: %v", err)
	}
	if freshRing.Status != models.InventoryItemStatusInStock {
		t.Fatalf("returned ring status = %s, want in_stock", freshRing.Status)
	}
	if freshRing.WarehouseId != branch.ID {
		t.Fatalf("returned ring warehouse = %d, want %d", freshRing.WarehouseId, branch.ID)
	}

	// the same item cannot be returned against the invoice twice
	if _, err := models.CompleteSalesReturn(ctx, &models.NewSalesReturn{
		ReturnNumber:     "SR-002",
		SalesInvoiceId:   invoice.ID,
		InventoryItemIds: []int{ring.ID},
	}); err == nil {
		t.Fatalf("double return must fail")
	}

	// an item out on memo is off limits to the POS
	memo, err := models.CreateMemo(ctx, &models.NewMemo{
		MemoNumber:       "MM-001",
		CustomerName:     "Bina",
		WarehouseId:      branch.ID,
		InventoryItemIds: []int{chain.ID},
	})
	if err != nil {
		t.Fatalf("CreateMemo: %v", err)
	}
	if memo.Status != models.MemoStatusOpen {
		t.Fatalf("memo status = %s, want open", memo.Status)
	}
	if _, err := models.POSConfirmSale(ctx, &models.NewPOSSale{
		WarehouseId: branch.ID,
		Items: []models.POSSaleItem{
			{InventoryItemId: chain.ID, SalePrice: d("80000.00")},
		},
	}); err == nil {
		t.Fatalf("selling an on-memo item must fail")
	}

	converted, err := models.ConvertMemoToSale(ctx, memo.ID, &models.MemoSaleInput{
		Items: []models.POSSaleItem{
			{InventoryItemId: chain.ID, SalePrice: d("78000.00")},
		},
	})
	if err != nil {
		t.Fatalf("ConvertMemoToSale: %v", err)
	}
	if converted.Status != models.MemoStatusConvertedToSale {
		t.Fatalf("memo status = %s, want converted_to_sale", converted.Status)
	}
	if converted.SalesInvoiceId == nil {
		t.Fatalf("converted memo must carry its invoice id")
	}
	if converted.TotalAmount.StringFixed(2) != "78000.00" {
		t.Fatalf("memo total = %s, want 78000.00", converted.TotalAmount)
	}
	var freshChain models.InventoryItem
	if err := db.WithContext(ctx).First(&freshChain, chain.ID).Error; err != nil {
		t.Fatalf("reload chain: %v", err)
	}
	if freshChain.Status != models.InventoryItemStatusSold {
		t.Fatalf("converted chain status = %s, want sold", freshChain.Status)
	}

	// a converted memo is settled; it cannot be converted or returned again
	if _, err := models.ConvertMemoToSale(ctx, memo.ID, &models.MemoSaleInput{
		Items: []models.POSSaleItem{
			{InventoryItemId: chain.ID, SalePrice: d("78000.00")},
		},
	}); err == nil {
		t.Fatalf("converting a settled memo must fail")
	}
	if _, err := models.ReturnMemo(ctx, memo.ID); err == nil {
		t.Fatalf("returning a settled memo must fail")
	}

	// returning an open memo puts the items straight back in stock
	memo2, err := models.CreateMemo(ctx, &models.NewMemo{
		MemoNumber:       "MM-002",
		WarehouseId:      branch.ID,
		InventoryItemIds: []int{ring.ID},
	})
	if err != nil {
		t.Fatalf("CreateMemo 2: %v", err)
	}
	returned, err := models.ReturnMemo(ctx, memo2.ID)
	if err != nil {
		t.Fatalf("ReturnMemo: %v", err)
	}
	if returned.Status != models.MemoStatusReturned {
		t.Fatalf("memo2 status = %s, want returned", returned.Status)
	}
	if err := db.WithContext(ctx).First(&freshRing, ring.ID).Error; err != nil {
		t.Fatalf("reload ring: %v", err)
	}
	if freshRing.Status != models.InventoryItemStatusInStock {
		t.Fatalf("ring after memo return status = %s, want in_stock", freshRing.Status)
	}

	open := models.MemoStatusOpen
	openMemos, err := models.ListMemos(ctx, &open)
	if err != nil {
		t.Fatalf("ListMemos: %v", err)
	}
	if len(openMemos) != 0 {
		t.Fatalf("open memos = %d, want 0", len(openMemos))
	}
}
