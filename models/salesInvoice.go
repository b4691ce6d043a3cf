package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalesInvoice is a point-of-sale receipt for finished items. Sold items leave
// stock in the same transaction that creates the invoice.
type SalesInvoice struct {
	ID             int                  `gorm:"primary_key" json:"id"`
	CompanyId      string               `gorm:"index;size:36;not null;uniqueIndex:idx_invoice_number,priority:1" json:"company_id"`
	InvoiceNumber  string               `gorm:"size:50;not null;uniqueIndex:idx_invoice_number,priority:2" json:"invoice_number"`
	CustomerName   string               `gorm:"size:255" json:"customer_name"`
	CustomerPhone  string               `gorm:"size:20" json:"customer_phone"`
	TotalAmount    decimal.Decimal      `gorm:"type:decimal(20,2);not null" json:"total_amount"`
	DiscountAmount decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"discount_amount"`
	SaleDate       time.Time            `gorm:"index;not null" json:"sale_date"`
	WarehouseId    int                  `gorm:"index;not null" json:"warehouse_id"`
	Details        []SalesInvoiceDetail `gorm:"foreignKey:SalesInvoiceId" json:"details"`
	CreatedBy      int                  `gorm:"not null" json:"created_by"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

type SalesInvoiceDetail struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;size:36;not null" json:"company_id"`
	SalesInvoiceId  int             `gorm:"index;not null" json:"sales_invoice_id"`
	InventoryItemId int             `gorm:"index;not null" json:"inventory_item_id"`
	Barcode         string          `gorm:"size:50;not null" json:"barcode"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"sale_price"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type POSSaleItem struct {
	InventoryItemId int             `json:"inventory_item_id" binding:"required"`
	SalePrice       decimal.Decimal `json:"sale_price" binding:"required"`
}

type NewPOSSale struct {
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  string          `json:"customer_phone"`
	WarehouseId    int             `json:"warehouse_id" binding:"required"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Items          []POSSaleItem   `json:"items" binding:"required"`
}

func invoiceCounterKey(companyId string) string {
	return fmt.Sprintf("invoice_seq:%s", companyId)
}

// nextInvoiceNumber allocates INV-{seq}. The Redis counter is authoritative;
// on a cold cache it is seeded from the DB row count under a company lock so
// two instances cannot hand out the same number. Without the lock no number is
// allocated; the unique index on (company_id, invoice_number) backstops any
// allocation that slips through anyway.
func nextInvoiceNumber(ctx context.Context, tx *gorm.DB, companyId string) (string, error) {

	release, err := utils.CompanyLock(ctx, companyId, "invoice_seq", "salesInvoice.go", "nextInvoiceNumber")
	if err != nil {
		return "", err
	}
	defer release()

	var dbCount int64
	if err := tx.Model(&SalesInvoice{}).
		Where("company_id = ?", companyId).
		Count(&dbCount).Error; err != nil {
		return "", err
	}
	if err := config.SetRedisCounterIfHigher(ctx, invoiceCounterKey(companyId), dbCount); err != nil {
		return "", err
	}

	seq, err := config.GetRedisCounter(ctx, invoiceCounterKey(companyId))
	if err != nil {
		return "", err
	}
	if seq == 0 {
		return "", errors.New("invoice counter unavailable")
	}
	return fmt.Sprintf("INV-%06d", seq), nil
}

// POSConfirmSale sells a set of in-stock items in one transaction: allocates
// the invoice number, writes the invoice and details, and marks each item
// sold. Any item not in stock at the given warehouse aborts the whole sale.
func POSConfirmSale(ctx context.Context, input *NewPOSSale) (*SalesInvoice, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	if len(input.Items) == 0 {
		return nil, errors.New("sale must contain at least one item")
	}
	if input.DiscountAmount.IsNegative() {
		return nil, errors.New("discount must not be negative")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, companyId, input.WarehouseId); err != nil {
		return nil, errors.New("warehouse not found")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	invoiceNumber, err := nextInvoiceNumber(ctx, tx, companyId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	total := decimal.Zero
	invoice := SalesInvoice{
		CompanyId:      companyId,
		InvoiceNumber:  invoiceNumber,
		CustomerName:   input.CustomerName,
		CustomerPhone:  input.CustomerPhone,
		DiscountAmount: input.DiscountAmount,
		SaleDate:       time.Now().UTC(),
		WarehouseId:    input.WarehouseId,
		CreatedBy:      userId,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		if isDuplicateKeyErr(err) {
			return nil, errors.New("invoice number already allocated, retry the sale")
		}
		return nil, err
	}

	for _, saleItem := range input.Items {
		if saleItem.SalePrice.IsNegative() {
			tx.Rollback()
			return nil, errors.New("sale price must not be negative")
		}

		var item InventoryItem
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_id = ? AND id = ? AND status = ? AND warehouse_id = ?",
				companyId, saleItem.InventoryItemId, InventoryItemStatusInStock, input.WarehouseId).
			First(&item).Error
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("item %d is not in stock at the selected warehouse", saleItem.InventoryItemId)
		}

		if err := tx.Model(&InventoryItem{}).
			Where("id = ?", item.ID).
			Update("status", InventoryItemStatusSold).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		detail := SalesInvoiceDetail{
			CompanyId:       companyId,
			SalesInvoiceId:  invoice.ID,
			InventoryItemId: item.ID,
			Barcode:         item.Barcode,
			SalePrice:       saleItem.SalePrice,
		}
		if err := tx.Create(&detail).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		invoice.Details = append(invoice.Details, detail)
		total = total.Add(saleItem.SalePrice)
	}

	invoice.TotalAmount = total.Sub(input.DiscountAmount).Round(2)
	if err := tx.Model(&SalesInvoice{}).
		Where("id = ?", invoice.ID).
		Update("total_amount", invoice.TotalAmount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := saveStockMovement(tx, invoice.ID, MovementRefSale, "C", &invoice); err != nil {
		tx.Rollback()
		return nil, err
	}
	desc := fmt.Sprintf("Invoice %s confirmed for %d items.", invoice.InvoiceNumber, len(invoice.Details))
	if err := SaveHistoryCreate(tx, invoice.ID, "SalesInvoice", &invoice, desc); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetSalesInvoice(ctx context.Context, id int) (*SalesInvoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[SalesInvoice](ctx, companyId, id, "Details")
}
