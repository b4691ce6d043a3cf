package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// MemoTransaction sends finished items out on approval. Items move to on_memo
// while the memo is open so they cannot be sold or transferred underneath it;
// the memo then either converts into a sale or the items come back to stock.
type MemoTransaction struct {
	ID             int             `gorm:"primary_key" json:"id"`
	CompanyId      string          `gorm:"index;size:36;not null" json:"company_id"`
	MemoNumber     string          `gorm:"size:50;not null" json:"memo_number"`
	CustomerName   string          `gorm:"size:255" json:"customer_name"`
	CustomerPhone  string          `gorm:"size:20" json:"customer_phone"`
	WarehouseId    int             `gorm:"index;not null" json:"warehouse_id"`
	Status         MemoStatus      `gorm:"size:30;index;not null" json:"status"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	SalesInvoiceId *int            `gorm:"index" json:"sales_invoice_id"`
	Items          []MemoItem      `gorm:"foreignKey:MemoTransactionId" json:"items"`
	CreatedBy      int             `gorm:"not null" json:"created_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type MemoItem struct {
	ID                int       `gorm:"primary_key" json:"id"`
	CompanyId         string    `gorm:"index;size:36;not null" json:"company_id"`
	MemoTransactionId int       `gorm:"index;not null" json:"memo_transaction_id"`
	InventoryItemId   int       `gorm:"index;not null" json:"inventory_item_id"`
	Barcode           string    `gorm:"size:50;not null" json:"barcode"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewMemo struct {
	MemoNumber       string `json:"memo_number" binding:"required"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	WarehouseId      int    `json:"warehouse_id" binding:"required"`
	InventoryItemIds []int  `json:"inventory_item_ids" binding:"required"`
}

func (input *NewMemo) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateUnique[MemoTransaction](ctx, companyId, "memo_number", input.MemoNumber, 0); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, companyId, input.WarehouseId); err != nil {
		return errors.New("warehouse not found")
	}
	if len(input.InventoryItemIds) == 0 {
		return errors.New("memo must contain at least one item")
	}
	if err := utils.ValidateResourcesId[InventoryItem](ctx, companyId, input.InventoryItemIds); err != nil {
		return errors.New("one or more items not found")
	}
	return nil
}

// CreateMemo opens a memo and takes every item off the shelf. An item that is
// not in stock at the memo's warehouse aborts the whole memo.
func CreateMemo(ctx context.Context, input *NewMemo) (*MemoTransaction, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	itemIds := utils.UniqueSlice(input.InventoryItemIds)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var items []InventoryItem
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id IN ? AND status = ? AND warehouse_id = ?",
			companyId, itemIds, InventoryItemStatusInStock, input.WarehouseId).
		Find(&items).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(items) != len(itemIds) {
		tx.Rollback()
		return nil, errors.New("all items must be in stock at the memo warehouse")
	}

	memo := MemoTransaction{
		CompanyId:     companyId,
		MemoNumber:    input.MemoNumber,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		WarehouseId:   input.WarehouseId,
		Status:        MemoStatusOpen,
		CreatedBy:     userId,
	}
	if err := tx.Create(&memo).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, item := range items {
		res := tx.Model(&InventoryItem{}).
			Where("id = ? AND status = ?", item.ID, InventoryItemStatusInStock).
			Update("status", InventoryItemStatusOnMemo)
		if res.Error != nil {
			tx.Rollback()
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return nil, fmt.Errorf("item %d is no longer in stock", item.ID)
		}

		line := MemoItem{
			CompanyId:         companyId,
			MemoTransactionId: memo.ID,
			InventoryItemId:   item.ID,
			Barcode:           item.Barcode,
		}
		if err := tx.Create(&line).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		memo.Items = append(memo.Items, line)
	}

	if err := saveStockMovement(tx, memo.ID, MovementRefMemo, "C", &memo); err != nil {
		tx.Rollback()
		return nil, err
	}
	desc := fmt.Sprintf("Memo %s opened with %d items.", memo.MemoNumber, len(memo.Items))
	if err := SaveHistoryCreate(tx, memo.ID, "MemoTransaction", &memo, desc); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &memo, nil
}

// MemoSaleInput prices the memo items for conversion. Every item on the memo
// must be priced; a memo does not convert partially.
type MemoSaleInput struct {
	Items          []POSSaleItem   `json:"items" binding:"required"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// ConvertMemoToSale settles an open memo as a sale: allocates an invoice,
// writes its details from the memo lines, and marks the items sold.
func ConvertMemoToSale(ctx context.Context, id int, input *MemoSaleInput) (*MemoTransaction, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}
	if input.DiscountAmount.IsNegative() {
		return nil, errors.New("discount must not be negative")
	}

	priceByItem := make(map[int]decimal.Decimal, len(input.Items))
	for _, saleItem := range input.Items {
		if saleItem.SalePrice.IsNegative() {
			return nil, errors.New("sale price must not be negative")
		}
		priceByItem[saleItem.InventoryItemId] = saleItem.SalePrice
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var memo MemoTransaction
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, id).
		First(&memo).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	if memo.Status != MemoStatusOpen {
		tx.Rollback()
		return nil, errors.New("memo is not open")
	}

	var lines []MemoItem
	if err := tx.Where("memo_transaction_id = ?", memo.ID).Find(&lines).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(priceByItem) != len(lines) {
		tx.Rollback()
		return nil, errors.New("every memo item must be priced")
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
		CustomerName:   memo.CustomerName,
		CustomerPhone:  memo.CustomerPhone,
		DiscountAmount: input.DiscountAmount,
		SaleDate:       time.Now().UTC(),
		WarehouseId:    memo.WarehouseId,
		CreatedBy:      userId,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		if isDuplicateKeyErr(err) {
			return nil, errors.New("invoice number already allocated, retry the conversion")
		}
		return nil, err
	}

	for _, line := range lines {
		price, ok := priceByItem[line.InventoryItemId]
		if !ok {
			tx.Rollback()
			return nil, fmt.Errorf("item %d is not on this memo's price list", line.InventoryItemId)
		}

		res := tx.Model(&InventoryItem{}).
			Where("id = ? AND company_id = ? AND status = ?",
				line.InventoryItemId, companyId, InventoryItemStatusOnMemo).
			Update("status", InventoryItemStatusSold)
		if res.Error != nil {
			tx.Rollback()
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return nil, fmt.Errorf("item %d is not out on this memo", line.InventoryItemId)
		}

		detail := SalesInvoiceDetail{
			CompanyId:       companyId,
			SalesInvoiceId:  invoice.ID,
			InventoryItemId: line.InventoryItemId,
			Barcode:         line.Barcode,
			SalePrice:       price,
		}
		if err := tx.Create(&detail).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		invoice.Details = append(invoice.Details, detail)
		total = total.Add(price)
	}

	invoice.TotalAmount = total.Sub(input.DiscountAmount).Round(2)
	if err := tx.Model(&SalesInvoice{}).
		Where("id = ?", invoice.ID).
		Update("total_amount", invoice.TotalAmount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	before := memo
	memo.Status = MemoStatusConvertedToSale
	memo.SalesInvoiceId = &invoice.ID
	memo.TotalAmount = invoice.TotalAmount
	if err := tx.Model(&MemoTransaction{}).Where("id = ?", memo.ID).Updates(map[string]interface{}{
		"status":           memo.Status,
		"sales_invoice_id": memo.SalesInvoiceId,
		"total_amount":     memo.TotalAmount,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := saveStockMovement(tx, invoice.ID, MovementRefSale, "C", &invoice); err != nil {
		tx.Rollback()
		return nil, err
	}
	desc := fmt.Sprintf("Memo %s converted to invoice %s.", memo.MemoNumber, invoice.InvoiceNumber)
	if err := SaveHistoryUpdate(tx, memo.ID, "MemoTransaction", &before, &memo, desc); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	memo.Items = lines
	return &memo, nil
}

// ReturnMemo brings every item on an open memo back to stock at the memo's
// warehouse.
func ReturnMemo(ctx context.Context, id int) (*MemoTransaction, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var memo MemoTransaction
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, id).
		First(&memo).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	if memo.Status != MemoStatusOpen {
		tx.Rollback()
		return nil, errors.New("memo is not open")
	}

	var lines []MemoItem
	if err := tx.Where("memo_transaction_id = ?", memo.ID).Find(&lines).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, line := range lines {
		res := tx.Model(&InventoryItem{}).
			Where("id = ? AND company_id = ? AND status = ?",
				line.InventoryItemId, companyId, InventoryItemStatusOnMemo).
			Updates(map[string]interface{}{
				"status":       InventoryItemStatusInStock,
				"warehouse_id": memo.WarehouseId,
			})
		if res.Error != nil {
			tx.Rollback()
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return nil, fmt.Errorf("item %d is not out on this memo", line.InventoryItemId)
		}
	}

	before := memo
	memo.Status = MemoStatusReturned
	if err := tx.Model(&MemoTransaction{}).
		Where("id = ?", memo.ID).
		Update("status", memo.Status).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := saveStockMovement(tx, memo.ID, MovementRefMemo, "U", &memo); err != nil {
		tx.Rollback()
		return nil, err
	}
	desc := fmt.Sprintf("Memo %s returned, %d items back in stock.", memo.MemoNumber, len(lines))
	if err := SaveHistoryUpdate(tx, memo.ID, "MemoTransaction", &before, &memo, desc); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	memo.Items = lines
	return &memo, nil
}

func GetMemo(ctx context.Context, id int) (*MemoTransaction, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[MemoTransaction](ctx, companyId, id, "Items")
}

func ListMemos(ctx context.Context, status *MemoStatus) ([]*MemoTransaction, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	query := db.WithContext(ctx).Where("company_id = ?", companyId)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var memos []*MemoTransaction
	if err := query.Order("id DESC").Find(&memos).Error; err != nil {
		return nil, err
	}
	return memos, nil
}
