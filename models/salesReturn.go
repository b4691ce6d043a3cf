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

// SalesReturn takes sold items back against their invoice. Returned items go
// back in stock at the invoice's warehouse and the refund is the sum of the
// prices they sold for.
type SalesReturn struct {
	ID             int               `gorm:"primary_key" json:"id"`
	CompanyId      string            `gorm:"index;size:36;not null" json:"company_id"`
	ReturnNumber   string            `gorm:"size:50;not null" json:"return_number"`
	SalesInvoiceId int               `gorm:"index;not null" json:"sales_invoice_id"`
	Reason         string            `gorm:"type:text" json:"reason"`
	RefundAmount   decimal.Decimal   `gorm:"type:decimal(20,2);not null" json:"refund_amount"`
	Items          []SalesReturnItem `gorm:"foreignKey:SalesReturnId" json:"items"`
	CreatedBy      int               `gorm:"not null" json:"created_by"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

type SalesReturnItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;size:36;not null" json:"company_id"`
	SalesReturnId   int             `gorm:"index;not null" json:"sales_return_id"`
	InventoryItemId int             `gorm:"index;not null" json:"inventory_item_id"`
	Barcode         string          `gorm:"size:50;not null" json:"barcode"`
	RefundAmount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"refund_amount"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewSalesReturn struct {
	ReturnNumber     string `json:"return_number" binding:"required"`
	SalesInvoiceId   int    `json:"sales_invoice_id" binding:"required"`
	InventoryItemIds []int  `json:"inventory_item_ids" binding:"required"`
	Reason           string `json:"reason"`
}

func (input *NewSalesReturn) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateUnique[SalesReturn](ctx, companyId, "return_number", input.ReturnNumber, 0); err != nil {
		return err
	}
	if len(input.InventoryItemIds) == 0 {
		return errors.New("return must contain at least one item")
	}
	return nil
}

// CompleteSalesReturn restocks sold items in one transaction. Each returned
// item must appear on the invoice's details and still be sold; an item already
// returned once fails the second return here.
func CompleteSalesReturn(ctx context.Context, input *NewSalesReturn) (*SalesReturn, error) {

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

	var invoice SalesInvoice
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, input.SalesInvoiceId).
		First(&invoice).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	var details []SalesInvoiceDetail
	if err := tx.Where("sales_invoice_id = ?", invoice.ID).Find(&details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	detailByItem := make(map[int]SalesInvoiceDetail, len(details))
	for _, detail := range details {
		detailByItem[detail.InventoryItemId] = detail
	}

	ret := SalesReturn{
		CompanyId:      companyId,
		ReturnNumber:   input.ReturnNumber,
		SalesInvoiceId: invoice.ID,
		Reason:         input.Reason,
		CreatedBy:      userId,
	}
	if err := tx.Create(&ret).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	refund := decimal.Zero
	for _, itemId := range itemIds {
		detail, ok := detailByItem[itemId]
		if !ok {
			tx.Rollback()
			return nil, fmt.Errorf("item %d is not on invoice %s", itemId, invoice.InvoiceNumber)
		}

		res := tx.Model(&InventoryItem{}).
			Where("id = ? AND company_id = ? AND status = ?",
				itemId, companyId, InventoryItemStatusSold).
			Updates(map[string]interface{}{
				"status":       InventoryItemStatusInStock,
				"warehouse_id": invoice.WarehouseId,
			})
		if res.Error != nil {
			tx.Rollback()
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return nil, fmt.Errorf("item %d is not sold; it may already have been returned", itemId)
		}

		line := SalesReturnItem{
			CompanyId:       companyId,
			SalesReturnId:   ret.ID,
			InventoryItemId: itemId,
			Barcode:         detail.Barcode,
			RefundAmount:    detail.SalePrice,
		}
		if err := tx.Create(&line).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		ret.Items = append(ret.Items, line)
		refund = refund.Add(detail.SalePrice)
	}

	ret.RefundAmount = refund.Round(2)
	if err := tx.Model(&SalesReturn{}).
		Where("id = ?", ret.ID).
		Update("refund_amount", ret.RefundAmount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := saveStockMovement(tx, ret.ID, MovementRefSalesReturn, "C", &ret); err != nil {
		tx.Rollback()
		return nil, err
	}
	desc := fmt.Sprintf("Sales return %s completed against invoice %s for %d items.",
		ret.ReturnNumber, invoice.InvoiceNumber, len(ret.Items))
	if err := SaveHistoryCreate(tx, ret.ID, "SalesReturn", &ret, desc); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func GetSalesReturn(ctx context.Context, id int) (*SalesReturn, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[SalesReturn](ctx, companyId, id, "Items")
}
