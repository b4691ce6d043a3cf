package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
	"gorm.io/gorm/clause"
)

// StockTransfer moves finished items between warehouses. Items are in_transit
// while the transfer is dispatched; receiving each item returns it to stock at
// the destination, and finalizing marks anything still in transit as missing.
type StockTransfer struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	CompanyId       string              `gorm:"index;size:36;not null" json:"company_id"`
	TransferNumber  string              `gorm:"size:50;not null" json:"transfer_number"`
	FromWarehouseId int                 `gorm:"index;not null" json:"from_warehouse_id"`
	ToWarehouseId   int                 `gorm:"index;not null" json:"to_warehouse_id"`
	Status          StockTransferStatus `gorm:"size:20;index;not null" json:"status"`
	DispatchedAt    *time.Time          `json:"dispatched_at"`
	CompletedAt     *time.Time          `json:"completed_at"`
	Notes           string              `gorm:"type:text" json:"notes"`
	Items           []StockTransferItem `gorm:"foreignKey:StockTransferId" json:"items"`
	CreatedBy       int                 `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type StockTransferItem struct {
	ID              int        `gorm:"primary_key" json:"id"`
	CompanyId       string     `gorm:"index;size:36;not null" json:"company_id"`
	StockTransferId int        `gorm:"index;not null" json:"stock_transfer_id"`
	InventoryItemId int        `gorm:"index;not null" json:"inventory_item_id"`
	ReceivedAt      *time.Time `json:"received_at"`
	Missing         bool       `gorm:"not null;default:false" json:"missing"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type NewStockTransfer struct {
	TransferNumber   string `json:"transfer_number" binding:"required"`
	FromWarehouseId  int    `json:"from_warehouse_id" binding:"required"`
	ToWarehouseId    int    `json:"to_warehouse_id" binding:"required"`
	InventoryItemIds []int  `json:"inventory_item_ids" binding:"required"`
	Notes            string `json:"notes"`
}

func (input *NewStockTransfer) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateUnique[StockTransfer](ctx, companyId, "transfer_number", input.TransferNumber, 0); err != nil {
		return err
	}
	if input.FromWarehouseId == input.ToWarehouseId {
		return errors.New("source and destination warehouses must differ")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, companyId, input.FromWarehouseId); err != nil {
		return errors.New("source warehouse not found")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, companyId, input.ToWarehouseId); err != nil {
		return errors.New("destination warehouse not found")
	}
	if len(input.InventoryItemIds) == 0 {
		return errors.New("transfer must contain at least one item")
	}
	if err := utils.ValidateResourcesId[InventoryItem](ctx, companyId, input.InventoryItemIds); err != nil {
		return errors.New("one or more items not found")
	}
	return nil
}

// CreateStockTransfer drafts a transfer. Items are validated to be in stock at
// the source warehouse but not moved until dispatch.
func CreateStockTransfer(ctx context.Context, input *NewStockTransfer) (*StockTransfer, error) {

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
			companyId, itemIds, InventoryItemStatusInStock, input.FromWarehouseId).
		Find(&items).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(items) != len(itemIds) {
		tx.Rollback()
		return nil, errors.New("all items must be in stock at the source warehouse")
	}

	transfer := StockTransfer{
		CompanyId:       companyId,
		TransferNumber:  input.TransferNumber,
		FromWarehouseId: input.FromWarehouseId,
		ToWarehouseId:   input.ToWarehouseId,
		Status:          StockTransferStatusDraft,
		Notes:           input.Notes,
		CreatedBy:       userId,
	}
	if err := tx.Create(&transfer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, id := range itemIds {
		line := StockTransferItem{
			CompanyId:       companyId,
			StockTransferId: transfer.ID,
			InventoryItemId: id,
		}
		if err := tx.Create(&line).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		transfer.Items = append(transfer.Items, line)
	}

	desc := fmt.Sprintf("Stock transfer %s drafted with %d items.", transfer.TransferNumber, len(itemIds))
	if err := SaveHistoryCreate(tx, transfer.ID, "StockTransfer", &transfer, desc); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

// DispatchStockTransfer moves a draft to dispatched and puts every item in
// transit. Items that were sold or moved since drafting abort the dispatch.
func DispatchStockTransfer(ctx context.Context, id int) (*StockTransfer, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var transfer StockTransfer
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, id).
		First(&transfer).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	if transfer.Status != StockTransferStatusDraft {
		tx.Rollback()
		return nil, errors.New("transfer is not in draft state")
	}

	var lines []StockTransferItem
	if err := tx.Where("stock_transfer_id = ?", transfer.ID).Find(&lines).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, line := range lines {
		res := tx.Model(&InventoryItem{}).
			Where("id = ? AND company_id = ? AND status = ? AND warehouse_id = ?",
				line.InventoryItemId, companyId, InventoryItemStatusInStock, transfer.FromWarehouseId).
			Update("status", InventoryItemStatusInTransit)
		if res.Error != nil {
			tx.Rollback()
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return nil, fmt.Errorf("item %d is no longer available at the source warehouse", line.InventoryItemId)
		}
	}

	now := time.Now().UTC()
	before := transfer
	transfer.Status = StockTransferStatusDispatched
	transfer.DispatchedAt = &now
	if err := tx.Model(&StockTransfer{}).Where("id = ?", transfer.ID).Updates(map[string]interface{}{
		"status":        transfer.Status,
		"dispatched_at": transfer.DispatchedAt,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := saveStockMovement(tx, transfer.ID, MovementRefStockTransfer, "U", &transfer); err != nil {
		tx.Rollback()
		return nil, err
	}
	desc := fmt.Sprintf("Stock transfer %s dispatched.", transfer.TransferNumber)
	if err := SaveHistoryUpdate(tx, transfer.ID, "StockTransfer", &before, &transfer, desc); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

// ReceiveStockTransferItem books one in-transit item into the destination
// warehouse.
func ReceiveStockTransferItem(ctx context.Context, transferId int, inventoryItemId int) error {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return errors.New("company id is required")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var transfer StockTransfer
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, transferId).
		First(&transfer).Error
	if err != nil {
		tx.Rollback()
		return utils.ErrorRecordNotFound
	}
	if transfer.Status != StockTransferStatusDispatched {
		tx.Rollback()
		return errors.New("transfer is not dispatched")
	}

	var line StockTransferItem
	err = tx.Where("stock_transfer_id = ? AND inventory_item_id = ?", transfer.ID, inventoryItemId).
		First(&line).Error
	if err != nil {
		tx.Rollback()
		return utils.ErrorRecordNotFound
	}
	if line.ReceivedAt != nil {
		tx.Rollback()
		return errors.New("item already received")
	}

	res := tx.Model(&InventoryItem{}).
		Where("id = ? AND company_id = ? AND status = ?",
			inventoryItemId, companyId, InventoryItemStatusInTransit).
		Updates(map[string]interface{}{
			"status":       InventoryItemStatusInStock,
			"warehouse_id": transfer.ToWarehouseId,
		})
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return errors.New("item is not in transit")
	}

	now := time.Now().UTC()
	if err := tx.Model(&StockTransferItem{}).
		Where("id = ?", line.ID).
		Update("received_at", &now).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// FinalizeStockTransfer completes a dispatched transfer. Items never received
// are flagged missing on their lines and marked missing in inventory; the
// discrepancy is recorded in history rather than silently absorbed.
func FinalizeStockTransfer(ctx context.Context, id int) (*StockTransfer, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var transfer StockTransfer
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, id).
		First(&transfer).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	if transfer.Status != StockTransferStatusDispatched {
		tx.Rollback()
		return nil, errors.New("transfer is not dispatched")
	}

	var lines []StockTransferItem
	if err := tx.Where("stock_transfer_id = ?", transfer.ID).Find(&lines).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	missing := 0
	for _, line := range lines {
		if line.ReceivedAt != nil {
			continue
		}
		missing++
		if err := tx.Model(&StockTransferItem{}).
			Where("id = ?", line.ID).
			Update("missing", true).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := tx.Model(&InventoryItem{}).
			Where("id = ? AND company_id = ? AND status = ?",
				line.InventoryItemId, companyId, InventoryItemStatusInTransit).
			Update("status", InventoryItemStatusMissing).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now().UTC()
	before := transfer
	transfer.Status = StockTransferStatusCompleted
	transfer.CompletedAt = &now
	if err := tx.Model(&StockTransfer{}).Where("id = ?", transfer.ID).Updates(map[string]interface{}{
		"status":       transfer.Status,
		"completed_at": transfer.CompletedAt,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	desc := fmt.Sprintf("Stock transfer %s completed.", transfer.TransferNumber)
	if missing > 0 {
		desc = fmt.Sprintf("Stock transfer %s completed with %d missing items.", transfer.TransferNumber, missing)
	}
	if err := SaveHistoryUpdate(tx, transfer.ID, "StockTransfer", &before, &transfer, desc); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func GetStockTransfer(ctx context.Context, id int) (*StockTransfer, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[StockTransfer](ctx, companyId, id, "Items")
}
