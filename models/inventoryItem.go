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
)

// InventoryItem is a finished piece received back from a job bag. Net weight
// is always derived from gross and stone weight on receipt, never accepted
// from the caller.
type InventoryItem struct {
	ID                  int                 `gorm:"primary_key" json:"id"`
	CompanyId           string              `gorm:"index;size:36;not null;uniqueIndex:idx_item_barcode,priority:1" json:"company_id"`
	Barcode             string              `gorm:"size:50;not null;uniqueIndex:idx_item_barcode,priority:2" json:"barcode" binding:"required"`
	ItemName            string              `gorm:"size:255;not null" json:"item_name"`
	ProductCategory     string              `gorm:"size:100" json:"product_category"`
	GrossWeightG        decimal.Decimal     `gorm:"type:decimal(20,3);not null" json:"gross_weight_g"`
	NetWeightG          decimal.Decimal     `gorm:"type:decimal(20,3);not null" json:"net_weight_g"`
	TotalStoneWeightCts decimal.Decimal     `gorm:"type:decimal(20,2);not null;default:0" json:"total_stone_weight_cts"`
	PurityKarat         string              `gorm:"size:10" json:"purity_karat"`
	CostMaking          decimal.Decimal     `gorm:"type:decimal(20,2);default:0" json:"cost_making"`
	Status              InventoryItemStatus `gorm:"size:20;index;not null" json:"status"`
	WarehouseId         int                 `gorm:"index;not null" json:"warehouse_id"`
	CreatedFromJobBagId int                 `gorm:"index;not null" json:"created_from_job_bag_id"`
	CreatedBy           int                 `gorm:"not null" json:"created_by"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInventoryItem struct {
	Barcode             string          `json:"barcode" binding:"required"`
	ItemName            string          `json:"item_name" binding:"required"`
	GrossWeightG        decimal.Decimal `json:"gross_weight_g" binding:"required"`
	TotalStoneWeightCts decimal.Decimal `json:"total_stone_weight_cts"`
	PurityKarat         string          `json:"purity_karat"`
	CostMaking          decimal.Decimal `json:"cost_making"`
	WarehouseId         int             `json:"warehouse_id" binding:"required"`
}

// ReceiveFinishedGoods books a completed piece into stock and moves the bag to
// completed. The barcode is unique per company; a second receipt with the same
// barcode fails with ErrDuplicateBarcode.
func ReceiveFinishedGoods(ctx context.Context, jobBagId int, input *NewInventoryItem) (*InventoryItem, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	gross := RoundGrams(input.GrossWeightG)
	stones := RoundCarats(input.TotalStoneWeightCts)
	if gross.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("gross weight must be greater than 0")
	}
	if stones.IsNegative() {
		return nil, errors.New("stone weight must not be negative")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, companyId, input.WarehouseId); err != nil {
		return nil, errors.New("warehouse not found")
	}

	var item InventoryItem
	err := withJobBagPostingLock(ctx, companyId, jobBagId, func(tx *gorm.DB) error {
		jobBag, err := fetchJobBagForUpdate(tx, companyId, jobBagId)
		if err != nil {
			return err
		}
		if !jobBag.Status.CanAcceptReceipt() {
			return ErrInvalidJobState
		}

		var existing int64
		if err := tx.Model(&InventoryItem{}).
			Where("company_id = ? AND barcode = ?", companyId, input.Barcode).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateBarcode
		}

		item = InventoryItem{
			CompanyId:           companyId,
			Barcode:             input.Barcode,
			ItemName:            input.ItemName,
			ProductCategory:     jobBag.ProductCategory,
			GrossWeightG:        gross,
			NetWeightG:          CalculateNetWeight(gross, stones),
			TotalStoneWeightCts: stones,
			PurityKarat:         input.PurityKarat,
			CostMaking:          input.CostMaking,
			Status:              InventoryItemStatusInStock,
			WarehouseId:         input.WarehouseId,
			CreatedFromJobBagId: jobBag.ID,
			CreatedBy:           userId,
		}
		if err := tx.Create(&item).Error; err != nil {
			// A concurrent receipt can slip past the count check; the unique
			// index is the last line of defence.
			if isDuplicateKeyErr(err) {
				return ErrDuplicateBarcode
			}
			return err
		}

		if err := transitionJobBag(tx, jobBag, JobBagStatusCompleted); err != nil {
			return err
		}

		if err := saveStockMovement(tx, item.ID, MovementRefFinishedGoods, "C", &item); err != nil {
			return err
		}
		desc := fmt.Sprintf("Received item %s from job bag %s, gross %sg net %sg.",
			item.Barcode, jobBag.JobBagNumber,
			item.GrossWeightG.StringFixed(GramPrecision), item.NetWeightG.StringFixed(GramPrecision))
		return SaveHistoryCreate(tx, item.ID, "InventoryItem", &item, desc)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func GetInventoryItem(ctx context.Context, id int) (*InventoryItem, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[InventoryItem](ctx, companyId, id)
}

func GetInventoryItemByBarcode(ctx context.Context, barcode string) (*InventoryItem, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var item InventoryItem
	err := db.WithContext(ctx).
		Where("company_id = ? AND barcode = ?", companyId, barcode).
		First(&item).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &item, nil
}

func ListInventoryItems(ctx context.Context, status *InventoryItemStatus, warehouseId *int) ([]*InventoryItem, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx = dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	var items []*InventoryItem
	if err := dbCtx.Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
