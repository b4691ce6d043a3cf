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

// GoldBatch is a purchased lot of gold metal. RemainingWeightG is the single
// source of truth for availability; it is only ever decremented inside an
// issuing transaction holding the batch row lock, so it can never go negative.
type GoldBatch struct {
	ID                int             `gorm:"primary_key" json:"id"`
	CompanyId         string          `gorm:"index;size:36;not null" json:"company_id"`
	BatchNumber       string          `gorm:"size:50;not null" json:"batch_number" binding:"required"`
	PurityKarat       string          `gorm:"size:10;not null" json:"purity_karat"`
	PurityPercent     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"purity_percent"`
	TotalWeightG      decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"total_weight_g"`
	RemainingWeightG  decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"remaining_weight_g"`
	PurchaseRatePerG  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"purchase_rate_per_g"`
	SupplierId        int             `gorm:"index" json:"supplier_id"`
	WarehouseId       int             `gorm:"index;not null" json:"warehouse_id"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewGoldBatch struct {
	BatchNumber      string          `json:"batch_number" binding:"required"`
	PurityKarat      string          `json:"purity_karat" binding:"required"`
	PurityPercent    decimal.Decimal `json:"purity_percent"`
	TotalWeightG     decimal.Decimal `json:"total_weight_g" binding:"required"`
	PurchaseRatePerG decimal.Decimal `json:"purchase_rate_per_g"`
	SupplierId       int             `json:"supplier_id"`
	WarehouseId      int             `json:"warehouse_id" binding:"required"`
}

func (input *NewGoldBatch) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateUnique[GoldBatch](ctx, companyId, "batch_number", input.BatchNumber, 0); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, companyId, input.WarehouseId); err != nil {
		return errors.New("warehouse not found")
	}
	if input.SupplierId != 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, companyId, input.SupplierId); err != nil {
			return errors.New("supplier not found")
		}
	}
	if input.TotalWeightG.LessThanOrEqual(decimal.Zero) {
		return errors.New("total weight must be greater than 0")
	}
	if input.PurityPercent.IsNegative() || input.PurityPercent.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("purity percent must be between 0 and 100")
	}
	return nil
}

// CreateGoldBatch books a gold purchase into inventory. Remaining starts equal
// to total.
func CreateGoldBatch(ctx context.Context, input *NewGoldBatch) (*GoldBatch, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	total := RoundGrams(input.TotalWeightG)
	batch := GoldBatch{
		CompanyId:        companyId,
		BatchNumber:      input.BatchNumber,
		PurityKarat:      input.PurityKarat,
		PurityPercent:    input.PurityPercent,
		TotalWeightG:     total,
		RemainingWeightG: total,
		PurchaseRatePerG: input.PurchaseRatePerG,
		SupplierId:       input.SupplierId,
		WarehouseId:      input.WarehouseId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, err
	}
	invalidateGoldAvailability(companyId)
	return &batch, nil
}

// fetchGoldBatchForUpdate locks the batch row for the duration of the issuing
// transaction. Concurrent issues against the same batch serialize here;
// first-committer-wins.
func fetchGoldBatchForUpdate(tx *gorm.DB, companyId string, id int) (*GoldBatch, error) {
	var batch GoldBatch
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, id).
		First(&batch).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &batch, nil
}

// GoldAvailability is the read-only snapshot used by issue screens.
type GoldAvailability struct {
	BatchId          int             `json:"batch_id"`
	BatchNumber      string          `json:"batch_number"`
	PurityKarat      string          `json:"purity_karat"`
	RemainingWeightG decimal.Decimal `json:"remaining_weight_g"`
}

func goldAvailabilityCacheKey(companyId string) string {
	return fmt.Sprintf("gold_availability:%s", companyId)
}

func invalidateGoldAvailability(companyId string) {
	_ = config.RemoveRedisKey(goldAvailabilityCacheKey(companyId))
}

// AvailableGold lists batches with remaining stock, Redis-cached. The cache is
// invalidated by every write that touches a batch, so staleness is bounded by
// the TTL only when writes happen on another instance without Redis.
func AvailableGold(ctx context.Context) ([]GoldAvailability, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	var cached []GoldAvailability
	if found, err := config.GetRedisObject(goldAvailabilityCacheKey(companyId), &cached); err == nil && found {
		return cached, nil
	}

	db := config.GetDB()
	var batches []GoldBatch
	err := db.WithContext(ctx).
		Where("company_id = ? AND remaining_weight_g > 0", companyId).
		Order("batch_number ASC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}

	result := make([]GoldAvailability, 0, len(batches))
	for _, b := range batches {
		result = append(result, GoldAvailability{
			BatchId:          b.ID,
			BatchNumber:      b.BatchNumber,
			PurityKarat:      b.PurityKarat,
			RemainingWeightG: b.RemainingWeightG,
		})
	}
	_ = config.SetRedisObject(goldAvailabilityCacheKey(companyId), result, 30*time.Second)
	return result, nil
}
