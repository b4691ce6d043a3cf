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

// DiamondLot tracks availability on two dimensions: weight (carats) and piece
// count. Both obey the same non-negativity rule as gold batches.
type DiamondLot struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	CompanyId          string          `gorm:"index;size:36;not null" json:"company_id"`
	LotNumber          string          `gorm:"size:50;not null" json:"lot_number" binding:"required"`
	LotType            string          `gorm:"size:50" json:"lot_type"`
	TotalWeightCts     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_weight_cts"`
	RemainingWeightCts decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"remaining_weight_cts"`
	TotalPieces        int             `gorm:"not null;default:0" json:"total_pieces"`
	RemainingPieces    int             `gorm:"not null;default:0" json:"remaining_pieces"`
	PurchaseRatePerCt  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"purchase_rate_per_ct"`
	CertificateNumber  string          `gorm:"size:100" json:"certificate_number"`
	CertificateAgency  string          `gorm:"size:100" json:"certificate_agency"`
	SupplierId         int             `gorm:"index" json:"supplier_id"`
	WarehouseId        int             `gorm:"index;not null" json:"warehouse_id"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDiamondLot struct {
	LotNumber         string          `json:"lot_number" binding:"required"`
	LotType           string          `json:"lot_type"`
	TotalWeightCts    decimal.Decimal `json:"total_weight_cts" binding:"required"`
	TotalPieces       int             `json:"total_pieces"`
	PurchaseRatePerCt decimal.Decimal `json:"purchase_rate_per_ct"`
	CertificateNumber string          `json:"certificate_number"`
	CertificateAgency string          `json:"certificate_agency"`
	SupplierId        int             `json:"supplier_id"`
	WarehouseId       int             `json:"warehouse_id" binding:"required"`
}

func (input *NewDiamondLot) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateUnique[DiamondLot](ctx, companyId, "lot_number", input.LotNumber, 0); err != nil {
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
	if input.TotalWeightCts.LessThanOrEqual(decimal.Zero) {
		return errors.New("total weight must be greater than 0")
	}
	if input.TotalPieces < 0 {
		return errors.New("total pieces must not be negative")
	}
	return nil
}

func CreateDiamondLot(ctx context.Context, input *NewDiamondLot) (*DiamondLot, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	total := RoundCarats(input.TotalWeightCts)
	lot := DiamondLot{
		CompanyId:          companyId,
		LotNumber:          input.LotNumber,
		LotType:            input.LotType,
		TotalWeightCts:     total,
		RemainingWeightCts: total,
		TotalPieces:        input.TotalPieces,
		RemainingPieces:    input.TotalPieces,
		PurchaseRatePerCt:  input.PurchaseRatePerCt,
		CertificateNumber:  input.CertificateNumber,
		CertificateAgency:  input.CertificateAgency,
		SupplierId:         input.SupplierId,
		WarehouseId:        input.WarehouseId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&lot).Error; err != nil {
		return nil, err
	}
	invalidateDiamondAvailability(companyId)
	return &lot, nil
}

func fetchDiamondLotForUpdate(tx *gorm.DB, companyId string, id int) (*DiamondLot, error) {
	var lot DiamondLot
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, id).
		First(&lot).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &lot, nil
}

type DiamondAvailability struct {
	LotId              int             `json:"lot_id"`
	LotNumber          string          `json:"lot_number"`
	RemainingWeightCts decimal.Decimal `json:"remaining_weight_cts"`
	RemainingPieces    int             `json:"remaining_pieces"`
}

func diamondAvailabilityCacheKey(companyId string) string {
	return fmt.Sprintf("diamond_availability:%s", companyId)
}

func invalidateDiamondAvailability(companyId string) {
	_ = config.RemoveRedisKey(diamondAvailabilityCacheKey(companyId))
}

func AvailableDiamonds(ctx context.Context) ([]DiamondAvailability, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	var cached []DiamondAvailability
	if found, err := config.GetRedisObject(diamondAvailabilityCacheKey(companyId), &cached); err == nil && found {
		return cached, nil
	}

	db := config.GetDB()
	var lots []DiamondLot
	err := db.WithContext(ctx).
		Where("company_id = ? AND remaining_weight_cts > 0", companyId).
		Order("lot_number ASC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}

	result := make([]DiamondAvailability, 0, len(lots))
	for _, l := range lots {
		result = append(result, DiamondAvailability{
			LotId:              l.ID,
			LotNumber:          l.LotNumber,
			RemainingWeightCts: l.RemainingWeightCts,
			RemainingPieces:    l.RemainingPieces,
		})
	}
	_ = config.SetRedisObject(diamondAvailabilityCacheKey(companyId), result, 30*time.Second)
	return result, nil
}
