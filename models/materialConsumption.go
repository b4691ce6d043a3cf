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

// GoldConsumption records metal actually worked into the piece plus the
// manufacturing loss declared alongside it. Consumption never touches batch
// remaining weight; the material already left the batch at issue time.
type GoldConsumption struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;size:36;not null" json:"company_id"`
	JobBagId        int             `gorm:"index;not null" json:"job_bag_id"`
	GoldBatchId     int             `gorm:"index;not null" json:"gold_batch_id"`
	ConsumedWeightG decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"consumed_weight_g"`
	LossWeightG     decimal.Decimal `gorm:"type:decimal(20,3);not null;default:0" json:"loss_weight_g"`
	OverConsumed    bool            `gorm:"not null;default:false" json:"over_consumed"`
	ConsumptionDate time.Time       `gorm:"index;not null" json:"consumption_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedBy       int             `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type DiamondConsumption struct {
	ID                int             `gorm:"primary_key" json:"id"`
	CompanyId         string          `gorm:"index;size:36;not null" json:"company_id"`
	JobBagId          int             `gorm:"index;not null" json:"job_bag_id"`
	DiamondLotId      int             `gorm:"index;not null" json:"diamond_lot_id"`
	ConsumedWeightCts decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"consumed_weight_cts"`
	BreakageWeightCts decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"breakage_weight_cts"`
	ConsumedPieces    int             `gorm:"not null;default:0" json:"consumed_pieces"`
	OverConsumed      bool            `gorm:"not null;default:false" json:"over_consumed"`
	ConsumptionDate   time.Time       `gorm:"index;not null" json:"consumption_date"`
	Notes             string          `gorm:"type:text" json:"notes"`
	CreatedBy         int             `gorm:"not null" json:"created_by"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewGoldConsumption struct {
	GoldBatchId     int             `json:"gold_batch_id" binding:"required"`
	ConsumedWeightG decimal.Decimal `json:"consumed_weight_g" binding:"required"`
	LossWeightG     decimal.Decimal `json:"loss_weight_g"`
	Notes           string          `json:"notes"`
}

type NewDiamondConsumption struct {
	DiamondLotId      int             `json:"diamond_lot_id" binding:"required"`
	ConsumedWeightCts decimal.Decimal `json:"consumed_weight_cts" binding:"required"`
	BreakageWeightCts decimal.Decimal `json:"breakage_weight_cts"`
	ConsumedPieces    int             `json:"consumed_pieces"`
	Notes             string          `json:"notes"`
}

func sumIssuedGold(tx *gorm.DB, companyId string, jobBagId int, batchId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&GoldIssue{}).
		Select("COALESCE(SUM(issued_weight_g), 0)").
		Where("company_id = ? AND job_bag_id = ? AND gold_batch_id = ?", companyId, jobBagId, batchId).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func sumConsumedGold(tx *gorm.DB, companyId string, jobBagId int, batchId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&GoldConsumption{}).
		Select("COALESCE(SUM(consumed_weight_g + loss_weight_g), 0)").
		Where("company_id = ? AND job_bag_id = ? AND gold_batch_id = ?", companyId, jobBagId, batchId).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func sumIssuedDiamond(tx *gorm.DB, companyId string, jobBagId int, lotId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&DiamondIssue{}).
		Select("COALESCE(SUM(issued_weight_cts), 0)").
		Where("company_id = ? AND job_bag_id = ? AND diamond_lot_id = ?", companyId, jobBagId, lotId).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func sumConsumedDiamond(tx *gorm.DB, companyId string, jobBagId int, lotId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&DiamondConsumption{}).
		Select("COALESCE(SUM(consumed_weight_cts + breakage_weight_cts), 0)").
		Where("company_id = ? AND job_bag_id = ? AND diamond_lot_id = ?", companyId, jobBagId, lotId).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// RecordGoldConsumption posts a consumption against a bag. Consuming more than
// was issued from the batch is flagged on the row and either recorded as a
// warning or rejected with ErrOverConsumption depending on the block flag.
// Only bags that have had material issued can consume.
func RecordGoldConsumption(ctx context.Context, jobBagId int, input *NewGoldConsumption) (*GoldConsumption, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	consumed := RoundGrams(input.ConsumedWeightG)
	loss := RoundGrams(input.LossWeightG)
	if consumed.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("consumed weight must be greater than 0")
	}
	if loss.IsNegative() {
		return nil, errors.New("loss weight must not be negative")
	}

	var consumption GoldConsumption
	err := withJobBagPostingLock(ctx, companyId, jobBagId, func(tx *gorm.DB) error {
		jobBag, err := fetchJobBagForUpdate(tx, companyId, jobBagId)
		if err != nil {
			return err
		}
		if !jobBag.Status.CanAcceptConsumption() {
			return ErrInvalidJobState
		}

		if err := utils.ValidateResourceId[GoldBatch](ctx, companyId, input.GoldBatchId); err != nil {
			return errors.New("gold batch not found")
		}

		issued, err := sumIssuedGold(tx, companyId, jobBag.ID, input.GoldBatchId)
		if err != nil {
			return err
		}
		already, err := sumConsumedGold(tx, companyId, jobBag.ID, input.GoldBatchId)
		if err != nil {
			return err
		}

		overConsumed := already.Add(consumed).Add(loss).GreaterThan(issued)
		if overConsumed && config.BlockOverConsumption() {
			return ErrOverConsumption
		}

		consumption = GoldConsumption{
			CompanyId:       companyId,
			JobBagId:        jobBag.ID,
			GoldBatchId:     input.GoldBatchId,
			ConsumedWeightG: consumed,
			LossWeightG:     loss,
			OverConsumed:    overConsumed,
			ConsumptionDate: time.Now().UTC(),
			Notes:           input.Notes,
			CreatedBy:       userId,
		}
		if err := tx.Create(&consumption).Error; err != nil {
			return err
		}

		if err := transitionJobBag(tx, jobBag, JobBagStatusInProgress); err != nil {
			return err
		}

		if err := saveStockMovement(tx, consumption.ID, MovementRefGoldConsumption, "C", &consumption); err != nil {
			return err
		}
		desc := fmt.Sprintf("Consumed %sg gold (loss %sg) on job bag %s.",
			consumed.StringFixed(GramPrecision), loss.StringFixed(GramPrecision), jobBag.JobBagNumber)
		if overConsumed {
			desc += " Consumption exceeds issued weight."
		}
		return SaveHistoryCreate(tx, consumption.ID, "GoldConsumption", &consumption, desc)
	})
	if err != nil {
		return nil, err
	}
	return &consumption, nil
}

// RecordDiamondConsumption posts stone usage with breakage and piece count.
func RecordDiamondConsumption(ctx context.Context, jobBagId int, input *NewDiamondConsumption) (*DiamondConsumption, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	consumed := RoundCarats(input.ConsumedWeightCts)
	breakage := RoundCarats(input.BreakageWeightCts)
	if consumed.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("consumed weight must be greater than 0")
	}
	if breakage.IsNegative() {
		return nil, errors.New("breakage weight must not be negative")
	}
	if input.ConsumedPieces < 0 {
		return nil, errors.New("consumed pieces must not be negative")
	}

	var consumption DiamondConsumption
	err := withJobBagPostingLock(ctx, companyId, jobBagId, func(tx *gorm.DB) error {
		jobBag, err := fetchJobBagForUpdate(tx, companyId, jobBagId)
		if err != nil {
			return err
		}
		if !jobBag.Status.CanAcceptConsumption() {
			return ErrInvalidJobState
		}

		if err := utils.ValidateResourceId[DiamondLot](ctx, companyId, input.DiamondLotId); err != nil {
			return errors.New("diamond lot not found")
		}

		issued, err := sumIssuedDiamond(tx, companyId, jobBag.ID, input.DiamondLotId)
		if err != nil {
			return err
		}
		already, err := sumConsumedDiamond(tx, companyId, jobBag.ID, input.DiamondLotId)
		if err != nil {
			return err
		}

		overConsumed := already.Add(consumed).Add(breakage).GreaterThan(issued)
		if overConsumed && config.BlockOverConsumption() {
			return ErrOverConsumption
		}

		consumption = DiamondConsumption{
			CompanyId:         companyId,
			JobBagId:          jobBag.ID,
			DiamondLotId:      input.DiamondLotId,
			ConsumedWeightCts: consumed,
			BreakageWeightCts: breakage,
			ConsumedPieces:    input.ConsumedPieces,
			OverConsumed:      overConsumed,
			ConsumptionDate:   time.Now().UTC(),
			Notes:             input.Notes,
			CreatedBy:         userId,
		}
		if err := tx.Create(&consumption).Error; err != nil {
			return err
		}

		if err := transitionJobBag(tx, jobBag, JobBagStatusInProgress); err != nil {
			return err
		}

		if err := saveStockMovement(tx, consumption.ID, MovementRefDiamondConsumption, "C", &consumption); err != nil {
			return err
		}
		desc := fmt.Sprintf("Consumed %scts diamonds (breakage %scts, %d pcs) on job bag %s.",
			consumed.StringFixed(CaratPrecision), breakage.StringFixed(CaratPrecision),
			input.ConsumedPieces, jobBag.JobBagNumber)
		if overConsumed {
			desc += " Consumption exceeds issued weight."
		}
		return SaveHistoryCreate(tx, consumption.ID, "DiamondConsumption", &consumption, desc)
	})
	if err != nil {
		return nil, err
	}
	return &consumption, nil
}
