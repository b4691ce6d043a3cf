package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoldIssue is a ledger row recording metal handed from a batch to a job bag.
// Ledger rows are append-only; corrections are posted as new movements.
type GoldIssue struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CompanyId     string          `gorm:"index;size:36;not null" json:"company_id"`
	JobBagId      int             `gorm:"index;not null" json:"job_bag_id"`
	GoldBatchId   int             `gorm:"index;not null" json:"gold_batch_id"`
	IssuedWeightG decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"issued_weight_g"`
	IssueDate     time.Time       `gorm:"index;not null" json:"issue_date"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedBy     int             `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type DiamondIssue struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;size:36;not null" json:"company_id"`
	JobBagId        int             `gorm:"index;not null" json:"job_bag_id"`
	DiamondLotId    int             `gorm:"index;not null" json:"diamond_lot_id"`
	IssuedWeightCts decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"issued_weight_cts"`
	IssuedPieces    int             `gorm:"not null;default:0" json:"issued_pieces"`
	IssueDate       time.Time       `gorm:"index;not null" json:"issue_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedBy       int             `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// The target bag is taken from the URL, not the body.
type NewGoldIssue struct {
	GoldBatchId   int             `json:"gold_batch_id" binding:"required"`
	IssuedWeightG decimal.Decimal `json:"issued_weight_g" binding:"required"`
	Notes         string          `json:"notes"`
}

type NewDiamondIssue struct {
	DiamondLotId    int             `json:"diamond_lot_id" binding:"required"`
	IssuedWeightCts decimal.Decimal `json:"issued_weight_cts" binding:"required"`
	IssuedPieces    int             `json:"issued_pieces"`
	Notes           string          `json:"notes"`
}

// IssueGoldToJob moves metal from a batch into a job bag. The batch row lock
// serializes concurrent issues; whoever commits first gets the stock and a
// later issue that would drive remaining below zero fails with
// ErrInsufficientStock leaving the batch untouched.
func IssueGoldToJob(ctx context.Context, jobBagId int, input *NewGoldIssue) (*GoldIssue, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	weight := RoundGrams(input.IssuedWeightG)
	if weight.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("issued weight must be greater than 0")
	}

	var issue GoldIssue
	err := withJobBagPostingLock(ctx, companyId, jobBagId, func(tx *gorm.DB) error {
		jobBag, err := fetchJobBagForUpdate(tx, companyId, jobBagId)
		if err != nil {
			return err
		}
		if !jobBag.Status.CanAcceptIssue() {
			return ErrInvalidJobState
		}

		batch, err := fetchGoldBatchForUpdate(tx, companyId, input.GoldBatchId)
		if err != nil {
			return err
		}
		if batch.RemainingWeightG.LessThan(weight) {
			return ErrInsufficientStock
		}

		batch.RemainingWeightG = RoundGrams(batch.RemainingWeightG.Sub(weight))
		if err := tx.Model(&GoldBatch{}).
			Where("id = ?", batch.ID).
			Update("remaining_weight_g", batch.RemainingWeightG).Error; err != nil {
			return err
		}

		issue = GoldIssue{
			CompanyId:     companyId,
			JobBagId:      jobBag.ID,
			GoldBatchId:   batch.ID,
			IssuedWeightG: weight,
			IssueDate:     time.Now().UTC(),
			Notes:         input.Notes,
			CreatedBy:     userId,
		}
		if err := tx.Create(&issue).Error; err != nil {
			return err
		}

		if err := transitionJobBag(tx, jobBag, JobBagStatusIssued); err != nil {
			return err
		}

		if err := saveStockMovement(tx, issue.ID, MovementRefGoldIssue, "C", &issue); err != nil {
			return err
		}
		desc := fmt.Sprintf("Issued %sg gold from batch %s to job bag %s.",
			weight.StringFixed(GramPrecision), batch.BatchNumber, jobBag.JobBagNumber)
		return SaveHistoryCreate(tx, issue.ID, "GoldIssue", &issue, desc)
	})
	if err != nil {
		return nil, err
	}
	invalidateGoldAvailability(companyId)
	return &issue, nil
}

// IssueDiamondToJob is the carat counterpart of IssueGoldToJob. Both the
// weight and the piece dimension must be available on the lot.
func IssueDiamondToJob(ctx context.Context, jobBagId int, input *NewDiamondIssue) (*DiamondIssue, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	weight := RoundCarats(input.IssuedWeightCts)
	if weight.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("issued weight must be greater than 0")
	}
	if input.IssuedPieces < 0 {
		return nil, errors.New("issued pieces must not be negative")
	}

	var issue DiamondIssue
	err := withJobBagPostingLock(ctx, companyId, jobBagId, func(tx *gorm.DB) error {
		jobBag, err := fetchJobBagForUpdate(tx, companyId, jobBagId)
		if err != nil {
			return err
		}
		if !jobBag.Status.CanAcceptIssue() {
			return ErrInvalidJobState
		}

		lot, err := fetchDiamondLotForUpdate(tx, companyId, input.DiamondLotId)
		if err != nil {
			return err
		}
		if lot.RemainingWeightCts.LessThan(weight) || lot.RemainingPieces < input.IssuedPieces {
			return ErrInsufficientStock
		}

		lot.RemainingWeightCts = RoundCarats(lot.RemainingWeightCts.Sub(weight))
		lot.RemainingPieces = lot.RemainingPieces - input.IssuedPieces
		if err := tx.Model(&DiamondLot{}).
			Where("id = ?", lot.ID).
			Updates(map[string]interface{}{
				"remaining_weight_cts": lot.RemainingWeightCts,
				"remaining_pieces":     lot.RemainingPieces,
			}).Error; err != nil {
			return err
		}

		issue = DiamondIssue{
			CompanyId:       companyId,
			JobBagId:        jobBag.ID,
			DiamondLotId:    lot.ID,
			IssuedWeightCts: weight,
			IssuedPieces:    input.IssuedPieces,
			IssueDate:       time.Now().UTC(),
			Notes:           input.Notes,
			CreatedBy:       userId,
		}
		if err := tx.Create(&issue).Error; err != nil {
			return err
		}

		if err := transitionJobBag(tx, jobBag, JobBagStatusIssued); err != nil {
			return err
		}

		if err := saveStockMovement(tx, issue.ID, MovementRefDiamondIssue, "C", &issue); err != nil {
			return err
		}
		desc := fmt.Sprintf("Issued %scts diamonds from lot %s to job bag %s.",
			weight.StringFixed(CaratPrecision), lot.LotNumber, jobBag.JobBagNumber)
		return SaveHistoryCreate(tx, issue.ID, "DiamondIssue", &issue, desc)
	})
	if err != nil {
		return nil, err
	}
	invalidateDiamondAvailability(companyId)
	return &issue, nil
}
