package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobBag is a manufacturing work order. Status moves strictly forward
// (open -> issued -> in_progress -> completed -> closed); once closed the row
// is immutable and every ledger command against it fails with
// ErrInvalidJobState.
type JobBag struct {
	ID                       int              `gorm:"primary_key" json:"id"`
	CompanyId                string           `gorm:"index;size:36;not null" json:"company_id"`
	JobBagNumber             string           `gorm:"size:50;not null" json:"job_bag_number" binding:"required"`
	ProductCategory          string           `gorm:"size:100" json:"product_category"`
	DesignCode               string           `gorm:"size:100" json:"design_code"`
	KarigarId                int              `gorm:"index;not null" json:"karigar_id"`
	Karigar                  *Karigar         `gorm:"foreignKey:KarigarId" json:"karigar,omitempty"`
	GoldExpectedWeightG      decimal.Decimal  `gorm:"type:decimal(20,3);default:0" json:"gold_expected_weight_g"`
	DiamondExpectedWeightCts decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"diamond_expected_weight_cts"`
	Status                   JobBagStatus     `gorm:"size:20;index;not null" json:"status"`
	WarehouseId              int              `gorm:"index;not null" json:"warehouse_id"`
	IssueDate                *time.Time       `json:"issue_date"`
	ExpectedReturnDate       *time.Time       `json:"expected_return_date"`
	CreatedBy                int              `gorm:"not null" json:"created_by"`
	CreatedAt                time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewJobBag struct {
	JobBagNumber             string          `json:"job_bag_number" binding:"required"`
	ProductCategory          string          `json:"product_category"`
	DesignCode               string          `json:"design_code"`
	KarigarId                int             `json:"karigar_id" binding:"required"`
	GoldExpectedWeightG      decimal.Decimal `json:"gold_expected_weight_g"`
	DiamondExpectedWeightCts decimal.Decimal `json:"diamond_expected_weight_cts"`
	WarehouseId              int             `json:"warehouse_id" binding:"required"`
	ExpectedReturnDate       *time.Time      `json:"expected_return_date"`
}

func (input *NewJobBag) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateUnique[JobBag](ctx, companyId, "job_bag_number", input.JobBagNumber, 0); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Karigar](ctx, companyId, input.KarigarId); err != nil {
		return errors.New("karigar not found")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, companyId, input.WarehouseId); err != nil {
		return errors.New("warehouse not found")
	}
	if input.GoldExpectedWeightG.IsNegative() || input.DiamondExpectedWeightCts.IsNegative() {
		return errors.New("expected weights must not be negative")
	}
	return nil
}

func CreateJobBag(ctx context.Context, input *NewJobBag) (*JobBag, error) {

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

	jobBag := JobBag{
		CompanyId:                companyId,
		JobBagNumber:             input.JobBagNumber,
		ProductCategory:          input.ProductCategory,
		DesignCode:               input.DesignCode,
		KarigarId:                input.KarigarId,
		GoldExpectedWeightG:      RoundGrams(input.GoldExpectedWeightG),
		DiamondExpectedWeightCts: RoundCarats(input.DiamondExpectedWeightCts),
		Status:                   JobBagStatusOpen,
		WarehouseId:              input.WarehouseId,
		ExpectedReturnDate:       input.ExpectedReturnDate,
		CreatedBy:                userId,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&jobBag).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryCreate(tx, jobBag.ID, "JobBag", &jobBag, "Job bag "+jobBag.JobBagNumber+" created."); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &jobBag, nil
}

func GetJobBag(ctx context.Context, id int) (*JobBag, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[JobBag](ctx, companyId, id, "Karigar")
}

func ListJobBags(ctx context.Context, status *JobBagStatus) ([]*JobBag, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	var bags []*JobBag
	if err := dbCtx.Preload("Karigar").Order("id DESC").Find(&bags).Error; err != nil {
		return nil, err
	}
	return bags, nil
}

// fetchJobBagForUpdate locks the bag row inside the command transaction.
func fetchJobBagForUpdate(tx *gorm.DB, companyId string, id int) (*JobBag, error) {
	var jobBag JobBag
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", companyId, id).
		First(&jobBag).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &jobBag, nil
}

// transitionJobBag applies a forward status change with a compare-and-set on
// the current status. Racing commands that both observe the same "from" state
// collapse to a single transition; the condition matching zero rows is not an
// error when another writer already advanced the bag to the target state.
//
// A target at or below the bag's current state is a no-op, not an error:
// status never moves backward, so an issue posted to an in_progress bag keeps
// the bag in_progress. Whether the command itself is legal is decided by the
// CanAccept* gates before this is called.
func transitionJobBag(tx *gorm.DB, jobBag *JobBag, to JobBagStatus) error {
	if to.Rank() <= jobBag.Status.Rank() {
		return nil
	}
	res := tx.Model(&JobBag{}).
		Where("id = ? AND status = ?", jobBag.ID, jobBag.Status).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race; re-read and verify the bag did not move backward
		var current JobBag
		if err := tx.Where("id = ?", jobBag.ID).First(&current).Error; err != nil {
			return err
		}
		if current.Status.Rank() < to.Rank() {
			return ErrInvalidJobState
		}
		jobBag.Status = current.Status
		return nil
	}
	jobBag.Status = to
	return nil
}

// CloseJobBag moves a completed bag to its terminal state. When the strict
// reconciliation flag is on, a material balance beyond the breakage threshold
// blocks the close; otherwise the imbalance is only recorded in history.
func CloseJobBag(ctx context.Context, id int) (*JobBag, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	recon, err := ReconcileJobBag(ctx, id)
	if err != nil {
		return nil, err
	}
	if config.StrictReconciledClose() {
		if recon.Gold.Remaining.Abs().GreaterThan(config.BreakageThresholdGrams()) ||
			recon.Diamond.Remaining.Abs().GreaterThan(config.BreakageThresholdCarats()) {
			return nil, ErrUnreconciledClose
		}
	}

	var jobBag *JobBag
	err = withJobBagPostingLock(ctx, companyId, id, func(tx *gorm.DB) error {
		var err error
		jobBag, err = fetchJobBagForUpdate(tx, companyId, id)
		if err != nil {
			return err
		}
		if !jobBag.Status.CanClose() {
			return ErrInvalidJobState
		}

		before := *jobBag
		if err := transitionJobBag(tx, jobBag, JobBagStatusClosed); err != nil {
			return err
		}

		desc := "Job bag " + jobBag.JobBagNumber + " closed. Gold remaining " +
			recon.Gold.Remaining.StringFixed(GramPrecision) + "g, diamond remaining " +
			recon.Diamond.Remaining.StringFixed(CaratPrecision) + "cts."
		return SaveHistoryUpdate(tx, jobBag.ID, "JobBag", &before, jobBag, desc)
	})
	if err != nil {
		return nil, err
	}
	return jobBag, nil
}

// DeleteJobBag removes a bag that never entered production. Bags with any
// ledger activity cannot be deleted; there is no release path for issued
// material.
func DeleteJobBag(ctx context.Context, id int) error {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return errors.New("company id is required")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	jobBag, err := fetchJobBagForUpdate(tx, companyId, id)
	if err != nil {
		tx.Rollback()
		return err
	}
	if jobBag.Status != JobBagStatusOpen {
		tx.Rollback()
		return ErrInvalidJobState
	}

	if err := tx.Delete(&JobBag{}, jobBag.ID).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := SaveHistoryDelete(tx, jobBag.ID, "JobBag", jobBag, "Job bag "+jobBag.JobBagNumber+" deleted."); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
