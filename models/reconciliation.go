package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
	"github.com/shopspring/decimal"
)

// MaterialSummary folds one material dimension of a job bag. The invariant
// Issued = Consumed + Loss + Remaining holds by construction: Remaining is
// defined as the difference, so it goes negative exactly when the bag is
// over-consumed.
type MaterialSummary struct {
	Issued    decimal.Decimal `json:"issued"`
	Consumed  decimal.Decimal `json:"consumed"`
	Loss      decimal.Decimal `json:"loss"`
	Remaining decimal.Decimal `json:"remaining"`
}

// SummarizeGold folds gold issues and consumptions into a summary, 3dp.
func SummarizeGold(issues []GoldIssue, consumptions []GoldConsumption) MaterialSummary {
	issued := decimal.Zero
	for _, i := range issues {
		issued = issued.Add(i.IssuedWeightG)
	}
	consumed := decimal.Zero
	loss := decimal.Zero
	for _, c := range consumptions {
		consumed = consumed.Add(c.ConsumedWeightG)
		loss = loss.Add(c.LossWeightG)
	}
	issued = RoundGrams(issued)
	consumed = RoundGrams(consumed)
	loss = RoundGrams(loss)
	return MaterialSummary{
		Issued:    issued,
		Consumed:  consumed,
		Loss:      loss,
		Remaining: RoundGrams(issued.Sub(consumed).Sub(loss)),
	}
}

// SummarizeDiamond folds diamond issues and consumptions into a summary, 2dp.
// Breakage plays the role loss plays for gold.
func SummarizeDiamond(issues []DiamondIssue, consumptions []DiamondConsumption) MaterialSummary {
	issued := decimal.Zero
	for _, i := range issues {
		issued = issued.Add(i.IssuedWeightCts)
	}
	consumed := decimal.Zero
	breakage := decimal.Zero
	for _, c := range consumptions {
		consumed = consumed.Add(c.ConsumedWeightCts)
		breakage = breakage.Add(c.BreakageWeightCts)
	}
	issued = RoundCarats(issued)
	consumed = RoundCarats(consumed)
	breakage = RoundCarats(breakage)
	return MaterialSummary{
		Issued:    issued,
		Consumed:  consumed,
		Loss:      breakage,
		Remaining: RoundCarats(issued.Sub(consumed).Sub(breakage)),
	}
}

type JobBagReconciliation struct {
	JobBagId     int             `json:"job_bag_id"`
	JobBagNumber string          `json:"job_bag_number"`
	Status       JobBagStatus    `json:"status"`
	Gold         MaterialSummary `json:"gold"`
	Diamond      MaterialSummary `json:"diamond"`
	PieceIssued  int             `json:"piece_issued"`
	PieceUsed    int             `json:"piece_used"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// ReconcileJobBag builds the material balance report for one bag from the
// append-only ledger rows. It is a pure read; closed bags reconcile the same
// way as live ones.
func ReconcileJobBag(ctx context.Context, jobBagId int) (*JobBagReconciliation, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	jobBag, err := utils.FetchModel[JobBag](ctx, companyId, jobBagId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()

	var goldIssues []GoldIssue
	if err := db.WithContext(ctx).
		Where("company_id = ? AND job_bag_id = ?", companyId, jobBagId).
		Find(&goldIssues).Error; err != nil {
		return nil, err
	}
	var goldConsumptions []GoldConsumption
	if err := db.WithContext(ctx).
		Where("company_id = ? AND job_bag_id = ?", companyId, jobBagId).
		Find(&goldConsumptions).Error; err != nil {
		return nil, err
	}
	var diamondIssues []DiamondIssue
	if err := db.WithContext(ctx).
		Where("company_id = ? AND job_bag_id = ?", companyId, jobBagId).
		Find(&diamondIssues).Error; err != nil {
		return nil, err
	}
	var diamondConsumptions []DiamondConsumption
	if err := db.WithContext(ctx).
		Where("company_id = ? AND job_bag_id = ?", companyId, jobBagId).
		Find(&diamondConsumptions).Error; err != nil {
		return nil, err
	}

	pieceIssued := 0
	for _, i := range diamondIssues {
		pieceIssued += i.IssuedPieces
	}
	pieceUsed := 0
	for _, c := range diamondConsumptions {
		pieceUsed += c.ConsumedPieces
	}

	return &JobBagReconciliation{
		JobBagId:     jobBag.ID,
		JobBagNumber: jobBag.JobBagNumber,
		Status:       jobBag.Status,
		Gold:         SummarizeGold(goldIssues, goldConsumptions),
		Diamond:      SummarizeDiamond(diamondIssues, diamondConsumptions),
		PieceIssued:  pieceIssued,
		PieceUsed:    pieceUsed,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// JobBagMovement is one chronological entry in a bag's movement log.
type JobBagMovement struct {
	MovementType string          `json:"movement_type"`
	MaterialType MaterialType    `json:"material_type"`
	Weight       decimal.Decimal `json:"weight"`
	LossWeight   decimal.Decimal `json:"loss_weight"`
	Pieces       int             `json:"pieces"`
	SourceId     int             `json:"source_id"`
	Notes        string          `json:"notes"`
	PostedAt     time.Time       `json:"posted_at"`
}

// ListJobBagMovements returns the full chronology of ledger rows for one bag,
// oldest first.
func ListJobBagMovements(ctx context.Context, jobBagId int) ([]JobBagMovement, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if _, err := utils.FetchModel[JobBag](ctx, companyId, jobBagId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	movements := []JobBagMovement{}

	var goldIssues []GoldIssue
	if err := db.WithContext(ctx).
		Where("company_id = ? AND job_bag_id = ?", companyId, jobBagId).
		Find(&goldIssues).Error; err != nil {
		return nil, err
	}
	for _, i := range goldIssues {
		movements = append(movements, JobBagMovement{
			MovementType: "ISSUE",
			MaterialType: MaterialTypeGold,
			Weight:       i.IssuedWeightG,
			SourceId:     i.GoldBatchId,
			Notes:        i.Notes,
			PostedAt:     i.CreatedAt,
		})
	}

	var goldConsumptions []GoldConsumption
	if err := db.WithContext(ctx).
		Where("company_id = ? AND job_bag_id = ?", companyId, jobBagId).
		Find(&goldConsumptions).Error; err != nil {
		return nil, err
	}
	for _, c := range goldConsumptions {
		movements = append(movements, JobBagMovement{
			MovementType: "CONSUMPTION",
			MaterialType: MaterialTypeGold,
			Weight:       c.ConsumedWeightG,
			LossWeight:   c.LossWeightG,
			SourceId:     c.GoldBatchId,
			Notes:        c.Notes,
			PostedAt:     c.CreatedAt,
		})
	}

	var diamondIssues []DiamondIssue
	if err := db.WithContext(ctx).
		Where("company_id = ? AND job_bag_id = ?", companyId, jobBagId).
		Find(&diamondIssues).Error; err != nil {
		return nil, err
	}
	for _, i := range diamondIssues {
		movements = append(movements, JobBagMovement{
			MovementType: "ISSUE",
			MaterialType: MaterialTypeDiamond,
			Weight:       i.IssuedWeightCts,
			Pieces:       i.IssuedPieces,
			SourceId:     i.DiamondLotId,
			Notes:        i.Notes,
			PostedAt:     i.CreatedAt,
		})
	}

	var diamondConsumptions []DiamondConsumption
	if err := db.WithContext(ctx).
		Where("company_id = ? AND job_bag_id = ?", companyId, jobBagId).
		Find(&diamondConsumptions).Error; err != nil {
		return nil, err
	}
	for _, c := range diamondConsumptions {
		movements = append(movements, JobBagMovement{
			MovementType: "CONSUMPTION",
			MaterialType: MaterialTypeDiamond,
			Weight:       c.ConsumedWeightCts,
			LossWeight:   c.BreakageWeightCts,
			Pieces:       c.ConsumedPieces,
			SourceId:     c.DiamondLotId,
			Notes:        c.Notes,
			PostedAt:     c.CreatedAt,
		})
	}

	sort.SliceStable(movements, func(a, b int) bool {
		return movements[a].PostedAt.Before(movements[b].PostedAt)
	})
	return movements, nil
}
