package models

import (
	"encoding/json"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
	"gorm.io/gorm"
)

// Outbox publish statuses for StockMovementRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// Movement reference types carried on outbox rows.
const (
	MovementRefGoldIssue          = "GOLD_ISSUE"
	MovementRefDiamondIssue       = "DIAMOND_ISSUE"
	MovementRefGoldConsumption    = "GOLD_CONSUMPTION"
	MovementRefDiamondConsumption = "DIAMOND_CONSUMPTION"
	MovementRefFinishedGoods      = "FINISHED_GOODS"
	MovementRefStockTransfer      = "STOCK_TRANSFER"
	MovementRefSale               = "SALE"
	MovementRefMemo               = "MEMO"
	MovementRefSalesReturn        = "SALES_RETURN"
)

// StockMovementRecord is the transactional outbox row for material movements.
// It is written in the same transaction as the ledger row it describes and
// published to Pub/Sub after commit by the movement dispatcher.
type StockMovementRecord struct {
	ID            int       `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	CompanyId     string    `gorm:"size:36;not null;index" json:"company_id"`
	MovementTime  time.Time `gorm:"index;not null" json:"movement_time"`
	ReferenceId   int       `json:"reference_id"`
	ReferenceType string    `gorm:"size:30;index" json:"reference_type"`
	Action        string    `gorm:"size:1" json:"action"`
	Payload       []byte    `gorm:"type:blob" json:"payload"`
	// Publish metadata; the publish happens after commit via the dispatcher.
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToStockMovementMessage(record StockMovementRecord) config.StockMovementMessage {
	return config.StockMovementMessage{
		ID:            record.ID,
		CompanyId:     record.CompanyId,
		MovementTime:  record.MovementTime,
		ReferenceId:   record.ReferenceId,
		ReferenceType: record.ReferenceType,
		Action:        record.Action,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// saveStockMovement appends an outbox row inside the caller's transaction.
// Deduplication happens here: a row with the same reference already present
// means the command is a replay and no second movement is recorded.
func saveStockMovement(tx *gorm.DB, referenceId int, referenceType string, action string, payload interface{}) error {

	ctx := tx.Statement.Context
	companyId, _ := utils.GetCompanyIdFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var count int64
	err := tx.Model(&StockMovementRecord{}).
		Where("company_id = ? AND reference_type = ? AND reference_id = ? AND action = ?",
			companyId, referenceType, referenceId, action).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	record := StockMovementRecord{
		CompanyId:     companyId,
		MovementTime:  time.Now().UTC(),
		ReferenceId:   referenceId,
		ReferenceType: referenceType,
		Action:        action,
		Payload:       body,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationId,
	}
	return tx.Create(&record).Error
}
