package models

import (
	"context"
	"fmt"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"gorm.io/gorm"
)

// acquireJobBagPostingLock serializes ledger commands per job bag across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB transaction that will do the posting.
func acquireJobBagPostingLock(tx *gorm.DB, companyId string, jobBagId int) error {
	lockName := fmt.Sprintf("jobbag:%s:%d", companyId, jobBagId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for job_bag_id=%d", jobBagId)
	}
	return nil
}

func releaseJobBagPostingLock(tx *gorm.DB, companyId string, jobBagId int) {
	lockName := fmt.Sprintf("jobbag:%s:%d", companyId, jobBagId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// withJobBagPostingLock runs fn inside one transaction that holds the bag's
// advisory lock. Acquire and release happen on the transaction's own
// connection; RELEASE_LOCK on any other pooled session is a no-op and would
// leave the lock held until the connection closes.
func withJobBagPostingLock(ctx context.Context, companyId string, jobBagId int, fn func(tx *gorm.DB) error) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := acquireJobBagPostingLock(tx, companyId, jobBagId); err != nil {
			return err
		}
		defer releaseJobBagPostingLock(tx, companyId, jobBagId)
		return fn(tx)
	})
}
