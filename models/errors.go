package models

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

// Sentinel errors returned by ledger commands. The REST layer maps these to
// status codes; callers can retry after ErrInsufficientStock with fresh
// availability data.
var (
	ErrInsufficientStock = errors.New("insufficient stock remaining in batch/lot")
	ErrInvalidJobState   = errors.New("command not valid for the job bag's current state")
	ErrDuplicateBarcode  = errors.New("barcode already exists")
	ErrOverConsumption   = errors.New("cumulative consumption exceeds issued total")
	ErrUnreconciledClose = errors.New("job bag balance exceeds breakage threshold")
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
