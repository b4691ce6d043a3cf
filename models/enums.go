package models

type MetalType string

const (
	MetalTypeGold     MetalType = "Gold"
	MetalTypePlatinum MetalType = "Platinum"
	MetalTypeSilver   MetalType = "Silver"
)

type MaterialType string

const (
	MaterialTypeGold    MaterialType = "Gold"
	MaterialTypeDiamond MaterialType = "Diamond"
)

// JobBagStatus is the manufacturing lifecycle of a job bag. Transitions are
// monotonic under the order below; `closed` is terminal.
type JobBagStatus string

const (
	JobBagStatusOpen       JobBagStatus = "open"
	JobBagStatusIssued     JobBagStatus = "issued"
	JobBagStatusInProgress JobBagStatus = "in_progress"
	JobBagStatusCompleted  JobBagStatus = "completed"
	JobBagStatusClosed     JobBagStatus = "closed"
)

// Rank orders statuses for the monotonicity invariant. Unknown statuses rank
// past closed so they never win a comparison.
func (s JobBagStatus) Rank() int {
	switch s {
	case JobBagStatusOpen:
		return 0
	case JobBagStatusIssued:
		return 1
	case JobBagStatusInProgress:
		return 2
	case JobBagStatusCompleted:
		return 3
	case JobBagStatusClosed:
		return 4
	}
	return 5
}

// CanAcceptIssue reports whether a material issue may be appended for a bag in
// this state. Issues are legal until the finished item has been received.
func (s JobBagStatus) CanAcceptIssue() bool {
	switch s {
	case JobBagStatusOpen, JobBagStatusIssued, JobBagStatusInProgress:
		return true
	}
	return false
}

// CanAcceptConsumption requires material to have been issued first.
func (s JobBagStatus) CanAcceptConsumption() bool {
	switch s {
	case JobBagStatusIssued, JobBagStatusInProgress:
		return true
	}
	return false
}

// CanAcceptReceipt reports whether finished goods may be received. A bag must
// have consumption recorded before its output can be booked into inventory.
func (s JobBagStatus) CanAcceptReceipt() bool {
	return s == JobBagStatusInProgress
}

func (s JobBagStatus) CanClose() bool {
	return s == JobBagStatusCompleted
}

type InventoryItemStatus string

const (
	InventoryItemStatusInStock   InventoryItemStatus = "in_stock"
	InventoryItemStatusInTransit InventoryItemStatus = "in_transit"
	InventoryItemStatusOnMemo    InventoryItemStatus = "on_memo"
	InventoryItemStatusSold      InventoryItemStatus = "sold"
	InventoryItemStatusMissing   InventoryItemStatus = "missing"
)

// MemoStatus is the lifecycle of an approval memo. An open memo either becomes
// a sale or comes back; there is no partial settlement.
type MemoStatus string

const (
	MemoStatusOpen            MemoStatus = "open"
	MemoStatusConvertedToSale MemoStatus = "converted_to_sale"
	MemoStatusReturned        MemoStatus = "returned"
)

type StockTransferStatus string

const (
	StockTransferStatusDraft      StockTransferStatus = "draft"
	StockTransferStatusDispatched StockTransferStatus = "dispatched"
	StockTransferStatusCompleted  StockTransferStatus = "completed"
)

type WarehouseType string

const (
	WarehouseTypeMainSafe WarehouseType = "main_safe"
	WarehouseTypeFactory  WarehouseType = "factory"
	WarehouseTypeBranch   WarehouseType = "branch"
	WarehouseTypeTransit  WarehouseType = "transit"
)

type UserRole string

const (
	UserRoleOwner   UserRole = "owner"
	UserRoleManager UserRole = "manager"
	UserRoleStaff   UserRole = "staff"
)
