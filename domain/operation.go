package domain

import (
	"time"
)

const (
	OperationSupply     = "supply"
	OperationBorrow     = "borrow"
	OperationRepay      = "repay"
	OperationWithdraw   = "withdraw"
	OperationTransfer   = "transfer"
	OperationDelegation = "delegation"
)

// OperationRecord is the journaled trace of one write-flow invocation. The
// journal is operator-facing history, never a source of truth for a flow.
type OperationRecord struct {
	Reference  string     `json:"reference"`
	Kind       string     `json:"kind"`
	Account    string     `json:"account"`
	Symbol     string     `json:"symbol"`
	Amount     string     `json:"amount"`
	Status     string     `json:"status"`
	Hashes     []string   `json:"hashes"`
	Cause      string     `json:"cause"`
	CreateTime time.Time  `json:"create_time"`
	FinishTime *time.Time `json:"finish_time"`
}
