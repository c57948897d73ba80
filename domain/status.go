package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	StatusIdle                  = "idle"
	StatusSignaturePending      = "signaturePending"
	StatusTransactionPending    = "transactionPending"
	StatusTransactionSuccessful = "transactionSuccessful"
	StatusError                 = "error"
)

var (
	ErrorStatusNotIdle  = fmt.Errorf("operation already started, begin is only valid from idle")
	ErrorStatusNoSubmit = fmt.Errorf("submit is only valid from idle or signaturePending")
	ErrorStatusNoResult = fmt.Errorf("succeed is only valid from transactionPending")
	ErrorStatusTerminal = fmt.Errorf("operation already finished")
)

// StatusTracker holds the lifecycle of one write operation. Forward-only on
// the happy path; error is reachable from any non-terminal state. A finished
// tracker is never reused, each invocation makes a fresh one.
type StatusTracker struct {
	status string
	hashes []common.Hash
	cause  error
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		status: StatusIdle,
	}
}

func (tracker *StatusTracker) Status() string {
	return tracker.status
}

// Hashes returns the recorded transaction hashes. Empty until the operation
// finishes successfully; stale hashes from a previous invocation are cleared
// the moment status leaves idle, not at failure time.
func (tracker *StatusTracker) Hashes() []common.Hash {
	return tracker.hashes
}

func (tracker *StatusTracker) Cause() error {
	return tracker.cause
}

// Begin moves idle -> signaturePending. Only the flows requiring an off-chain
// signature (supply, repay with permit, credit delegation) call it.
func (tracker *StatusTracker) Begin() error {
	if tracker.status != StatusIdle {
		return ErrorStatusNotIdle
	}
	tracker.hashes = nil
	tracker.status = StatusSignaturePending
	return nil
}

// Submit moves to transactionPending. Signature-free flows (borrow, withdraw,
// transfer) call it straight from idle; signature flows call it after Begin.
func (tracker *StatusTracker) Submit() error {
	switch tracker.status {
	case StatusIdle:
		tracker.hashes = nil
	case StatusSignaturePending:
		// signature already collected
	default:
		return ErrorStatusNoSubmit
	}
	tracker.status = StatusTransactionPending
	return nil
}

func (tracker *StatusTracker) Succeed(hashes []common.Hash) error {
	if tracker.status != StatusTransactionPending {
		return ErrorStatusNoResult
	}
	tracker.hashes = hashes
	tracker.status = StatusTransactionSuccessful
	return nil
}

func (tracker *StatusTracker) Fail(cause error) error {
	if tracker.status == StatusTransactionSuccessful || tracker.status == StatusError {
		return ErrorStatusTerminal
	}
	tracker.cause = cause
	tracker.status = StatusError
	return nil
}

func (tracker *StatusTracker) IsTerminal() bool {
	return tracker.status == StatusTransactionSuccessful || tracker.status == StatusError
}
