package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	SettleAllFulfilled = "allFulfilled"
	SettlePartial      = "partiallyFulfilled"
	SettleAllRejected  = "allRejected"
)

// TransactionRequest is the final signable transaction data. A zero Value or
// GasLimit means "let the signer fill it in".
type TransactionRequest struct {
	From     common.Address
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasLimit uint64
}

// PreparedTransaction is an opaque payload produced by a pool write builder.
// Resolve yields the final signable data and is consumed exactly once, by the
// batch executor.
type PreparedTransaction struct {
	Kind    string
	Resolve func(ctx context.Context) (*TransactionRequest, error)
}

// TransactionHandle is a submitted transaction: its hash plus the capability
// to wait for on-chain confirmation.
type TransactionHandle interface {
	Hash() common.Hash
	Wait(ctx context.Context) error
}

// TransactionOutcome is the settled result of submitting one prepared
// transaction. Exactly one of Handle or Err is set.
type TransactionOutcome struct {
	Index  int
	Handle TransactionHandle
	Err    error
}

func (outcome TransactionOutcome) Fulfilled() bool {
	return outcome.Err == nil
}

// ClassifySettlement folds a settle-all outcome sequence into one of three
// tags so callers branch on partial failure explicitly instead of silently
// reading through it.
func ClassifySettlement(outcomes []TransactionOutcome) string {
	rejected := 0
	for _, outcome := range outcomes {
		if !outcome.Fulfilled() {
			rejected++
		}
	}

	switch {
	case rejected == 0:
		return SettleAllFulfilled
	case rejected == len(outcomes):
		return SettleAllRejected
	default:
		return SettlePartial
	}
}

// FirstRejection returns the first error in input order, or nil when all
// outcomes are fulfilled.
func FirstRejection(outcomes []TransactionOutcome) error {
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			return outcome.Err
		}
	}
	return nil
}
