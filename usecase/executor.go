package usecase

import (
	"context"
	"fmt"
	"ghooey/domain"
	"log"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrorEmptyBatch       = fmt.Errorf("no prepared transaction to submit")
	ErrorUnsettledOutcome = fmt.Errorf("confirmation requires a fully fulfilled batch")
)

// BatchExecutor submits prepared transactions through one signer and settles
// them without letting a single rejection cancel its siblings.
type BatchExecutor struct {
	signer domain.Signer
}

func NewBatchExecutor(signer domain.Signer) *BatchExecutor {
	executor := &BatchExecutor{
		signer: signer,
	}
	return executor
}

// SubmitAll resolves every prepared transaction's final calldata and sends it,
// concurrently. The returned outcomes are index-aligned with the input;
// completion order never reorders them. Settle-all: every submission attempt
// runs to its own end.
func (executor *BatchExecutor) SubmitAll(ctx context.Context, txs []domain.PreparedTransaction) []domain.TransactionOutcome {

	outcomes := make([]domain.TransactionOutcome, len(txs))

	var wg sync.WaitGroup
	for i, tx := range txs {
		wg.Add(1)
		go func(i int, tx domain.PreparedTransaction) {
			defer wg.Done()
			outcomes[i] = executor.submitOne(ctx, i, tx)
		}(i, tx)
	}
	wg.Wait()

	return outcomes
}

func (executor *BatchExecutor) submitOne(ctx context.Context, index int, tx domain.PreparedTransaction) domain.TransactionOutcome {

	request, err := tx.Resolve(ctx)
	if err != nil {
		log.Printf("🔴 resolving transaction data [%v #%v] - %v\n", tx.Kind, index, err.Error())
		return domain.TransactionOutcome{Index: index, Err: err}
	}

	handle, err := executor.signer.SendTransaction(ctx, request)
	if err != nil {
		log.Printf("🔴 sending transaction [%v #%v] - %v\n", tx.Kind, index, err.Error())
		return domain.TransactionOutcome{Index: index, Err: err}
	}

	return domain.TransactionOutcome{Index: index, Handle: handle}
}

// ConfirmAll waits for on-chain confirmation of a fully fulfilled batch,
// concurrently and settle-all, then returns the hashes index-aligned with the
// original input. A late confirmation failure is logged, not escalated.
func (executor *BatchExecutor) ConfirmAll(ctx context.Context, outcomes []domain.TransactionOutcome) ([]common.Hash, error) {

	if len(outcomes) == 0 {
		return nil, ErrorEmptyBatch
	}

	hashes := make([]common.Hash, len(outcomes))
	for _, outcome := range outcomes {
		if !outcome.Fulfilled() {
			return nil, ErrorUnsettledOutcome
		}
		hashes[outcome.Index] = outcome.Handle.Hash()
	}

	var wg sync.WaitGroup
	for _, outcome := range outcomes {
		wg.Add(1)
		go func(outcome domain.TransactionOutcome) {
			defer wg.Done()
			if err := outcome.Handle.Wait(ctx); err != nil {
				log.Printf("🟡 confirmation wait [%v] - %v\n", outcome.Handle.Hash().Hex(), err.Error())
			}
		}(outcome)
	}
	wg.Wait()

	return hashes, nil
}
