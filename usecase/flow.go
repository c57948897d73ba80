package usecase

import (
	"context"
	"fmt"
	"ghooey/domain"
	"ghooey/interface/exporter"
	"ghooey/interface/repository"
	"log"
	"math/big"
	"time"
)

// permitDeadline is how long a signed approval stays valid.
const permitDeadline = 10 * time.Minute

// writeFlow carries the collaborators every write interactor shares: the
// batch executor, the operation journal and the notification sink. The
// journal is best-effort; a database hiccup never fails a flow.
type writeFlow struct {
	executor *BatchExecutor
	journal  *repository.OperationRepository
	sink     domain.NotificationSink
}

func (flow *writeFlow) journalStart(kind, account, symbol, amount string) string {
	reference := fmt.Sprintf("%v-%x", kind, time.Now().UnixNano())
	if flow.journal == nil {
		return reference
	}
	_, err := flow.journal.Insert(reference, kind, account, symbol, amount)
	if err != nil {
		log.Printf("🟡 journaling operation [%v] - %v\n", reference, err.Error())
	}
	return reference
}

// fail converts any fault to the error status. Nothing propagates past a
// write-flow entry point as a raised fault.
func (flow *writeFlow) fail(tracker *domain.StatusTracker, reference string, cause error) {
	log.Printf("🔴 operation failed [%v] - %v\n", reference, cause.Error())
	tracker.Fail(cause)
	exporter.IncErrorCount()
	if flow.journal != nil {
		flow.journal.SetFailed(reference, cause.Error(), time.Now())
	}
}

// settle runs the shared tail of every write flow: advance to
// transactionPending, submit the batch settle-all, branch on the settlement
// tag, confirm on full success and publish the domain notification. On any
// rejection the fulfilled subset is not awaited; partial success reports as
// failure.
func (flow *writeFlow) settle(ctx context.Context, tracker *domain.StatusTracker, reference string, txs []domain.PreparedTransaction, notice *domain.Notification) {

	if len(txs) == 0 {
		flow.fail(tracker, reference, ErrorEmptyBatch)
		return
	}

	if err := tracker.Submit(); err != nil {
		flow.fail(tracker, reference, err)
		return
	}
	if flow.journal != nil {
		flow.journal.SetStatus(reference, domain.StatusTransactionPending)
	}

	outcomes := flow.executor.SubmitAll(ctx, txs)
	exporter.AddSubmittedTxCount(len(outcomes))

	switch domain.ClassifySettlement(outcomes) {
	case domain.SettleAllFulfilled:
		// all submissions landed, confirmations follow
	default:
		flow.fail(tracker, reference, domain.FirstRejection(outcomes))
		return
	}

	hashes, err := flow.executor.ConfirmAll(ctx, outcomes)
	if err != nil {
		flow.fail(tracker, reference, err)
		return
	}
	exporter.AddConfirmedTxCount(len(hashes))

	tracker.Succeed(hashes)
	if flow.journal != nil {
		hexes := make([]string, len(hashes))
		for i, hash := range hashes {
			hexes[i] = hash.Hex()
		}
		flow.journal.SetSucceeded(reference, hexes, time.Now())
	}

	if notice != nil && flow.sink != nil {
		flow.sink.Publish(*notice)
		exporter.IncNotificationCount()
	}
}

func deadlineFromNow() *big.Int {
	return big.NewInt(time.Now().Add(permitDeadline).Unix())
}
