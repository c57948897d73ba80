package usecase

import (
	"context"
	"ghooey/domain"
	"ghooey/interface/repository"
	"log"

	"github.com/ethereum/go-ethereum/common"
)

// DelegationInteractor lets the user delegate borrowing power on a debt token
// to another address through a DelegationWithSig typed-data signature.
type DelegationInteractor struct {
	writeFlow
	pool   domain.PoolClient
	wallet domain.WalletProvider

	tracker *domain.StatusTracker
}

func NewDelegationInteractor(pool domain.PoolClient,
	wallet domain.WalletProvider,
	executor *BatchExecutor,
	journal *repository.OperationRepository,
	sink domain.NotificationSink) *DelegationInteractor {
	interactor := &DelegationInteractor{
		writeFlow: writeFlow{executor: executor, journal: journal, sink: sink},
		pool:      pool,
		wallet:    wallet,
		tracker:   domain.NewStatusTracker(),
	}
	return interactor
}

func (interactor *DelegationInteractor) Status() string {
	return interactor.tracker.Status()
}

func (interactor *DelegationInteractor) TxHashes() []common.Hash {
	return interactor.tracker.Hashes()
}

// DelegateCredit signs a DelegationWithSig document for the debt token and
// submits the approveDelegation call carrying it.
func (interactor *DelegationInteractor) DelegateCredit(ctx context.Context, delegator common.Address, debtToken common.Address, delegatee common.Address, amount string) {

	tracker := domain.NewStatusTracker()
	interactor.tracker = tracker
	reference := interactor.journalStart(domain.OperationDelegation, delegator.Hex(), debtToken.Hex(), amount)

	raw, err := domain.DenormalizeAmount(amount, 18)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	if err := tracker.Begin(); err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	order := domain.DelegationOrder{
		Delegator: delegator,
		Delegatee: delegatee,
		DebtToken: debtToken,
		Amount:    raw,
		Deadline:  deadlineFromNow(),
	}

	payload, err := interactor.pool.DelegationPayload(ctx, order)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	signature, err := interactor.wallet.SignTypedData(ctx, delegator, payload)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	txs, err := interactor.pool.ApproveDelegation(ctx, order, signature)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	interactor.settle(ctx, tracker, reference, txs, nil)

	if tracker.Status() == domain.StatusTransactionSuccessful {
		log.Printf("delegated credit to %v [wallet: %v]\n", delegatee.Hex(), delegator.Hex())
	}
}
