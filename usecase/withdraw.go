package usecase

import (
	"context"
	"ghooey/domain"
	"ghooey/domain/util"
	"ghooey/interface/repository"
	"log"

	"github.com/ethereum/go-ethereum/common"
)

// WithdrawInteractor drives the withdraw flow: redeem aTokens for the
// underlying reserve asset. Signature-free, idle -> transactionPending.
type WithdrawInteractor struct {
	writeFlow
	pool domain.PoolClient

	tracker *domain.StatusTracker
}

func NewWithdrawInteractor(pool domain.PoolClient,
	executor *BatchExecutor,
	journal *repository.OperationRepository,
	sink domain.NotificationSink) *WithdrawInteractor {
	interactor := &WithdrawInteractor{
		writeFlow: writeFlow{executor: executor, journal: journal, sink: sink},
		pool:      pool,
		tracker:   domain.NewStatusTracker(),
	}
	return interactor
}

func (interactor *WithdrawInteractor) Status() string {
	return interactor.tracker.Status()
}

func (interactor *WithdrawInteractor) TxHashes() []common.Hash {
	return interactor.tracker.Hashes()
}

func (interactor *WithdrawInteractor) Withdraw(ctx context.Context, user common.Address, symbol string, amount string) {

	tracker := domain.NewStatusTracker()
	interactor.tracker = tracker
	reference := interactor.journalStart(domain.OperationWithdraw, user.Hex(), symbol, amount)

	token, err := domain.AssetBySymbol(symbol)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	raw, err := domain.DenormalizeAmount(amount, token.Decimals)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	order := domain.WithdrawOrder{
		User:    user,
		Reserve: token.Underlying,
		AToken:  token.AToken,
		Amount:  raw,
	}

	txs, err := interactor.pool.Withdraw(ctx, order)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	interactor.settle(ctx, tracker, reference, txs, nil)

	if tracker.Status() == domain.StatusTransactionSuccessful {
		log.Printf("withdrew %v from the pool [wallet: %v]\n",
			util.TokenString(domain.NormalizeAmount(raw, token.Decimals), token.Symbol), user.Hex())
	}
}
