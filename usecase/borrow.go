package usecase

import (
	"context"
	"ghooey/domain"
	"ghooey/domain/util"
	"ghooey/interface/repository"
	"log"

	"github.com/ethereum/go-ethereum/common"
)

const (
	InterestRateNone     = uint8(0)
	InterestRateStable   = uint8(1)
	InterestRateVariable = uint8(2)
)

// BorrowInteractor drives the plain borrow flow. No off-chain signature is
// involved, so the lifecycle goes idle -> transactionPending directly.
type BorrowInteractor struct {
	writeFlow
	pool domain.PoolClient

	tracker *domain.StatusTracker
}

func NewBorrowInteractor(pool domain.PoolClient,
	executor *BatchExecutor,
	journal *repository.OperationRepository,
	sink domain.NotificationSink) *BorrowInteractor {
	interactor := &BorrowInteractor{
		writeFlow: writeFlow{executor: executor, journal: journal, sink: sink},
		pool:      pool,
		tracker:   domain.NewStatusTracker(),
	}
	return interactor
}

func (interactor *BorrowInteractor) Status() string {
	return interactor.tracker.Status()
}

func (interactor *BorrowInteractor) TxHashes() []common.Hash {
	return interactor.tracker.Hashes()
}

// Borrow draws a reserve asset against the user's collateral. The user must
// hold a collateralized position or the pool reverts the call.
func (interactor *BorrowInteractor) Borrow(ctx context.Context, user common.Address, symbol string, amount string, rateMode uint8) {

	tracker := domain.NewStatusTracker()
	interactor.tracker = tracker
	reference := interactor.journalStart(domain.OperationBorrow, user.Hex(), symbol, amount)

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

	order := domain.BorrowOrder{
		User:             user,
		Reserve:          token.Underlying,
		Amount:           raw,
		InterestRateMode: rateMode,
	}

	txs, err := interactor.pool.Borrow(ctx, order)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	interactor.settle(ctx, tracker, reference, txs, nil)

	if tracker.Status() == domain.StatusTransactionSuccessful {
		log.Printf("borrowed %v from the pool [wallet: %v]\n",
			util.TokenString(domain.NormalizeAmount(raw, token.Decimals), token.Symbol), user.Hex())
	}
}
