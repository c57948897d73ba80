package usecase

import (
	"context"
	"ghooey/domain"
	"ghooey/domain/util"
	"ghooey/interface/repository"
	"log"

	"github.com/ethereum/go-ethereum/common"
)

// RepayInteractor drives debt repayment, either with the underlying token
// through a permit signature or directly with aTokens.
type RepayInteractor struct {
	writeFlow
	pool   domain.PoolClient
	wallet domain.WalletProvider

	tracker *domain.StatusTracker
}

func NewRepayInteractor(pool domain.PoolClient,
	wallet domain.WalletProvider,
	executor *BatchExecutor,
	journal *repository.OperationRepository,
	sink domain.NotificationSink) *RepayInteractor {
	interactor := &RepayInteractor{
		writeFlow: writeFlow{executor: executor, journal: journal, sink: sink},
		pool:      pool,
		wallet:    wallet,
		tracker:   domain.NewStatusTracker(),
	}
	return interactor
}

func (interactor *RepayInteractor) Status() string {
	return interactor.tracker.Status()
}

func (interactor *RepayInteractor) TxHashes() []common.Hash {
	return interactor.tracker.Hashes()
}

// RepayDebt repays with the underlying token via repayWithPermit: sign an
// approval off-chain first, then submit.
func (interactor *RepayInteractor) RepayDebt(ctx context.Context, user common.Address, symbol string, amount string, rateMode uint8, onBehalf *common.Address) {

	tracker := domain.NewStatusTracker()
	interactor.tracker = tracker
	reference := interactor.journalStart(domain.OperationRepay, user.Hex(), symbol, amount)

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

	if err := tracker.Begin(); err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	debtor := user
	if onBehalf != nil {
		debtor = *onBehalf
	}
	order := domain.RepayOrder{
		User:             user,
		Reserve:          token.Underlying,
		Amount:           raw,
		InterestRateMode: rateMode,
		Deadline:         deadlineFromNow(),
		OnBehalf:         debtor,
	}

	payload, err := interactor.pool.RepayPermitPayload(ctx, order)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	signature, err := interactor.wallet.SignTypedData(ctx, user, payload)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	txs, err := interactor.pool.RepayWithPermit(ctx, order, signature)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	interactor.settle(ctx, tracker, reference, txs, nil)

	if tracker.Status() == domain.StatusTransactionSuccessful {
		log.Printf("repaid %v of debt [wallet: %v]\n",
			util.TokenString(domain.NormalizeAmount(raw, token.Decimals), token.Symbol), user.Hex())
	}
}

// RepayDebtWithATokens burns aTokens to settle debt in the same reserve. No
// signature step, the aTokens already sit in the pool's books.
func (interactor *RepayInteractor) RepayDebtWithATokens(ctx context.Context, user common.Address, symbol string, amount string, rateMode uint8) {

	tracker := domain.NewStatusTracker()
	interactor.tracker = tracker
	reference := interactor.journalStart(domain.OperationRepay, user.Hex(), symbol, amount)

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

	order := domain.RepayOrder{
		User:             user,
		Reserve:          token.Underlying,
		Amount:           raw,
		InterestRateMode: rateMode,
		OnBehalf:         user,
	}

	txs, err := interactor.pool.RepayWithATokens(ctx, order)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	interactor.settle(ctx, tracker, reference, txs, nil)
}
