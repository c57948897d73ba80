package usecase

import (
	"context"
	"ghooey/domain"
	"ghooey/domain/util"
	"ghooey/interface/repository"
	"log"

	"github.com/ethereum/go-ethereum/common"
)

// SupplyInteractor drives the supply-with-permit flow: one off-chain signed
// approval replaces the separate on-chain approval transaction.
type SupplyInteractor struct {
	writeFlow
	pool   domain.PoolClient
	wallet domain.WalletProvider

	tracker *domain.StatusTracker
}

func NewSupplyInteractor(pool domain.PoolClient,
	wallet domain.WalletProvider,
	executor *BatchExecutor,
	journal *repository.OperationRepository,
	sink domain.NotificationSink) *SupplyInteractor {
	interactor := &SupplyInteractor{
		writeFlow: writeFlow{executor: executor, journal: journal, sink: sink},
		pool:      pool,
		wallet:    wallet,
		tracker:   domain.NewStatusTracker(),
	}
	return interactor
}

// Status reports the lifecycle of the latest invocation.
func (interactor *SupplyInteractor) Status() string {
	return interactor.tracker.Status()
}

func (interactor *SupplyInteractor) TxHashes() []common.Hash {
	return interactor.tracker.Hashes()
}

// Supply deposits a tracked ERC-20 token (ERC-2612 compatible) into the pool
// via supplyWithPermit. When onBehalf is nil the supplier is the beneficiary.
// The outcome is observable through Status, never raised.
func (interactor *SupplyInteractor) Supply(ctx context.Context, user common.Address, symbol string, amount string, onBehalf *common.Address) {

	tracker := domain.NewStatusTracker()
	interactor.tracker = tracker
	reference := interactor.journalStart(domain.OperationSupply, user.Hex(), symbol, amount)

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

	beneficiary := user
	if onBehalf != nil {
		beneficiary = *onBehalf
	}
	order := domain.SupplyOrder{
		User:     user,
		Reserve:  token.Underlying,
		Amount:   raw,
		Deadline: deadlineFromNow(),
		OnBehalf: beneficiary,
	}

	payload, err := interactor.pool.PermitPayload(ctx, order)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	signature, err := interactor.wallet.SignTypedData(ctx, user, payload)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	txs, err := interactor.pool.SupplyWithPermit(ctx, order, signature)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	notice := domain.Notification{
		Name:   domain.NotifyPoolSupply,
		Token:  token.Underlying,
		Symbol: token.Symbol,
		Amount: domain.NormalizeAmount(raw, token.Decimals),
	}
	interactor.settle(ctx, tracker, reference, txs, &notice)

	if tracker.Status() == domain.StatusTransactionSuccessful {
		log.Printf("supplied %v to the pool [wallet: %v]\n", util.TokenString(notice.Amount, token.Symbol), user.Hex())
	}
}
