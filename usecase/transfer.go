package usecase

import (
	"context"
	"ghooey/domain"
	"ghooey/domain/util"
	"ghooey/interface/repository"
	"log"

	"github.com/ethereum/go-ethereum/common"
)

// TransferInteractor drives a plain ERC-20 transfer to another address.
// Single transaction, no signature step.
type TransferInteractor struct {
	writeFlow
	tokens domain.TokenClient

	tracker *domain.StatusTracker
}

func NewTransferInteractor(tokens domain.TokenClient,
	executor *BatchExecutor,
	journal *repository.OperationRepository,
	sink domain.NotificationSink) *TransferInteractor {
	interactor := &TransferInteractor{
		writeFlow: writeFlow{executor: executor, journal: journal, sink: sink},
		tokens:    tokens,
		tracker:   domain.NewStatusTracker(),
	}
	return interactor
}

func (interactor *TransferInteractor) Status() string {
	return interactor.tracker.Status()
}

func (interactor *TransferInteractor) TxHashes() []common.Hash {
	return interactor.tracker.Hashes()
}

func (interactor *TransferInteractor) Transfer(ctx context.Context, from common.Address, symbol string, amount string, recipient common.Address) {

	tracker := domain.NewStatusTracker()
	interactor.tracker = tracker
	reference := interactor.journalStart(domain.OperationTransfer, from.Hex(), symbol, amount)

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

	order := domain.TransferOrder{
		From:   from,
		To:     recipient,
		Token:  token.Underlying,
		Amount: raw,
	}

	txs, err := interactor.tokens.Transfer(ctx, order)
	if err != nil {
		interactor.fail(tracker, reference, err)
		return
	}

	normalized := domain.NormalizeAmount(raw, token.Decimals)
	notice := domain.Notification{
		Name:      domain.NotifyERC20Transfer,
		Token:     token.Underlying,
		Symbol:    token.Symbol,
		Amount:    normalized,
		Direction: domain.TransferDirectionFrom,
		From:      &from,
		To:        &recipient,
	}
	interactor.settle(ctx, tracker, reference, txs, &notice)

	if tracker.Status() == domain.StatusTransactionSuccessful {
		log.Printf("transferred %v to %v [wallet: %v]\n",
			util.TokenString(normalized, token.Symbol), recipient.Hex(), from.Hex())
	}
}
