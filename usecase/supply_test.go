package usecase

import (
	"context"
	"ghooey/domain"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestSupply_HappyPath(t *testing.T) {
	pool := &fakePool{}
	wallet := &fakeWallet{accounts: []common.Address{testUser}}
	sink := &fakeSink{}
	executor := NewBatchExecutor(&fakeSigner{address: testUser})
	interactor := NewSupplyInteractor(pool, wallet, executor, nil, sink)

	interactor.Supply(context.Background(), testUser, "DAI", "25.5", nil)

	assert.Equal(t, domain.StatusTransactionSuccessful, interactor.Status())
	require.Len(t, interactor.TxHashes(), 1)

	require.Len(t, pool.supplies, 1)
	dai, _ := domain.AssetBySymbol("DAI")
	order := pool.supplies[0]
	assert.Equal(t, dai.Underlying, order.Reserve)
	assert.Equal(t, testUser, order.OnBehalf, "supplier is the beneficiary when none is named")
	expected, _ := domain.DenormalizeAmount("25.5", dai.Decimals)
	assert.Equal(t, expected, order.Amount)
	assert.Equal(t, [][]byte{[]byte("signature")}, pool.signatures)

	notifications := sink.all()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotifyPoolSupply, notifications[0].Name)
	assert.Equal(t, "DAI", notifications[0].Symbol)
}

func TestSupply_OnBehalfOf(t *testing.T) {
	pool := &fakePool{}
	wallet := &fakeWallet{accounts: []common.Address{testUser}}
	executor := NewBatchExecutor(&fakeSigner{address: testUser})
	interactor := NewSupplyInteractor(pool, wallet, executor, nil, nil)

	beneficiary := common.HexToAddress("0x2222222222222222222222222222222222222222")
	interactor.Supply(context.Background(), testUser, "USDC", "100", &beneficiary)

	require.Len(t, pool.supplies, 1)
	assert.Equal(t, beneficiary, pool.supplies[0].OnBehalf)
}

func TestSupply_SignatureRejected(t *testing.T) {
	pool := &fakePool{}
	wallet := &fakeWallet{accounts: []common.Address{testUser}, signErr: errRejected}
	executor := NewBatchExecutor(&fakeSigner{address: testUser})
	interactor := NewSupplyInteractor(pool, wallet, executor, nil, nil)

	interactor.Supply(context.Background(), testUser, "DAI", "1", nil)

	assert.Equal(t, domain.StatusError, interactor.Status())
	assert.ErrorIs(t, interactor.tracker.Cause(), errRejected)
	assert.Empty(t, pool.supplies, "no transaction is built without a signature")
}

func TestSupply_SubmissionRejected(t *testing.T) {
	pool := &fakePool{rejection: errRejected}
	wallet := &fakeWallet{accounts: []common.Address{testUser}}
	sink := &fakeSink{}
	executor := NewBatchExecutor(&fakeSigner{address: testUser})
	interactor := NewSupplyInteractor(pool, wallet, executor, nil, sink)

	interactor.Supply(context.Background(), testUser, "DAI", "1", nil)

	assert.Equal(t, domain.StatusError, interactor.Status())
	assert.ErrorIs(t, interactor.tracker.Cause(), errRejected)
	assert.Empty(t, interactor.TxHashes())
	assert.Empty(t, sink.all(), "a failed operation never notifies")
}

func TestSupply_HashesClearedOnNextInvocation(t *testing.T) {
	pool := &fakePool{}
	wallet := &fakeWallet{accounts: []common.Address{testUser}}
	executor := NewBatchExecutor(&fakeSigner{address: testUser})
	interactor := NewSupplyInteractor(pool, wallet, executor, nil, nil)

	interactor.Supply(context.Background(), testUser, "DAI", "1", nil)
	require.Equal(t, domain.StatusTransactionSuccessful, interactor.Status())
	first := interactor.TxHashes()
	require.Len(t, first, 1)

	// a new invocation drops the previous hashes before it signs anything
	var midFlight []common.Hash
	wallet.signHook = func() { midFlight = interactor.TxHashes() }
	pool.rejection = errRejected
	interactor.Supply(context.Background(), testUser, "DAI", "2", nil)

	assert.Empty(t, midFlight, "stale hashes never leak into a fresh invocation")
	assert.Equal(t, domain.StatusError, interactor.Status())
	assert.Empty(t, interactor.TxHashes())

	wallet.signHook = nil
	pool.rejection = nil
	interactor.Supply(context.Background(), testUser, "DAI", "3", nil)

	assert.Equal(t, domain.StatusTransactionSuccessful, interactor.Status())
	require.Len(t, interactor.TxHashes(), 1)
	assert.NotEqual(t, first, interactor.TxHashes())
}

func TestSupply_UnknownToken(t *testing.T) {
	interactor := NewSupplyInteractor(&fakePool{}, &fakeWallet{}, NewBatchExecutor(&fakeSigner{}), nil, nil)

	interactor.Supply(context.Background(), testUser, "DOGE", "1", nil)

	assert.Equal(t, domain.StatusError, interactor.Status())
	assert.ErrorIs(t, interactor.tracker.Cause(), domain.ErrorUnknownToken)
}

func TestSupply_InvalidAmount(t *testing.T) {
	interactor := NewSupplyInteractor(&fakePool{}, &fakeWallet{}, NewBatchExecutor(&fakeSigner{}), nil, nil)

	interactor.Supply(context.Background(), testUser, "DAI", "lots", nil)

	assert.Equal(t, domain.StatusError, interactor.Status())
	assert.ErrorIs(t, interactor.tracker.Cause(), domain.ErrorInvalidAmount)
}

func TestBorrow_SignatureFree(t *testing.T) {
	pool := &fakePool{}
	executor := NewBatchExecutor(&fakeSigner{address: testUser})
	interactor := NewBorrowInteractor(pool, executor, nil, nil)

	interactor.Borrow(context.Background(), testUser, "USDC", "250", InterestRateVariable)

	assert.Equal(t, domain.StatusTransactionSuccessful, interactor.Status())
	require.Len(t, pool.borrows, 1)
	assert.Equal(t, InterestRateVariable, pool.borrows[0].InterestRateMode)
	assert.Len(t, interactor.TxHashes(), 1)
}
