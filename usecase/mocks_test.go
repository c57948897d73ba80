package usecase

import (
	"context"
	"fmt"
	"ghooey/domain"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// --- signer side ---

type fakeHandle struct {
	hash    common.Hash
	waitErr error

	mutex sync.Mutex
	waits int
}

func (handle *fakeHandle) Hash() common.Hash {
	return handle.hash
}

func (handle *fakeHandle) Wait(ctx context.Context) error {
	handle.mutex.Lock()
	handle.waits++
	handle.mutex.Unlock()
	return handle.waitErr
}

func (handle *fakeHandle) waitCount() int {
	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	return handle.waits
}

type fakeSigner struct {
	address common.Address

	mutex   sync.Mutex
	sends   int
	nonces  []uint64
	handles []*fakeHandle
}

func (signer *fakeSigner) Address() common.Address {
	return signer.address
}

func (signer *fakeSigner) SendTransaction(ctx context.Context, request *domain.TransactionRequest) (domain.TransactionHandle, error) {
	signer.mutex.Lock()
	defer signer.mutex.Unlock()

	signer.sends++
	signer.nonces = append(signer.nonces, uint64(signer.sends-1))
	handle := &fakeHandle{hash: common.BigToHash(big.NewInt(int64(signer.sends)))}
	signer.handles = append(signer.handles, handle)
	return handle, nil
}

// okTx resolves to a sendable request carrying the given hash marker.
func okTx(kind string) domain.PreparedTransaction {
	return domain.PreparedTransaction{
		Kind: kind,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			return &domain.TransactionRequest{}, nil
		},
	}
}

// badTx is rejected before it ever reaches the signer.
func badTx(kind string, cause error) domain.PreparedTransaction {
	return domain.PreparedTransaction{
		Kind: kind,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			return nil, cause
		},
	}
}

// --- wallet side ---

type fakeWallet struct {
	accounts []common.Address
	signErr  error
	signHook func()

	mutex    sync.Mutex
	payloads [][]byte
	handlers []func(accounts []common.Address)
}

func (wallet *fakeWallet) IsConnected() bool {
	return len(wallet.accounts) > 0
}

func (wallet *fakeWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	return wallet.accounts, nil
}

func (wallet *fakeWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return wallet.accounts, nil
}

func (wallet *fakeWallet) SignTypedData(ctx context.Context, account common.Address, payload []byte) ([]byte, error) {
	if wallet.signHook != nil {
		wallet.signHook()
	}
	if wallet.signErr != nil {
		return nil, wallet.signErr
	}
	wallet.mutex.Lock()
	wallet.payloads = append(wallet.payloads, payload)
	wallet.mutex.Unlock()
	return []byte("signature"), nil
}

func (wallet *fakeWallet) OnAccountsChanged(handler func(accounts []common.Address)) {
	wallet.handlers = append(wallet.handlers, handler)
}

func (wallet *fakeWallet) switchTo(accounts ...common.Address) {
	wallet.accounts = accounts
	for _, handler := range wallet.handlers {
		handler(accounts)
	}
}

// --- pool side ---

type fakePool struct {
	payloadErr error
	buildErr   error
	rejection  error

	mutex      sync.Mutex
	supplies   []domain.SupplyOrder
	borrows    []domain.BorrowOrder
	signatures [][]byte
}

func (pool *fakePool) PermitPayload(ctx context.Context, order domain.SupplyOrder) ([]byte, error) {
	if pool.payloadErr != nil {
		return nil, pool.payloadErr
	}
	return []byte("permit"), nil
}

func (pool *fakePool) RepayPermitPayload(ctx context.Context, order domain.RepayOrder) ([]byte, error) {
	if pool.payloadErr != nil {
		return nil, pool.payloadErr
	}
	return []byte("permit"), nil
}

func (pool *fakePool) DelegationPayload(ctx context.Context, order domain.DelegationOrder) ([]byte, error) {
	if pool.payloadErr != nil {
		return nil, pool.payloadErr
	}
	return []byte("delegation"), nil
}

func (pool *fakePool) prepared(kind string) ([]domain.PreparedTransaction, error) {
	if pool.buildErr != nil {
		return nil, pool.buildErr
	}
	if pool.rejection != nil {
		return []domain.PreparedTransaction{badTx(kind, pool.rejection)}, nil
	}
	return []domain.PreparedTransaction{okTx(kind)}, nil
}

func (pool *fakePool) SupplyWithPermit(ctx context.Context, order domain.SupplyOrder, signature []byte) ([]domain.PreparedTransaction, error) {
	pool.mutex.Lock()
	pool.supplies = append(pool.supplies, order)
	pool.signatures = append(pool.signatures, signature)
	pool.mutex.Unlock()
	return pool.prepared(domain.OperationSupply)
}

func (pool *fakePool) Borrow(ctx context.Context, order domain.BorrowOrder) ([]domain.PreparedTransaction, error) {
	pool.mutex.Lock()
	pool.borrows = append(pool.borrows, order)
	pool.mutex.Unlock()
	return pool.prepared(domain.OperationBorrow)
}

func (pool *fakePool) RepayWithPermit(ctx context.Context, order domain.RepayOrder, signature []byte) ([]domain.PreparedTransaction, error) {
	return pool.prepared(domain.OperationRepay)
}

func (pool *fakePool) RepayWithATokens(ctx context.Context, order domain.RepayOrder) ([]domain.PreparedTransaction, error) {
	return pool.prepared(domain.OperationRepay)
}

func (pool *fakePool) Withdraw(ctx context.Context, order domain.WithdrawOrder) ([]domain.PreparedTransaction, error) {
	return pool.prepared(domain.OperationWithdraw)
}

func (pool *fakePool) ApproveDelegation(ctx context.Context, order domain.DelegationOrder, signature []byte) ([]domain.PreparedTransaction, error) {
	return pool.prepared(domain.OperationDelegation)
}

// --- read side ---

type fakeBalances struct {
	mutex    sync.Mutex
	balances map[common.Address]*big.Int
	err      error
	batches  int
	singles  int
}

func (provider *fakeBalances) BalanceOf(ctx context.Context, account common.Address, token common.Address) (*big.Int, error) {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()
	if provider.err != nil {
		return nil, provider.err
	}
	provider.singles++
	if value, exist := provider.balances[token]; exist {
		return value, nil
	}
	return big.NewInt(0), nil
}

func (provider *fakeBalances) BatchBalanceOf(ctx context.Context, account common.Address, tokens []common.Address) ([]*big.Int, error) {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()
	if provider.err != nil {
		return nil, provider.err
	}
	provider.batches++
	values := make([]*big.Int, len(tokens))
	for i, token := range tokens {
		if value, exist := provider.balances[token]; exist {
			values[i] = value
		} else {
			values[i] = big.NewInt(0)
		}
	}
	return values, nil
}

type fakeMarkets struct {
	reserves    *domain.ReservesData
	user        *domain.UserReservesData
	reservesErr error
	userErr     error

	mutex sync.Mutex
	reads int
}

func (markets *fakeMarkets) Reserves(ctx context.Context) (*domain.ReservesData, error) {
	markets.mutex.Lock()
	markets.reads++
	markets.mutex.Unlock()
	if markets.reservesErr != nil {
		return nil, markets.reservesErr
	}
	if markets.reserves == nil {
		return &domain.ReservesData{}, nil
	}
	return markets.reserves, nil
}

func (markets *fakeMarkets) UserReserves(ctx context.Context, account common.Address) (*domain.UserReservesData, error) {
	if markets.userErr != nil {
		return nil, markets.userErr
	}
	if markets.user == nil {
		return &domain.UserReservesData{}, nil
	}
	return markets.user, nil
}

// --- eventing side ---

type fakeSubscription struct {
	errCh chan error

	mutex        sync.Mutex
	unsubscribed bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{errCh: make(chan error)}
}

func (sub *fakeSubscription) Err() <-chan error {
	return sub.errCh
}

func (sub *fakeSubscription) Unsubscribe() {
	sub.mutex.Lock()
	defer sub.mutex.Unlock()
	sub.unsubscribed = true
}

func (sub *fakeSubscription) isUnsubscribed() bool {
	sub.mutex.Lock()
	defer sub.mutex.Unlock()
	return sub.unsubscribed
}

type fakeSubscriber struct {
	mutex   sync.Mutex
	queries []ethereum.FilterQuery
	sinks   []chan<- types.Log
	subs    []*fakeSubscription
	err     error
}

func (subscriber *fakeSubscriber) SubscribeLogs(ctx context.Context, query ethereum.FilterQuery, sink chan<- types.Log) (ethereum.Subscription, error) {
	subscriber.mutex.Lock()
	defer subscriber.mutex.Unlock()
	if subscriber.err != nil {
		return nil, subscriber.err
	}
	sub := newFakeSubscription()
	subscriber.queries = append(subscriber.queries, query)
	subscriber.sinks = append(subscriber.sinks, sink)
	subscriber.subs = append(subscriber.subs, sub)
	return sub, nil
}

func (subscriber *fakeSubscriber) subscriptionCount() int {
	subscriber.mutex.Lock()
	defer subscriber.mutex.Unlock()
	return len(subscriber.subs)
}

func (subscriber *fakeSubscriber) emit(index int, lg types.Log) {
	subscriber.mutex.Lock()
	sink := subscriber.sinks[index]
	subscriber.mutex.Unlock()
	sink <- lg
}

type fakeSink struct {
	mutex         sync.Mutex
	notifications []domain.Notification
}

func (sink *fakeSink) Publish(notification domain.Notification) {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.notifications = append(sink.notifications, notification)
}

func (sink *fakeSink) all() []domain.Notification {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	result := make([]domain.Notification, len(sink.notifications))
	copy(result, sink.notifications)
	return result
}

type fakeRefresher struct {
	mutex      sync.Mutex
	singles    []common.Address
	portfolios int
	singleErr  error
}

func (refresher *fakeRefresher) FetchSingleAsset(ctx context.Context, underlying common.Address) error {
	refresher.mutex.Lock()
	defer refresher.mutex.Unlock()
	if refresher.singleErr != nil {
		return refresher.singleErr
	}
	refresher.singles = append(refresher.singles, underlying)
	return nil
}

func (refresher *fakeRefresher) GetPortfolio(ctx context.Context) error {
	refresher.mutex.Lock()
	defer refresher.mutex.Unlock()
	refresher.portfolios++
	return nil
}

func (refresher *fakeRefresher) singleRefreshes() []common.Address {
	refresher.mutex.Lock()
	defer refresher.mutex.Unlock()
	result := make([]common.Address, len(refresher.singles))
	copy(result, refresher.singles)
	return result
}

var errRejected = fmt.Errorf("user rejected the request")
