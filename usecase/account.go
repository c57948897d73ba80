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
	ErrorNoAccount = fmt.Errorf("no account is connected")
)

// accountWatcher is what the account interactor needs from the event
// watcher: re-register subscriptions whenever the active account changes.
type accountWatcher interface {
	Rewatch(ctx context.Context, account common.Address) error
}

// AccountInteractor owns the account snapshot and keeps it consistent with
// the wallet identity and the chain. Balances and portfolio carry independent
// fetch statuses and may refresh concurrently; every mutation of the
// snapshot goes through here.
type AccountInteractor struct {
	wallet   domain.WalletProvider
	balances domain.BalanceProvider
	markets  domain.MarketDataProvider
	watcher  accountWatcher

	mutex    sync.Mutex
	snapshot *domain.AccountSnapshot
}

func NewAccountInteractor(wallet domain.WalletProvider,
	balances domain.BalanceProvider,
	markets domain.MarketDataProvider) *AccountInteractor {
	interactor := &AccountInteractor{
		wallet:   wallet,
		balances: balances,
		markets:  markets,
		snapshot: domain.NewAccountSnapshot(),
	}
	return interactor
}

// SetWatcher wires the event watcher after construction; the watcher itself
// needs this interactor for scoped refreshes.
func (interactor *AccountInteractor) SetWatcher(watcher accountWatcher) {
	interactor.watcher = watcher
}

// Snapshot returns a copy of the current account view. The balance map is
// copied so readers never race a refresh.
func (interactor *AccountInteractor) Snapshot() domain.AccountSnapshot {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()

	view := *interactor.snapshot
	view.Balances = make(map[string]domain.AssetBalance, len(interactor.snapshot.Balances))
	for symbol, balance := range interactor.snapshot.Balances {
		view.Balances[symbol] = balance
	}
	return view
}

func (interactor *AccountInteractor) Account() *common.Address {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()
	return interactor.snapshot.Account
}

// Init probes for a previously authorized account and keeps the snapshot in
// sync with wallet account switches from then on.
func (interactor *AccountInteractor) Init(ctx context.Context) {
	interactor.CheckAccount(ctx)

	interactor.wallet.OnAccountsChanged(func(accounts []common.Address) {
		if len(accounts) == 0 {
			interactor.mutex.Lock()
			interactor.snapshot.Clear()
			interactor.snapshot.ConnectionStatus = domain.ConnectionDisconnected
			interactor.mutex.Unlock()
			return
		}
		interactor.adoptAccount(ctx, accounts[0])
	})
}

// Connect requests wallet authorization interactively. It only settles the
// identity; balances and portfolio stay untouched until fetched.
func (interactor *AccountInteractor) Connect(ctx context.Context) {
	interactor.setConnectionStatus(domain.ConnectionConnecting)

	accounts, err := interactor.wallet.RequestAccounts(ctx)
	if err != nil || len(accounts) == 0 {
		if err != nil {
			log.Printf("🔴 requesting wallet accounts - %v\n", err.Error())
		}
		interactor.setConnectionStatus(domain.ConnectionDisconnected)
		return
	}

	interactor.mutex.Lock()
	account := accounts[0]
	interactor.snapshot.Account = &account
	interactor.snapshot.ConnectionStatus = domain.ConnectionConnected
	interactor.mutex.Unlock()
}

// CheckAccount is the non-interactive reconnection probe. On a hit it also
// registers event watchers and refreshes balances and portfolio
// concurrently.
func (interactor *AccountInteractor) CheckAccount(ctx context.Context) {
	interactor.setConnectionStatus(domain.ConnectionReconnecting)

	accounts, err := interactor.wallet.Accounts(ctx)
	if err != nil {
		log.Printf("🔴 probing wallet accounts - %v\n", err.Error())
		interactor.setConnectionStatus(domain.ConnectionDisconnected)
		return
	}
	if len(accounts) == 0 {
		interactor.setConnectionStatus(domain.ConnectionDisconnected)
		return
	}

	interactor.adoptAccount(ctx, accounts[0])
}

func (interactor *AccountInteractor) adoptAccount(ctx context.Context, account common.Address) {
	interactor.mutex.Lock()
	previous := interactor.snapshot.Account
	if previous != nil && *previous != account {
		interactor.snapshot.Clear()
	}
	interactor.snapshot.Account = &account
	interactor.snapshot.ConnectionStatus = domain.ConnectionConnected
	interactor.mutex.Unlock()

	if interactor.watcher != nil {
		if err := interactor.watcher.Rewatch(ctx, account); err != nil {
			log.Printf("🔴 registering event watchers [wallet: %v] - %v\n", account.Hex(), err.Error())
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := interactor.FetchAssets(ctx); err != nil {
			log.Printf("🔴 refreshing balances [wallet: %v] - %v\n", account.Hex(), err.Error())
		}
	}()
	go func() {
		defer wg.Done()
		if err := interactor.GetPortfolio(ctx); err != nil {
			log.Printf("🔴 refreshing portfolio [wallet: %v] - %v\n", account.Hex(), err.Error())
		}
	}()
	wg.Wait()
}

// FetchAssets reads the balance of every tracked token for the current
// account in one batch call. A consumer can tell first load (pending) from a
// background update (refreshing) by the overall status.
func (interactor *AccountInteractor) FetchAssets(ctx context.Context) error {
	interactor.mutex.Lock()
	account := interactor.snapshot.Account
	if account == nil {
		interactor.mutex.Unlock()
		return ErrorNoAccount
	}
	previousStatus := interactor.snapshot.AssetsFetchStatus
	if previousStatus == domain.FetchSuccess {
		interactor.snapshot.AssetsFetchStatus = domain.FetchRefreshing
	} else {
		interactor.snapshot.AssetsFetchStatus = domain.FetchPending
	}
	interactor.mutex.Unlock()

	symbols := domain.TrackedSymbols()
	tokens := make([]common.Address, len(symbols))
	for i, symbol := range symbols {
		token, _ := domain.AssetBySymbol(symbol)
		tokens[i] = token.Underlying
	}

	values, err := interactor.balances.BatchBalanceOf(ctx, *account, tokens)
	if err != nil {
		interactor.setAssetsFetchStatus(previousStatus)
		return err
	}
	if len(values) != len(symbols) {
		interactor.setAssetsFetchStatus(previousStatus)
		return fmt.Errorf("batch balance length mismatch: got %v, want %v", len(values), len(symbols))
	}

	interactor.mutex.Lock()
	for i, symbol := range symbols {
		token, _ := domain.AssetBySymbol(symbol)
		interactor.snapshot.Balances[symbol] = domain.AssetBalance{
			FetchStatus: domain.FetchSuccess,
			Value:       values[i],
			Formatted:   domain.NormalizeAmount(values[i], token.Decimals),
		}
	}
	interactor.snapshot.AssetsFetchStatus = domain.FetchSuccess
	interactor.mutex.Unlock()

	return nil
}

// FetchSingleAsset refreshes exactly one token's balance. The event watcher
// uses it to avoid refetching the whole set after a single transfer.
func (interactor *AccountInteractor) FetchSingleAsset(ctx context.Context, underlying common.Address) error {
	token, err := domain.AssetByUnderlying(underlying)
	if err != nil {
		return err
	}

	interactor.mutex.Lock()
	account := interactor.snapshot.Account
	if account == nil {
		interactor.mutex.Unlock()
		return ErrorNoAccount
	}
	existing := interactor.snapshot.Balances[token.Symbol]
	existing.FetchStatus = domain.FetchRefreshing
	interactor.snapshot.Balances[token.Symbol] = existing
	interactor.mutex.Unlock()

	value, err := interactor.balances.BalanceOf(ctx, *account, underlying)
	if err != nil {
		return err
	}

	interactor.mutex.Lock()
	interactor.snapshot.Balances[token.Symbol] = domain.AssetBalance{
		FetchStatus: domain.FetchSuccess,
		Value:       value,
		Formatted:   domain.NormalizeAmount(value, token.Decimals),
	}
	interactor.mutex.Unlock()

	return nil
}

// BalanceOf reads one token balance for any address, without touching the
// snapshot.
func (interactor *AccountInteractor) BalanceOf(ctx context.Context, account common.Address, underlying common.Address) (*domain.AssetBalance, error) {
	token, err := domain.AssetByUnderlying(underlying)
	if err != nil {
		return nil, err
	}

	value, err := interactor.balances.BalanceOf(ctx, account, underlying)
	if err != nil {
		return nil, err
	}

	return &domain.AssetBalance{
		FetchStatus: domain.FetchSuccess,
		Value:       value,
		Formatted:   domain.NormalizeAmount(value, token.Decimals),
	}, nil
}

// GetPortfolio refreshes the lending portfolio summary for the current
// account. Market data and user positions are fetched concurrently; either
// failure fails the refresh explicitly, no silent partial success.
func (interactor *AccountInteractor) GetPortfolio(ctx context.Context) error {
	interactor.mutex.Lock()
	account := interactor.snapshot.Account
	if account == nil {
		interactor.mutex.Unlock()
		return ErrorNoAccount
	}
	previousStatus := interactor.snapshot.PortfolioFetchStatus
	if previousStatus == domain.FetchSuccess {
		interactor.snapshot.PortfolioFetchStatus = domain.FetchRefreshing
	} else {
		interactor.snapshot.PortfolioFetchStatus = domain.FetchPending
	}
	interactor.mutex.Unlock()

	summary, err := interactor.PortfolioOf(ctx, *account)
	if err != nil {
		interactor.mutex.Lock()
		interactor.snapshot.PortfolioFetchStatus = previousStatus
		interactor.mutex.Unlock()
		return err
	}

	interactor.mutex.Lock()
	interactor.snapshot.Portfolio = summary
	interactor.snapshot.PortfolioFetchStatus = domain.FetchSuccess
	interactor.mutex.Unlock()

	return nil
}

// PortfolioOf computes the portfolio summary for any address.
func (interactor *AccountInteractor) PortfolioOf(ctx context.Context, account common.Address) (*domain.PortfolioSummary, error) {

	var (
		wg           sync.WaitGroup
		reserves     *domain.ReservesData
		reservesErr  error
		positions    *domain.UserReservesData
		positionsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		reserves, reservesErr = interactor.markets.Reserves(ctx)
	}()
	go func() {
		defer wg.Done()
		positions, positionsErr = interactor.markets.UserReserves(ctx, account)
	}()
	wg.Wait()

	if reservesErr != nil {
		return nil, reservesErr
	}
	if positionsErr != nil {
		return nil, positionsErr
	}

	return domain.SummarizePortfolio(reserves, positions), nil
}

func (interactor *AccountInteractor) setConnectionStatus(status string) {
	interactor.mutex.Lock()
	interactor.snapshot.ConnectionStatus = status
	interactor.mutex.Unlock()
}

func (interactor *AccountInteractor) setAssetsFetchStatus(status string) {
	interactor.mutex.Lock()
	interactor.snapshot.AssetsFetchStatus = status
	interactor.mutex.Unlock()
}
