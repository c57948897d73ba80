package usecase

import (
	"context"
	"ghooey/domain"
	"ghooey/interface/exporter"
	"ghooey/interface/repository"
	"log"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	supplyTopic   = crypto.Keccak256Hash([]byte("Supply(address,address,address,uint256,uint16)"))
)

// accountRefresher is what the watcher needs from the account interactor:
// scoped refreshes after a qualifying event.
type accountRefresher interface {
	FetchSingleAsset(ctx context.Context, underlying common.Address) error
	GetPortfolio(ctx context.Context) error
}

// marketsRefresher re-reads the reserve listing after pool activity.
type marketsRefresher interface {
	Refresh(ctx context.Context) error
}

type watchEntry struct {
	subscription ethereum.Subscription
	done         chan struct{}
	reopen       func(ctx context.Context, account common.Address) (*watchEntry, error)
}

// WatcherInteractor keeps live log subscriptions for the active account.
// Transfers of any tracked token touching the account trigger a single-asset
// balance refresh; pool supplies on behalf of the account additionally
// refresh the portfolio and the markets listing. Every registration is keyed
// by account so switching wallets tears old subscriptions down before new
// ones go up.
type WatcherInteractor struct {
	subscriber domain.LogSubscriber
	refresher  accountRefresher
	markets    marketsRefresher
	sink       domain.NotificationSink
	memos      *repository.MemoRepository
	pool       common.Address

	mutex   sync.Mutex
	watches map[common.Address][]*watchEntry
	epochs  map[common.Address]uint64
}

func NewWatcherInteractor(subscriber domain.LogSubscriber,
	refresher accountRefresher,
	markets marketsRefresher,
	sink domain.NotificationSink,
	memos *repository.MemoRepository,
	pool common.Address) *WatcherInteractor {
	interactor := &WatcherInteractor{
		subscriber: subscriber,
		refresher:  refresher,
		markets:    markets,
		sink:       sink,
		memos:      memos,
		pool:       pool,
		watches:    make(map[common.Address][]*watchEntry),
		epochs:     make(map[common.Address]uint64),
	}
	return interactor
}

// Rewatch replaces every live subscription with a fresh set scoped to the
// given account. Old subscriptions are cancelled first, so an event for a
// previously watched account can never refresh the new account's view.
func (interactor *WatcherInteractor) Rewatch(ctx context.Context, account common.Address) error {
	interactor.Unwatch()

	transfers, err := interactor.watchTransfers(ctx, account)
	if err != nil {
		return err
	}

	supplies, err := interactor.watchSupplies(ctx, account)
	if err != nil {
		transfers.subscription.Unsubscribe()
		close(transfers.done)
		return err
	}

	interactor.mutex.Lock()
	interactor.watches[account] = []*watchEntry{transfers, supplies}
	interactor.epochs[account]++
	interactor.mutex.Unlock()

	log.Printf("🔵 watching contract events [wallet: %v]\n", account.Hex())
	return nil
}

// Unwatch cancels every live subscription for every account.
func (interactor *WatcherInteractor) Unwatch() {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()

	for account, entries := range interactor.watches {
		for _, entry := range entries {
			entry.subscription.Unsubscribe()
			close(entry.done)
		}
		delete(interactor.watches, account)
	}
}

// WatchCount reports the number of live subscriptions for an account.
func (interactor *WatcherInteractor) WatchCount(account common.Address) int {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()
	return len(interactor.watches[account])
}

func (interactor *WatcherInteractor) watchTransfers(ctx context.Context, account common.Address) (*watchEntry, error) {
	underlyings := make([]common.Address, 0)
	for _, token := range domain.Assets() {
		underlyings = append(underlyings, token.Underlying)
	}

	query := ethereum.FilterQuery{
		Addresses: underlyings,
		Topics:    [][]common.Hash{{transferTopic}},
	}

	logs := make(chan types.Log, 16)
	subscription, err := interactor.subscriber.SubscribeLogs(ctx, query, logs)
	if err != nil {
		return nil, err
	}

	entry := &watchEntry{subscription: subscription, done: make(chan struct{}), reopen: interactor.watchTransfers}
	go interactor.dispatch(ctx, account, entry, logs, interactor.onTransfer)
	return entry, nil
}

func (interactor *WatcherInteractor) watchSupplies(ctx context.Context, account common.Address) (*watchEntry, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{interactor.pool},
		Topics: [][]common.Hash{
			{supplyTopic},
			nil,
			{common.BytesToHash(account.Bytes())},
		},
	}

	logs := make(chan types.Log, 16)
	subscription, err := interactor.subscriber.SubscribeLogs(ctx, query, logs)
	if err != nil {
		return nil, err
	}

	entry := &watchEntry{subscription: subscription, done: make(chan struct{}), reopen: interactor.watchSupplies}
	go interactor.dispatch(ctx, account, entry, logs, interactor.onSupply)
	return entry, nil
}

func (interactor *WatcherInteractor) dispatch(ctx context.Context,
	account common.Address,
	entry *watchEntry,
	logs chan types.Log,
	handle func(ctx context.Context, account common.Address, lg *types.Log)) {

	for {
		select {
		case <-entry.done:
			return

		case err := <-entry.subscription.Err():
			if err != nil {
				log.Printf("🔴 log subscription broke [wallet: %v] - %v\n", account.Hex(), err.Error())
				interactor.replace(ctx, account, entry)
			}
			return

		case lg := <-logs:
			handle(ctx, account, &lg)
			interactor.remember(account, lg.BlockNumber)
		}
	}
}

// replace drops a dead entry from the registry and opens a fresh subscription
// in its slot, so a broken websocket never leaves the account silently
// unwatched. When Unwatch or Rewatch already removed the entry, or removed
// the whole account, nothing reopens.
func (interactor *WatcherInteractor) replace(ctx context.Context, account common.Address, dead *watchEntry) {
	interactor.mutex.Lock()
	entries, live := interactor.watches[account]
	epoch := interactor.epochs[account]
	index := -1
	for i, entry := range entries {
		if entry == dead {
			index = i
		}
	}
	if !live || index < 0 {
		interactor.mutex.Unlock()
		return
	}
	interactor.watches[account] = append(entries[:index], entries[index+1:]...)
	interactor.mutex.Unlock()

	fresh, err := dead.reopen(ctx, account)
	if err != nil {
		log.Printf("🟡 resubscribing [wallet: %v] - %v\n", account.Hex(), err.Error())
		return
	}

	interactor.mutex.Lock()
	_, still := interactor.watches[account]
	if still && interactor.epochs[account] == epoch {
		interactor.watches[account] = append(interactor.watches[account], fresh)
		interactor.mutex.Unlock()
		return
	}
	interactor.mutex.Unlock()

	// the account was unwatched while the fresh subscription came up
	fresh.subscription.Unsubscribe()
	close(fresh.done)
}

// onTransfer refreshes one token balance when the account is either end of a
// tracked ERC-20 transfer. Address matching is canonical, so the event's hex
// casing never matters.
func (interactor *WatcherInteractor) onTransfer(ctx context.Context, account common.Address, lg *types.Log) {
	if len(lg.Topics) < 3 {
		return
	}

	token, err := domain.AssetByUnderlying(lg.Address)
	if err != nil {
		return
	}

	from := common.BytesToAddress(lg.Topics[1].Bytes())
	to := common.BytesToAddress(lg.Topics[2].Bytes())

	var direction string
	switch {
	case strings.EqualFold(from.Hex(), account.Hex()):
		direction = domain.TransferDirectionFrom
	case strings.EqualFold(to.Hex(), account.Hex()):
		direction = domain.TransferDirectionTo
	default:
		return
	}

	if err := interactor.refresher.FetchSingleAsset(ctx, token.Underlying); err != nil {
		log.Printf("🔴 refreshing %v balance after transfer - %v\n", token.Symbol, err.Error())
	}
	exporter.IncEventRefreshCount()

	interactor.publish(domain.Notification{
		Name:      domain.NotifyERC20Transfer,
		Token:     token.Underlying,
		Symbol:    token.Symbol,
		Amount:    domain.NormalizeAmount(new(big.Int).SetBytes(lg.Data), token.Decimals),
		Direction: direction,
		From:      &from,
		To:        &to,
	})
}

// onSupply reacts to a pool supply on behalf of the account: the supplied
// reserve's balance, the portfolio and the markets listing all refresh,
// concurrently.
func (interactor *WatcherInteractor) onSupply(ctx context.Context, account common.Address, lg *types.Log) {
	if len(lg.Topics) < 3 {
		return
	}

	reserve := common.BytesToAddress(lg.Topics[1].Bytes())
	token, err := domain.AssetByUnderlying(reserve)
	if err != nil {
		return
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := interactor.refresher.FetchSingleAsset(ctx, reserve); err != nil {
			log.Printf("🔴 refreshing %v balance after supply - %v\n", token.Symbol, err.Error())
		}
	}()
	go func() {
		defer wg.Done()
		if err := interactor.refresher.GetPortfolio(ctx); err != nil {
			log.Printf("🔴 refreshing portfolio after supply - %v\n", err.Error())
		}
	}()
	go func() {
		defer wg.Done()
		if interactor.markets == nil {
			return
		}
		if err := interactor.markets.Refresh(ctx); err != nil {
			log.Printf("🔴 refreshing markets after supply - %v\n", err.Error())
		}
	}()
	wg.Wait()
	exporter.IncEventRefreshCount()

	amount := big.NewInt(0)
	if len(lg.Data) >= 32 {
		// data layout: user address word, then the amount word
		amount.SetBytes(lg.Data[len(lg.Data)-32:])
	}

	interactor.publish(domain.Notification{
		Name:   domain.NotifyPoolSupply,
		Token:  token.Underlying,
		Symbol: token.Symbol,
		Amount: domain.NormalizeAmount(amount, token.Decimals),
	})
}

func (interactor *WatcherInteractor) publish(notification domain.Notification) {
	if interactor.sink == nil {
		return
	}
	interactor.sink.Publish(notification)
	exporter.IncNotificationCount()
}

// remember persists the watch cursor, best effort.
func (interactor *WatcherInteractor) remember(account common.Address, block uint64) {
	if interactor.memos == nil {
		return
	}

	memo := domain.WatchMemo{
		Account:       strings.ToLower(account.Hex()),
		LastSeenBlock: block,
	}
	if _, err := interactor.memos.Upsert(memoKey(account), &memo); err != nil {
		log.Printf("⚠️ memorizing watch cursor [wallet: %v] - %v\n", account.Hex(), err.Error())
	}
}

// LastSeenBlock reads the persisted watch cursor; zero when none exists.
func (interactor *WatcherInteractor) LastSeenBlock(account common.Address) uint64 {
	if interactor.memos == nil {
		return 0
	}

	record, err := interactor.memos.Find(memoKey(account))
	if err != nil || record == nil {
		return 0
	}

	memo := domain.WatchMemo{}
	if err := memo.FromJson(record.Memo); err != nil {
		return 0
	}
	return memo.LastSeenBlock
}

func memoKey(account common.Address) string {
	return "watch:" + strings.ToLower(account.Hex())
}
