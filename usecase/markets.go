package usecase

import (
	"context"
	"ghooey/domain"
	"math/big"
	"sync"
)

// MarketRow is one formatted line of the reserve listing.
type MarketRow struct {
	Symbol             string
	Underlying         string
	SupplyRate         string
	VariableBorrowRate string
	AvailableLiquidity string
	Price              string
	BorrowingEnabled   bool
	IsFrozen           bool
	IsPaused           bool
}

// MarketsInteractor caches the formatted reserve listing. It refreshes on a
// schedule and whenever the watcher sees pool activity; consumers read the
// last good listing without waiting on the chain.
type MarketsInteractor struct {
	markets domain.MarketDataProvider

	mutex  sync.Mutex
	status string
	rows   []MarketRow
}

func NewMarketsInteractor(markets domain.MarketDataProvider) *MarketsInteractor {
	return &MarketsInteractor{
		markets: markets,
		status:  domain.FetchIdle,
	}
}

// Listing returns the cached rows and the fetch status of the cache.
func (interactor *MarketsInteractor) Listing() ([]MarketRow, string) {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()

	rows := make([]MarketRow, len(interactor.rows))
	copy(rows, interactor.rows)
	return rows, interactor.status
}

// Refresh re-reads every reserve and rebuilds the listing. A failed refresh
// keeps the previous listing and status.
func (interactor *MarketsInteractor) Refresh(ctx context.Context) error {
	interactor.mutex.Lock()
	previous := interactor.status
	if previous == domain.FetchSuccess {
		interactor.status = domain.FetchRefreshing
	} else {
		interactor.status = domain.FetchPending
	}
	interactor.mutex.Unlock()

	reserves, err := interactor.markets.Reserves(ctx)
	if err != nil {
		interactor.mutex.Lock()
		interactor.status = previous
		interactor.mutex.Unlock()
		return err
	}

	rows := make([]MarketRow, 0, len(reserves.Reserves))
	for _, reserve := range reserves.Reserves {
		if !reserve.IsActive {
			continue
		}
		rows = append(rows, MarketRow{
			Symbol:             reserve.Symbol,
			Underlying:         reserve.Underlying.Hex(),
			SupplyRate:         reserve.LiquidityRate,
			VariableBorrowRate: reserve.VariableBorrowRate,
			AvailableLiquidity: domain.NormalizeAmount(reserve.AvailableLiquidity, reserve.Decimals),
			Price:              formatMarketRefPrice(reserve.PriceInMarketRef, reserves.BaseCurrency.MarketRefDecimals),
			BorrowingEnabled:   reserve.BorrowingEnabled,
			IsFrozen:           reserve.IsFrozen,
			IsPaused:           reserve.IsPaused,
		})
	}

	interactor.mutex.Lock()
	interactor.rows = rows
	interactor.status = domain.FetchSuccess
	interactor.mutex.Unlock()

	return nil
}

func formatMarketRefPrice(price *big.Int, decimals uint8) string {
	if price == nil {
		return "0"
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	value := new(big.Rat).SetFrac(price, scale)
	return domain.FormatRat(value, 8)
}
