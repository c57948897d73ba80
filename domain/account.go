package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ConnectionConnected    = "connected"
	ConnectionConnecting   = "connecting"
	ConnectionReconnecting = "reconnecting"
	ConnectionDisconnected = "disconnected"
)

const (
	FetchIdle       = "idle"
	FetchPending    = "pending"
	FetchRefreshing = "refreshing"
	FetchSuccess    = "success"
)

// AssetBalance is one tracked token's balance for the current account, raw
// and human-formatted, with its own fetch status.
type AssetBalance struct {
	FetchStatus string
	Value       *big.Int
	Formatted   string
}

// AccountSnapshot is the single shared view of the connected wallet: address,
// token balances and the lending portfolio. Only the account interactor and
// the event watcher (through the interactor) mutate it. Balances and
// portfolio carry independent fetch statuses so a consumer can tell partial
// readiness, and refreshing is distinguishable from first load.
type AccountSnapshot struct {
	ConnectionStatus string
	Account          *common.Address

	AssetsFetchStatus string
	Balances          map[string]AssetBalance

	PortfolioFetchStatus string
	Portfolio            *PortfolioSummary
}

func NewAccountSnapshot() *AccountSnapshot {
	return &AccountSnapshot{
		ConnectionStatus:     ConnectionDisconnected,
		AssetsFetchStatus:    FetchIdle,
		Balances:             make(map[string]AssetBalance),
		PortfolioFetchStatus: FetchIdle,
	}
}

// Clear drops account-bound data on disconnect or account switch. Statuses
// fall back to idle so the next fetch reports pending, not refreshing.
func (snapshot *AccountSnapshot) Clear() {
	snapshot.Account = nil
	snapshot.AssetsFetchStatus = FetchIdle
	snapshot.Balances = make(map[string]AssetBalance)
	snapshot.PortfolioFetchStatus = FetchIdle
	snapshot.Portfolio = nil
}
