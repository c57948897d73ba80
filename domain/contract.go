package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Boundary capabilities. The concrete implementations live under
// infrastructure/chain; usecase interactors only see these.

// WalletProvider is the user's wallet: account discovery, typed-data signing
// and account-change notifications.
type WalletProvider interface {
	IsConnected() bool

	// Accounts is the non-interactive probe (eth_accounts). An empty slice
	// means no account was previously authorized.
	Accounts(ctx context.Context) ([]common.Address, error)

	// RequestAccounts asks the user for authorization (eth_requestAccounts).
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// SignTypedData signs an EIP-712 payload (eth_signTypedData_v4).
	SignTypedData(ctx context.Context, account common.Address, payload []byte) ([]byte, error)

	OnAccountsChanged(handler func(accounts []common.Address))
}

// Signer submits transactions for exactly one account.
type Signer interface {
	Address() common.Address
	SendTransaction(ctx context.Context, request *TransactionRequest) (TransactionHandle, error)
}

type SupplyOrder struct {
	User     common.Address
	Reserve  common.Address
	Amount   *big.Int
	Deadline *big.Int
	OnBehalf common.Address
}

type BorrowOrder struct {
	User             common.Address
	Reserve          common.Address
	Amount           *big.Int
	InterestRateMode uint8
}

type RepayOrder struct {
	User             common.Address
	Reserve          common.Address
	Amount           *big.Int
	InterestRateMode uint8
	Deadline         *big.Int
	OnBehalf         common.Address
}

type WithdrawOrder struct {
	User    common.Address
	Reserve common.Address
	AToken  common.Address
	Amount  *big.Int
}

type DelegationOrder struct {
	Delegator common.Address
	Delegatee common.Address
	DebtToken common.Address
	Amount    *big.Int
	Deadline  *big.Int
}

// PoolClient wraps the lending pool contracts: write builders return prepared
// transactions, permit payloads are EIP-712 documents for the wallet to sign.
type PoolClient interface {
	PermitPayload(ctx context.Context, order SupplyOrder) ([]byte, error)
	RepayPermitPayload(ctx context.Context, order RepayOrder) ([]byte, error)
	DelegationPayload(ctx context.Context, order DelegationOrder) ([]byte, error)

	SupplyWithPermit(ctx context.Context, order SupplyOrder, signature []byte) ([]PreparedTransaction, error)
	Borrow(ctx context.Context, order BorrowOrder) ([]PreparedTransaction, error)
	RepayWithPermit(ctx context.Context, order RepayOrder, signature []byte) ([]PreparedTransaction, error)
	RepayWithATokens(ctx context.Context, order RepayOrder) ([]PreparedTransaction, error)
	Withdraw(ctx context.Context, order WithdrawOrder) ([]PreparedTransaction, error)
	ApproveDelegation(ctx context.Context, order DelegationOrder, signature []byte) ([]PreparedTransaction, error)
}

type TransferOrder struct {
	From   common.Address
	To     common.Address
	Token  common.Address
	Amount *big.Int
}

// TokenClient builds plain ERC-20 write transactions.
type TokenClient interface {
	Transfer(ctx context.Context, order TransferOrder) ([]PreparedTransaction, error)
}

// BalanceProvider reads ERC-20 balances, one token at a time or batched in a
// single call for all tracked tokens.
type BalanceProvider interface {
	BalanceOf(ctx context.Context, account common.Address, token common.Address) (*big.Int, error)
	BatchBalanceOf(ctx context.Context, account common.Address, tokens []common.Address) ([]*big.Int, error)
}

// MarketDataProvider reads reserve data and per-user positions from the pool
// data provider contract.
type MarketDataProvider interface {
	Reserves(ctx context.Context) (*ReservesData, error)
	UserReserves(ctx context.Context, account common.Address) (*UserReservesData, error)
}

// LogSubscriber subscribes to contract log events.
type LogSubscriber interface {
	SubscribeLogs(ctx context.Context, query ethereum.FilterQuery, sink chan<- types.Log) (ethereum.Subscription, error)
}
