package chain

import (
	"context"
	"fmt"
	"ghooey/domain"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20AbiJson = `[
	{"type":"function","name":"transfer","inputs":[
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"}],
		"outputs":[{"name":"","type":"bool"}]}
]`

const balanceProviderAbiJson = `[
	{"type":"function","name":"balanceOf","inputs":[
		{"name":"user","type":"address"},
		{"name":"token","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"batchBalanceOf","inputs":[
		{"name":"users","type":"address[]"},
		{"name":"tokens","type":"address[]"}],
		"outputs":[{"name":"","type":"uint256[]"}],"stateMutability":"view"}
]`

var (
	ErrorBalanceShape = fmt.Errorf("unexpected balance call output")

	erc20Abi           = mustParseAbi(erc20AbiJson)
	balanceProviderAbi = mustParseAbi(balanceProviderAbiJson)
)

// Erc20Contract builds plain token transfers.
type Erc20Contract struct{}

func NewErc20Contract() *Erc20Contract {
	return &Erc20Contract{}
}

func (contract *Erc20Contract) Transfer(ctx context.Context, order domain.TransferOrder) ([]domain.PreparedTransaction, error) {
	return []domain.PreparedTransaction{{
		Kind: domain.OperationTransfer,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			data, err := erc20Abi.Pack("transfer", order.To, order.Amount)
			if err != nil {
				return nil, err
			}
			return &domain.TransactionRequest{
				From: order.From,
				To:   order.Token,
				Data: data,
			}, nil
		},
	}}, nil
}

// BalanceReader reads token balances through the wallet balance provider
// contract, so a whole set of tokens costs one eth_call.
type BalanceReader struct {
	client   *ethclient.Client
	provider common.Address
}

func NewBalanceReader(client *ethclient.Client, provider common.Address) *BalanceReader {
	return &BalanceReader{
		client:   client,
		provider: provider,
	}
}

func (reader *BalanceReader) BalanceOf(ctx context.Context, account common.Address, token common.Address) (*big.Int, error) {
	data, err := balanceProviderAbi.Pack("balanceOf", account, token)
	if err != nil {
		return nil, err
	}
	output, err := reader.client.CallContract(ctx, ethereum.CallMsg{To: &reader.provider, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := balanceProviderAbi.Unpack("balanceOf", output)
	if err != nil {
		return nil, err
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, ErrorBalanceShape
	}
	return balance, nil
}

func (reader *BalanceReader) BatchBalanceOf(ctx context.Context, account common.Address, tokens []common.Address) ([]*big.Int, error) {
	// The contract crosses users with tokens, so one user yields exactly
	// len(tokens) balances, in token order.
	data, err := balanceProviderAbi.Pack("batchBalanceOf", []common.Address{account}, tokens)
	if err != nil {
		return nil, err
	}
	output, err := reader.client.CallContract(ctx, ethereum.CallMsg{To: &reader.provider, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := balanceProviderAbi.Unpack("batchBalanceOf", output)
	if err != nil {
		return nil, err
	}
	balances, ok := values[0].([]*big.Int)
	if !ok || len(balances) != len(tokens) {
		return nil, ErrorBalanceShape
	}
	return balances, nil
}
