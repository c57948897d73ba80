package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"ghooey/domain"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const poolAbiJson = `[
	{"type":"function","name":"supplyWithPermit","inputs":[
		{"name":"asset","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"onBehalfOf","type":"address"},
		{"name":"referralCode","type":"uint16"},
		{"name":"deadline","type":"uint256"},
		{"name":"permitV","type":"uint8"},
		{"name":"permitR","type":"bytes32"},
		{"name":"permitS","type":"bytes32"}]},
	{"type":"function","name":"borrow","inputs":[
		{"name":"asset","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"interestRateMode","type":"uint256"},
		{"name":"referralCode","type":"uint16"},
		{"name":"onBehalfOf","type":"address"}]},
	{"type":"function","name":"repayWithPermit","inputs":[
		{"name":"asset","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"interestRateMode","type":"uint256"},
		{"name":"onBehalfOf","type":"address"},
		{"name":"deadline","type":"uint256"},
		{"name":"permitV","type":"uint8"},
		{"name":"permitR","type":"bytes32"},
		{"name":"permitS","type":"bytes32"}]},
	{"type":"function","name":"repayWithATokens","inputs":[
		{"name":"asset","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"interestRateMode","type":"uint256"}]},
	{"type":"function","name":"withdraw","inputs":[
		{"name":"asset","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"to","type":"address"}]}
]`

const debtTokenAbiJson = `[
	{"type":"function","name":"delegationWithSig","inputs":[
		{"name":"delegator","type":"address"},
		{"name":"delegatee","type":"address"},
		{"name":"value","type":"uint256"},
		{"name":"deadline","type":"uint256"},
		{"name":"v","type":"uint8"},
		{"name":"r","type":"bytes32"},
		{"name":"s","type":"bytes32"}]},
	{"type":"function","name":"nonces","inputs":[{"name":"owner","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"name","inputs":[],
		"outputs":[{"name":"","type":"string"}],"stateMutability":"view"}
]`

var (
	ErrorBadSignature = fmt.Errorf("signature must be 65 bytes")

	poolAbi      = mustParseAbi(poolAbiJson)
	debtTokenAbi = mustParseAbi(debtTokenAbiJson)
)

func mustParseAbi(jstr string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(jstr))
	if err != nil {
		panic(err)
	}
	return parsed
}

// PoolContract builds calldata for the Aave V3 pool and for credit
// delegation on variable debt tokens. Permit payloads come out as EIP-712
// typed data the wallet signs without an approval transaction.
type PoolContract struct {
	client  *ethclient.Client
	pool    common.Address
	chainId int64
}

func NewPoolContract(client *ethclient.Client, pool common.Address, chainId int64) *PoolContract {
	return &PoolContract{
		client:  client,
		pool:    pool,
		chainId: chainId,
	}
}

func (contract *PoolContract) PermitPayload(ctx context.Context, order domain.SupplyOrder) ([]byte, error) {
	return contract.permitPayload(ctx, order.Reserve, order.User, order.Amount, order.Deadline)
}

func (contract *PoolContract) RepayPermitPayload(ctx context.Context, order domain.RepayOrder) ([]byte, error) {
	return contract.permitPayload(ctx, order.Reserve, order.User, order.Amount, order.Deadline)
}

// permitPayload builds the ERC-2612 permit document approving the pool to
// pull the amount from the owner's token balance.
func (contract *PoolContract) permitPayload(ctx context.Context, token common.Address,
	owner common.Address, amount *big.Int, deadline *big.Int) ([]byte, error) {

	name, err := tokenName(ctx, contract.client, token)
	if err != nil {
		return nil, err
	}
	nonce, err := permitNonce(ctx, contract.client, token, owner)
	if err != nil {
		return nil, err
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainFields(),
			"Permit": {
				{Name: "owner", Type: "address"},
				{Name: "spender", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "Permit",
		Domain:      contract.eip712Domain(name, token),
		Message: apitypes.TypedDataMessage{
			"owner":    owner.Hex(),
			"spender":  contract.pool.Hex(),
			"value":    (*math.HexOrDecimal256)(amount),
			"nonce":    (*math.HexOrDecimal256)(nonce),
			"deadline": (*math.HexOrDecimal256)(deadline),
		},
	}
	return json.Marshal(typedData)
}

// DelegationPayload builds the credit delegation document on the variable
// debt token.
func (contract *PoolContract) DelegationPayload(ctx context.Context, order domain.DelegationOrder) ([]byte, error) {
	name, err := tokenName(ctx, contract.client, order.DebtToken)
	if err != nil {
		return nil, err
	}
	nonce, err := permitNonce(ctx, contract.client, order.DebtToken, order.Delegator)
	if err != nil {
		return nil, err
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainFields(),
			"DelegationWithSig": {
				{Name: "delegatee", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "DelegationWithSig",
		Domain:      contract.eip712Domain(name, order.DebtToken),
		Message: apitypes.TypedDataMessage{
			"delegatee": order.Delegatee.Hex(),
			"value":     (*math.HexOrDecimal256)(order.Amount),
			"nonce":     (*math.HexOrDecimal256)(nonce),
			"deadline":  (*math.HexOrDecimal256)(order.Deadline),
		},
	}
	return json.Marshal(typedData)
}

func (contract *PoolContract) SupplyWithPermit(ctx context.Context, order domain.SupplyOrder, signature []byte) ([]domain.PreparedTransaction, error) {
	v, r, s, err := splitSignature(signature)
	if err != nil {
		return nil, err
	}

	return []domain.PreparedTransaction{{
		Kind: domain.OperationSupply,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			data, err := poolAbi.Pack("supplyWithPermit",
				order.Reserve, order.Amount, order.OnBehalf, uint16(0), order.Deadline, v, r, s)
			if err != nil {
				return nil, err
			}
			return contract.poolRequest(order.User, data), nil
		},
	}}, nil
}

func (contract *PoolContract) Borrow(ctx context.Context, order domain.BorrowOrder) ([]domain.PreparedTransaction, error) {
	return []domain.PreparedTransaction{{
		Kind: domain.OperationBorrow,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			data, err := poolAbi.Pack("borrow",
				order.Reserve, order.Amount, big.NewInt(int64(order.InterestRateMode)), uint16(0), order.User)
			if err != nil {
				return nil, err
			}
			return contract.poolRequest(order.User, data), nil
		},
	}}, nil
}

func (contract *PoolContract) RepayWithPermit(ctx context.Context, order domain.RepayOrder, signature []byte) ([]domain.PreparedTransaction, error) {
	v, r, s, err := splitSignature(signature)
	if err != nil {
		return nil, err
	}

	return []domain.PreparedTransaction{{
		Kind: domain.OperationRepay,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			data, err := poolAbi.Pack("repayWithPermit",
				order.Reserve, order.Amount, big.NewInt(int64(order.InterestRateMode)),
				order.OnBehalf, order.Deadline, v, r, s)
			if err != nil {
				return nil, err
			}
			return contract.poolRequest(order.User, data), nil
		},
	}}, nil
}

func (contract *PoolContract) RepayWithATokens(ctx context.Context, order domain.RepayOrder) ([]domain.PreparedTransaction, error) {
	return []domain.PreparedTransaction{{
		Kind: domain.OperationRepay,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			data, err := poolAbi.Pack("repayWithATokens",
				order.Reserve, order.Amount, big.NewInt(int64(order.InterestRateMode)))
			if err != nil {
				return nil, err
			}
			return contract.poolRequest(order.User, data), nil
		},
	}}, nil
}

func (contract *PoolContract) Withdraw(ctx context.Context, order domain.WithdrawOrder) ([]domain.PreparedTransaction, error) {
	return []domain.PreparedTransaction{{
		Kind: domain.OperationWithdraw,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			data, err := poolAbi.Pack("withdraw", order.Reserve, order.Amount, order.User)
			if err != nil {
				return nil, err
			}
			return contract.poolRequest(order.User, data), nil
		},
	}}, nil
}

func (contract *PoolContract) ApproveDelegation(ctx context.Context, order domain.DelegationOrder, signature []byte) ([]domain.PreparedTransaction, error) {
	v, r, s, err := splitSignature(signature)
	if err != nil {
		return nil, err
	}

	return []domain.PreparedTransaction{{
		Kind: domain.OperationDelegation,
		Resolve: func(ctx context.Context) (*domain.TransactionRequest, error) {
			data, err := debtTokenAbi.Pack("delegationWithSig",
				order.Delegator, order.Delegatee, order.Amount, order.Deadline, v, r, s)
			if err != nil {
				return nil, err
			}
			return &domain.TransactionRequest{
				From: order.Delegator,
				To:   order.DebtToken,
				Data: data,
			}, nil
		},
	}}, nil
}

func (contract *PoolContract) poolRequest(from common.Address, data []byte) *domain.TransactionRequest {
	return &domain.TransactionRequest{
		From: from,
		To:   contract.pool,
		Data: data,
	}
}

func (contract *PoolContract) eip712Domain(name string, verifying common.Address) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              name,
		Version:           "1",
		ChainId:           (*math.HexOrDecimal256)(big.NewInt(contract.chainId)),
		VerifyingContract: verifying.Hex(),
	}
}

func eip712DomainFields() []apitypes.Type {
	return []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	}
}

func splitSignature(signature []byte) (uint8, [32]byte, [32]byte, error) {
	var r, s [32]byte
	if len(signature) != 65 {
		return 0, r, s, ErrorBadSignature
	}
	copy(r[:], signature[0:32])
	copy(s[:], signature[32:64])
	v := signature[64]
	if v < 27 {
		v += 27
	}
	return v, r, s, nil
}

func tokenName(ctx context.Context, client *ethclient.Client, token common.Address) (string, error) {
	data, err := debtTokenAbi.Pack("name")
	if err != nil {
		return "", err
	}
	output, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return "", err
	}
	values, err := debtTokenAbi.Unpack("name", output)
	if err != nil {
		return "", err
	}
	name, _ := values[0].(string)
	return name, nil
}

func permitNonce(ctx context.Context, client *ethclient.Client, token common.Address, owner common.Address) (*big.Int, error) {
	data, err := debtTokenAbi.Pack("nonces", owner)
	if err != nil {
		return nil, err
	}
	output, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := debtTokenAbi.Unpack("nonces", output)
	if err != nil {
		return nil, err
	}
	nonce, _ := values[0].(*big.Int)
	return nonce, nil
}
