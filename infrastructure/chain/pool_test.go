package chain

import (
	"context"
	"ghooey/domain"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPool     = common.HexToAddress("0x6Ae43d3271ff6888e7Fc43Fd7321a503ff738951")
	testUser     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testReserve  = common.HexToAddress("0xFF34B3d4Aee8ddCd6F9AFFFB6Fe49bD371b8a357")
	testSig      = make([]byte, 65)
	testContract = NewPoolContract(nil, testPool, 11155111)
)

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func resolveOne(t *testing.T, txs []domain.PreparedTransaction) *domain.TransactionRequest {
	t.Helper()
	require.Len(t, txs, 1)
	request, err := txs[0].Resolve(context.Background())
	require.NoError(t, err)
	return request
}

func TestBorrowCalldata(t *testing.T) {
	txs, err := testContract.Borrow(context.Background(), domain.BorrowOrder{
		User:             testUser,
		Reserve:          testReserve,
		Amount:           big.NewInt(1000),
		InterestRateMode: 2,
	})
	require.NoError(t, err)

	request := resolveOne(t, txs)
	assert.Equal(t, testPool, request.To)
	assert.Equal(t, testUser, request.From)
	assert.Equal(t, selector("borrow(address,uint256,uint256,uint16,address)"), request.Data[:4])

	values, err := poolAbi.Methods["borrow"].Inputs.Unpack(request.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, testReserve, values[0])
	assert.Equal(t, big.NewInt(1000), values[1])
	assert.Equal(t, big.NewInt(2), values[2])
	assert.Equal(t, uint16(0), values[3])
	assert.Equal(t, testUser, values[4])
}

func TestSupplyWithPermitCalldata(t *testing.T) {
	deadline := big.NewInt(1_900_000_000)
	txs, err := testContract.SupplyWithPermit(context.Background(), domain.SupplyOrder{
		User:     testUser,
		Reserve:  testReserve,
		Amount:   big.NewInt(500),
		Deadline: deadline,
		OnBehalf: testUser,
	}, testSig)
	require.NoError(t, err)

	request := resolveOne(t, txs)
	assert.Equal(t,
		selector("supplyWithPermit(address,uint256,address,uint16,uint256,uint8,bytes32,bytes32)"),
		request.Data[:4])

	values, err := poolAbi.Methods["supplyWithPermit"].Inputs.Unpack(request.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, testReserve, values[0])
	assert.Equal(t, big.NewInt(500), values[1])
	assert.Equal(t, deadline, values[4])
	assert.Equal(t, uint8(27), values[5], "a zero recovery byte normalizes to 27")
}

func TestWithdrawCalldata(t *testing.T) {
	txs, err := testContract.Withdraw(context.Background(), domain.WithdrawOrder{
		User:    testUser,
		Reserve: testReserve,
		Amount:  big.NewInt(123),
	})
	require.NoError(t, err)

	request := resolveOne(t, txs)
	assert.Equal(t, selector("withdraw(address,uint256,address)"), request.Data[:4])
}

func TestRepayWithATokensCalldata(t *testing.T) {
	txs, err := testContract.RepayWithATokens(context.Background(), domain.RepayOrder{
		User:             testUser,
		Reserve:          testReserve,
		Amount:           big.NewInt(77),
		InterestRateMode: 2,
	})
	require.NoError(t, err)

	request := resolveOne(t, txs)
	assert.Equal(t, selector("repayWithATokens(address,uint256,uint256)"), request.Data[:4])
}

func TestApproveDelegationCalldata(t *testing.T) {
	debtToken := common.HexToAddress("0x22675C506A8FC26447aFFfa33640f6af5d4D4cF0")
	txs, err := testContract.ApproveDelegation(context.Background(), domain.DelegationOrder{
		Delegator: testUser,
		Delegatee: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		DebtToken: debtToken,
		Amount:    big.NewInt(42),
		Deadline:  big.NewInt(1_900_000_000),
	}, testSig)
	require.NoError(t, err)

	request := resolveOne(t, txs)
	assert.Equal(t, debtToken, request.To, "delegation executes on the debt token, not the pool")
	assert.Equal(t,
		selector("delegationWithSig(address,address,uint256,uint256,uint8,bytes32,bytes32)"),
		request.Data[:4])
}

func TestSplitSignature(t *testing.T) {
	signature := make([]byte, 65)
	signature[0] = 0xaa
	signature[63] = 0xbb
	signature[64] = 1

	v, r, s, err := splitSignature(signature)
	require.NoError(t, err)
	assert.Equal(t, uint8(28), v)
	assert.Equal(t, byte(0xaa), r[0])
	assert.Equal(t, byte(0xbb), s[31])

	signature[64] = 28
	v, _, _, err = splitSignature(signature)
	require.NoError(t, err)
	assert.Equal(t, uint8(28), v, "already offset recovery bytes pass through")

	_, _, _, err = splitSignature([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrorBadSignature)
}

func TestBadSignatureRejectedBeforeBuilding(t *testing.T) {
	_, err := testContract.SupplyWithPermit(context.Background(), domain.SupplyOrder{}, []byte("short"))
	assert.ErrorIs(t, err, ErrorBadSignature)
}
