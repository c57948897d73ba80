package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"ghooey/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T) *KeyedWallet {
	t.Helper()
	key, err := crypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	return NewKeyedWallet(key, 11155111, nil)
}

func permitDocument(t *testing.T, owner common.Address) []byte {
	t.Helper()
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
		Domain: apitypes.TypedDataDomain{
			Name:              "Dai Stablecoin",
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(big.NewInt(11155111)),
			VerifyingContract: testReserve.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner":    owner.Hex(),
			"spender":  testPool.Hex(),
			"value":    (*math.HexOrDecimal256)(big.NewInt(1000)),
			"nonce":    (*math.HexOrDecimal256)(big.NewInt(0)),
			"deadline": (*math.HexOrDecimal256)(big.NewInt(1_900_000_000)),
		},
	}
	payload, err := json.Marshal(typedData)
	require.NoError(t, err)
	return payload
}

func TestKeyedWallet_Accounts(t *testing.T) {
	wallet := newTestWallet(t)
	assert.True(t, wallet.IsConnected())

	accounts, err := wallet.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, wallet.Address(), accounts[0])

	requested, err := wallet.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, accounts, requested, "a keyed wallet needs no interactive authorization")
}

func TestKeyedWallet_SignTypedData(t *testing.T) {
	wallet := newTestWallet(t)
	payload := permitDocument(t, wallet.Address())

	signature, err := wallet.SignTypedData(context.Background(), wallet.Address(), payload)
	require.NoError(t, err)
	require.Len(t, signature, 65)
	assert.Contains(t, []byte{27, 28}, signature[64])

	// the signature recovers to the wallet's own key
	var typedData apitypes.TypedData
	require.NoError(t, json.Unmarshal(payload, &typedData))
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	require.NoError(t, err)

	recoverable := make([]byte, 65)
	copy(recoverable, signature)
	recoverable[64] -= 27
	pubKey, err := crypto.SigToPub(hash, recoverable)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address(), crypto.PubkeyToAddress(*pubKey))
}

func TestKeyedWallet_RejectsForeignAccount(t *testing.T) {
	wallet := newTestWallet(t)
	payload := permitDocument(t, testUser)

	_, err := wallet.SignTypedData(context.Background(), testUser, payload)
	assert.ErrorIs(t, err, ErrorWrongSignerKey)
}

func TestKeyedWallet_RejectsJunkPayload(t *testing.T) {
	wallet := newTestWallet(t)
	_, err := wallet.SignTypedData(context.Background(), wallet.Address(), []byte("{not json"))
	assert.ErrorIs(t, err, ErrorNotTypedData)
}

func TestKeyedWallet_ConcurrentSendsGetDistinctNonces(t *testing.T) {
	wallet := newTestWallet(t)
	wallet.nonceKnown = true
	wallet.nextNonce = 5

	const sends = 16
	nonces := make(chan uint64, sends)
	var wg sync.WaitGroup
	wg.Add(sends)
	for i := 0; i < sends; i++ {
		go func() {
			defer wg.Done()
			nonce, err := wallet.reserveNonce(context.Background())
			assert.NoError(t, err)
			nonces <- nonce
		}()
	}
	wg.Wait()
	close(nonces)

	seen := make(map[uint64]bool)
	for nonce := range nonces {
		assert.False(t, seen[nonce], "nonce %v handed out twice", nonce)
		seen[nonce] = true
		assert.GreaterOrEqual(t, nonce, uint64(5))
		assert.Less(t, nonce, uint64(5+sends))
	}
	assert.Len(t, seen, sends)
	assert.Equal(t, uint64(5+sends), wallet.nextNonce)
}

func TestKeyedWallet_ResyncDropsTrackedNonce(t *testing.T) {
	wallet := newTestWallet(t)
	wallet.nonceKnown = true
	wallet.nextNonce = 9

	nonce, err := wallet.reserveNonce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(9), nonce)

	wallet.resyncNonce()
	assert.False(t, wallet.nonceKnown, "the next send re-reads the pending nonce")
}

func TestErc20TransferCalldata(t *testing.T) {
	contract := NewErc20Contract()
	recipient := common.HexToAddress("0x2222222222222222222222222222222222222222")

	txs, err := contract.Transfer(context.Background(), domain.TransferOrder{
		From:   testUser,
		To:     recipient,
		Token:  testReserve,
		Amount: big.NewInt(5000),
	})
	require.NoError(t, err)

	request := resolveOne(t, txs)
	assert.Equal(t, testReserve, request.To)
	assert.Equal(t, selector("transfer(address,uint256)"), request.Data[:4])

	values, err := erc20Abi.Methods["transfer"].Inputs.Unpack(request.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, recipient, values[0])
	assert.Equal(t, big.NewInt(5000), values[1])
}
