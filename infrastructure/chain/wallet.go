package chain

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"ghooey/domain"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var (
	ErrorNilRequest     = fmt.Errorf("nil transaction request")
	ErrorRevertedTx     = fmt.Errorf("transaction reverted on chain")
	ErrorNotTypedData   = fmt.Errorf("payload is not EIP-712 typed data")
	ErrorWrongSignerKey = fmt.Errorf("signing requested for a foreign account")
)

const receiptPollInterval = 2 * time.Second

// KeyedWallet is the headless wallet: one private key standing in for the
// browser extension. It answers account probes with its single address and
// signs typed data locally, no user interaction involved.
type KeyedWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainId *big.Int
	client  *ethclient.Client

	handlers []func(accounts []common.Address)

	nonceMutex sync.Mutex
	nextNonce  uint64
	nonceKnown bool
}

func NewKeyedWallet(key *ecdsa.PrivateKey, chainId int64, client *ethclient.Client) *KeyedWallet {
	return &KeyedWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainId: big.NewInt(chainId),
		client:  client,
	}
}

func (wallet *KeyedWallet) IsConnected() bool {
	return wallet.key != nil
}

func (wallet *KeyedWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	if wallet.key == nil {
		return nil, nil
	}
	return []common.Address{wallet.address}, nil
}

func (wallet *KeyedWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return wallet.Accounts(ctx)
}

// SignTypedData expects the payload as JSON-encoded EIP-712 typed data and
// returns the 65-byte signature with the legacy v offset.
func (wallet *KeyedWallet) SignTypedData(ctx context.Context, account common.Address, payload []byte) ([]byte, error) {
	if account != wallet.address {
		return nil, ErrorWrongSignerKey
	}

	var typedData apitypes.TypedData
	if err := json.Unmarshal(payload, &typedData); err != nil {
		return nil, ErrorNotTypedData
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(hash, wallet.key)
	if err != nil {
		return nil, err
	}
	if signature[64] < 27 {
		signature[64] += 27
	}
	return signature, nil
}

func (wallet *KeyedWallet) OnAccountsChanged(handler func(accounts []common.Address)) {
	// A keyed wallet never switches accounts, but the handler list keeps the
	// contract honest for wallet backends that do.
	wallet.handlers = append(wallet.handlers, handler)
}

func (wallet *KeyedWallet) Address() common.Address {
	return wallet.address
}

// SendTransaction signs and broadcasts the request as a dynamic fee
// transaction. Gas limit comes from the request when set, otherwise from
// estimation.
func (wallet *KeyedWallet) SendTransaction(ctx context.Context, request *domain.TransactionRequest) (domain.TransactionHandle, error) {
	if request == nil {
		return nil, ErrorNilRequest
	}

	tipCap, err := wallet.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, err
	}
	head, err := wallet.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	gasLimit := request.GasLimit
	if gasLimit == 0 {
		gasLimit, err = wallet.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  wallet.address,
			To:    &request.To,
			Value: request.Value,
			Data:  request.Data,
		})
		if err != nil {
			return nil, err
		}
	}

	nonce, err := wallet.reserveNonce(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := types.SignNewTx(wallet.key, types.LatestSignerForChainID(wallet.chainId), &types.DynamicFeeTx{
		ChainID:   wallet.chainId,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &request.To,
		Value:     request.Value,
		Data:      request.Data,
	})
	if err != nil {
		wallet.resyncNonce()
		return nil, err
	}

	if err := wallet.client.SendTransaction(ctx, tx); err != nil {
		wallet.resyncNonce()
		return nil, err
	}

	return &receiptHandle{client: wallet.client, hash: tx.Hash()}, nil
}

// reserveNonce hands out strictly increasing nonces. The batch executor sends
// transactions from concurrent goroutines, so the pending nonce is read from
// the chain once and tracked locally afterwards; two in-flight sends can never
// sign with the same nonce.
func (wallet *KeyedWallet) reserveNonce(ctx context.Context) (uint64, error) {
	wallet.nonceMutex.Lock()
	defer wallet.nonceMutex.Unlock()

	if !wallet.nonceKnown {
		pending, err := wallet.client.PendingNonceAt(ctx, wallet.address)
		if err != nil {
			return 0, err
		}
		wallet.nextNonce = pending
		wallet.nonceKnown = true
	}

	nonce := wallet.nextNonce
	wallet.nextNonce++
	return nonce, nil
}

// resyncNonce drops the tracked counter after a failed broadcast. The next
// send re-reads the pending nonce from the chain, closing any gap the failure
// left behind.
func (wallet *KeyedWallet) resyncNonce() {
	wallet.nonceMutex.Lock()
	wallet.nonceKnown = false
	wallet.nonceMutex.Unlock()
}

// receiptHandle waits for a transaction by polling for its receipt.
type receiptHandle struct {
	client *ethclient.Client
	hash   common.Hash
}

func (handle *receiptHandle) Hash() common.Hash {
	return handle.hash
}

func (handle *receiptHandle) Wait(ctx context.Context) error {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := handle.client.TransactionReceipt(ctx, handle.hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("%w: %v", ErrorRevertedTx, handle.hash.Hex())
			}
			return nil
		}
		if err != ethereum.NotFound {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
