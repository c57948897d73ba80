package usecase

import (
	"context"
	"ghooey/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAll_AllFulfilled(t *testing.T) {
	signer := &fakeSigner{}
	executor := NewBatchExecutor(signer)

	outcomes := executor.SubmitAll(context.Background(), []domain.PreparedTransaction{
		okTx(domain.OperationSupply),
		okTx(domain.OperationSupply),
		okTx(domain.OperationSupply),
	})

	require.Len(t, outcomes, 3)
	for i, outcome := range outcomes {
		assert.Equal(t, i, outcome.Index, "outcomes stay aligned with the input order")
		assert.True(t, outcome.Fulfilled())
	}
	assert.Equal(t, 3, signer.sends)
	assert.Equal(t, domain.SettleAllFulfilled, domain.ClassifySettlement(outcomes))
}

func TestSubmitAll_SettleAll(t *testing.T) {
	signer := &fakeSigner{}
	executor := NewBatchExecutor(signer)

	outcomes := executor.SubmitAll(context.Background(), []domain.PreparedTransaction{
		okTx(domain.OperationTransfer),
		badTx(domain.OperationTransfer, errRejected),
		okTx(domain.OperationTransfer),
	})

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Fulfilled())
	assert.False(t, outcomes[1].Fulfilled())
	assert.True(t, outcomes[2].Fulfilled(), "one rejection never cancels its siblings")

	assert.Equal(t, domain.SettlePartial, domain.ClassifySettlement(outcomes))
	assert.ErrorIs(t, domain.FirstRejection(outcomes), errRejected)
}

func TestSubmitAll_AllRejected(t *testing.T) {
	executor := NewBatchExecutor(&fakeSigner{})

	outcomes := executor.SubmitAll(context.Background(), []domain.PreparedTransaction{
		badTx(domain.OperationBorrow, errRejected),
		badTx(domain.OperationBorrow, errRejected),
	})

	assert.Equal(t, domain.SettleAllRejected, domain.ClassifySettlement(outcomes))
}

func TestSubmitAll_ConcurrentBatchSignsDistinctNonces(t *testing.T) {
	signer := &fakeSigner{}
	executor := NewBatchExecutor(signer)

	outcomes := executor.SubmitAll(context.Background(), []domain.PreparedTransaction{
		okTx(domain.OperationSupply),
		okTx(domain.OperationSupply),
		okTx(domain.OperationSupply),
		okTx(domain.OperationSupply),
	})

	assert.Equal(t, domain.SettleAllFulfilled, domain.ClassifySettlement(outcomes))
	require.Len(t, signer.nonces, 4)
	seen := make(map[uint64]bool)
	for _, nonce := range signer.nonces {
		assert.False(t, seen[nonce], "two submissions signed with nonce %v", nonce)
		seen[nonce] = true
	}
}

func TestConfirmAll_HashesAlignedWithInput(t *testing.T) {
	signer := &fakeSigner{}
	executor := NewBatchExecutor(signer)

	outcomes := executor.SubmitAll(context.Background(), []domain.PreparedTransaction{
		okTx(domain.OperationSupply),
		okTx(domain.OperationSupply),
	})

	hashes, err := executor.ConfirmAll(context.Background(), outcomes)
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	for i, outcome := range outcomes {
		assert.Equal(t, outcome.Handle.Hash(), hashes[i])
	}
	for _, handle := range signer.handles {
		assert.Equal(t, 1, handle.waitCount())
	}
}

func TestConfirmAll_RefusesUnsettledBatch(t *testing.T) {
	signer := &fakeSigner{}
	executor := NewBatchExecutor(signer)

	outcomes := executor.SubmitAll(context.Background(), []domain.PreparedTransaction{
		okTx(domain.OperationSupply),
		badTx(domain.OperationSupply, errRejected),
	})

	_, err := executor.ConfirmAll(context.Background(), outcomes)
	assert.ErrorIs(t, err, ErrorUnsettledOutcome)

	for _, handle := range signer.handles {
		assert.Zero(t, handle.waitCount(), "no confirmation wait after a rejection")
	}
}

func TestConfirmAll_EmptyBatch(t *testing.T) {
	executor := NewBatchExecutor(&fakeSigner{})
	_, err := executor.ConfirmAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrorEmptyBatch)
}

func TestConfirmAll_LateFailureNotEscalated(t *testing.T) {
	signer := &fakeSigner{}
	executor := NewBatchExecutor(signer)

	outcomes := executor.SubmitAll(context.Background(), []domain.PreparedTransaction{
		okTx(domain.OperationSupply),
	})
	signer.handles[0].waitErr = errRejected

	hashes, err := executor.ConfirmAll(context.Background(), outcomes)
	require.NoError(t, err, "a confirmation-time failure is logged, not raised")
	assert.Len(t, hashes, 1)
}
