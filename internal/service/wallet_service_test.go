package service

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
)

func TestWalletService_Fund(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := l.wallets.Fund(ctx, user, user, 100)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = l.wallets.Fund(ctx, l.owner, user, 0)
	assert.ErrorIs(t, err, apperror.ErrWalletInvalidAmount)

	_, err = l.wallets.Fund(ctx, l.owner, uuid.Nil, 100)
	assert.ErrorIs(t, err, apperror.ErrWalletInvalidAmount)

	_, err = l.wallets.Fund(ctx, l.owner, user, math.MaxUint64)
	assert.ErrorIs(t, err, apperror.ErrWalletInvalidAmount)

	balance, err := l.wallets.Fund(ctx, l.owner, user, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance.Available)

	balance, err = l.wallets.SelfFund(ctx, user, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), balance.Available)

	l.assertBalanced(t)
}

func TestWalletService_ListTransactions(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator, worker := uuid.New(), uuid.New()
	l.fund(t, creator, 2_000_000)

	task := l.submittedTask(t, creator, worker, 1_000_000)
	_, err := l.tasks.ApproveTask(ctx, creator, task.ID, 5)
	require.NoError(t, err)

	txs, err := l.wallets.ListTransactions(ctx, creator, 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	var in, out uint64
	for _, tx := range txs {
		switch tx.Direction {
		case directionIn:
			in += tx.Amount
		case directionOut:
			out += tx.Amount
			assert.Equal(t, models.TransactionTypeEscrowHold, tx.Type)
			assert.Equal(t, task.ID, tx.TaskID)
		}
	}
	assert.Equal(t, uint64(2_000_000), in)
	assert.Equal(t, uint64(1_025_000), out)

	txs, err = l.wallets.ListTransactions(ctx, worker, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeRelease, txs[0].Type)
	assert.Equal(t, uint64(1_000_000), txs[0].Amount)
}

func TestAuditService_Check(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator, worker := uuid.New(), uuid.New()
	l.fund(t, creator, 3_000_000)

	l.createTask(t, creator, 1_000_000)
	l.submittedTask(t, creator, worker, 1_000_000)

	report, err := l.audit.Check(ctx)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Equal(t, uint64(3_000_000), report.TotalFunded)
	assert.Equal(t, uint64(2_000_000), report.EscrowHeld)
	assert.Equal(t, uint64(50_000), report.FeePool)
	assert.Equal(t, uint64(950_000), report.WalletBalances)

	// баланс, изменённый в обход кошелька, нарушает сверку
	err = l.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Wallets().SetBalance(ctx, worker, 1)
	})
	require.NoError(t, err)

	report, err = l.audit.Check(ctx)
	require.NoError(t, err)
	assert.False(t, report.Balanced)
}
