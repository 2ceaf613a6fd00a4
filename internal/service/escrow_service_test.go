package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
)

func TestEscrowService_FeeCalculation(t *testing.T) {
	l := newTestLedger(t)

	tests := []struct {
		amount, fee uint64
	}{
		{1_000_000, 25_000},
		{100_000, 2_500},
		{39, 0},
		{40, 1},
		{12_345_678, 308_641},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.fee, l.escrow.CalculatePlatformFee(tt.amount), "amount %d", tt.amount)
		assert.Equal(t, tt.amount+tt.fee, l.escrow.CalculateTotalDeposit(tt.amount))
		// повторный расчёт даёт тот же результат
		assert.Equal(t, l.escrow.CalculatePlatformFee(tt.amount), l.escrow.CalculatePlatformFee(tt.amount))
	}

	quote := l.escrow.Quote(1_000_000)
	assert.Equal(t, models.FeeQuote{Reward: 1_000_000, Fee: 25_000, TotalDeposit: 1_025_000}, quote)
}

func TestEscrowService_DisputeSplitConservesAmount(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator, worker := uuid.New(), uuid.New()
	const reward = 1_000_003
	l.fund(t, creator, 101*l.escrow.CalculateTotalDeposit(reward))

	for pct := uint64(0); pct <= 100; pct++ {
		task := l.submittedTask(t, creator, worker, reward)
		_, err := l.tasks.OpenDispute(ctx, worker, task.ID, "")
		require.NoError(t, err)

		workerBefore, creatorBefore := l.balance(t, worker), l.balance(t, creator)

		split, err := l.tasks.ResolveDispute(ctx, l.arbiter, task.ID, pct)
		require.NoError(t, err)
		assert.Equal(t, uint64(reward), split.WorkerAmount+split.CreatorAmount, "pct %d", pct)
		assert.Equal(t, uint64(reward)*pct/100, split.WorkerAmount, "pct %d", pct)

		assert.Equal(t, workerBefore+split.WorkerAmount, l.balance(t, worker))
		assert.Equal(t, creatorBefore+split.CreatorAmount, l.balance(t, creator))
	}

	l.assertBalanced(t)
}

func TestEscrowService_Deposit(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator := uuid.New()
	l.fund(t, creator, 5_000_000)
	l.issueTaskIDs(t, 2)

	_, err := l.escrow.Deposit(ctx, uuid.New(), 1, 1_000_000, creator)
	assert.ErrorIs(t, err, apperror.ErrEscrowNotAuthorized)

	_, err = l.escrow.Deposit(ctx, l.registry, 1, l.policy.MinReward-1, creator)
	assert.ErrorIs(t, err, apperror.ErrEscrowInvalidAmount)

	_, err = l.escrow.Deposit(ctx, l.registry, 1, 1_000_000, uuid.Nil)
	assert.ErrorIs(t, err, apperror.ErrEscrowInvalidAmount)

	escrow, err := l.escrow.Deposit(ctx, l.registry, 1, 1_000_000, creator)
	require.NoError(t, err)
	assert.Equal(t, uint64(25_000), escrow.Fee)
	assert.Equal(t, models.EscrowOutcomeHeld, escrow.Outcome)
	assert.Equal(t, uint64(3_975_000), l.balance(t, creator))

	_, err = l.escrow.Deposit(ctx, l.registry, 1, 1_000_000, creator)
	assert.ErrorIs(t, err, apperror.ErrEscrowExists)

	_, err = l.escrow.Deposit(ctx, l.registry, 2, 4_000_000, creator)
	assert.ErrorIs(t, err, apperror.ErrEscrowInsufficientFunds)
	assert.Equal(t, uint64(3_975_000), l.balance(t, creator))

	l.assertBalanced(t)
}

func TestEscrowService_DepositRejectsUnissuedTask(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator := uuid.New()
	l.fund(t, creator, 3_000_000)
	before := l.snapshot(t, creator)

	// escrow для ещё не выпущенного номера заблокировал бы CreateTask навсегда
	for _, id := range []uint64{0, 1, 2} {
		_, err := l.escrow.Deposit(ctx, l.registry, id, 1_000_000, creator)
		assert.ErrorIs(t, err, apperror.ErrEscrowUnknownTask)
	}
	assert.Equal(t, before, l.snapshot(t, creator))

	task := l.createTask(t, creator, 1_000_000)
	assert.Equal(t, uint64(1), task.ID)

	_, err := l.escrow.Deposit(ctx, l.registry, task.ID+1, 1_000_000, creator)
	assert.ErrorIs(t, err, apperror.ErrEscrowUnknownTask)
	_, err = l.escrow.Deposit(ctx, l.registry, task.ID, 1_000_000, creator)
	assert.ErrorIs(t, err, apperror.ErrEscrowExists)

	task = l.createTask(t, creator, 1_000_000)
	assert.Equal(t, uint64(2), task.ID)
	l.assertBalanced(t)
}

func TestEscrowService_ReleaseOnlyOnce(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator, worker := uuid.New(), uuid.New()
	l.fund(t, creator, 2_000_000)
	l.issueTaskIDs(t, 7)

	_, err := l.escrow.Deposit(ctx, l.registry, 7, 1_000_000, creator)
	require.NoError(t, err)

	_, err = l.escrow.ReleaseFunds(ctx, l.registry, 7)
	assert.ErrorIs(t, err, apperror.ErrNoWorker)

	require.NoError(t, l.escrow.SetWorker(ctx, l.registry, 7, worker))
	assert.ErrorIs(t, l.escrow.SetWorker(ctx, l.registry, 7, uuid.New()), apperror.ErrWorkerAlreadySet)

	_, err = l.escrow.ReleaseFunds(ctx, l.registry, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), l.balance(t, worker))

	before := l.snapshot(t, creator, worker)

	_, err = l.escrow.ReleaseFunds(ctx, l.registry, 7)
	assert.ErrorIs(t, err, apperror.ErrAlreadyReleased)
	_, err = l.escrow.RefundCreator(ctx, l.registry, 7)
	assert.ErrorIs(t, err, apperror.ErrAlreadyReleased)
	assert.ErrorIs(t, l.escrow.OpenDispute(ctx, l.registry, 7), apperror.ErrAlreadyReleased)
	_, err = l.escrow.ResolveDispute(ctx, l.registry, 7, 50)
	assert.ErrorIs(t, err, apperror.ErrAlreadyReleased)

	assert.Equal(t, before, l.snapshot(t, creator, worker))
	l.assertBalanced(t)
}

func TestEscrowService_RefundOnlyOnce(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator := uuid.New()
	l.fund(t, creator, 1_025_000)
	l.issueTaskIDs(t, 3)

	_, err := l.escrow.Deposit(ctx, l.registry, 3, 1_000_000, creator)
	require.NoError(t, err)

	escrow, err := l.escrow.RefundCreator(ctx, l.registry, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), escrow.CreatorPayout)
	assert.Equal(t, uint64(1_000_000), l.balance(t, creator))

	_, err = l.escrow.RefundCreator(ctx, l.registry, 3)
	assert.ErrorIs(t, err, apperror.ErrAlreadyReleased)
	assert.Equal(t, uint64(1_000_000), l.balance(t, creator))
}

func TestEscrowService_Dispute(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator, worker := uuid.New(), uuid.New()
	l.fund(t, creator, 2_000_000)
	l.issueTaskIDs(t, 5)

	_, err := l.escrow.Deposit(ctx, l.registry, 5, 1_000_000, creator)
	require.NoError(t, err)

	_, err = l.escrow.ResolveDispute(ctx, l.registry, 5, 50)
	assert.ErrorIs(t, err, apperror.ErrDisputeNotOpened)

	require.NoError(t, l.escrow.OpenDispute(ctx, l.registry, 5))
	assert.ErrorIs(t, l.escrow.OpenDispute(ctx, l.registry, 5), apperror.ErrEscrowDisputeAlreadyOpened)

	_, err = l.escrow.RefundCreator(ctx, l.registry, 5)
	assert.ErrorIs(t, err, apperror.ErrEscrowDisputed)

	_, err = l.escrow.ResolveDispute(ctx, l.registry, 5, 101)
	assert.ErrorIs(t, err, apperror.ErrEscrowInvalidPercentage)

	// без исполнителя доля исполнителя должна быть нулевой
	_, err = l.escrow.ResolveDispute(ctx, l.registry, 5, 30)
	assert.ErrorIs(t, err, apperror.ErrNoWorker)

	require.NoError(t, l.escrow.SetWorker(ctx, l.registry, 5, worker))
	split, err := l.escrow.ResolveDispute(ctx, l.registry, 5, 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(300_000), split.WorkerAmount)
	assert.Equal(t, uint64(700_000), split.CreatorAmount)

	escrow, err := l.escrow.GetEscrow(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowOutcomeResolved, escrow.Outcome)
	assert.True(t, escrow.Released)
	l.assertBalanced(t)
}

func TestEscrowService_UnauthorizedCallerChangesNothing(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator, worker, stranger := uuid.New(), uuid.New(), uuid.New()
	l.fund(t, creator, 2_000_000)

	task := l.submittedTask(t, creator, worker, 1_000_000)
	before := l.snapshot(t, creator, worker, stranger)

	// ни автор, ни исполнитель не входят в список escrow
	for _, caller := range []uuid.UUID{stranger, creator, worker, l.owner} {
		_, err := l.escrow.ReleaseFunds(ctx, caller, task.ID)
		assert.ErrorIs(t, err, apperror.ErrEscrowNotAuthorized)
		_, err = l.escrow.RefundCreator(ctx, caller, task.ID)
		assert.ErrorIs(t, err, apperror.ErrEscrowNotAuthorized)
		assert.ErrorIs(t, l.escrow.OpenDispute(ctx, caller, task.ID), apperror.ErrEscrowNotAuthorized)
		assert.ErrorIs(t, l.escrow.SetWorker(ctx, caller, task.ID, caller), apperror.ErrEscrowNotAuthorized)
		_, err = l.escrow.ResolveDispute(ctx, caller, task.ID, 100)
		assert.ErrorIs(t, err, apperror.ErrEscrowNotAuthorized)
	}

	assert.Equal(t, before, l.snapshot(t, creator, worker, stranger))

	_, err := l.escrow.GetEscrow(ctx, 404)
	assert.ErrorIs(t, err, apperror.ErrEscrowNotFound)
	_, err = l.escrow.ReleaseFunds(ctx, l.registry, 404)
	assert.ErrorIs(t, err, apperror.ErrEscrowNotFound)
}

func TestEscrowService_WithdrawPlatformFees(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	creator, treasury := uuid.New(), uuid.New()
	l.fund(t, creator, 5_000_000)
	l.createTask(t, creator, 1_000_000)
	l.createTask(t, creator, 2_000_000)

	_, err := l.escrow.WithdrawPlatformFees(ctx, creator, treasury)
	assert.ErrorIs(t, err, apperror.ErrEscrowNotAuthorized)

	_, err = l.escrow.WithdrawPlatformFees(ctx, l.owner, uuid.Nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	amount, err := l.escrow.WithdrawPlatformFees(ctx, l.owner, treasury)
	require.NoError(t, err)
	assert.Equal(t, uint64(75_000), amount)
	assert.Equal(t, uint64(75_000), l.balance(t, treasury))

	pool, err := l.escrow.GetPlatformFees(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool)

	amount, err = l.escrow.WithdrawPlatformFees(ctx, l.owner, treasury)
	require.NoError(t, err)
	assert.Zero(t, amount)
	assert.Equal(t, uint64(75_000), l.balance(t, treasury))

	l.assertBalanced(t)
}
