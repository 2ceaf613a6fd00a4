package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/chain"
	"github.com/ignatzorin/taskbounty-backend/internal/events"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/metrics"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

// EscrowService хранит вознаграждения по задачам до выплаты исполнителю
// или возврата автору. Все изменяющие операции доступны только вызывающим
// из списка escrow; вывод комиссий только владельцу платформы.
type EscrowService struct {
	uow       repository.UnitOfWork
	gate      *AccessGate
	wallets   *WalletService
	clock     chain.Clock
	policy    models.Policy
	publisher events.Publisher
}

func NewEscrowService(
	uow repository.UnitOfWork,
	gate *AccessGate,
	wallets *WalletService,
	clock chain.Clock,
	policy models.Policy,
	publisher events.Publisher,
) *EscrowService {
	return &EscrowService{
		uow:       uow,
		gate:      gate,
		wallets:   wallets,
		clock:     clock,
		policy:    policy,
		publisher: publisher,
	}
}

// CalculatePlatformFee комиссия платформы для суммы.
func (s *EscrowService) CalculatePlatformFee(amount uint64) uint64 {
	return s.policy.PlatformFee(amount)
}

// CalculateTotalDeposit сумма, которую спишут с автора.
func (s *EscrowService) CalculateTotalDeposit(amount uint64) uint64 {
	return s.policy.TotalDeposit(amount)
}

// Quote расчёт депозита для вознаграждения.
func (s *EscrowService) Quote(amount uint64) models.FeeQuote {
	return models.FeeQuote{
		Reward:       amount,
		Fee:          s.CalculatePlatformFee(amount),
		TotalDeposit: s.CalculateTotalDeposit(amount),
	}
}

// GetEscrow возвращает escrow задачи.
func (s *EscrowService) GetEscrow(ctx context.Context, taskID uint64) (*models.Escrow, error) {
	var escrow *models.Escrow
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		escrow, err = tx.Escrows().Get(ctx, taskID)
		return notFound(err, apperror.ErrEscrowNotFound)
	})
	return escrow, err
}

// GetPlatformFees текущий пул комиссий.
func (s *EscrowService) GetPlatformFees(ctx context.Context) (uint64, error) {
	var pool uint64
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pool, err = tx.Escrows().FeePool(ctx)
		return err
	})
	return pool, err
}

// Deposit принимает вознаграждение по задаче: списывает с автора reward+fee,
// зачисляет fee в пул комиссий и создаёт escrow на сумму reward.
func (s *EscrowService) Deposit(ctx context.Context, caller uuid.UUID, taskID, reward uint64, creator uuid.UUID) (*models.Escrow, error) {
	var escrow *models.Escrow
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := s.gate.require(ctx, tx, models.ScopeEscrow, caller); err != nil {
			return err
		}
		if reward < s.policy.MinReward || reward > math.MaxInt64/2 || creator == uuid.Nil {
			return apperror.ErrEscrowInvalidAmount
		}
		// номер задачи выдаёт реестр, escrow вперёд него занял бы номер навсегда
		issued, err := tx.Tasks().Count(ctx)
		if err != nil {
			return err
		}
		if taskID == 0 || taskID > issued {
			return apperror.ErrEscrowUnknownTask
		}
		if _, err := tx.Escrows().Get(ctx, taskID); err == nil {
			return apperror.ErrEscrowExists
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		fee := s.policy.PlatformFee(reward)
		height := s.clock.Height()

		if err := s.wallets.debit(ctx, tx, creator, reward+fee, models.TransactionTypeEscrowHold, taskID, height); err != nil {
			if errors.Is(err, apperror.ErrInsufficientFunds) {
				return apperror.ErrEscrowInsufficientFunds
			}
			return err
		}

		pool, err := tx.Escrows().FeePool(ctx)
		if err != nil {
			return err
		}
		if err := tx.Escrows().SetFeePool(ctx, pool+fee); err != nil {
			return err
		}

		escrow = &models.Escrow{
			TaskID:        taskID,
			Amount:        reward,
			Fee:           fee,
			Creator:       creator,
			Outcome:       models.EscrowOutcomeHeld,
			CreatedHeight: height,
		}
		if err := tx.Escrows().Insert(ctx, escrow); err != nil {
			return err
		}

		tx.OnCommit(func() {
			metrics.EscrowMovements.WithLabelValues("deposit").Add(float64(reward))
			metrics.FeesCollected.Add(float64(fee))
			metrics.FeePool.Set(float64(pool + fee))
		})

		return recordEvent(ctx, tx, s.publisher, models.Event{
			TaskID:     taskID,
			Kind:       models.EventEscrowDeposited,
			Actor:      caller,
			Height:     height,
			Payload:    payload(map[string]any{"amount": reward, "fee": fee}),
			Recipients: []uuid.UUID{creator},
		})
	})
	if err != nil {
		return nil, err
	}
	return escrow, nil
}

// SetWorker привязывает исполнителя к невыплаченному escrow. Исполнитель задаётся один раз.
func (s *EscrowService) SetWorker(ctx context.Context, caller uuid.UUID, taskID uint64, worker uuid.UUID) error {
	return s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		escrow, err := s.load(ctx, tx, caller, taskID)
		if err != nil {
			return err
		}
		if escrow.Released {
			return apperror.ErrAlreadyReleased
		}
		if escrow.Worker.Valid {
			return apperror.ErrWorkerAlreadySet
		}
		if worker == uuid.Nil {
			return apperror.ErrNoWorker
		}

		escrow.Worker = uuid.NullUUID{UUID: worker, Valid: true}
		return tx.Escrows().Update(ctx, escrow)
	})
}

// ReleaseFunds выплачивает вознаграждение исполнителю. Необратимо.
func (s *EscrowService) ReleaseFunds(ctx context.Context, caller uuid.UUID, taskID uint64) (*models.Escrow, error) {
	var escrow *models.Escrow
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if escrow, err = s.loadPayable(ctx, tx, caller, taskID); err != nil {
			return err
		}
		if !escrow.Worker.Valid {
			return apperror.ErrNoWorker
		}

		height := s.clock.Height()
		if err := s.wallets.credit(ctx, tx, escrow.Worker.UUID, escrow.Amount, models.TransactionTypeRelease, taskID, height); err != nil {
			return err
		}

		escrow.Released = true
		escrow.Outcome = models.EscrowOutcomeReleased
		escrow.WorkerPayout = escrow.Amount
		if err := tx.Escrows().Update(ctx, escrow); err != nil {
			return err
		}

		amount := escrow.Amount
		tx.OnCommit(func() {
			metrics.EscrowMovements.WithLabelValues("release").Add(float64(amount))
		})

		return recordEvent(ctx, tx, s.publisher, models.Event{
			TaskID:     taskID,
			Kind:       models.EventEscrowReleased,
			Actor:      caller,
			Height:     height,
			Payload:    payload(map[string]any{"worker_id": escrow.Worker.UUID, "amount": escrow.Amount}),
			Recipients: participants(escrow.Creator, escrow.Worker),
		})
	})
	if err != nil {
		return nil, err
	}
	return escrow, nil
}

// RefundCreator возвращает вознаграждение автору. Комиссия не возвращается.
func (s *EscrowService) RefundCreator(ctx context.Context, caller uuid.UUID, taskID uint64) (*models.Escrow, error) {
	var escrow *models.Escrow
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if escrow, err = s.loadPayable(ctx, tx, caller, taskID); err != nil {
			return err
		}

		height := s.clock.Height()
		if err := s.wallets.credit(ctx, tx, escrow.Creator, escrow.Amount, models.TransactionTypeRefund, taskID, height); err != nil {
			return err
		}

		escrow.Released = true
		escrow.Outcome = models.EscrowOutcomeRefunded
		escrow.CreatorPayout = escrow.Amount
		if err := tx.Escrows().Update(ctx, escrow); err != nil {
			return err
		}

		amount := escrow.Amount
		tx.OnCommit(func() {
			metrics.EscrowMovements.WithLabelValues("refund").Add(float64(amount))
		})

		return recordEvent(ctx, tx, s.publisher, models.Event{
			TaskID:     taskID,
			Kind:       models.EventEscrowRefunded,
			Actor:      caller,
			Height:     height,
			Payload:    payload(map[string]any{"creator_id": escrow.Creator, "amount": escrow.Amount}),
			Recipients: participants(escrow.Creator, escrow.Worker),
		})
	})
	if err != nil {
		return nil, err
	}
	return escrow, nil
}

// OpenDispute помечает escrow спорным. Пока спор открыт, выплата и возврат заблокированы.
func (s *EscrowService) OpenDispute(ctx context.Context, caller uuid.UUID, taskID uint64) error {
	return s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		escrow, err := s.load(ctx, tx, caller, taskID)
		if err != nil {
			return err
		}
		if escrow.DisputeOpened {
			return apperror.ErrEscrowDisputeAlreadyOpened
		}
		if escrow.Released {
			return apperror.ErrAlreadyReleased
		}

		escrow.DisputeOpened = true
		return tx.Escrows().Update(ctx, escrow)
	})
}

// ResolveDispute делит escrow между исполнителем и автором:
// исполнитель получает floor(amount * pct / 100), автор остаток.
func (s *EscrowService) ResolveDispute(ctx context.Context, caller uuid.UUID, taskID, workerPercentage uint64) (*models.DisputeSplit, error) {
	var split *models.DisputeSplit
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := s.gate.require(ctx, tx, models.ScopeEscrow, caller); err != nil {
			return err
		}
		if workerPercentage > 100 {
			return apperror.ErrEscrowInvalidPercentage
		}
		escrow, err := tx.Escrows().Get(ctx, taskID)
		if err != nil {
			return notFound(err, apperror.ErrEscrowNotFound)
		}
		if escrow.Released {
			return apperror.ErrAlreadyReleased
		}
		if !escrow.DisputeOpened {
			return apperror.ErrDisputeNotOpened
		}

		workerAmount := models.WorkerShare(escrow.Amount, workerPercentage)
		creatorAmount := escrow.Amount - workerAmount
		if workerAmount > 0 && !escrow.Worker.Valid {
			return apperror.ErrNoWorker
		}

		height := s.clock.Height()
		if workerAmount > 0 {
			if err := s.wallets.credit(ctx, tx, escrow.Worker.UUID, workerAmount, models.TransactionTypeDisputePayout, taskID, height); err != nil {
				return err
			}
		}
		if err := s.wallets.credit(ctx, tx, escrow.Creator, creatorAmount, models.TransactionTypeDisputePayout, taskID, height); err != nil {
			return err
		}

		escrow.Released = true
		escrow.Outcome = models.EscrowOutcomeResolved
		escrow.WorkerPayout = workerAmount
		escrow.CreatorPayout = creatorAmount
		if err := tx.Escrows().Update(ctx, escrow); err != nil {
			return err
		}

		split = &models.DisputeSplit{
			TaskID:        taskID,
			Percentage:    workerPercentage,
			WorkerAmount:  workerAmount,
			CreatorAmount: creatorAmount,
		}

		tx.OnCommit(func() {
			metrics.EscrowMovements.WithLabelValues("dispute_payout").Add(float64(workerAmount + creatorAmount))
		})

		return recordEvent(ctx, tx, s.publisher, models.Event{
			TaskID:     taskID,
			Kind:       models.EventEscrowResolved,
			Actor:      caller,
			Height:     height,
			Payload:    payload(split),
			Recipients: participants(escrow.Creator, escrow.Worker),
		})
	})
	if err != nil {
		return nil, err
	}
	return split, nil
}

// WithdrawPlatformFees переводит весь пул комиссий получателю. Только для владельца.
func (s *EscrowService) WithdrawPlatformFees(ctx context.Context, caller, recipient uuid.UUID) (uint64, error) {
	if caller != s.gate.Owner() {
		return 0, apperror.ErrEscrowNotAuthorized
	}
	if recipient == uuid.Nil {
		return 0, apperror.ErrInvalidInput
	}

	var amount uint64
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if amount, err = tx.Escrows().FeePool(ctx); err != nil {
			return err
		}
		if amount == 0 {
			return nil
		}

		height := s.clock.Height()
		if err := s.wallets.credit(ctx, tx, recipient, amount, models.TransactionTypeFeeWithdrawal, 0, height); err != nil {
			return err
		}
		if err := tx.Escrows().SetFeePool(ctx, 0); err != nil {
			return err
		}

		withdrawn := amount
		tx.OnCommit(func() {
			metrics.FeePool.Set(0)
			logger.Log.WithFields(map[string]interface{}{
				"recipient": recipient,
				"amount":    withdrawn,
			}).Info("escrow: комиссии выведены")
		})

		return recordEvent(ctx, tx, s.publisher, models.Event{
			Kind:       models.EventFeesWithdrawn,
			Actor:      caller,
			Height:     height,
			Payload:    payload(map[string]any{"recipient": recipient, "amount": amount}),
			Recipients: []uuid.UUID{recipient},
		})
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// load проверяет доступ и загружает escrow.
func (s *EscrowService) load(ctx context.Context, tx repository.Tx, caller uuid.UUID, taskID uint64) (*models.Escrow, error) {
	if err := s.gate.require(ctx, tx, models.ScopeEscrow, caller); err != nil {
		return nil, err
	}
	escrow, err := tx.Escrows().Get(ctx, taskID)
	if err != nil {
		return nil, notFound(err, apperror.ErrEscrowNotFound)
	}
	return escrow, nil
}

// loadPayable загружает escrow, из которого ещё можно выплатить средства.
func (s *EscrowService) loadPayable(ctx context.Context, tx repository.Tx, caller uuid.UUID, taskID uint64) (*models.Escrow, error) {
	escrow, err := s.load(ctx, tx, caller, taskID)
	if err != nil {
		return nil, err
	}
	if escrow.Released {
		return nil, apperror.ErrAlreadyReleased
	}
	if escrow.DisputeOpened {
		return nil, apperror.ErrEscrowDisputed
	}
	return escrow, nil
}
