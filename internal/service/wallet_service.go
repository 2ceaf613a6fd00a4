package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/chain"
	"github.com/ignatzorin/taskbounty-backend/internal/events"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
)

// Направления движения средств
const (
	directionIn  = "in"
	directionOut = "out"
)

// WalletService балансы пользователей. Все движения escrow проходят через кошельки.
type WalletService struct {
	uow       repository.UnitOfWork
	clock     chain.Clock
	owner     uuid.UUID
	publisher events.Publisher
}

func NewWalletService(uow repository.UnitOfWork, clock chain.Clock, owner uuid.UUID, publisher events.Publisher) *WalletService {
	return &WalletService{uow: uow, clock: clock, owner: owner, publisher: publisher}
}

// GetBalance возвращает баланс пользователя.
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.WalletBalance, error) {
	balance := &models.WalletBalance{UserID: userID}
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		balance.Available, err = tx.Wallets().Balance(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// ListTransactions возвращает историю движений средств.
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	limit, offset = NormalizePage(limit, offset)
	var txs []models.Transaction
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		txs, err = tx.Wallets().ListTransactions(ctx, userID, limit, offset)
		return err
	})
	return txs, err
}

// Fund пополняет баланс пользователя. Доступно только владельцу платформы.
func (s *WalletService) Fund(ctx context.Context, caller, userID uuid.UUID, amount uint64) (*models.WalletBalance, error) {
	if caller != s.owner {
		return nil, apperror.ErrForbidden
	}
	return s.deposit(ctx, caller, userID, amount)
}

// SelfFund пополнение собственного баланса. Маршрут доступен только в development.
func (s *WalletService) SelfFund(ctx context.Context, userID uuid.UUID, amount uint64) (*models.WalletBalance, error) {
	return s.deposit(ctx, userID, userID, amount)
}

func (s *WalletService) deposit(ctx context.Context, actor, userID uuid.UUID, amount uint64) (*models.WalletBalance, error) {
	if amount == 0 || userID == uuid.Nil {
		return nil, apperror.ErrWalletInvalidAmount
	}

	balance := &models.WalletBalance{UserID: userID}
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		funded, err := tx.Wallets().TotalFunded(ctx)
		if err != nil {
			return err
		}
		if amount > math.MaxInt64 || funded > math.MaxInt64-amount {
			return apperror.ErrWalletInvalidAmount
		}

		height := s.clock.Height()
		if err := s.credit(ctx, tx, userID, amount, models.TransactionTypeFund, 0, height); err != nil {
			return err
		}
		if err := tx.Wallets().SetTotalFunded(ctx, funded+amount); err != nil {
			return err
		}

		if balance.Available, err = tx.Wallets().Balance(ctx, userID); err != nil {
			return err
		}

		return recordEvent(ctx, tx, s.publisher, models.Event{
			Kind:       models.EventWalletFunded,
			Actor:      actor,
			Height:     height,
			Payload:    payload(map[string]any{"user_id": userID, "amount": amount}),
			Recipients: []uuid.UUID{userID},
		})
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// credit зачисляет средства внутри открытой транзакции.
func (s *WalletService) credit(ctx context.Context, tx repository.Tx, userID uuid.UUID, amount uint64, txType string, taskID, height uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := tx.Wallets().Balance(ctx, userID)
	if err != nil {
		return err
	}
	if err := tx.Wallets().SetBalance(ctx, userID, balance+amount); err != nil {
		return err
	}
	return s.journal(ctx, tx, userID, amount, txType, directionIn, taskID, height)
}

// debit списывает средства внутри открытой транзакции.
func (s *WalletService) debit(ctx context.Context, tx repository.Tx, userID uuid.UUID, amount uint64, txType string, taskID, height uint64) error {
	balance, err := tx.Wallets().Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < amount {
		return apperror.ErrInsufficientFunds
	}
	if err := tx.Wallets().SetBalance(ctx, userID, balance-amount); err != nil {
		return err
	}
	return s.journal(ctx, tx, userID, amount, txType, directionOut, taskID, height)
}

func (s *WalletService) journal(ctx context.Context, tx repository.Tx, userID uuid.UUID, amount uint64, txType, direction string, taskID, height uint64) error {
	return tx.Wallets().AddTransaction(ctx, &models.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		TaskID:    taskID,
		Type:      txType,
		Direction: direction,
		Amount:    amount,
		Height:    height,
		CreatedAt: time.Now().Unix(),
	})
}
