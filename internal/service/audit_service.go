package service

import (
	"context"

	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/metrics"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
)

// AuditService сверка реестра: всё внесённое равно сумме балансов,
// невыплаченных escrow и пула комиссий.
type AuditService struct {
	uow repository.UnitOfWork
}

func NewAuditService(uow repository.UnitOfWork) *AuditService {
	return &AuditService{uow: uow}
}

// Check выполняет сверку в одной транзакции чтения.
func (s *AuditService) Check(ctx context.Context) (*models.AuditReport, error) {
	report := &models.AuditReport{}
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if report.TotalFunded, err = tx.Wallets().TotalFunded(ctx); err != nil {
			return err
		}
		if report.WalletBalances, err = tx.Wallets().SumBalances(ctx); err != nil {
			return err
		}
		if report.EscrowHeld, err = tx.Escrows().SumHeld(ctx); err != nil {
			return err
		}
		report.FeePool, err = tx.Escrows().FeePool(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	report.Balanced = report.TotalFunded == report.WalletBalances+report.EscrowHeld+report.FeePool
	if report.Balanced {
		metrics.AuditImbalance.Set(0)
	} else {
		metrics.AuditImbalance.Set(1)
		logger.Log.WithFields(map[string]interface{}{
			"total_funded":    report.TotalFunded,
			"wallet_balances": report.WalletBalances,
			"escrow_held":     report.EscrowHeld,
			"fee_pool":        report.FeePool,
		}).Error("audit: реестр не сходится")
	}
	return report, nil
}
