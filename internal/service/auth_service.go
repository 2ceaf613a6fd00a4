package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
	"github.com/ignatzorin/taskbounty-backend/internal/validation"
)

// AuthService регистрация и аутентификация учётных записей.
type AuthService struct {
	uow          repository.UnitOfWork
	tokenManager *TokenManager
}

// Credentials данные для регистрации и входа.
type Credentials struct {
	Email    string
	Password string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	Account   *models.Account
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(uow repository.UnitOfWork, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		uow:          uow,
		tokenManager: tokenManager,
	}
}

// Register создаёт учётную запись и выпускает токены.
func (s *AuthService) Register(ctx context.Context, in Credentials) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.ErrInvalidInput
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.ErrInvalidInput
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	account := &models.Account{
		ID:           uuid.New(),
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(passHash),
		CreatedAt:    time.Now().Unix(),
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				return apperror.ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tokenPair, err := s.tokenManager.GeneratePair(account)
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("account_id", account.ID).Info("auth service: учётная запись создана")

	return &AuthResult{Account: account, TokenPair: tokenPair}, nil
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in Credentials) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	var account *models.Account
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		account, err = tx.Accounts().GetByEmail(ctx, strings.ToLower(in.Email))
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	tokenPair, err := s.tokenManager.GeneratePair(account)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: account, TokenPair: tokenPair}, nil
}

// Refresh выпускает новую пару токенов по refresh токену.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	accountID, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	var account *models.Account
	err = s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		account, err = tx.Accounts().GetByID(ctx, accountID)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	return s.tokenManager.GeneratePair(account)
}
