package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// AppError типизированная ошибка с устойчивым числовым кодом.
// Num и Name не меняются между релизами: клиенты опираются на них.
type AppError struct {
	Code       ErrorCode
	Num        uint32
	Name       string
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s(%d): %s (caused by: %v)", e.Name, e.Num, e.Message, e.Cause)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s(%d): %s", e.Name, e.Num, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по числовому коду, чтобы обёрнутые копии совпадали с эталоном.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	if e.Num != 0 || t.Num != 0 {
		return e.Num == t.Num
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Coded создаёт ошибку реестра с числовым и символьным кодом.
func Coded(code ErrorCode, num uint32, name, message string) *AppError {
	return &AppError{
		Code:       code,
		Num:        num,
		Name:       name,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// As извлекает AppError из цепочки ошибок.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

// Репутация: 1xx
var (
	ErrReputationNotAuthorized = Coded(ErrCodeForbidden, 100, "NotAuthorized", "вызывающий не входит в список доверенных для репутации")
	ErrReputationInvalidRating = Coded(ErrCodeValidation, 101, "InvalidRating", "рейтинг должен быть от 1 до 5")
)

// Escrow: 2xx
var (
	ErrEscrowNotAuthorized        = Coded(ErrCodeForbidden, 200, "NotAuthorized", "вызывающий не входит в список доверенных для escrow")
	ErrEscrowNotFound             = Coded(ErrCodeNotFound, 201, "EscrowNotFound", "escrow не найден")
	ErrAlreadyReleased            = Coded(ErrCodeConflict, 202, "AlreadyReleased", "средства уже выплачены")
	ErrEscrowExists               = Coded(ErrCodeConflict, 203, "EscrowExists", "escrow для задачи уже создан")
	ErrEscrowInvalidAmount        = Coded(ErrCodeValidation, 204, "InvalidAmount", "сумма меньше минимального вознаграждения")
	ErrEscrowInsufficientFunds    = Coded(ErrCodeConflict, 205, "InsufficientFunds", "недостаточно средств для депозита")
	ErrEscrowDisputeAlreadyOpened = Coded(ErrCodeConflict, 206, "DisputeAlreadyOpened", "спор уже открыт")
	ErrDisputeNotOpened           = Coded(ErrCodeConflict, 207, "DisputeNotOpened", "спор по escrow не открыт")
	ErrEscrowInvalidPercentage    = Coded(ErrCodeValidation, 208, "InvalidPercentage", "доля исполнителя должна быть от 0 до 100")
	ErrWorkerAlreadySet           = Coded(ErrCodeConflict, 209, "WorkerAlreadySet", "исполнитель уже привязан к escrow")
	ErrNoWorker                   = Coded(ErrCodeConflict, 210, "NoWorker", "исполнитель не привязан к escrow")
	ErrEscrowDisputed             = Coded(ErrCodeConflict, 211, "EscrowDisputed", "escrow заблокирован открытым спором")
	ErrEscrowUnknownTask          = Coded(ErrCodeNotFound, 212, "UnknownTask", "задача с таким номером не выпущена реестром")
)

// Реестр задач: 3xx
var (
	ErrTaskNotAuthorized        = Coded(ErrCodeForbidden, 300, "NotAuthorized", "нет прав на операцию с задачей")
	ErrTaskNotFound             = Coded(ErrCodeNotFound, 301, "TaskNotFound", "задача не найдена")
	ErrInvalidStatus            = Coded(ErrCodeConflict, 302, "InvalidStatus", "операция недоступна в текущем статусе задачи")
	ErrTaskInvalidRating        = Coded(ErrCodeValidation, 303, "InvalidRating", "рейтинг должен быть от 1 до 5")
	ErrTaskInvalidAmount        = Coded(ErrCodeValidation, 304, "InvalidAmount", "вознаграждение вне допустимого диапазона")
	ErrDeadlinePassed           = Coded(ErrCodeValidation, 305, "DeadlinePassed", "дедлайн должен быть позже текущего блока")
	ErrInvalidTitle             = Coded(ErrCodeValidation, 306, "InvalidTitle", "неверный заголовок задачи")
	ErrInvalidDescription       = Coded(ErrCodeValidation, 307, "InvalidDescription", "неверное описание задачи")
	ErrInvalidCategory          = Coded(ErrCodeValidation, 308, "InvalidCategory", "неверная категория задачи")
	ErrTaskDisputeAlreadyOpened = Coded(ErrCodeConflict, 309, "DisputeAlreadyOpened", "спор по задаче уже открыт")
	ErrInvalidWorker            = Coded(ErrCodeValidation, 310, "InvalidWorker", "неверный исполнитель")
	ErrInvalidSubmission        = Coded(ErrCodeValidation, 311, "InvalidSubmission", "неверная ссылка на результат")
	ErrRefundUnavailable        = Coded(ErrCodeConflict, 312, "RefundUnavailable", "возврат по отклонённой задаче недоступен")
	ErrTaskInvalidPercentage    = Coded(ErrCodeValidation, 313, "InvalidPercentage", "доля исполнителя должна быть от 0 до 100")
	ErrInvalidReason            = Coded(ErrCodeValidation, 314, "InvalidReason", "причина слишком длинная или содержит недопустимые символы")
)

// Кошелёк: 4xx
var (
	ErrInsufficientFunds   = Coded(ErrCodeConflict, 400, "InsufficientFunds", "недостаточно средств на балансе")
	ErrWalletInvalidAmount = Coded(ErrCodeValidation, 401, "InvalidAmount", "сумма должна быть положительной")
)

// Учётные записи: 9xx
var (
	ErrInvalidCredentials = Coded(ErrCodeUnauthorized, 900, "InvalidCredentials", "неверные учетные данные")
	ErrEmailTaken         = Coded(ErrCodeConflict, 901, "EmailTaken", "email уже зарегистрирован")
	ErrInvalidInput       = Coded(ErrCodeValidation, 902, "InvalidInput", "некорректные данные")
)

var (
	ErrUnauthorized = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden    = New(ErrCodeForbidden, "недостаточно прав")
)
