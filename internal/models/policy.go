package models

import "fmt"

// Политики обработки отклонённых задач
const (
	// RejectPolicyHold средства остаются в escrow до спора.
	RejectPolicyHold = "hold"
	// RejectPolicyRefundAfterWindow автор может вернуть средства после окна споров.
	RejectPolicyRefundAfterWindow = "refund_after_window"
)

// Policy параметры развёртывания реестра. Фиксируются при старте.
type Policy struct {
	FeeRateBps           uint64 `toml:"fee_rate_bps"`
	MinReward            uint64 `toml:"min_reward"`
	MaxReward            uint64 `toml:"max_reward"`
	MaxTitleLength       int    `toml:"max_title_length"`
	MaxDescriptionLength int    `toml:"max_description_length"`
	MaxCategoryLength    int    `toml:"max_category_length"`
	MaxSubmissionLength  int    `toml:"max_submission_length"`
	MaxNoteLength        int    `toml:"max_note_length"`
	DisputeWindowBlocks  uint64 `toml:"dispute_window_blocks"`
	RejectPolicy         string `toml:"reject_policy"`
	CompletionWeight     uint64 `toml:"completion_weight"`
	RatingWeight         uint64 `toml:"rating_weight"`
}

// DefaultPolicy значения по умолчанию: комиссия 2.5%, окно споров 432 блока (~72 часа).
func DefaultPolicy() Policy {
	return Policy{
		FeeRateBps:           250,
		MinReward:            100000,
		MaxReward:            100000000000,
		MaxTitleLength:       100,
		MaxDescriptionLength: 1000,
		MaxCategoryLength:    50,
		MaxSubmissionLength:  255,
		MaxNoteLength:        500,
		DisputeWindowBlocks:  432,
		RejectPolicy:         RejectPolicyHold,
		CompletionWeight:     100,
		RatingWeight:         2,
	}
}

// Validate проверяет согласованность параметров.
func (p Policy) Validate() error {
	if p.FeeRateBps > 10000 {
		return fmt.Errorf("policy: fee_rate_bps не может превышать 10000, получено %d", p.FeeRateBps)
	}
	if p.MinReward == 0 {
		return fmt.Errorf("policy: min_reward должен быть положительным")
	}
	if p.MinReward > p.MaxReward {
		return fmt.Errorf("policy: min_reward (%d) больше max_reward (%d)", p.MinReward, p.MaxReward)
	}
	if p.MaxTitleLength <= 0 || p.MaxCategoryLength <= 0 || p.MaxSubmissionLength <= 0 {
		return fmt.Errorf("policy: ограничения длины должны быть положительными")
	}
	switch p.RejectPolicy {
	case RejectPolicyHold, RejectPolicyRefundAfterWindow:
	default:
		return fmt.Errorf("policy: неизвестная reject_policy %q", p.RejectPolicy)
	}
	return nil
}

// PlatformFee комиссия платформы: floor(amount * FeeRateBps / 10000).
func (p Policy) PlatformFee(amount uint64) uint64 {
	return amount/10000*p.FeeRateBps + amount%10000*p.FeeRateBps/10000
}

// TotalDeposit сумма, списываемая с автора: вознаграждение плюс комиссия.
func (p Policy) TotalDeposit(amount uint64) uint64 {
	return amount + p.PlatformFee(amount)
}

// WorkerShare доля исполнителя при разрешении спора: floor(amount * percentage / 100).
// Остаток достаётся автору, поэтому сумма выплат всегда равна amount.
func WorkerShare(amount, percentage uint64) uint64 {
	return amount/100*percentage + amount%100*percentage/100
}

// AverageRating средний рейтинг с двумя знаками после запятой (400 = 4.00).
// Для пользователя без оценок возвращает 0.
func AverageRating(s UserStats) uint64 {
	if s.TotalRatings == 0 {
		return 0
	}
	return s.SumRatings * 100 / s.TotalRatings
}

// ReputationScore tasksCompleted * CompletionWeight + averageRating * RatingWeight.
func (p Policy) ReputationScore(s UserStats) uint64 {
	return s.TasksCompleted*p.CompletionWeight + AverageRating(s)*p.RatingWeight
}
