package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidatePrintable запрещает управляющие символы, кроме перевода строки и табуляции.
func ValidatePrintable(fieldName, value string) error {
	for _, r := range value {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return fmt.Errorf("%s содержит недопустимые символы", fieldName)
		}
	}
	return nil
}

// ValidateTaskTitle заголовок задачи: от 1 до max символов, не из одних пробелов.
func ValidateTaskTitle(title string, max int) error {
	if err := ValidateNonEmpty("заголовок", title); err != nil {
		return err
	}
	if err := ValidateLength("заголовок", title, 1, max); err != nil {
		return err
	}
	return ValidatePrintable("заголовок", title)
}

// ValidateTaskDescription описание задачи может быть пустым.
func ValidateTaskDescription(description string, max int) error {
	if err := ValidateLength("описание", description, 0, max); err != nil {
		return err
	}
	return ValidatePrintable("описание", description)
}

// ValidateTaskCategory категория задачи: от 1 до max символов.
func ValidateTaskCategory(category string, max int) error {
	if err := ValidateNonEmpty("категория", category); err != nil {
		return err
	}
	if err := ValidateLength("категория", category, 1, max); err != nil {
		return err
	}
	return ValidatePrintable("категория", category)
}

// ValidateSubmissionRef ссылка на результат работы обязательна.
func ValidateSubmissionRef(ref string, max int) error {
	if err := ValidateNonEmpty("ссылка на результат", ref); err != nil {
		return err
	}
	if err := ValidateLength("ссылка на результат", ref, 1, max); err != nil {
		return err
	}
	return ValidatePrintable("ссылка на результат", ref)
}

// ValidateNote необязательный комментарий: причина отказа, спора или примечание к работе.
func ValidateNote(fieldName, note string, max int) error {
	if err := ValidateLength(fieldName, note, 0, max); err != nil {
		return err
	}
	return ValidatePrintable(fieldName, note)
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// bcrypt учитывает только первые 72 байта пароля.
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

// ValidatePassword пароль учётной записи: 8..72 байта, буквы обоих регистров и цифра.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return fmt.Errorf("пароль должен быть от %d до %d байт", minPasswordLen, maxPasswordLen)
	}

	var upper, lower, digit bool
	for _, r := range password {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
		digit = digit || unicode.IsDigit(r)
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("пароль должен содержать заглавную и строчную букву и цифру")
	}
	return nil
}
