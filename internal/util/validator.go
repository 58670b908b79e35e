package util

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidationError marca falhas de validação de entrada; a mensagem é
// apresentada ao cliente como veio (primeira violação).
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Invalid cria um erro de validação com a mensagem dada.
func Invalid(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidation indica se o erro é de validação de entrada.
func IsValidation(err error) bool {
	var ve *ValidationError
	return err != nil && errors.As(err, &ve)
}

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Invalid("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Invalid("email inválido")
	}
	return nil
}

// ValidatePassword verifica o mínimo de complexidade exigido:
// 8 caracteres com maiúscula, minúscula e dígito.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return Invalid("senha deve ter pelo menos 8 caracteres")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return Invalid("senha deve conter maiúscula, minúscula e dígito")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid(field + " obrigatório")
	}
	return nil
}

// ParseISODate interpreta datas no formato YYYY-MM-DD.
func ParseISODate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, Invalid("data inválida, use YYYY-MM-DD")
	}
	return t, nil
}

// ValidateTimeOfDay aceita horários HH:MM em 24h.
func ValidateTimeOfDay(value string) error {
	if !timePattern.MatchString(strings.TrimSpace(value)) {
		return Invalid("horário inválido, use HH:MM")
	}
	return nil
}

// NormalizeCPF mantém apenas dígitos e exige 11 quando informado.
func NormalizeCPF(value string) (string, error) {
	var digits strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	cpf := digits.String()
	if cpf == "" {
		return "", nil
	}
	if len(cpf) != 11 {
		return "", Invalid("cpf inválido")
	}
	return cpf, nil
}
