package auth

import (
	"strings"
	"unicode"

	"github.com/hitoshi/articlefeed/internal/model"
)

const (
	minPasswordLength = 8
	specialCharacters = "!@#$%^&*()_+-=[]{}|;':,.<>?"
)

type field struct {
	name  string
	value string
}

// requireFields は空白のみを含む値も未入力として扱う。
func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return model.NewInvalidInputError(f.name + " is required")
		}
	}
	return nil
}

// PasswordRequirements はパスワードが満たしていない要件を返す。全て満たす場合は空。
func PasswordRequirements(password string) []string {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialCharacters, r):
			hasSpecial = true
		}
	}

	var unmet []string
	if len([]rune(password)) < minPasswordLength {
		unmet = append(unmet, "At least 8 characters")
	}
	if !hasUpper {
		unmet = append(unmet, "One uppercase letter")
	}
	if !hasLower {
		unmet = append(unmet, "One lowercase letter")
	}
	if !hasDigit {
		unmet = append(unmet, "One number")
	}
	if !hasSpecial {
		unmet = append(unmet, "One special character")
	}
	return unmet
}

// ValidatePassword はパスワード要件を検証する。
func ValidatePassword(password string) error {
	if unmet := PasswordRequirements(password); len(unmet) > 0 {
		return model.NewInvalidInputError("Please meet all password requirements: " + strings.Join(unmet, ", "))
	}
	return nil
}

// ValidateRegistration は登録フォームを検証する。
func ValidateRegistration(name, email, password string) error {
	if err := requireFields(field{"Name", name}, field{"Email", email}); err != nil {
		return err
	}
	if !strings.Contains(email, "@") {
		return model.NewInvalidInputError("Email is invalid")
	}
	return ValidatePassword(password)
}
