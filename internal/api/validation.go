package api

import (
	"regexp"
	"strings"

	"inwista-wallet-go/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var nationalIdRegex = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)

// Field rules, checked with validate.Var.
const (
	ruleName       = "min=2"
	ruleEmail      = "omitempty,email"
	ruleNationalId = "national_id"
	rulePassword   = "min=6"
	ruleTwoFactor  = "len=8,number"
	ruleDirection  = "oneof=buy sell"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// CPF in its punctuated form; the check digits are not verified.
	if err := v.RegisterValidation(ruleNationalId, func(fl validator.FieldLevel) bool {
		return nationalIdRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func validateName(name string) error {
	if name == "" {
		return validationError("name cannot be empty")
	}
	if validate.Var(name, ruleName) != nil {
		return validationError("name must be at least 2 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if validate.Var(email, ruleEmail) != nil {
		return validationError("invalid email format: %s", email)
	}
	return nil
}

func validateNationalId(nationalId string) error {
	if validate.Var(nationalId, ruleNationalId) != nil {
		return validationError("national id must be formatted as 000.000.000-00")
	}
	return nil
}

func validatePassword(password string) error {
	if validate.Var(password, rulePassword) != nil {
		return validationError("password must be at least 6 characters")
	}
	return nil
}

func validateTwoFactorCode(code string) error {
	if validate.Var(code, ruleTwoFactor) != nil {
		return validationError("code must have 8 digits")
	}
	return nil
}

// positiveAmount rejects amounts that are not strictly positive or that carry
// more decimal places than scale allows. Amounts are never rounded here, so a
// sub-unit remainder can not slip past balance or minimum checks.
func positiveAmount(amount decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, validationError("amount must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(scale)) {
		return decimal.Zero, validationError("amount must have at most %d decimal places", scale)
	}
	return amount, nil
}

func normalizeDirection(direction string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(direction))
	if validate.Var(d, ruleDirection) != nil {
		return "", validationError("conversion type must be %q or %q", models.DirectionBuy, models.DirectionSell)
	}
	return d, nil
}
