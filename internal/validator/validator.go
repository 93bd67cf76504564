// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"hisaab/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Lets gt/gte/lt/lte compare decimal amounts.
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

		_ = v.RegisterValidation("payment_mode", validatePaymentMode)
		_ = v.RegisterValidation("transaction_kind", validateTransactionKind)
		_ = v.RegisterValidation("applicability", validateApplicability)
		_ = v.RegisterValidation("loan_direction", validateLoanDirection)
		_ = v.RegisterValidation("loan_status", validateLoanStatus)
		_ = v.RegisterValidation("iso_date", validateISODate)
	}
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validatePaymentMode(fl validator.FieldLevel) bool {
	return models.PaymentMode(fl.Field().String()).Valid()
}

func validateTransactionKind(fl validator.FieldLevel) bool {
	return models.TransactionKind(fl.Field().String()).Valid()
}

func validateApplicability(fl validator.FieldLevel) bool {
	return models.Applicability(fl.Field().String()).Valid()
}

func validateLoanDirection(fl validator.FieldLevel) bool {
	return models.LoanDirection(fl.Field().String()).Valid()
}

func validateLoanStatus(fl validator.FieldLevel) bool {
	return models.LoanStatus(fl.Field().String()).Valid()
}

func validateISODate(fl validator.FieldLevel) bool {
	return models.ValidDate(fl.Field().String())
}
