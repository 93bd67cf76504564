package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
)

type loanPayload struct {
	Amount    decimal.Decimal `binding:"required,gt=0"`
	Direction string          `binding:"required,loan_direction"`
	Date      string          `binding:"omitempty,iso_date"`
}

func TestRegister(t *testing.T) {
	Register()

	tests := []struct {
		name    string
		payload loanPayload
		wantErr bool
	}{
		{"valid", loanPayload{Amount: decimal.RequireFromString("10.50"), Direction: "lent", Date: "2024-03-01"}, false},
		{"date_optional", loanPayload{Amount: decimal.NewFromInt(1), Direction: "borrowed"}, false},
		{"zero_amount", loanPayload{Amount: decimal.Zero, Direction: "lent"}, true},
		{"negative_amount", loanPayload{Amount: decimal.NewFromInt(-5), Direction: "lent"}, true},
		{"unknown_direction", loanPayload{Amount: decimal.NewFromInt(1), Direction: "gifted"}, true},
		{"bad_date", loanPayload{Amount: decimal.NewFromInt(1), Direction: "lent", Date: "01/03/2024"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.payload)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
