package models

import "testing"

func TestCategoryKey(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Food & Dining", "  food & dining "},
		{"STRASSE", "straße"},
		{"Caf\u00e9", "Cafe\u0301"},
	}

	for _, tt := range tests {
		if CategoryKey(tt.a) != CategoryKey(tt.b) {
			t.Errorf("expected %q and %q to share a key, got %q and %q", tt.a, tt.b, CategoryKey(tt.a), CategoryKey(tt.b))
		}
	}

	if CategoryKey("Rent") == CategoryKey("Rents") {
		t.Error("expected distinct names to keep distinct keys")
	}
}

func TestValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-3-05", false},
		{"05-03-2024", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidDate(tt.in); got != tt.want {
			t.Errorf("ValidDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKindApplicability(t *testing.T) {
	if TransactionKindIncome.Applicability() != ApplicabilityIncome {
		t.Error("expected income kind to map to income categories")
	}
	if TransactionKindExpense.Applicability() != ApplicabilityExpense {
		t.Error("expected expense kind to map to expense categories")
	}
}

func TestClosedVariants(t *testing.T) {
	if !PaymentModeNone.Valid() || PaymentMode("Cheque").Valid() {
		t.Error("unexpected payment mode validity")
	}
	if !LoanDirectionBorrowed.Valid() || LoanDirection("gifted").Valid() {
		t.Error("unexpected loan direction validity")
	}
	if !LoanStatusSettled.Valid() || LoanStatus("void").Valid() {
		t.Error("unexpected loan status validity")
	}
	if !ApplicabilityBoth.Valid() || Applicability("any").Valid() {
		t.Error("unexpected applicability validity")
	}
}
