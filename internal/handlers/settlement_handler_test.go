package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hisaab/internal/errors"
	"hisaab/internal/models"
	"hisaab/internal/services"
)

// --- mock settlement service ---

type mockSettlementService struct {
	previewFn func(userID string, req services.SettlementRequest) (*services.SettlementPlan, error)
	settleFn  func(userID string, req services.SettlementRequest) (*services.SettlementResult, error)
}

func (m *mockSettlementService) Preview(userID string, req services.SettlementRequest) (*services.SettlementPlan, error) {
	if m.previewFn != nil {
		return m.previewFn(userID, req)
	}
	return &services.SettlementPlan{}, nil
}

func (m *mockSettlementService) Settle(userID string, req services.SettlementRequest) (*services.SettlementResult, error) {
	if m.settleFn != nil {
		return m.settleFn(userID, req)
	}
	return &services.SettlementResult{Transaction: &models.Transaction{}}, nil
}

var _ services.SettlementServicer = (*mockSettlementService)(nil)

func setupSettlementRouter(handler *SettlementHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/settlements/preview", handler.Preview)
	auth.POST("/settlements", handler.Settle)
	return r
}

func TestSettlementHandler_Settle(t *testing.T) {
	t.Run("selection returns 201", func(t *testing.T) {
		var got services.SettlementRequest
		svc := &mockSettlementService{
			settleFn: func(_ string, req services.SettlementRequest) (*services.SettlementResult, error) {
				got = req
				return &services.SettlementResult{
					Plan:        services.SettlementPlan{Kind: models.TransactionKindIncome, Amount: decimal.NewFromInt(200)},
					Transaction: &models.Transaction{Base: models.Base{ID: testID}},
				}, nil
			},
		}
		r := setupSettlementRouter(NewSettlementHandler(svc))

		rec := doRequest(r, "POST", "/settlements",
			`{"type":"selection","person_id":"`+testPersonID+`","loan_ids":["`+testID+`"]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		sel, ok := got.(services.SelectionSettlement)
		if !ok {
			t.Fatalf("expected a selection settlement, got %T", got)
		}
		if sel.PersonID != testPersonID || len(sel.LoanIDs) != 1 || sel.LoanIDs[0] != testID {
			t.Errorf("unexpected request %+v", sel)
		}
		plan := parseJSON(t, rec)["plan"].(map[string]interface{})
		if plan["kind"] != "income" || plan["amount"] != "200" {
			t.Errorf("unexpected plan %v", plan)
		}
	})

	t.Run("manual carries amount and reason", func(t *testing.T) {
		var got services.SettlementRequest
		svc := &mockSettlementService{
			settleFn: func(_ string, req services.SettlementRequest) (*services.SettlementResult, error) {
				got = req
				return &services.SettlementResult{Transaction: &models.Transaction{}}, nil
			},
		}
		r := setupSettlementRouter(NewSettlementHandler(svc))

		rec := doRequest(r, "POST", "/settlements",
			`{"type":"manual","person_id":"`+testPersonID+`","amount":"400","reason":"Part payment"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		manual, ok := got.(services.ManualSettlement)
		if !ok {
			t.Fatalf("expected a manual settlement, got %T", got)
		}
		if !manual.Amount.Equal(decimal.NewFromInt(400)) || manual.Reason != "Part payment" {
			t.Errorf("unexpected request %+v", manual)
		}
	})

	t.Run("returns 422 when nothing to settle", func(t *testing.T) {
		svc := &mockSettlementService{
			settleFn: func(_ string, _ services.SettlementRequest) (*services.SettlementResult, error) {
				return nil, apperrors.ErrNothingToSettle
			},
		}
		r := setupSettlementRouter(NewSettlementHandler(svc))

		rec := doRequest(r, "POST", "/settlements",
			`{"type":"selection","person_id":"`+testPersonID+`","loan_ids":["`+testID+`"]}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOTHING_TO_SETTLE")
	})

	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"barter","person_id":"` + testPersonID + `"}`},
		{"missing person", `{"type":"manual","amount":10}`},
		{"malformed loan id", `{"type":"selection","person_id":"` + testPersonID + `","loan_ids":["x"]}`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			r := setupSettlementRouter(NewSettlementHandler(&mockSettlementService{}))

			rec := doRequest(r, "POST", "/settlements", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestSettlementHandler_Preview(t *testing.T) {
	svc := &mockSettlementService{
		previewFn: func(_ string, _ services.SettlementRequest) (*services.SettlementPlan, error) {
			return &services.SettlementPlan{Summary: "Settlement of ₹200.00 as income (received) with Asha"}, nil
		},
		settleFn: func(_ string, _ services.SettlementRequest) (*services.SettlementResult, error) {
			t.Error("preview must not settle")
			return nil, nil
		},
	}
	r := setupSettlementRouter(NewSettlementHandler(svc))

	rec := doRequest(r, "POST", "/settlements/preview",
		`{"type":"selection","person_id":"`+testPersonID+`","loan_ids":["`+testID+`"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	plan := parseJSON(t, rec)["plan"].(map[string]interface{})
	if plan["summary"] != "Settlement of ₹200.00 as income (received) with Asha" {
		t.Errorf("unexpected summary %v", plan["summary"])
	}
}
