package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"hisaab/internal/logger"
	"hisaab/internal/models"
)

// Audited actions.
const (
	AuditRegister          = "REGISTER"
	AuditLogin             = "LOGIN"
	AuditAddCategory       = "ADD_CATEGORY"
	AuditCreateTransaction = "CREATE_TRANSACTION"
	AuditUpdateTransaction = "UPDATE_TRANSACTION"
	AuditDeleteTransaction = "DELETE_TRANSACTION"
	AuditCreateLoan        = "CREATE_LOAN"
	AuditSettleLoan        = "SETTLE_LOAN"
	AuditSettle            = "SETTLE"
)

// auditService appends rows to audit_logs.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audited ledger action. It is best-effort: failures are
// logged and never reach the caller, whose write has already committed.
// Entries without a user are dropped since audit rows belong to a user.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	log := logger.Named("audit")

	if userID == "" {
		log.Warnw("dropping audit entry without user", "action", action, "resource_id", resourceID)
		return
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			log.Errorw("failed to marshal audit changes", "error", err, "action", action)
			data = []byte("{}")
		}
		entry.Changes = string(data)
	}

	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
