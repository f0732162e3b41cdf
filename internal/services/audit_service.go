package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"balanceboard/internal/logger"
	"balanceboard/internal/models"
)

// AuditService records security-relevant actions. Failures are logged and
// never surfaced to the caller: auditing must not break the operation it
// observes.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log writes one audit entry.
func (s *AuditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}
	if changes != nil {
		if raw, err := json.Marshal(changes); err == nil {
			entry.Changes = string(raw)
		}
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Warnw("audit log write failed",
			"action", action,
			"resource_type", resourceType,
			"error", err.Error(),
		)
	}
}
