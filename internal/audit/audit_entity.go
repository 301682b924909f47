package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit trail. One entry per mutating operation.
const (
	ActionBalanceDeducted = "BALANCE_DEDUCTED"
	ActionBalanceCredited = "BALANCE_CREDITED"
	ActionBalanceReversed = "BALANCE_REVERSED"
	ActionBalanceAdjusted = "BALANCE_ADJUSTED"
	ActionRoleChanged     = "ROLE_CHANGED"
	ActionSlackLinked     = "SLACK_LINKED"
)

type Entry struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Action        string     `gorm:"type:varchar(40);not null"`
	PerformedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	TargetUser    *uuid.UUID `gorm:"type:uuid;index"`
	PreviousValue string     `gorm:"type:text"`
	NewValue      string     `gorm:"type:text"`
	Reference     *string    `gorm:"type:varchar(100)"` // e.g. leave request id
	CreatedAt     time.Time
}

func (Entry) TableName() string {
	return "audit_logs"
}
