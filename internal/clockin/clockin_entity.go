package clockin

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPendingManager = "PENDING_MANAGER"
	StatusPendingHR      = "PENDING_HR"
	StatusApproved       = "APPROVED"
	StatusRejected       = "REJECTED"
	StatusCancelled      = "CANCELLED"
)

// MissedClockInRequest asks for a retroactive attendance entry on a date the
// employee forgot to punch. It walks the same two approval stages as leave
// but never touches the balance ledger.
type MissedClockInRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index:idx_clock_in_requests_company_status"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ManagerID     uuid.UUID `gorm:"type:uuid;not null"`
	RequestNumber string    `gorm:"type:varchar(20);not null"`

	Status     string     `gorm:"type:varchar(20);not null;default:'PENDING_MANAGER';index:idx_clock_in_requests_company_status"`
	MissedDate time.Time  `gorm:"type:date;not null"`
	ClockInAt  time.Time  `gorm:"type:timestamptz;not null"`
	ClockOutAt *time.Time `gorm:"type:timestamptz"`
	Reason     string     `gorm:"type:text;not null"`

	ManagerComment   *string    `gorm:"type:text"`
	ManagerDecidedBy *uuid.UUID `gorm:"type:uuid"`
	ManagerDecidedAt *time.Time
	HRComment        *string    `gorm:"type:text"`
	HRDecidedBy      *uuid.UUID `gorm:"type:uuid"`
	HRDecidedAt      *time.Time
	CancelComment    *string    `gorm:"type:text"`
	CancelledBy      *uuid.UUID `gorm:"type:uuid"`
	CancelledAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (MissedClockInRequest) TableName() string {
	return "clock_in_requests"
}
