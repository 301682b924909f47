package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Leave types are a fixed enumeration; the type determines the deduction
// policy applied at HR approval.
const (
	TypeCasual      = "CASUAL"
	TypePaid        = "PAID"
	TypeSick        = "SICK"
	TypeCompOff     = "COMP_OFF"
	TypeWFH         = "WFH"
	TypeExtraWork   = "EXTRA_WORK"
	TypeMenstrual   = "MENSTRUAL"
	TypeBereavement = "BEREAVEMENT"
)

const (
	StatusPendingManager = "PENDING_MANAGER"
	StatusPendingHR      = "PENDING_HR"
	StatusApproved       = "APPROVED"
	StatusRejected       = "REJECTED"
	StatusCancelled      = "CANCELLED"
)

type LeaveRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_company_status"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ManagerID     uuid.UUID `gorm:"type:uuid;not null"`
	RequestNumber string    `gorm:"type:varchar(20);not null"`

	LeaveType string          `gorm:"type:varchar(20);not null"`
	Status    string          `gorm:"type:varchar(20);not null;default:'PENDING_MANAGER';index:idx_leave_requests_company_status"`
	StartDate time.Time       `gorm:"type:date;not null"`
	EndDate   time.Time       `gorm:"type:date;not null"`
	TotalDays decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	HalfDay   bool            `gorm:"not null;default:false"`
	Reason    string          `gorm:"type:text;not null"`

	// Employee's requested deduction split. Advisory; HR may override.
	SelectedCompOff     bool `gorm:"not null;default:false"`
	SelectedAnnualLeave bool `gorm:"not null;default:false"`

	// Actual deduction, written exactly once at HR approval and immutable
	// afterwards except for cancellation reversal.
	CompOffUsed       decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	AnnualLeaveUsed   decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	HROverride        bool            `gorm:"not null;default:false"`
	HROverrideDetails *string         `gorm:"type:text"`

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

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// IsTerminal reports whether no further transition is allowed.
func IsTerminal(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// deductionBearing reports whether HR approval deducts from the balance
// ledger for this type.
func deductionBearing(leaveType string) bool {
	switch leaveType {
	case TypeCasual, TypePaid, TypeSick, TypeCompOff:
		return true
	}
	return false
}

func validType(leaveType string) bool {
	switch leaveType {
	case TypeCasual, TypePaid, TypeSick, TypeCompOff,
		TypeWFH, TypeExtraWork, TypeMenstrual, TypeBereavement:
		return true
	}
	return false
}
