package reimbursement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPendingManager = "PENDING_MANAGER"
	StatusApproved       = "APPROVED"
	StatusRejected       = "REJECTED"
	StatusCancelled      = "CANCELLED"
)

const (
	CategoryTravel    = "TRAVEL"
	CategoryMeal      = "MEAL"
	CategoryEquipment = "EQUIPMENT"
	CategoryMedical   = "MEDICAL"
	CategoryOther     = "OTHER"
)

// ReimbursementRequest is single-stage: the assigned manager decides alone,
// there is no HR queue and the balance ledger is never touched.
type ReimbursementRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index:idx_reimbursement_requests_company_status"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ManagerID     uuid.UUID `gorm:"type:uuid;not null"`
	RequestNumber string    `gorm:"type:varchar(20);not null"`

	Status      string          `gorm:"type:varchar(20);not null;default:'PENDING_MANAGER';index:idx_reimbursement_requests_company_status"`
	Category    string          `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'USD'"`
	ExpenseDate time.Time       `gorm:"type:date;not null"`
	Description string          `gorm:"type:text;not null"`

	// Receipt locations as provided by the employee; storage itself is
	// outside this service.
	ReceiptURLs []string `gorm:"type:text[];serializer:json"`

	ManagerComment   *string    `gorm:"type:text"`
	ManagerDecidedBy *uuid.UUID `gorm:"type:uuid"`
	ManagerDecidedAt *time.Time
	CancelComment    *string    `gorm:"type:text"`
	CancelledBy      *uuid.UUID `gorm:"type:uuid"`
	CancelledAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ReimbursementRequest) TableName() string {
	return "reimbursement_requests"
}

func validCategory(category string) bool {
	switch category {
	case CategoryTravel, CategoryMeal, CategoryEquipment, CategoryMedical, CategoryOther:
		return true
	}
	return false
}
