package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleHRAdmin  = "HR_ADMIN"
)

type Employee struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ManagerID *uuid.UUID `gorm:"type:uuid;index"`

	FullName string `gorm:"type:varchar(150);not null"`
	Email    string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Role     string `gorm:"type:varchar(20);not null;default:'EMPLOYEE'"`
	IsActive bool   `gorm:"not null;default:true"`

	// Balance counters. Never mutated outside a transaction that also
	// writes the paired request status or audit entry.
	CompOffBalance     decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	AnnualLeaveBalance decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`

	// External chat identity, set when the employee links their account.
	SlackMemberID *string `gorm:"type:varchar(50);uniqueIndex"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}
