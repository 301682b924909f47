package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPresent = "PRESENT"
	StatusLate    = "LATE"

	SourceManual        = "MANUAL"
	SourceMissedClockIn = "MISSED_CLOCK_IN"
)

type Attendance struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID      uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	EmployeeID     uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;index"`
	AttendanceDate time.Time  `gorm:"column:attendance_date;type:date;not null;index"`
	ClockIn        time.Time  `gorm:"column:clock_in;type:timestamptz;not null"`
	ClockOut       *time.Time `gorm:"column:clock_out;type:timestamptz"`
	Status         string     `gorm:"column:status;type:varchar(20);not null;default:PRESENT"`
	Source         string     `gorm:"column:source;type:varchar(30);not null;default:MANUAL"`

	// ExternalRef carries the id of the missed clock-in request when the row
	// was created by an HR approval rather than a live punch.
	ExternalRef *string `gorm:"column:external_ref;type:varchar(100)"`
	Notes       *string `gorm:"column:notes;type:text"`

	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Attendance) TableName() string {
	return "attendances"
}
