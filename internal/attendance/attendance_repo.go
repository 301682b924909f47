package attendance

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"leaveflow/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *Attendance) error
	FindByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]Attendance, error)
	FindAllByCompanyAndEmployee(ctx context.Context, companyID, employeeID string) ([]Attendance, error)
	Update(ctx context.Context, a *Attendance) error
	DeleteByExternalRef(ctx context.Context, companyID, externalRef string) error
}

type repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	sqlDB, _ := db.DB()
	return &repository{db: db, sqlDB: sqlDB}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, sqlDB: r.sqlDB, tx: tx}
}

func (r *repository) Create(ctx context.Context, a *Attendance) error {
	query := `
        INSERT INTO attendances (
            id, company_id, employee_id, attendance_date,
            clock_in, clock_out, status, source, external_ref, notes,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		a.ID, a.CompanyID, a.EmployeeID, a.AttendanceDate,
		a.ClockIn, a.ClockOut, a.Status, a.Source, a.ExternalRef, a.Notes,
	)
	return err
}

func (r *repository) FindByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("attendance_date = ?", date.Format("2006-01-02")).
		First(&a).Error
	return &a, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Attendance, error) {
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("attendance_date DESC, clock_in DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByCompanyAndEmployee(ctx context.Context, companyID, employeeID string) ([]Attendance, error) {
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("attendance_date DESC, clock_in DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, a *Attendance) error {
	query := `
        UPDATE attendances
        SET clock_out = $3, status = $4, notes = $5, updated_at = now()
        WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
    `
	_, err := r.execer().ExecContext(ctx, query, a.ID, a.CompanyID, a.ClockOut, a.Status, a.Notes)
	return err
}

// DeleteByExternalRef soft-deletes the attendance row created for a missed
// clock-in approval, used when that approval is later cancelled.
func (r *repository) DeleteByExternalRef(ctx context.Context, companyID, externalRef string) error {
	query := `
        UPDATE attendances
        SET deleted_at = now(), updated_at = now()
        WHERE company_id = $1 AND external_ref = $2 AND deleted_at IS NULL
    `
	_, err := r.execer().ExecContext(ctx, query, companyID, externalRef)
	return err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}
