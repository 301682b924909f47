package clockin

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leaveflow/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *MissedClockInRequest) error
	FindAllByCompany(ctx context.Context, companyID string) ([]MissedClockInRequest, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]MissedClockInRequest, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*MissedClockInRequest, error)
	FindByIDForUpdate(ctx context.Context, companyID, id string) (*MissedClockInRequest, error)
	Update(ctx context.Context, r *MissedClockInRequest) error
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

func (r *repository) Create(ctx context.Context, m *MissedClockInRequest) error {
	query := `
        INSERT INTO clock_in_requests (
            id, company_id, employee_id, manager_id, request_number,
            status, missed_date, clock_in_at, clock_out_at, reason,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		m.ID, m.CompanyID, m.EmployeeID, m.ManagerID, m.RequestNumber,
		m.Status, m.MissedDate, m.ClockInAt, m.ClockOutAt, m.Reason,
	)
	return err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]MissedClockInRequest, error) {
	var rows []MissedClockInRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]MissedClockInRequest, error) {
	var rows []MissedClockInRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*MissedClockInRequest, error) {
	var m MissedClockInRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&m, "id = ?", id).Error
	return &m, err
}

// FindByIDForUpdate locks the request row inside the enclosing transaction so
// guard checks run against the latest committed state.
func (r *repository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*MissedClockInRequest, error) {
	query := `
        SELECT id::text, company_id::text, employee_id::text, manager_id::text,
               request_number, status, missed_date, clock_in_at, clock_out_at, reason
        FROM clock_in_requests
        WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
        FOR UPDATE
    `
	row := r.queryRower().QueryRowContext(ctx, query, id, companyID)

	var (
		m                                      MissedClockInRequest
		idStr, companyStr, employeeStr, mgrStr string
	)
	err := row.Scan(
		&idStr, &companyStr, &employeeStr, &mgrStr,
		&m.RequestNumber, &m.Status, &m.MissedDate, &m.ClockInAt, &m.ClockOutAt, &m.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	if m.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if m.CompanyID, err = uuid.Parse(companyStr); err != nil {
		return nil, err
	}
	if m.EmployeeID, err = uuid.Parse(employeeStr); err != nil {
		return nil, err
	}
	if m.ManagerID, err = uuid.Parse(mgrStr); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) Update(ctx context.Context, m *MissedClockInRequest) error {
	query := `
        UPDATE clock_in_requests
        SET status = $3,
            manager_comment = $4,
            manager_decided_by = $5,
            manager_decided_at = $6,
            hr_comment = $7,
            hr_decided_by = $8,
            hr_decided_at = $9,
            cancel_comment = $10,
            cancelled_by = $11,
            cancelled_at = $12,
            updated_at = now()
        WHERE id = $1 AND company_id = $2
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		m.ID, m.CompanyID,
		m.Status,
		m.ManagerComment, m.ManagerDecidedBy, m.ManagerDecidedAt,
		m.HRComment, m.HRDecidedBy, m.HRDecidedAt,
		m.CancelComment, m.CancelledBy, m.CancelledAt,
	)
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

func (r *repository) queryRower() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}
