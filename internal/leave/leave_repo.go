package leave

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leaveflow/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindAllByCompany(ctx context.Context, companyID string) ([]LeaveRequest, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]LeaveRequest, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	FindByIDForUpdate(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	Update(ctx context.Context, l *LeaveRequest) error
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

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	query := `
        INSERT INTO leave_requests (
            id, company_id, employee_id, manager_id, request_number,
            leave_type, status, start_date, end_date, total_days, half_day,
            reason, selected_comp_off, selected_annual_leave,
            comp_off_used, annual_leave_used, hr_override,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9, $10, $11,
            $12, $13, $14,
            $15, $16, $17,
            now(), now()
        )
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		l.ID, l.CompanyID, l.EmployeeID, l.ManagerID, l.RequestNumber,
		l.LeaveType, l.Status, l.StartDate, l.EndDate, l.TotalDays, l.HalfDay,
		l.Reason, l.SelectedCompOff, l.SelectedAnnualLeave,
		l.CompOffUsed, l.AnnualLeaveUsed, l.HROverride,
	)
	return err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&l, "id = ?", id).Error
	return &l, err
}

// FindByIDForUpdate re-reads the latest committed state of the request inside
// the enclosing transaction with a row lock. Every decision path validates
// its guards against this fresh read, never against caller-supplied state.
func (r *repository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	query := `
        SELECT id::text, company_id::text, employee_id::text, manager_id::text,
               request_number, leave_type, status, start_date, end_date,
               total_days, half_day, reason,
               selected_comp_off, selected_annual_leave,
               comp_off_used, annual_leave_used, hr_override
        FROM leave_requests
        WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
        FOR UPDATE
    `
	row := r.queryRower().QueryRowContext(ctx, query, id, companyID)

	var (
		l                                      LeaveRequest
		idStr, companyStr, employeeStr, mgrStr string
		startDate, endDate                     time.Time
	)
	err := row.Scan(
		&idStr, &companyStr, &employeeStr, &mgrStr,
		&l.RequestNumber, &l.LeaveType, &l.Status, &startDate, &endDate,
		&l.TotalDays, &l.HalfDay, &l.Reason,
		&l.SelectedCompOff, &l.SelectedAnnualLeave,
		&l.CompOffUsed, &l.AnnualLeaveUsed, &l.HROverride,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	if l.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if l.CompanyID, err = uuid.Parse(companyStr); err != nil {
		return nil, err
	}
	if l.EmployeeID, err = uuid.Parse(employeeStr); err != nil {
		return nil, err
	}
	if l.ManagerID, err = uuid.Parse(mgrStr); err != nil {
		return nil, err
	}
	l.StartDate = startDate
	l.EndDate = endDate
	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *LeaveRequest) error {
	query := `
        UPDATE leave_requests
        SET status = $3,
            comp_off_used = $4,
            annual_leave_used = $5,
            hr_override = $6,
            hr_override_details = $7,
            manager_comment = $8,
            manager_decided_by = $9,
            manager_decided_at = $10,
            hr_comment = $11,
            hr_decided_by = $12,
            hr_decided_at = $13,
            cancel_comment = $14,
            cancelled_by = $15,
            cancelled_at = $16,
            updated_at = now()
        WHERE id = $1 AND company_id = $2
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		l.ID, l.CompanyID,
		l.Status,
		l.CompOffUsed, l.AnnualLeaveUsed,
		l.HROverride, l.HROverrideDetails,
		l.ManagerComment, l.ManagerDecidedBy, l.ManagerDecidedAt,
		l.HRComment, l.HRDecidedBy, l.HRDecidedAt,
		l.CancelComment, l.CancelledBy, l.CancelledAt,
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
