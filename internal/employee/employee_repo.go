package employee

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"leaveflow/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByID(ctx context.Context, companyID, id string) (*Employee, error)
	FindByIDForUpdate(ctx context.Context, companyID, id string) (*Employee, error)
	FindBySlackMemberID(ctx context.Context, slackMemberID string) (*Employee, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindByRole(ctx context.Context, companyID, role string) ([]Employee, error)
	Update(ctx context.Context, e *Employee) error
	UpdateBalances(ctx context.Context, companyID, id string, compOff, annualLeave decimal.Decimal) error
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

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&e, "id = ?", id).Error
	return &e, err
}

// FindByIDForUpdate reads the employee through the enclosing transaction with
// a row lock, so two concurrent approvals on the same employee serialize on
// the balance counters.
func (r *repository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*Employee, error) {
	query := `
        SELECT id::text, company_id::text, manager_id::text, full_name, email,
               role, is_active, slack_member_id,
               comp_off_balance, annual_leave_balance
        FROM employees
        WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
        FOR UPDATE
    `
	row := r.queryRower().QueryRowContext(ctx, query, id, companyID)

	var (
		e            Employee
		idStr        string
		companyIDStr string
		managerID    sql.NullString
		slackMember  sql.NullString
	)
	err := row.Scan(
		&idStr, &companyIDStr, &managerID, &e.FullName, &e.Email,
		&e.Role, &e.IsActive, &slackMember,
		&e.CompOffBalance, &e.AnnualLeaveBalance,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	if e.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if e.CompanyID, err = uuid.Parse(companyIDStr); err != nil {
		return nil, err
	}
	if managerID.Valid {
		mid, err := uuid.Parse(managerID.String)
		if err != nil {
			return nil, err
		}
		e.ManagerID = &mid
	}
	if slackMember.Valid {
		e.SlackMemberID = &slackMember.String
	}
	return &e, nil
}

func (r *repository) FindBySlackMemberID(ctx context.Context, slackMemberID string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		First(&e, "slack_member_id = ?", slackMemberID).Error
	return &e, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByRole(ctx context.Context, companyID, role string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("role = ?", role).
		Where("is_active = true").
		Find(&employees).Error
	return employees, err
}

func (r *repository) Update(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *repository) UpdateBalances(ctx context.Context, companyID, id string, compOff, annualLeave decimal.Decimal) error {
	query := `
        UPDATE employees
        SET comp_off_balance = $3, annual_leave_balance = $4, updated_at = now()
        WHERE id = $1 AND company_id = $2
    `
	_, err := r.execer().ExecContext(ctx, query, id, companyID, compOff, annualLeave)
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
