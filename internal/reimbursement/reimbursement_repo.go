package reimbursement

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leaveflow/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *ReimbursementRequest) error
	FindAllByCompany(ctx context.Context, companyID string) ([]ReimbursementRequest, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]ReimbursementRequest, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*ReimbursementRequest, error)
	FindByIDForUpdate(ctx context.Context, companyID, id string) (*ReimbursementRequest, error)
	Update(ctx context.Context, r *ReimbursementRequest) error
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

func (r *repository) Create(ctx context.Context, m *ReimbursementRequest) error {
	receipts, err := json.Marshal(m.ReceiptURLs)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO reimbursement_requests (
            id, company_id, employee_id, manager_id, request_number,
            status, category, amount, currency, expense_date, description,
            receipt_urls, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
    `
	_, err = r.execer().ExecContext(
		ctx, query,
		m.ID, m.CompanyID, m.EmployeeID, m.ManagerID, m.RequestNumber,
		m.Status, m.Category, m.Amount, m.Currency, m.ExpenseDate, m.Description,
		receipts,
	)
	return err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]ReimbursementRequest, error) {
	var rows []ReimbursementRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]ReimbursementRequest, error) {
	var rows []ReimbursementRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*ReimbursementRequest, error) {
	var m ReimbursementRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&m, "id = ?", id).Error
	return &m, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*ReimbursementRequest, error) {
	query := `
        SELECT id::text, company_id::text, employee_id::text, manager_id::text,
               request_number, status, category, amount, currency,
               expense_date, description
        FROM reimbursement_requests
        WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
        FOR UPDATE
    `
	row := r.queryRower().QueryRowContext(ctx, query, id, companyID)

	var (
		m                                      ReimbursementRequest
		idStr, companyStr, employeeStr, mgrStr string
	)
	err := row.Scan(
		&idStr, &companyStr, &employeeStr, &mgrStr,
		&m.RequestNumber, &m.Status, &m.Category, &m.Amount, &m.Currency,
		&m.ExpenseDate, &m.Description,
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

func (r *repository) Update(ctx context.Context, m *ReimbursementRequest) error {
	query := `
        UPDATE reimbursement_requests
        SET status = $3,
            manager_comment = $4,
            manager_decided_by = $5,
            manager_decided_at = $6,
            cancel_comment = $7,
            cancelled_by = $8,
            cancelled_at = $9,
            updated_at = now()
        WHERE id = $1 AND company_id = $2
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		m.ID, m.CompanyID,
		m.Status,
		m.ManagerComment, m.ManagerDecidedBy, m.ManagerDecidedAt,
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
