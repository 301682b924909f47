package audit

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"leaveflow/internal/tenant"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Entry) error
	FindAllByCompany(ctx context.Context, companyID string, limit int) ([]Entry, error)
	FindByTargetUser(ctx context.Context, companyID, targetUserID string) ([]Entry, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, e *Entry) error {
	if r.tx != nil {
		// Entries paired with a balance mutation ride that transaction.
		query := `
            INSERT INTO audit_logs (
                id, company_id, action, performed_by, target_user,
                previous_value, new_value, reference, created_at
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
        `
		_, err := r.tx.ExecContext(
			ctx, query,
			e.ID, e.CompanyID, e.Action, e.PerformedBy, e.TargetUser,
			e.PreviousValue, e.NewValue, e.Reference,
		)
		return err
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, limit int) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *repository) FindByTargetUser(ctx context.Context, companyID, targetUserID string) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("target_user = ?", targetUserID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
