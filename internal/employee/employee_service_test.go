package employee

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"leaveflow/internal/audit"
	employeeerrors "leaveflow/internal/employee/errors"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type fakeRepo struct {
	employees map[string]*Employee
	bySlack   map[string]*Employee
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeRepo) FindByID(ctx context.Context, companyID, id string) (*Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}
func (f *fakeRepo) FindByIDForUpdate(ctx context.Context, companyID, id string) (*Employee, error) {
	return f.FindByID(ctx, companyID, id)
}
func (f *fakeRepo) FindBySlackMemberID(ctx context.Context, slackMemberID string) (*Employee, error) {
	e, ok := f.bySlack[slackMemberID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}
func (f *fakeRepo) FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var out []Employee
	for _, e := range f.employees {
		out = append(out, *e)
	}
	return out, nil
}
func (f *fakeRepo) FindByRole(ctx context.Context, companyID, role string) ([]Employee, error) {
	return nil, nil
}
func (f *fakeRepo) Update(ctx context.Context, e *Employee) error {
	cp := *e
	f.employees[e.ID.String()] = &cp
	if cp.SlackMemberID != nil {
		if f.bySlack == nil {
			f.bySlack = map[string]*Employee{}
		}
		f.bySlack[*cp.SlackMemberID] = &cp
	}
	return nil
}
func (f *fakeRepo) UpdateBalances(ctx context.Context, companyID, id string, compOff, annualLeave decimal.Decimal) error {
	e, ok := f.employees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.CompOffBalance = compOff
	e.AnnualLeaveBalance = annualLeave
	return nil
}

type fakeAuditRepo struct {
	entries []audit.Entry
}

func (f *fakeAuditRepo) WithTx(tx *sql.Tx) audit.Repository { return f }
func (f *fakeAuditRepo) Create(ctx context.Context, e *audit.Entry) error {
	f.entries = append(f.entries, *e)
	return nil
}
func (f *fakeAuditRepo) FindAllByCompany(ctx context.Context, companyID string, limit int) ([]audit.Entry, error) {
	return f.entries, nil
}
func (f *fakeAuditRepo) FindByTargetUser(ctx context.Context, companyID, targetUserID string) ([]audit.Entry, error) {
	return f.entries, nil
}

func strp(s string) *string { return &s }

func newTestService(t *testing.T) (Service, sqlmock.Sqlmock, *fakeRepo, *fakeAuditRepo, string, string, string) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	companyUUID := uuid.New()
	employeeUUID := uuid.New()
	hrUUID := uuid.New()

	repo := &fakeRepo{employees: map[string]*Employee{
		employeeUUID.String(): {
			ID:                 employeeUUID,
			CompanyID:          companyUUID,
			FullName:           "Asha Rao",
			Role:               RoleEmployee,
			IsActive:           true,
			CompOffBalance:     dec("2"),
			AnnualLeaveBalance: dec("12"),
		},
		hrUUID.String(): {
			ID:        hrUUID,
			CompanyID: companyUUID,
			FullName:  "Hana Kim",
			Role:      RoleHRAdmin,
			IsActive:  true,
		},
	}}
	auditRepo := &fakeAuditRepo{}

	svc := NewService(db, repo, auditRepo)
	return svc, mock, repo, auditRepo, companyUUID.String(), employeeUUID.String(), hrUUID.String()
}

func TestService_GetBalance(t *testing.T) {
	svc, _, _, _, companyID, employeeID, _ := newTestService(t)

	resp, err := svc.GetBalance(context.Background(), companyID, employeeID)
	assert.NoError(t, err)
	assert.Equal(t, "2", resp.CompOffBalance)
	assert.Equal(t, "12", resp.AnnualLeaveBalance)

	_, err = svc.GetBalance(context.Background(), companyID, uuid.NewString())
	assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
}

func TestService_AdjustBalance(t *testing.T) {
	t.Run("applies deltas and audits", func(t *testing.T) {
		svc, mock, repo, auditRepo, companyID, employeeID, hrID := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.AdjustBalance(context.Background(), companyID, hrID, employeeID, AdjustBalanceRequest{
			CompOffDelta:     strp("1.5"),
			AnnualLeaveDelta: strp("-2"),
			Reason:           "annual accrual correction",
		})
		assert.NoError(t, err)

		assert.Equal(t, "3.5", resp.CompOffBalance)
		assert.Equal(t, "10", resp.AnnualLeaveBalance)
		assert.Equal(t, "3.5", repo.employees[employeeID].CompOffBalance.String())

		if assert.Len(t, auditRepo.entries, 1) {
			assert.Equal(t, audit.ActionBalanceAdjusted, auditRepo.entries[0].Action)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative delta below zero", func(t *testing.T) {
		svc, mock, repo, _, companyID, employeeID, hrID := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.AdjustBalance(context.Background(), companyID, hrID, employeeID, AdjustBalanceRequest{
			CompOffDelta: strp("-5"),
			Reason:       "typo",
		})
		assert.ErrorIs(t, err, employeeerrors.ErrNegativeBalance)
		assert.Equal(t, "2", repo.employees[employeeID].CompOffBalance.String())
	})

	t.Run("negative no delta supplied", func(t *testing.T) {
		svc, _, _, _, companyID, employeeID, hrID := newTestService(t)

		_, err := svc.AdjustBalance(context.Background(), companyID, hrID, employeeID, AdjustBalanceRequest{Reason: "noop"})
		assert.ErrorIs(t, err, employeeerrors.ErrNoDelta)
	})

	t.Run("negative malformed delta", func(t *testing.T) {
		svc, _, _, _, companyID, employeeID, hrID := newTestService(t)

		_, err := svc.AdjustBalance(context.Background(), companyID, hrID, employeeID, AdjustBalanceRequest{
			CompOffDelta: strp("two"),
			Reason:       "typo",
		})
		assert.ErrorIs(t, err, employeeerrors.ErrInvalidDelta)
	})
}

func TestService_SetRole(t *testing.T) {
	svc, _, repo, auditRepo, companyID, employeeID, hrID := newTestService(t)

	resp, err := svc.SetRole(context.Background(), companyID, hrID, employeeID, SetRoleRequest{Role: RoleManager})
	assert.NoError(t, err)
	assert.Equal(t, RoleManager, resp.Role)
	assert.Equal(t, RoleManager, repo.employees[employeeID].Role)

	if assert.Len(t, auditRepo.entries, 1) {
		assert.Equal(t, audit.ActionRoleChanged, auditRepo.entries[0].Action)
		assert.Equal(t, RoleEmployee, auditRepo.entries[0].PreviousValue)
	}
}

func TestService_LinkSlackMember(t *testing.T) {
	t.Run("links the member id", func(t *testing.T) {
		svc, _, repo, _, companyID, employeeID, hrID := newTestService(t)

		resp, err := svc.LinkSlackMember(context.Background(), companyID, hrID, employeeID, LinkSlackRequest{SlackMemberID: "U0123456789"})
		assert.NoError(t, err)
		assert.Equal(t, "U0123456789", *resp.SlackMemberID)
		assert.Equal(t, "U0123456789", *repo.employees[employeeID].SlackMemberID)
	})

	t.Run("negative member id already linked to someone else", func(t *testing.T) {
		svc, _, repo, _, companyID, employeeID, hrID := newTestService(t)

		other := &Employee{ID: uuid.New(), SlackMemberID: strp("U0123456789")}
		repo.bySlack = map[string]*Employee{"U0123456789": other}

		_, err := svc.LinkSlackMember(context.Background(), companyID, hrID, employeeID, LinkSlackRequest{SlackMemberID: "U0123456789"})
		assert.ErrorIs(t, err, employeeerrors.ErrSlackAlreadyLinked)
	})
}
