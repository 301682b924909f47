package clockin

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"leaveflow/internal/attendance"
	clockinerrors "leaveflow/internal/clockin/errors"
	"leaveflow/internal/employee"
	"leaveflow/internal/messaging/kafka"
)

type fakeRepo struct {
	stored *MissedClockInRequest
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeRepo) Create(ctx context.Context, r *MissedClockInRequest) error {
	cp := *r
	f.stored = &cp
	return nil
}
func (f *fakeRepo) FindAllByCompany(ctx context.Context, companyID string) ([]MissedClockInRequest, error) {
	if f.stored == nil {
		return nil, nil
	}
	return []MissedClockInRequest{*f.stored}, nil
}
func (f *fakeRepo) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]MissedClockInRequest, error) {
	return f.FindAllByCompany(ctx, companyID)
}
func (f *fakeRepo) FindByIDAndCompany(ctx context.Context, companyID, id string) (*MissedClockInRequest, error) {
	if f.stored == nil || f.stored.ID.String() != id {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f.stored
	return &cp, nil
}
func (f *fakeRepo) FindByIDForUpdate(ctx context.Context, companyID, id string) (*MissedClockInRequest, error) {
	return f.FindByIDAndCompany(ctx, companyID, id)
}
func (f *fakeRepo) Update(ctx context.Context, r *MissedClockInRequest) error {
	cp := *r
	f.stored = &cp
	return nil
}

type fakeAttendanceRepo struct {
	existing    *attendance.Attendance
	created     []attendance.Attendance
	deletedRefs []string
}

func (f *fakeAttendanceRepo) WithTx(tx *sql.Tx) attendance.Repository { return f }
func (f *fakeAttendanceRepo) Create(ctx context.Context, a *attendance.Attendance) error {
	f.created = append(f.created, *a)
	return nil
}
func (f *fakeAttendanceRepo) FindByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*attendance.Attendance, error) {
	if f.existing != nil {
		cp := *f.existing
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAttendanceRepo) FindAllByCompany(ctx context.Context, companyID string) ([]attendance.Attendance, error) {
	return f.created, nil
}
func (f *fakeAttendanceRepo) FindAllByCompanyAndEmployee(ctx context.Context, companyID, employeeID string) ([]attendance.Attendance, error) {
	return f.created, nil
}
func (f *fakeAttendanceRepo) Update(ctx context.Context, a *attendance.Attendance) error { return nil }
func (f *fakeAttendanceRepo) DeleteByExternalRef(ctx context.Context, companyID, externalRef string) error {
	f.deletedRefs = append(f.deletedRefs, externalRef)
	return nil
}

type fakeEmployeeRepo struct {
	employees map[string]*employee.Employee
}

func (f *fakeEmployeeRepo) WithTx(tx *sql.Tx) employee.Repository { return f }
func (f *fakeEmployeeRepo) FindByID(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}
func (f *fakeEmployeeRepo) FindByIDForUpdate(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	return f.FindByID(ctx, companyID, id)
}
func (f *fakeEmployeeRepo) FindBySlackMemberID(ctx context.Context, slackMemberID string) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEmployeeRepo) FindAllByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) FindByRole(ctx context.Context, companyID, role string) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) Update(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepo) UpdateBalances(ctx context.Context, companyID, id string, compOff, annualLeave decimal.Decimal) error {
	return nil
}

type fakeOutboxRepo struct {
	events []kafka.OutboxEvent
}

func (f *fakeOutboxRepo) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutboxRepo) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}
func (f *fakeOutboxRepo) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return f.events, nil
}
func (f *fakeOutboxRepo) MarkSent(ctx context.Context, id string) error             { return nil }
func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, id string, r string) error { return nil }

type fakeCounterRepo struct {
	next int64
}

func (f *fakeCounterRepo) GetNextValue(ctx context.Context, companyID, counterType string) (int64, error) {
	f.next++
	return f.next, nil
}

type testEnv struct {
	svc        Service
	mock       sqlmock.Sqlmock
	repo       *fakeRepo
	attendance *fakeAttendanceRepo
	employees  *fakeEmployeeRepo

	companyID  string
	employeeID string
	managerID  string
	hrID       string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	companyUUID := uuid.New()
	employeeUUID := uuid.New()
	managerUUID := uuid.New()
	hrUUID := uuid.New()

	employees := &fakeEmployeeRepo{employees: map[string]*employee.Employee{
		employeeUUID.String(): {
			ID:        employeeUUID,
			CompanyID: companyUUID,
			ManagerID: &managerUUID,
			FullName:  "Asha Rao",
			Role:      employee.RoleEmployee,
		},
		managerUUID.String(): {
			ID:        managerUUID,
			CompanyID: companyUUID,
			FullName:  "Marco Lim",
			Role:      employee.RoleManager,
		},
		hrUUID.String(): {
			ID:        hrUUID,
			CompanyID: companyUUID,
			FullName:  "Hana Kim",
			Role:      employee.RoleHRAdmin,
		},
	}}

	repo := &fakeRepo{}
	attendanceRepo := &fakeAttendanceRepo{}

	svc := NewService(db, repo, employees, attendanceRepo, &fakeOutboxRepo{}, &fakeCounterRepo{}, nil)

	return &testEnv{
		svc:        svc,
		mock:       mock,
		repo:       repo,
		attendance: attendanceRepo,
		employees:  employees,
		companyID:  companyUUID.String(),
		employeeID: employeeUUID.String(),
		managerID:  managerUUID.String(),
		hrID:       hrUUID.String(),
	}
}

func standardRequest() SubmitClockInRequest {
	out := "18:00"
	return SubmitClockInRequest{
		MissedDate:   "2025-06-03",
		ClockInTime:  "09:00",
		ClockOutTime: &out,
		Reason:       "badge reader was down",
	}
}

func (e *testEnv) submit(t *testing.T) ClockInResponse {
	t.Helper()
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	resp, err := e.svc.Submit(context.Background(), e.companyID, e.employeeID, standardRequest())
	assert.NoError(t, err)
	return resp
}

func (e *testEnv) managerApprove(t *testing.T, id string) ClockInResponse {
	t.Helper()
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	resp, err := e.svc.ManagerDecision(context.Background(), e.companyID, e.managerID, id, ManagerDecisionRequest{Approved: true})
	assert.NoError(t, err)
	return resp
}

func TestService_Submit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.submit(t)
		assert.Equal(t, StatusPendingManager, resp.Status)
		assert.Equal(t, "CI-0001", resp.RequestNumber)
		assert.Equal(t, "09:00", resp.ClockInTime)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("negative future date", func(t *testing.T) {
		env := newTestEnv(t)
		req := standardRequest()
		req.MissedDate = time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")

		_, err := env.svc.Submit(context.Background(), env.companyID, env.employeeID, req)
		assert.ErrorIs(t, err, clockinerrors.ErrFutureDate)
	})

	t.Run("negative malformed time", func(t *testing.T) {
		env := newTestEnv(t)
		req := standardRequest()
		req.ClockInTime = "9 am"

		_, err := env.svc.Submit(context.Background(), env.companyID, env.employeeID, req)
		assert.ErrorIs(t, err, clockinerrors.ErrInvalidTimeFormat)
	})

	t.Run("negative clock out before clock in", func(t *testing.T) {
		env := newTestEnv(t)
		req := standardRequest()
		out := "08:00"
		req.ClockOutTime = &out

		_, err := env.svc.Submit(context.Background(), env.companyID, env.employeeID, req)
		assert.ErrorIs(t, err, clockinerrors.ErrInvalidTimeRange)
	})

	t.Run("negative attendance already recorded for that date", func(t *testing.T) {
		env := newTestEnv(t)
		env.attendance.existing = &attendance.Attendance{ID: uuid.New()}

		_, err := env.svc.Submit(context.Background(), env.companyID, env.employeeID, standardRequest())
		assert.ErrorIs(t, err, clockinerrors.ErrAttendanceExists)
		assert.Nil(t, env.repo.stored)
	})

	t.Run("negative no manager assigned", func(t *testing.T) {
		env := newTestEnv(t)
		env.employees.employees[env.employeeID].ManagerID = nil

		_, err := env.svc.Submit(context.Background(), env.companyID, env.employeeID, standardRequest())
		assert.ErrorIs(t, err, clockinerrors.ErrNoManagerAssigned)
	})
}

func TestService_ManagerDecision(t *testing.T) {
	t.Run("approve moves to hr queue", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)

		resp := env.managerApprove(t, created.ID)
		assert.Equal(t, StatusPendingHR, resp.Status)
	})

	t.Run("negative wrong manager", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)

		env.mock.ExpectBegin()
		env.mock.ExpectRollback()
		_, err := env.svc.ManagerDecision(context.Background(), env.companyID, env.hrID, created.ID, ManagerDecisionRequest{Approved: true})
		assert.ErrorIs(t, err, clockinerrors.ErrNotAssignedManager)
		assert.Equal(t, StatusPendingManager, env.repo.stored.Status)
	})

	t.Run("negative duplicate decision", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)
		env.managerApprove(t, created.ID)

		env.mock.ExpectBegin()
		env.mock.ExpectRollback()
		_, err := env.svc.ManagerDecision(context.Background(), env.companyID, env.managerID, created.ID, ManagerDecisionRequest{Approved: true})
		assert.ErrorIs(t, err, clockinerrors.ErrAlreadyProcessed)
	})
}

func TestService_HRApproval(t *testing.T) {
	t.Run("approve writes the attendance row in the same transaction", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)
		env.managerApprove(t, created.ID)

		env.mock.ExpectBegin()
		env.mock.ExpectCommit()
		resp, err := env.svc.HRApproval(context.Background(), env.companyID, env.hrID, created.ID, HRApprovalRequest{Approved: true})
		assert.NoError(t, err)
		assert.Equal(t, StatusApproved, resp.Status)

		if assert.Len(t, env.attendance.created, 1) {
			row := env.attendance.created[0]
			assert.Equal(t, attendance.SourceMissedClockIn, row.Source)
			assert.Equal(t, attendance.StatusPresent, row.Status)
			if assert.NotNil(t, row.ExternalRef) {
				assert.Equal(t, created.ID, *row.ExternalRef)
			}
			assert.Equal(t, "2025-06-03", row.AttendanceDate.Format("2006-01-02"))
		}
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("reject writes no attendance", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)
		env.managerApprove(t, created.ID)

		env.mock.ExpectBegin()
		env.mock.ExpectCommit()
		resp, err := env.svc.HRApproval(context.Background(), env.companyID, env.hrID, created.ID, HRApprovalRequest{Approved: false, Comment: "no evidence"})
		assert.NoError(t, err)
		assert.Equal(t, StatusRejected, resp.Status)
		assert.Empty(t, env.attendance.created)
	})

	t.Run("negative actor is not hr admin", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)
		env.managerApprove(t, created.ID)

		_, err := env.svc.HRApproval(context.Background(), env.companyID, env.managerID, created.ID, HRApprovalRequest{Approved: true})
		assert.ErrorIs(t, err, clockinerrors.ErrNotHRAdmin)
	})

	t.Run("negative decision before manager stage", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)

		env.mock.ExpectBegin()
		env.mock.ExpectRollback()
		_, err := env.svc.HRApproval(context.Background(), env.companyID, env.hrID, created.ID, HRApprovalRequest{Approved: true})
		assert.ErrorIs(t, err, clockinerrors.ErrAlreadyProcessed)
	})
}

func TestService_Cancel(t *testing.T) {
	t.Run("cancel approved request deletes the backfilled attendance", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)
		env.managerApprove(t, created.ID)

		env.mock.ExpectBegin()
		env.mock.ExpectCommit()
		_, err := env.svc.HRApproval(context.Background(), env.companyID, env.hrID, created.ID, HRApprovalRequest{Approved: true})
		assert.NoError(t, err)

		env.mock.ExpectBegin()
		env.mock.ExpectCommit()
		resp, err := env.svc.Cancel(context.Background(), env.companyID, env.hrID, created.ID, CancelClockInRequest{Comment: "duplicate request"})
		assert.NoError(t, err)
		assert.Equal(t, StatusCancelled, resp.Status)
		assert.Equal(t, []string{created.ID}, env.attendance.deletedRefs)
	})

	t.Run("cancel pending request deletes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)

		env.mock.ExpectBegin()
		env.mock.ExpectCommit()
		resp, err := env.svc.Cancel(context.Background(), env.companyID, env.hrID, created.ID, CancelClockInRequest{Comment: "withdrawn"})
		assert.NoError(t, err)
		assert.Equal(t, StatusCancelled, resp.Status)
		assert.Empty(t, env.attendance.deletedRefs)
	})

	t.Run("negative rejected request cannot be cancelled", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)

		env.mock.ExpectBegin()
		env.mock.ExpectCommit()
		_, err := env.svc.ManagerDecision(context.Background(), env.companyID, env.managerID, created.ID, ManagerDecisionRequest{Approved: false})
		assert.NoError(t, err)

		env.mock.ExpectBegin()
		env.mock.ExpectRollback()
		_, err = env.svc.Cancel(context.Background(), env.companyID, env.hrID, created.ID, CancelClockInRequest{Comment: "too late"})
		assert.ErrorIs(t, err, clockinerrors.ErrCannotCancel)
	})

	t.Run("negative non hr admin cannot cancel", func(t *testing.T) {
		env := newTestEnv(t)
		created := env.submit(t)

		_, err := env.svc.Cancel(context.Background(), env.companyID, env.managerID, created.ID, CancelClockInRequest{Comment: "nope"})
		assert.ErrorIs(t, err, clockinerrors.ErrNotHRAdmin)
	})
}
