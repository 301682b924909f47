package attendance

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	attendanceerrors "leaveflow/internal/attendance/errors"
)

type fakeRepo struct {
	stored *Attendance
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeRepo) Create(ctx context.Context, a *Attendance) error {
	cp := *a
	f.stored = &cp
	return nil
}
func (f *fakeRepo) FindByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
	if f.stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f.stored
	return &cp, nil
}
func (f *fakeRepo) FindAllByCompany(ctx context.Context, companyID string) ([]Attendance, error) {
	if f.stored == nil {
		return nil, nil
	}
	return []Attendance{*f.stored}, nil
}
func (f *fakeRepo) FindAllByCompanyAndEmployee(ctx context.Context, companyID, employeeID string) ([]Attendance, error) {
	return f.FindAllByCompany(ctx, companyID)
}
func (f *fakeRepo) Update(ctx context.Context, a *Attendance) error {
	cp := *a
	f.stored = &cp
	return nil
}
func (f *fakeRepo) DeleteByExternalRef(ctx context.Context, companyID, externalRef string) error {
	f.stored = nil
	return nil
}

func newTestService(t *testing.T) (Service, sqlmock.Sqlmock, *fakeRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := &fakeRepo{}
	return NewService(db, repo), mock, repo
}

func TestService_ClockIn(t *testing.T) {
	companyID := uuid.NewString()
	employeeID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		svc, mock, repo := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.ClockIn(context.Background(), companyID, employeeID, ClockInRequest{})
		assert.NoError(t, err)

		assert.Equal(t, SourceManual, resp.Source)
		assert.Nil(t, resp.ClockOut)
		assert.NotNil(t, repo.stored)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative second punch same day", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectCommit()
		_, err := svc.ClockIn(context.Background(), companyID, employeeID, ClockInRequest{})
		assert.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err = svc.ClockIn(context.Background(), companyID, employeeID, ClockInRequest{})
		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
	})

	t.Run("negative malformed employee id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.ClockIn(context.Background(), companyID, "not-a-uuid", ClockInRequest{})
		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidActorID)
	})
}

func TestService_ClockOut(t *testing.T) {
	companyID := uuid.NewString()
	employeeID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		svc, mock, repo := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectCommit()
		_, err := svc.ClockIn(context.Background(), companyID, employeeID, ClockInRequest{})
		assert.NoError(t, err)

		notes := "left early for an appointment"
		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.ClockOut(context.Background(), companyID, employeeID, ClockOutRequest{Notes: &notes})
		assert.NoError(t, err)

		assert.NotNil(t, resp.ClockOut)
		assert.Equal(t, &notes, resp.Notes)
		assert.NotNil(t, repo.stored.ClockOut)
	})

	t.Run("negative no clock in today", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.ClockOut(context.Background(), companyID, employeeID, ClockOutRequest{})
		assert.ErrorIs(t, err, attendanceerrors.ErrNoClockInToday)
	})

	t.Run("negative double clock out", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectCommit()
		_, err := svc.ClockIn(context.Background(), companyID, employeeID, ClockInRequest{})
		assert.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectCommit()
		_, err = svc.ClockOut(context.Background(), companyID, employeeID, ClockOutRequest{})
		assert.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err = svc.ClockOut(context.Background(), companyID, employeeID, ClockOutRequest{})
		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedOut)
	})
}

func TestStatusForPunch(t *testing.T) {
	cases := []struct {
		clock string
		want  string
	}{
		{"08:30", StatusPresent},
		{"09:15", StatusPresent},
		{"09:16", StatusLate},
		{"13:00", StatusLate},
	}
	for _, tc := range cases {
		t.Run(tc.clock, func(t *testing.T) {
			at, err := time.Parse("15:04", tc.clock)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, statusForPunch(at))
		})
	}
}
