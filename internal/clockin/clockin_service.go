package clockin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leaveflow/internal/attendance"
	clockinerrors "leaveflow/internal/clockin/errors"
	"leaveflow/internal/employee"
	employeeerrors "leaveflow/internal/employee/errors"
	"leaveflow/internal/events"
	"leaveflow/internal/messaging/kafka"
	"leaveflow/internal/notification"
	"leaveflow/internal/shared/contextutil"
	"leaveflow/internal/shared/counter"
)

type Service interface {
	Submit(ctx context.Context, companyID, actorID string, req SubmitClockInRequest) (ClockInResponse, error)
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]ClockInResponse, error)
	GetByID(ctx context.Context, companyID, id string) (ClockInResponse, error)
	ManagerDecision(ctx context.Context, companyID, actorID, id string, req ManagerDecisionRequest) (ClockInResponse, error)
	HRApproval(ctx context.Context, companyID, actorID, id string, req HRApprovalRequest) (ClockInResponse, error)
	Cancel(ctx context.Context, companyID, actorID, id string, req CancelClockInRequest) (ClockInResponse, error)
}

type service struct {
	db             *sql.DB
	repo           Repository
	employeeRepo   employee.Repository
	attendanceRepo attendance.Repository
	outboxRepo     kafka.OutboxRepository
	counterRepo    counter.Repository
	notifier       notification.Dispatcher
	logger         *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employeeRepo employee.Repository,
	attendanceRepo attendance.Repository,
	outboxRepo kafka.OutboxRepository,
	counterRepo counter.Repository,
	notifier notification.Dispatcher,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("clockin.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("clockin.service")
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &service{
		db:             db,
		repo:           repo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		outboxRepo:     outboxRepo,
		counterRepo:    counterRepo,
		notifier:       notifier,
		logger:         l,
	}
}

func (s *service) Submit(ctx context.Context, companyID, actorID string, req SubmitClockInRequest) (ClockInResponse, error) {
	s.logger.Debug("submit missed clock-in requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("missed_date", req.MissedDate),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(actorID)
	if err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidActorID
	}

	missedDate, err := time.Parse("2006-01-02", req.MissedDate)
	if err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidDateFormat
	}
	if missedDate.After(time.Now().UTC().Truncate(24 * time.Hour)) {
		return ClockInResponse{}, clockinerrors.ErrFutureDate
	}

	clockInClock, err := time.Parse("15:04", req.ClockInTime)
	if err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidTimeFormat
	}
	clockInAt := timeOnDate(missedDate, clockInClock)

	var clockOutAt *time.Time
	if req.ClockOutTime != nil {
		clockOutClock, err := time.Parse("15:04", *req.ClockOutTime)
		if err != nil {
			return ClockInResponse{}, clockinerrors.ErrInvalidTimeFormat
		}
		out := timeOnDate(missedDate, clockOutClock)
		if !out.After(clockInAt) {
			return ClockInResponse{}, clockinerrors.ErrInvalidTimeRange
		}
		clockOutAt = &out
	}

	emp, err := s.employeeRepo.FindByID(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockInResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return ClockInResponse{}, err
	}
	if emp.ManagerID == nil {
		return ClockInResponse{}, clockinerrors.ErrNoManagerAssigned
	}

	// An existing punch for that date makes the request pointless.
	if _, err := s.attendanceRepo.FindByEmployeeAndDate(ctx, companyID, actorID, missedDate); err == nil {
		return ClockInResponse{}, clockinerrors.ErrAttendanceExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ClockInResponse{}, err
	}

	seq, err := s.counterRepo.GetNextValue(ctx, companyID, counter.TypeClockIn)
	if err != nil {
		s.logger.Error("submit missed clock-in counter failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	m := &MissedClockInRequest{
		ID:            uuid.New(),
		CompanyID:     emp.CompanyID,
		EmployeeID:    employeeUUID,
		ManagerID:     *emp.ManagerID,
		RequestNumber: fmt.Sprintf("CI-%04d", seq),
		Status:        StatusPendingManager,
		MissedDate:    missedDate,
		ClockInAt:     clockInAt,
		ClockOutAt:    clockOutAt,
		Reason:        req.Reason,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit missed clock-in begin tx failed", zap.Error(err))
		return ClockInResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, m); err != nil {
		s.logger.Error("submit missed clock-in persist failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	ev := s.buildEvent(ctx, events.ClockInSubmitted, m, emp.FullName, "", req.Reason)
	if err := s.appendOutbox(ctx, tx, m, ev); err != nil {
		s.logger.Error("submit missed clock-in outbox append failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit missed clock-in commit failed", zap.Error(err))
		return ClockInResponse{}, err
	}
	s.logger.Info("submit missed clock-in success",
		zap.String("clock_in_id", m.ID.String()),
		zap.String("request_number", m.RequestNumber),
	)

	ev.RecipientSlackIDs = s.slackIDsFor(ctx, companyID, m.ManagerID.String())
	s.notifier.RequestTransition(ctx, ev)

	return mapToResponse(*m), nil
}

func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]ClockInResponse, error) {
	var (
		rows []MissedClockInRequest
		err  error
	)
	if canReadAll {
		rows, err = s.repo.FindAllByCompany(ctx, companyID)
	} else {
		rows, err = s.repo.FindAllByEmployee(ctx, companyID, actorID)
	}
	if err != nil {
		return nil, err
	}

	resp := make([]ClockInResponse, len(rows))
	for i, m := range rows {
		resp[i] = mapToResponse(m)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (ClockInResponse, error) {
	m, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockInResponse{}, clockinerrors.ErrClockInNotFound
		}
		return ClockInResponse{}, err
	}
	return mapToResponse(*m), nil
}

func (s *service) ManagerDecision(ctx context.Context, companyID, actorID, id string, req ManagerDecisionRequest) (ClockInResponse, error) {
	s.logger.Debug("clock-in manager decision requested",
		zap.String("clock_in_id", id),
		zap.String("actor_id", actorID),
		zap.Bool("approved", req.Approved),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock-in manager decision begin tx failed", zap.Error(err))
		return ClockInResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	m, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockInResponse{}, clockinerrors.ErrClockInNotFound
		}
		return ClockInResponse{}, err
	}

	if m.Status != StatusPendingManager {
		s.logger.Warn("clock-in manager decision on wrong status",
			zap.String("clock_in_id", id),
			zap.String("status", m.Status),
		)
		return ClockInResponse{}, clockinerrors.ErrAlreadyProcessed
	}
	if m.ManagerID != actorUUID {
		return ClockInResponse{}, clockinerrors.ErrNotAssignedManager
	}

	now := time.Now().UTC()
	m.ManagerDecidedBy = &actorUUID
	m.ManagerDecidedAt = &now
	if req.Comment != "" {
		m.ManagerComment = &req.Comment
	}

	eventType := events.ClockInManagerRejected
	if req.Approved {
		m.Status = StatusPendingHR
		eventType = events.ClockInManagerApproved
	} else {
		m.Status = StatusRejected
	}

	if err := qtx.Update(ctx, m); err != nil {
		s.logger.Error("clock-in manager decision persist failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	ev := s.buildEvent(ctx, eventType, m, "", actorID, req.Comment)
	if err := s.appendOutbox(ctx, tx, m, ev); err != nil {
		s.logger.Error("clock-in manager decision outbox append failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("clock-in manager decision commit failed", zap.Error(err))
		return ClockInResponse{}, err
	}
	s.logger.Info("clock-in manager decision success",
		zap.String("clock_in_id", id),
		zap.String("status", m.Status),
	)

	ev.RecipientSlackIDs = s.decisionRecipients(ctx, m)
	s.notifier.RequestTransition(ctx, ev)

	return mapToResponse(*m), nil
}

func (s *service) HRApproval(ctx context.Context, companyID, actorID, id string, req HRApprovalRequest) (ClockInResponse, error) {
	s.logger.Debug("clock-in hr approval requested",
		zap.String("clock_in_id", id),
		zap.String("actor_id", actorID),
		zap.Bool("approved", req.Approved),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidActorID
	}

	actor, err := s.employeeRepo.FindByID(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockInResponse{}, clockinerrors.ErrNotHRAdmin
		}
		return ClockInResponse{}, err
	}
	if actor.Role != employee.RoleHRAdmin {
		return ClockInResponse{}, clockinerrors.ErrNotHRAdmin
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock-in hr approval begin tx failed", zap.Error(err))
		return ClockInResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	m, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockInResponse{}, clockinerrors.ErrClockInNotFound
		}
		return ClockInResponse{}, err
	}

	if m.Status != StatusPendingHR {
		s.logger.Warn("clock-in hr approval on wrong status",
			zap.String("clock_in_id", id),
			zap.String("status", m.Status),
		)
		return ClockInResponse{}, clockinerrors.ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	m.HRDecidedBy = &actorUUID
	m.HRDecidedAt = &now
	if req.Comment != "" {
		m.HRComment = &req.Comment
	}

	eventType := events.ClockInHRRejected
	if req.Approved {
		// The attendance row is written in the same transaction: an approved
		// request without its attendance record must be impossible.
		if err := s.createAttendance(ctx, tx, m); err != nil {
			return ClockInResponse{}, err
		}
		m.Status = StatusApproved
		eventType = events.ClockInHRApproved
	} else {
		m.Status = StatusRejected
	}

	if err := qtx.Update(ctx, m); err != nil {
		s.logger.Error("clock-in hr approval persist failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	ev := s.buildEvent(ctx, eventType, m, "", actorID, req.Comment)
	if err := s.appendOutbox(ctx, tx, m, ev); err != nil {
		s.logger.Error("clock-in hr approval outbox append failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("clock-in hr approval commit failed", zap.Error(err))
		return ClockInResponse{}, err
	}
	s.logger.Info("clock-in hr approval success",
		zap.String("clock_in_id", id),
		zap.String("status", m.Status),
	)

	ev.RecipientSlackIDs = s.decisionRecipients(ctx, m)
	s.notifier.RequestTransition(ctx, ev)

	return mapToResponse(*m), nil
}

func (s *service) createAttendance(ctx context.Context, tx *sql.Tx, m *MissedClockInRequest) error {
	ref := m.ID.String()
	notes := fmt.Sprintf("backfilled from missed clock-in request %s", m.RequestNumber)
	return s.attendanceRepo.WithTx(tx).Create(ctx, &attendance.Attendance{
		ID:             uuid.New(),
		CompanyID:      m.CompanyID,
		EmployeeID:     m.EmployeeID,
		AttendanceDate: m.MissedDate,
		ClockIn:        m.ClockInAt,
		ClockOut:       m.ClockOutAt,
		Status:         attendance.StatusPresent,
		Source:         attendance.SourceMissedClockIn,
		ExternalRef:    &ref,
		Notes:          &notes,
	})
}

func (s *service) Cancel(ctx context.Context, companyID, actorID, id string, req CancelClockInRequest) (ClockInResponse, error) {
	s.logger.Debug("cancel missed clock-in requested",
		zap.String("clock_in_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return ClockInResponse{}, clockinerrors.ErrInvalidActorID
	}

	actor, err := s.employeeRepo.FindByID(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockInResponse{}, clockinerrors.ErrNotHRAdmin
		}
		return ClockInResponse{}, err
	}
	if actor.Role != employee.RoleHRAdmin {
		return ClockInResponse{}, clockinerrors.ErrNotHRAdmin
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel missed clock-in begin tx failed", zap.Error(err))
		return ClockInResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	m, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockInResponse{}, clockinerrors.ErrClockInNotFound
		}
		return ClockInResponse{}, err
	}

	switch m.Status {
	case StatusApproved:
		// Take back the attendance row the approval created.
		if err := s.attendanceRepo.WithTx(tx).DeleteByExternalRef(ctx, companyID, m.ID.String()); err != nil {
			return ClockInResponse{}, err
		}
	case StatusPendingManager, StatusPendingHR:
	default:
		return ClockInResponse{}, clockinerrors.ErrCannotCancel
	}

	now := time.Now().UTC()
	m.Status = StatusCancelled
	m.CancelledBy = &actorUUID
	m.CancelledAt = &now
	if req.Comment != "" {
		m.CancelComment = &req.Comment
	}

	if err := qtx.Update(ctx, m); err != nil {
		s.logger.Error("cancel missed clock-in persist failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	ev := s.buildEvent(ctx, events.ClockInCancelled, m, "", actorID, req.Comment)
	if err := s.appendOutbox(ctx, tx, m, ev); err != nil {
		s.logger.Error("cancel missed clock-in outbox append failed", zap.Error(err))
		return ClockInResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel missed clock-in commit failed", zap.Error(err))
		return ClockInResponse{}, err
	}
	s.logger.Info("cancel missed clock-in success", zap.String("clock_in_id", id))

	ev.RecipientSlackIDs = s.decisionRecipients(ctx, m)
	s.notifier.RequestTransition(ctx, ev)

	return mapToResponse(*m), nil
}

func (s *service) buildEvent(ctx context.Context, eventType string, m *MissedClockInRequest, employeeName, actorID, comment string) events.RequestTransition {
	if employeeName == "" {
		if emp, err := s.employeeRepo.FindByID(ctx, m.CompanyID.String(), m.EmployeeID.String()); err == nil {
			employeeName = emp.FullName
		}
	}
	actorName := ""
	if actorID != "" {
		if actor, err := s.employeeRepo.FindByID(ctx, m.CompanyID.String(), actorID); err == nil {
			actorName = actor.FullName
		}
	}

	return events.RequestTransition{
		EventType:     eventType,
		RequestID:     m.ID.String(),
		RequestNumber: m.RequestNumber,
		CompanyID:     m.CompanyID.String(),
		EmployeeID:    m.EmployeeID.String(),
		EmployeeName:  employeeName,
		Status:        m.Status,
		Detail:        m.MissedDate.Format("2006-01-02"),
		Comment:       comment,
		ActorName:     actorName,
	}
}

func (s *service) appendOutbox(ctx context.Context, tx *sql.Tx, m *MissedClockInRequest, ev events.RequestTransition) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "clock_in_request",
		AggregateID:   m.ID.String(),
		EventType:     ev.EventType,
		Topic:         events.TopicClockIn,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) decisionRecipients(ctx context.Context, m *MissedClockInRequest) []string {
	ids := s.slackIDsFor(ctx, m.CompanyID.String(), m.EmployeeID.String())
	if m.Status == StatusPendingHR {
		if admins, err := s.employeeRepo.FindByRole(ctx, m.CompanyID.String(), employee.RoleHRAdmin); err == nil {
			for _, a := range admins {
				if a.SlackMemberID != nil {
					ids = append(ids, *a.SlackMemberID)
				}
			}
		}
	}
	return ids
}

func (s *service) slackIDsFor(ctx context.Context, companyID string, employeeIDs ...string) []string {
	var ids []string
	for _, eid := range employeeIDs {
		emp, err := s.employeeRepo.FindByID(ctx, companyID, eid)
		if err != nil || emp.SlackMemberID == nil {
			continue
		}
		ids = append(ids, *emp.SlackMemberID)
	}
	return ids
}

// timeOnDate combines a calendar date with a wall-clock time, both UTC.
func timeOnDate(date time.Time, clock time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.UTC,
	)
}

func mapToResponse(m MissedClockInRequest) ClockInResponse {
	resp := ClockInResponse{
		ID:             m.ID.String(),
		RequestNumber:  m.RequestNumber,
		CompanyID:      m.CompanyID.String(),
		EmployeeID:     m.EmployeeID.String(),
		ManagerID:      m.ManagerID.String(),
		Status:         m.Status,
		MissedDate:     m.MissedDate.Format("2006-01-02"),
		ClockInTime:    m.ClockInAt.Format("15:04"),
		Reason:         m.Reason,
		ManagerComment: m.ManagerComment,
		HRComment:      m.HRComment,
		CancelComment:  m.CancelComment,
	}
	if m.ClockOutAt != nil {
		v := m.ClockOutAt.Format("15:04")
		resp.ClockOutTime = &v
	}
	return resp
}
