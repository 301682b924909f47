package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leaveflow/internal/audit"
	"leaveflow/internal/employee"
	employeeerrors "leaveflow/internal/employee/errors"
	"leaveflow/internal/events"
	leaveerrors "leaveflow/internal/leave/errors"
	"leaveflow/internal/messaging/kafka"
	"leaveflow/internal/notification"
	"leaveflow/internal/shared/contextutil"
	"leaveflow/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Submit(ctx context.Context, companyID, actorID string, req SubmitLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]LeaveResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error)
	ManagerDecision(ctx context.Context, companyID, actorID, id string, req ManagerDecisionRequest) (LeaveResponse, error)
	HRApproval(ctx context.Context, companyID, actorID, id string, req HRApprovalRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, companyID, actorID, id string, req CancelLeaveRequest) (LeaveResponse, error)
}

type service struct {
	db           *sql.DB
	repo         Repository
	employeeRepo employee.Repository
	auditRepo    audit.Repository
	outboxRepo   kafka.OutboxRepository
	counterRepo  counter.Repository
	notifier     notification.Dispatcher
	logger       *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employeeRepo employee.Repository,
	auditRepo audit.Repository,
	outboxRepo kafka.OutboxRepository,
	counterRepo counter.Repository,
	notifier notification.Dispatcher,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &service{
		db:           db,
		repo:         repo,
		employeeRepo: employeeRepo,
		auditRepo:    auditRepo,
		outboxRepo:   outboxRepo,
		counterRepo:  counterRepo,
		notifier:     notifier,
		logger:       l,
	}
}

func (s *service) Submit(ctx context.Context, companyID, actorID string, req SubmitLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("submit leave requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("leave_type", req.LeaveType),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if !validType(req.LeaveType) {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveType
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if startDate.After(endDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}

	// Menstrual leave is single-day by definition.
	if req.LeaveType == TypeMenstrual {
		endDate = startDate
	}

	totalDays := WorkingDays(startDate, endDate, req.HalfDay)
	if totalDays.IsZero() {
		return LeaveResponse{}, leaveerrors.ErrNoWorkingDays
	}

	emp, err := s.employeeRepo.FindByID(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return LeaveResponse{}, err
	}
	if emp.ManagerID == nil {
		return LeaveResponse{}, leaveerrors.ErrNoManagerAssigned
	}

	if deductionBearing(req.LeaveType) {
		if err := s.precheckBalance(emp, req, totalDays); err != nil {
			s.logger.Warn("submit leave balance pre-check failed",
				zap.String("employee_id", actorID),
				zap.Error(err),
			)
			return LeaveResponse{}, err
		}
	}

	if req.LeaveType == TypeMenstrual {
		if err := s.checkMenstrualUniqueness(ctx, companyID, actorID, startDate); err != nil {
			return LeaveResponse{}, err
		}
	}

	seq, err := s.counterRepo.GetNextValue(ctx, companyID, counter.TypeLeave)
	if err != nil {
		s.logger.Error("submit leave counter failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &LeaveRequest{
		ID:                  uuid.New(),
		CompanyID:           emp.CompanyID,
		EmployeeID:          employeeUUID,
		ManagerID:           *emp.ManagerID,
		RequestNumber:       fmt.Sprintf("LV-%04d", seq),
		LeaveType:           req.LeaveType,
		Status:              StatusPendingManager,
		StartDate:           startDate,
		EndDate:             endDate,
		TotalDays:           totalDays,
		HalfDay:             req.HalfDay,
		Reason:              req.Reason,
		SelectedCompOff:     req.SelectedCompOff,
		SelectedAnnualLeave: req.SelectedAnnualLeave,
		CompOffUsed:         decimal.Zero,
		AnnualLeaveUsed:     decimal.Zero,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	ev := s.buildEvent(ctx, events.LeaveSubmitted, l, emp.FullName, "", req.Reason)
	if err := s.appendOutbox(ctx, tx, l, ev); err != nil {
		s.logger.Error("submit leave outbox append failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("submit leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("request_number", l.RequestNumber),
		zap.String("leave_type", l.LeaveType),
		zap.String("total_days", totalDays.String()),
	)

	// Notification is fire-and-forget and outside the transaction; a failed
	// delivery never rolls back the submission.
	ev.RecipientSlackIDs = s.slackIDsFor(ctx, companyID, l.ManagerID.String())
	s.notifier.LeaveTransition(ctx, ev)

	return mapToResponse(*l), nil
}

func (s *service) precheckBalance(emp *employee.Employee, req SubmitLeaveRequest, totalDays decimal.Decimal) error {
	if !req.SelectedCompOff && !req.SelectedAnnualLeave {
		return leaveerrors.ErrNoDeductionSource
	}

	// Advisory only: balances can change before HR approval. The
	// authoritative check happens inside the approval transaction.
	available := decimal.Zero
	if req.SelectedCompOff {
		available = available.Add(emp.CompOffBalance)
	}
	if req.SelectedAnnualLeave {
		available = available.Add(emp.AnnualLeaveBalance)
	}
	if available.LessThan(totalDays) {
		return leaveerrors.ErrInsufficientBalance
	}
	return nil
}

// checkMenstrualUniqueness enforces at most one active menstrual request per
// calendar month. Filtered in memory; there is no unique index to lean on.
func (s *service) checkMenstrualUniqueness(ctx context.Context, companyID, employeeID string, startDate time.Time) error {
	existing, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return err
	}

	for _, l := range existing {
		if l.LeaveType != TypeMenstrual {
			continue
		}
		switch l.Status {
		case StatusPendingManager, StatusPendingHR, StatusApproved:
		default:
			continue
		}
		if l.StartDate.Year() == startDate.Year() && l.StartDate.Month() == startDate.Month() {
			return leaveerrors.ErrMenstrualLeaveTaken
		}
	}
	return nil
}

func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]LeaveResponse, error) {
	var (
		leaves []LeaveRequest
		err    error
	)
	if canReadAll {
		leaves, err = s.repo.FindAllByCompany(ctx, companyID)
	} else {
		leaves, err = s.repo.FindAllByEmployee(ctx, companyID, actorID)
	}
	if err != nil {
		return nil, err
	}

	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) ManagerDecision(ctx context.Context, companyID, actorID, id string, req ManagerDecisionRequest) (LeaveResponse, error) {
	s.logger.Debug("manager decision requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
		zap.Bool("approved", req.Approved),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("manager decision begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	// Guards run against the fresh in-transaction read. A stale or duplicate
	// decision fails here instead of silently reapplying.
	if l.Status != StatusPendingManager {
		s.logger.Warn("manager decision on wrong status",
			zap.String("leave_id", id),
			zap.String("status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
	}
	if l.ManagerID != actorUUID {
		return LeaveResponse{}, leaveerrors.ErrNotAssignedManager
	}

	now := time.Now().UTC()
	l.ManagerDecidedBy = &actorUUID
	l.ManagerDecidedAt = &now
	if req.Comment != "" {
		l.ManagerComment = &req.Comment
	}

	eventType := events.LeaveManagerRejected
	if req.Approved {
		if l.LeaveType == TypeExtraWork {
			// Fully approved at the manager stage: credit comp-off now.
			l.Status = StatusApproved
			if err := s.creditCompOff(ctx, tx, l, actorUUID); err != nil {
				return LeaveResponse{}, err
			}
		} else {
			l.Status = StatusPendingHR
		}
		eventType = events.LeaveManagerApproved
	} else {
		l.Status = StatusRejected
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("manager decision persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	ev := s.buildEvent(ctx, eventType, l, "", actorID, req.Comment)
	if err := s.appendOutbox(ctx, tx, l, ev); err != nil {
		s.logger.Error("manager decision outbox append failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("manager decision commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("manager decision success",
		zap.String("leave_id", id),
		zap.String("status", l.Status),
	)

	ev.RecipientSlackIDs = s.decisionRecipients(ctx, l)
	s.notifier.LeaveTransition(ctx, ev)

	return mapToResponse(*l), nil
}

func (s *service) HRApproval(ctx context.Context, companyID, actorID, id string, req HRApprovalRequest) (LeaveResponse, error) {
	s.logger.Debug("hr approval requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
		zap.Bool("approved", req.Approved),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	actor, err := s.employeeRepo.FindByID(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrNotHRAdmin
		}
		return LeaveResponse{}, err
	}
	if actor.Role != employee.RoleHRAdmin {
		return LeaveResponse{}, leaveerrors.ErrNotHRAdmin
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("hr approval begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	if l.Status != StatusPendingHR {
		s.logger.Warn("hr approval on wrong status",
			zap.String("leave_id", id),
			zap.String("status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	l.HRDecidedBy = &actorUUID
	l.HRDecidedAt = &now
	if req.Comment != "" {
		l.HRComment = &req.Comment
	}

	eventType := events.LeaveHRRejected
	if req.Approved {
		if err := s.applyApproval(ctx, tx, l, actorUUID, req); err != nil {
			return LeaveResponse{}, err
		}
		l.Status = StatusApproved
		eventType = events.LeaveHRApproved
	} else {
		l.Status = StatusRejected
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("hr approval persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	ev := s.buildEvent(ctx, eventType, l, "", actorID, req.Comment)
	if err := s.appendOutbox(ctx, tx, l, ev); err != nil {
		s.logger.Error("hr approval outbox append failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("hr approval commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("hr approval success",
		zap.String("leave_id", id),
		zap.String("status", l.Status),
		zap.String("comp_off_used", l.CompOffUsed.String()),
		zap.String("annual_leave_used", l.AnnualLeaveUsed.String()),
	)

	ev.RecipientSlackIDs = s.decisionRecipients(ctx, l)
	s.notifier.LeaveTransition(ctx, ev)

	return mapToResponse(*l), nil
}

// applyApproval resolves the deduction (or credit) for an approved request
// and writes the employee's new balances. Caller holds the transaction; the
// employee row is locked here so concurrent approvals on the same employee
// serialize.
func (s *service) applyApproval(ctx context.Context, tx *sql.Tx, l *LeaveRequest, actorUUID uuid.UUID, req HRApprovalRequest) error {
	switch {
	case l.LeaveType == TypeWFH:
		return nil

	case l.LeaveType == TypeExtraWork:
		return s.creditCompOff(ctx, tx, l, actorUUID)

	case req.OverrideCompOff != nil || req.OverrideAnnualLeave != nil:
		return s.applyOverride(ctx, tx, l, actorUUID, req)

	case l.LeaveType == TypeMenstrual || l.LeaveType == TypeBereavement:
		// Exempt types deduct nothing unless HR supplied an explicit split.
		return nil

	default:
		return s.applyDeduction(ctx, tx, l, actorUUID)
	}
}

// applyDeduction runs the standard algorithm: comp-off first, then annual
// leave, both clamped to the available balance. If the selected sources
// cannot cover the request in full the transition fails rather than leaving
// days silently un-deducted.
func (s *service) applyDeduction(ctx context.Context, tx *sql.Tx, l *LeaveRequest, actorUUID uuid.UUID) error {
	qEmp := s.employeeRepo.WithTx(tx)

	emp, err := qEmp.FindByIDForUpdate(ctx, l.CompanyID.String(), l.EmployeeID.String())
	if err != nil {
		return err
	}

	remaining := l.TotalDays
	compOffUsed := decimal.Zero
	annualUsed := decimal.Zero

	if l.SelectedCompOff && emp.CompOffBalance.IsPositive() {
		compOffUsed = decimal.Min(emp.CompOffBalance, remaining)
		remaining = remaining.Sub(compOffUsed)
	}
	if l.SelectedAnnualLeave && remaining.IsPositive() {
		annualUsed = decimal.Min(emp.AnnualLeaveBalance, remaining)
		remaining = remaining.Sub(annualUsed)
	}
	if remaining.IsPositive() {
		return leaveerrors.ErrInsufficientBalance
	}

	newCompOff := emp.CompOffBalance.Sub(compOffUsed)
	newAnnual := emp.AnnualLeaveBalance.Sub(annualUsed)
	if err := qEmp.UpdateBalances(ctx, l.CompanyID.String(), l.EmployeeID.String(), newCompOff, newAnnual); err != nil {
		return err
	}

	l.CompOffUsed = compOffUsed
	l.AnnualLeaveUsed = annualUsed

	return s.writeBalanceAudit(ctx, tx, l, actorUUID, audit.ActionBalanceDeducted,
		emp.CompOffBalance, emp.AnnualLeaveBalance, newCompOff, newAnnual)
}

func (s *service) applyOverride(ctx context.Context, tx *sql.Tx, l *LeaveRequest, actorUUID uuid.UUID, req HRApprovalRequest) error {
	compOffUsed := decimal.Zero
	annualUsed := decimal.Zero
	var err error

	if req.OverrideCompOff != nil {
		if compOffUsed, err = decimal.NewFromString(*req.OverrideCompOff); err != nil || compOffUsed.IsNegative() {
			return leaveerrors.ErrInvalidOverride
		}
	}
	if req.OverrideAnnualLeave != nil {
		if annualUsed, err = decimal.NewFromString(*req.OverrideAnnualLeave); err != nil || annualUsed.IsNegative() {
			return leaveerrors.ErrInvalidOverride
		}
	}

	qEmp := s.employeeRepo.WithTx(tx)
	emp, err := qEmp.FindByIDForUpdate(ctx, l.CompanyID.String(), l.EmployeeID.String())
	if err != nil {
		return err
	}

	// Override values are applied verbatim, but never past zero.
	if compOffUsed.GreaterThan(emp.CompOffBalance) || annualUsed.GreaterThan(emp.AnnualLeaveBalance) {
		return leaveerrors.ErrOverrideExceedsBalance
	}

	newCompOff := emp.CompOffBalance.Sub(compOffUsed)
	newAnnual := emp.AnnualLeaveBalance.Sub(annualUsed)
	if err := qEmp.UpdateBalances(ctx, l.CompanyID.String(), l.EmployeeID.String(), newCompOff, newAnnual); err != nil {
		return err
	}

	l.CompOffUsed = compOffUsed
	l.AnnualLeaveUsed = annualUsed
	l.HROverride = true
	details := fmt.Sprintf("manual split by %s: comp_off=%s annual_leave=%s",
		actorUUID.String(), compOffUsed.String(), annualUsed.String())
	l.HROverrideDetails = &details

	return s.writeBalanceAudit(ctx, tx, l, actorUUID, audit.ActionBalanceDeducted,
		emp.CompOffBalance, emp.AnnualLeaveBalance, newCompOff, newAnnual)
}

func (s *service) creditCompOff(ctx context.Context, tx *sql.Tx, l *LeaveRequest, actorUUID uuid.UUID) error {
	qEmp := s.employeeRepo.WithTx(tx)

	emp, err := qEmp.FindByIDForUpdate(ctx, l.CompanyID.String(), l.EmployeeID.String())
	if err != nil {
		return err
	}

	newCompOff := emp.CompOffBalance.Add(l.TotalDays)
	if err := qEmp.UpdateBalances(ctx, l.CompanyID.String(), l.EmployeeID.String(), newCompOff, emp.AnnualLeaveBalance); err != nil {
		return err
	}

	return s.writeBalanceAudit(ctx, tx, l, actorUUID, audit.ActionBalanceCredited,
		emp.CompOffBalance, emp.AnnualLeaveBalance, newCompOff, emp.AnnualLeaveBalance)
}

func (s *service) Cancel(ctx context.Context, companyID, actorID, id string, req CancelLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	actor, err := s.employeeRepo.FindByID(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrNotHRAdmin
		}
		return LeaveResponse{}, err
	}
	if actor.Role != employee.RoleHRAdmin {
		return LeaveResponse{}, leaveerrors.ErrNotHRAdmin
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	switch l.Status {
	case StatusApproved:
		// Reverse exactly what was deducted. Extra-work credits reverse the
		// other way: the credited comp-off is taken back.
		if l.LeaveType == TypeExtraWork {
			if err := s.reverseCredit(ctx, tx, l, actorUUID); err != nil {
				return LeaveResponse{}, err
			}
		} else if l.CompOffUsed.IsPositive() || l.AnnualLeaveUsed.IsPositive() {
			if err := s.reverseDeduction(ctx, tx, l, actorUUID); err != nil {
				return LeaveResponse{}, err
			}
		}
	case StatusPendingManager, StatusPendingHR:
		// Nothing to reverse.
	default:
		return LeaveResponse{}, leaveerrors.ErrCannotCancel
	}

	now := time.Now().UTC()
	l.Status = StatusCancelled
	l.CancelledBy = &actorUUID
	l.CancelledAt = &now
	if req.Comment != "" {
		l.CancelComment = &req.Comment
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("cancel leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	ev := s.buildEvent(ctx, events.LeaveCancelled, l, "", actorID, req.Comment)
	if err := s.appendOutbox(ctx, tx, l, ev); err != nil {
		s.logger.Error("cancel leave outbox append failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("cancel leave success", zap.String("leave_id", id))

	ev.RecipientSlackIDs = s.decisionRecipients(ctx, l)
	s.notifier.LeaveTransition(ctx, ev)

	return mapToResponse(*l), nil
}

func (s *service) reverseDeduction(ctx context.Context, tx *sql.Tx, l *LeaveRequest, actorUUID uuid.UUID) error {
	qEmp := s.employeeRepo.WithTx(tx)

	emp, err := qEmp.FindByIDForUpdate(ctx, l.CompanyID.String(), l.EmployeeID.String())
	if err != nil {
		return err
	}

	newCompOff := emp.CompOffBalance.Add(l.CompOffUsed)
	newAnnual := emp.AnnualLeaveBalance.Add(l.AnnualLeaveUsed)
	if err := qEmp.UpdateBalances(ctx, l.CompanyID.String(), l.EmployeeID.String(), newCompOff, newAnnual); err != nil {
		return err
	}

	return s.writeBalanceAudit(ctx, tx, l, actorUUID, audit.ActionBalanceReversed,
		emp.CompOffBalance, emp.AnnualLeaveBalance, newCompOff, newAnnual)
}

func (s *service) reverseCredit(ctx context.Context, tx *sql.Tx, l *LeaveRequest, actorUUID uuid.UUID) error {
	qEmp := s.employeeRepo.WithTx(tx)

	emp, err := qEmp.FindByIDForUpdate(ctx, l.CompanyID.String(), l.EmployeeID.String())
	if err != nil {
		return err
	}

	// Never drive the balance negative, even if some of the credited days
	// were already spent.
	newCompOff := decimal.Max(decimal.Zero, emp.CompOffBalance.Sub(l.TotalDays))
	if err := qEmp.UpdateBalances(ctx, l.CompanyID.String(), l.EmployeeID.String(), newCompOff, emp.AnnualLeaveBalance); err != nil {
		return err
	}

	return s.writeBalanceAudit(ctx, tx, l, actorUUID, audit.ActionBalanceReversed,
		emp.CompOffBalance, emp.AnnualLeaveBalance, newCompOff, emp.AnnualLeaveBalance)
}

func (s *service) writeBalanceAudit(
	ctx context.Context,
	tx *sql.Tx,
	l *LeaveRequest,
	actorUUID uuid.UUID,
	action string,
	prevCompOff, prevAnnual, newCompOff, newAnnual decimal.Decimal,
) error {
	targetUUID := l.EmployeeID
	ref := l.ID.String()
	return s.auditRepo.WithTx(tx).Create(ctx, &audit.Entry{
		ID:            uuid.New(),
		CompanyID:     l.CompanyID,
		Action:        action,
		PerformedBy:   actorUUID,
		TargetUser:    &targetUUID,
		PreviousValue: fmt.Sprintf("comp_off=%s annual_leave=%s", prevCompOff, prevAnnual),
		NewValue:      fmt.Sprintf("comp_off=%s annual_leave=%s", newCompOff, newAnnual),
		Reference:     &ref,
		CreatedAt:     time.Now().UTC(),
	})
}

func (s *service) buildEvent(ctx context.Context, eventType string, l *LeaveRequest, employeeName, actorID, comment string) events.LeaveTransition {
	if employeeName == "" {
		if emp, err := s.employeeRepo.FindByID(ctx, l.CompanyID.String(), l.EmployeeID.String()); err == nil {
			employeeName = emp.FullName
		}
	}
	actorName := ""
	if actorID != "" {
		if actor, err := s.employeeRepo.FindByID(ctx, l.CompanyID.String(), actorID); err == nil {
			actorName = actor.FullName
		}
	}

	return events.LeaveTransition{
		EventType:       eventType,
		RequestID:       l.ID.String(),
		RequestNumber:   l.RequestNumber,
		CompanyID:       l.CompanyID.String(),
		EmployeeID:      l.EmployeeID.String(),
		EmployeeName:    employeeName,
		LeaveType:       l.LeaveType,
		Status:          l.Status,
		StartDate:       l.StartDate.Format("2006-01-02"),
		EndDate:         l.EndDate.Format("2006-01-02"),
		TotalDays:       l.TotalDays.String(),
		Comment:         comment,
		ActorName:       actorName,
		CompOffUsed:     l.CompOffUsed.String(),
		AnnualLeaveUsed: l.AnnualLeaveUsed.String(),
	}
}

func (s *service) appendOutbox(ctx context.Context, tx *sql.Tx, l *LeaveRequest, ev events.LeaveTransition) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     ev.EventType,
		Topic:         events.TopicLeave,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

// decisionRecipients resolves the slack ids that should hear about a decision:
// always the requesting employee, plus every HR admin while the request sits
// in the HR queue.
func (s *service) decisionRecipients(ctx context.Context, l *LeaveRequest) []string {
	ids := s.slackIDsFor(ctx, l.CompanyID.String(), l.EmployeeID.String())
	if l.Status == StatusPendingHR {
		if admins, err := s.employeeRepo.FindByRole(ctx, l.CompanyID.String(), employee.RoleHRAdmin); err == nil {
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

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	return LeaveResponse{
		ID:                  l.ID.String(),
		RequestNumber:       l.RequestNumber,
		CompanyID:           l.CompanyID.String(),
		EmployeeID:          l.EmployeeID.String(),
		ManagerID:           l.ManagerID.String(),
		LeaveType:           l.LeaveType,
		Status:              l.Status,
		StartDate:           l.StartDate.Format("2006-01-02"),
		EndDate:             l.EndDate.Format("2006-01-02"),
		TotalDays:           l.TotalDays.String(),
		HalfDay:             l.HalfDay,
		Reason:              l.Reason,
		SelectedCompOff:     l.SelectedCompOff,
		SelectedAnnualLeave: l.SelectedAnnualLeave,
		CompOffUsed:         l.CompOffUsed.String(),
		AnnualLeaveUsed:     l.AnnualLeaveUsed.String(),
		HROverride:          l.HROverride,
		HROverrideDetails:   l.HROverrideDetails,
		ManagerComment:      l.ManagerComment,
		HRComment:           l.HRComment,
		CancelComment:       l.CancelComment,
	}
}
