package reimbursement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leaveflow/internal/employee"
	employeeerrors "leaveflow/internal/employee/errors"
	"leaveflow/internal/events"
	"leaveflow/internal/messaging/kafka"
	"leaveflow/internal/notification"
	reimbursementerrors "leaveflow/internal/reimbursement/errors"
	"leaveflow/internal/shared/contextutil"
	"leaveflow/internal/shared/counter"
)

type Service interface {
	Submit(ctx context.Context, companyID, actorID string, req SubmitReimbursementRequest) (ReimbursementResponse, error)
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]ReimbursementResponse, error)
	GetByID(ctx context.Context, companyID, id string) (ReimbursementResponse, error)
	ManagerDecision(ctx context.Context, companyID, actorID, id string, req ManagerDecisionRequest) (ReimbursementResponse, error)
	Cancel(ctx context.Context, companyID, actorID, id string, req CancelReimbursementRequest) (ReimbursementResponse, error)
}

type service struct {
	db           *sql.DB
	repo         Repository
	employeeRepo employee.Repository
	outboxRepo   kafka.OutboxRepository
	counterRepo  counter.Repository
	notifier     notification.Dispatcher
	logger       *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employeeRepo employee.Repository,
	outboxRepo kafka.OutboxRepository,
	counterRepo counter.Repository,
	notifier notification.Dispatcher,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("reimbursement.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("reimbursement.service")
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &service{
		db:           db,
		repo:         repo,
		employeeRepo: employeeRepo,
		outboxRepo:   outboxRepo,
		counterRepo:  counterRepo,
		notifier:     notifier,
		logger:       l,
	}
}

func (s *service) Submit(ctx context.Context, companyID, actorID string, req SubmitReimbursementRequest) (ReimbursementResponse, error) {
	s.logger.Debug("submit reimbursement requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("category", req.Category),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(actorID)
	if err != nil {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidActorID
	}
	if !validCategory(req.Category) {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidCategory
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidAmount
	}

	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidDateFormat
	}

	emp, err := s.employeeRepo.FindByID(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReimbursementResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return ReimbursementResponse{}, err
	}
	if emp.ManagerID == nil {
		return ReimbursementResponse{}, reimbursementerrors.ErrNoManagerAssigned
	}

	seq, err := s.counterRepo.GetNextValue(ctx, companyID, counter.TypeReimbursement)
	if err != nil {
		s.logger.Error("submit reimbursement counter failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	m := &ReimbursementRequest{
		ID:            uuid.New(),
		CompanyID:     emp.CompanyID,
		EmployeeID:    employeeUUID,
		ManagerID:     *emp.ManagerID,
		RequestNumber: fmt.Sprintf("RB-%04d", seq),
		Status:        StatusPendingManager,
		Category:      req.Category,
		Amount:        amount,
		Currency:      currency,
		ExpenseDate:   expenseDate,
		Description:   req.Description,
		ReceiptURLs:   req.ReceiptURLs,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit reimbursement begin tx failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, m); err != nil {
		s.logger.Error("submit reimbursement persist failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}

	ev := s.buildEvent(ctx, events.ReimbursementSubmitted, m, emp.FullName, "", req.Description)
	if err := s.appendOutbox(ctx, tx, m, ev); err != nil {
		s.logger.Error("submit reimbursement outbox append failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit reimbursement commit failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}
	s.logger.Info("submit reimbursement success",
		zap.String("reimbursement_id", m.ID.String()),
		zap.String("request_number", m.RequestNumber),
		zap.String("amount", amount.String()),
	)

	ev.RecipientSlackIDs = s.slackIDsFor(ctx, companyID, m.ManagerID.String())
	s.notifier.RequestTransition(ctx, ev)

	return mapToResponse(*m), nil
}

func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]ReimbursementResponse, error) {
	var (
		rows []ReimbursementRequest
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

	resp := make([]ReimbursementResponse, len(rows))
	for i, m := range rows {
		resp[i] = mapToResponse(m)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (ReimbursementResponse, error) {
	m, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReimbursementResponse{}, reimbursementerrors.ErrReimbursementNotFound
		}
		return ReimbursementResponse{}, err
	}
	return mapToResponse(*m), nil
}

func (s *service) ManagerDecision(ctx context.Context, companyID, actorID, id string, req ManagerDecisionRequest) (ReimbursementResponse, error) {
	s.logger.Debug("reimbursement manager decision requested",
		zap.String("reimbursement_id", id),
		zap.String("actor_id", actorID),
		zap.Bool("approved", req.Approved),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reimbursement manager decision begin tx failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	m, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReimbursementResponse{}, reimbursementerrors.ErrReimbursementNotFound
		}
		return ReimbursementResponse{}, err
	}

	if m.Status != StatusPendingManager {
		s.logger.Warn("reimbursement manager decision on wrong status",
			zap.String("reimbursement_id", id),
			zap.String("status", m.Status),
		)
		return ReimbursementResponse{}, reimbursementerrors.ErrAlreadyProcessed
	}
	if m.ManagerID != actorUUID {
		return ReimbursementResponse{}, reimbursementerrors.ErrNotAssignedManager
	}

	now := time.Now().UTC()
	m.ManagerDecidedBy = &actorUUID
	m.ManagerDecidedAt = &now
	if req.Comment != "" {
		m.ManagerComment = &req.Comment
	}

	eventType := events.ReimbursementRejected
	if req.Approved {
		m.Status = StatusApproved
		eventType = events.ReimbursementApproved
	} else {
		m.Status = StatusRejected
	}

	if err := qtx.Update(ctx, m); err != nil {
		s.logger.Error("reimbursement manager decision persist failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}

	ev := s.buildEvent(ctx, eventType, m, "", actorID, req.Comment)
	if err := s.appendOutbox(ctx, tx, m, ev); err != nil {
		s.logger.Error("reimbursement manager decision outbox append failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reimbursement manager decision commit failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}
	s.logger.Info("reimbursement manager decision success",
		zap.String("reimbursement_id", id),
		zap.String("status", m.Status),
	)

	ev.RecipientSlackIDs = s.slackIDsFor(ctx, companyID, m.EmployeeID.String())
	s.notifier.RequestTransition(ctx, ev)

	return mapToResponse(*m), nil
}

func (s *service) Cancel(ctx context.Context, companyID, actorID, id string, req CancelReimbursementRequest) (ReimbursementResponse, error) {
	s.logger.Debug("cancel reimbursement requested",
		zap.String("reimbursement_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return ReimbursementResponse{}, reimbursementerrors.ErrInvalidActorID
	}

	actor, err := s.employeeRepo.FindByID(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReimbursementResponse{}, reimbursementerrors.ErrNotHRAdmin
		}
		return ReimbursementResponse{}, err
	}
	if actor.Role != employee.RoleHRAdmin {
		return ReimbursementResponse{}, reimbursementerrors.ErrNotHRAdmin
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel reimbursement begin tx failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	m, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReimbursementResponse{}, reimbursementerrors.ErrReimbursementNotFound
		}
		return ReimbursementResponse{}, err
	}

	switch m.Status {
	case StatusPendingManager, StatusApproved:
	default:
		return ReimbursementResponse{}, reimbursementerrors.ErrCannotCancel
	}

	now := time.Now().UTC()
	m.Status = StatusCancelled
	m.CancelledBy = &actorUUID
	m.CancelledAt = &now
	if req.Comment != "" {
		m.CancelComment = &req.Comment
	}

	if err := qtx.Update(ctx, m); err != nil {
		s.logger.Error("cancel reimbursement persist failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}

	ev := s.buildEvent(ctx, events.ReimbursementCancelled, m, "", actorID, req.Comment)
	if err := s.appendOutbox(ctx, tx, m, ev); err != nil {
		s.logger.Error("cancel reimbursement outbox append failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel reimbursement commit failed", zap.Error(err))
		return ReimbursementResponse{}, err
	}
	s.logger.Info("cancel reimbursement success", zap.String("reimbursement_id", id))

	ev.RecipientSlackIDs = s.slackIDsFor(ctx, companyID, m.EmployeeID.String())
	s.notifier.RequestTransition(ctx, ev)

	return mapToResponse(*m), nil
}

func (s *service) buildEvent(ctx context.Context, eventType string, m *ReimbursementRequest, employeeName, actorID, comment string) events.RequestTransition {
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
		Detail:        fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency),
		Comment:       comment,
		ActorName:     actorName,
	}
}

func (s *service) appendOutbox(ctx context.Context, tx *sql.Tx, m *ReimbursementRequest, ev events.RequestTransition) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "reimbursement_request",
		AggregateID:   m.ID.String(),
		EventType:     ev.EventType,
		Topic:         events.TopicReimbursement,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
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

func mapToResponse(m ReimbursementRequest) ReimbursementResponse {
	return ReimbursementResponse{
		ID:             m.ID.String(),
		RequestNumber:  m.RequestNumber,
		CompanyID:      m.CompanyID.String(),
		EmployeeID:     m.EmployeeID.String(),
		ManagerID:      m.ManagerID.String(),
		Status:         m.Status,
		Category:       m.Category,
		Amount:         m.Amount.StringFixed(2),
		Currency:       m.Currency,
		ExpenseDate:    m.ExpenseDate.Format("2006-01-02"),
		Description:    m.Description,
		ReceiptURLs:    m.ReceiptURLs,
		ManagerComment: m.ManagerComment,
		CancelComment:  m.CancelComment,
	}
}
