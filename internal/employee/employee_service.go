package employee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leaveflow/internal/audit"
	employeeerrors "leaveflow/internal/employee/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type Service interface {
	GetAll(ctx context.Context, companyID string) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error)
	GetBalance(ctx context.Context, companyID, id string) (BalanceResponse, error)
	AdjustBalance(ctx context.Context, companyID, actorID, id string, req AdjustBalanceRequest) (BalanceResponse, error)
	SetRole(ctx context.Context, companyID, actorID, id string, req SetRoleRequest) (EmployeeResponse, error)
	LinkSlackMember(ctx context.Context, companyID, actorID, id string, req LinkSlackRequest) (EmployeeResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	auditRepo audit.Repository
	logger    *zap.Logger
	balanceSF singleflight.Group
}

func NewService(db *sql.DB, repo Repository, auditRepo audit.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{db: db, repo: repo, auditRepo: auditRepo, logger: l}
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]EmployeeResponse, error) {
	employees, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = mapToResponse(e)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error) {
	e, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}
	return mapToResponse(*e), nil
}

// GetBalance coalesces concurrent reads for the same employee; approval
// bursts from Slack tend to arrive in pairs.
func (s *service) GetBalance(ctx context.Context, companyID, id string) (BalanceResponse, error) {
	v, err, _ := s.balanceSF.Do(companyID+":"+id, func() (any, error) {
		e, err := s.repo.FindByID(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, employeeerrors.ErrEmployeeNotFound
			}
			return nil, err
		}
		return BalanceResponse{
			EmployeeID:         e.ID.String(),
			CompOffBalance:     e.CompOffBalance.String(),
			AnnualLeaveBalance: e.AnnualLeaveBalance.String(),
		}, nil
	})
	if err != nil {
		return BalanceResponse{}, err
	}
	return v.(BalanceResponse), nil
}

func (s *service) AdjustBalance(ctx context.Context, companyID, actorID, id string, req AdjustBalanceRequest) (BalanceResponse, error) {
	s.logger.Debug("adjust balance requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("employee_id", id),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return BalanceResponse{}, employeeerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return BalanceResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	compOffDelta, annualDelta, err := parseDeltas(req)
	if err != nil {
		s.logger.Warn("adjust balance validation failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("adjust balance begin tx failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qAudit := s.auditRepo.WithTx(tx)

	e, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return BalanceResponse{}, err
	}

	newCompOff := e.CompOffBalance.Add(compOffDelta)
	newAnnual := e.AnnualLeaveBalance.Add(annualDelta)
	if newCompOff.IsNegative() || newAnnual.IsNegative() {
		return BalanceResponse{}, employeeerrors.ErrNegativeBalance
	}

	if err := qtx.UpdateBalances(ctx, companyID, id, newCompOff, newAnnual); err != nil {
		s.logger.Error("adjust balance persist failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	targetUUID := e.ID
	entry := &audit.Entry{
		ID:            uuid.New(),
		CompanyID:     e.CompanyID,
		Action:        audit.ActionBalanceAdjusted,
		PerformedBy:   actorUUID,
		TargetUser:    &targetUUID,
		PreviousValue: balanceString(e.CompOffBalance, e.AnnualLeaveBalance),
		NewValue:      balanceString(newCompOff, newAnnual),
		Reference:     &req.Reason,
		CreatedAt:     time.Now().UTC(),
	}
	if err := qAudit.Create(ctx, entry); err != nil {
		s.logger.Error("adjust balance audit write failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("adjust balance commit failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	s.logger.Info("adjust balance success",
		zap.String("employee_id", id),
		zap.String("comp_off_delta", compOffDelta.String()),
		zap.String("annual_leave_delta", annualDelta.String()),
	)

	return BalanceResponse{
		EmployeeID:         id,
		CompOffBalance:     newCompOff.String(),
		AnnualLeaveBalance: newAnnual.String(),
	}, nil
}

func (s *service) SetRole(ctx context.Context, companyID, actorID, id string, req SetRoleRequest) (EmployeeResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidActorID
	}

	e, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}

	previousRole := e.Role
	e.Role = req.Role
	if err := s.repo.Update(ctx, e); err != nil {
		s.logger.Error("set role persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	// Role changes are audited best-effort; the mutation itself already
	// committed.
	targetUUID := e.ID
	if err := s.auditRepo.Create(ctx, &audit.Entry{
		ID:            uuid.New(),
		CompanyID:     e.CompanyID,
		Action:        audit.ActionRoleChanged,
		PerformedBy:   actorUUID,
		TargetUser:    &targetUUID,
		PreviousValue: previousRole,
		NewValue:      e.Role,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("set role audit write failed", zap.Error(err))
	}

	s.logger.Info("set role success",
		zap.String("employee_id", id),
		zap.String("role", e.Role),
	)
	return mapToResponse(*e), nil
}

func (s *service) LinkSlackMember(ctx context.Context, companyID, actorID, id string, req LinkSlackRequest) (EmployeeResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidActorID
	}

	if existing, err := s.repo.FindBySlackMemberID(ctx, req.SlackMemberID); err == nil && existing.ID.String() != id {
		return EmployeeResponse{}, employeeerrors.ErrSlackAlreadyLinked
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return EmployeeResponse{}, err
	}

	e, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}

	previous := ""
	if e.SlackMemberID != nil {
		previous = *e.SlackMemberID
	}
	e.SlackMemberID = &req.SlackMemberID
	if err := s.repo.Update(ctx, e); err != nil {
		s.logger.Error("link slack persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	targetUUID := e.ID
	if err := s.auditRepo.Create(ctx, &audit.Entry{
		ID:            uuid.New(),
		CompanyID:     e.CompanyID,
		Action:        audit.ActionSlackLinked,
		PerformedBy:   actorUUID,
		TargetUser:    &targetUUID,
		PreviousValue: previous,
		NewValue:      req.SlackMemberID,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("link slack audit write failed", zap.Error(err))
	}

	return mapToResponse(*e), nil
}

func parseDeltas(req AdjustBalanceRequest) (decimal.Decimal, decimal.Decimal, error) {
	if req.CompOffDelta == nil && req.AnnualLeaveDelta == nil {
		return decimal.Zero, decimal.Zero, employeeerrors.ErrNoDelta
	}

	compOffDelta := decimal.Zero
	annualDelta := decimal.Zero
	var err error

	if req.CompOffDelta != nil {
		if compOffDelta, err = decimal.NewFromString(*req.CompOffDelta); err != nil {
			return decimal.Zero, decimal.Zero, employeeerrors.ErrInvalidDelta
		}
	}
	if req.AnnualLeaveDelta != nil {
		if annualDelta, err = decimal.NewFromString(*req.AnnualLeaveDelta); err != nil {
			return decimal.Zero, decimal.Zero, employeeerrors.ErrInvalidDelta
		}
	}
	return compOffDelta, annualDelta, nil
}

func balanceString(compOff, annual decimal.Decimal) string {
	return fmt.Sprintf("comp_off=%s annual_leave=%s", compOff.String(), annual.String())
}

func mapToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:                 e.ID.String(),
		CompanyID:          e.CompanyID.String(),
		FullName:           e.FullName,
		Email:              e.Email,
		Role:               e.Role,
		IsActive:           e.IsActive,
		CompOffBalance:     e.CompOffBalance.String(),
		AnnualLeaveBalance: e.AnnualLeaveBalance.String(),
	}
	if e.ManagerID != nil {
		v := e.ManagerID.String()
		resp.ManagerID = &v
	}
	resp.SlackMemberID = e.SlackMemberID
	return resp
}
