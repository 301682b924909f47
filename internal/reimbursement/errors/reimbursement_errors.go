package reimbursementerrors

import (
	"net/http"

	"leaveflow/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"unknown reimbursement category",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"amount must be a positive decimal number",
		http.StatusBadRequest,
	)
	ErrNoManagerAssigned = apperror.New(
		apperror.CodeInvalidState,
		"employee has no manager assigned",
		http.StatusBadRequest,
	)
	ErrReimbursementNotFound = apperror.New(
		apperror.CodeNotFound,
		"reimbursement request not found",
		http.StatusNotFound,
	)
	ErrAlreadyProcessed = apperror.New(
		apperror.CodeInvalidState,
		"reimbursement request has already been processed",
		http.StatusConflict,
	)
	ErrNotAssignedManager = apperror.New(
		apperror.CodeInvalidState,
		"only the assigned manager can decide this request",
		http.StatusForbidden,
	)
	ErrNotHRAdmin = apperror.New(
		apperror.CodeInvalidState,
		"only an HR admin can perform this action",
		http.StatusForbidden,
	)
	ErrCannotCancel = apperror.New(
		apperror.CodeInvalidState,
		"reimbursement request cannot be cancelled in its current status",
		http.StatusConflict,
	)
)
