package leaveerrors

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
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrNoWorkingDays = apperror.New(
		apperror.CodeInvalidInput,
		"requested period contains no working days",
		http.StatusBadRequest,
	)
	ErrNoDeductionSource = apperror.New(
		apperror.CodeInvalidInput,
		"at least one deduction source must be selected for this leave type",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidInput,
		"selected balances do not cover the requested days",
		http.StatusBadRequest,
	)
	ErrNoManagerAssigned = apperror.New(
		apperror.CodeInvalidState,
		"employee has no manager assigned",
		http.StatusBadRequest,
	)
	ErrMenstrualLeaveTaken = apperror.New(
		apperror.CodeConflict,
		"a menstrual leave already exists for this calendar month",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrAlreadyProcessed = apperror.New(
		apperror.CodeInvalidState,
		"leave request has already been processed at this stage",
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
	ErrInvalidOverride = apperror.New(
		apperror.CodeInvalidInput,
		"override amounts must be non-negative decimal numbers",
		http.StatusBadRequest,
	)
	ErrOverrideExceedsBalance = apperror.New(
		apperror.CodeInvalidState,
		"override amounts exceed the employee's balances",
		http.StatusConflict,
	)
	ErrCannotCancel = apperror.New(
		apperror.CodeInvalidState,
		"leave request cannot be cancelled in its current status",
		http.StatusConflict,
	)
)
