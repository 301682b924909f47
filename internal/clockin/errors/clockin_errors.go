package clockinerrors

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
	ErrInvalidTimeFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid time format, expected HH:MM",
		http.StatusBadRequest,
	)
	ErrFutureDate = apperror.New(
		apperror.CodeInvalidInput,
		"missed date cannot be in the future",
		http.StatusBadRequest,
	)
	ErrInvalidTimeRange = apperror.New(
		apperror.CodeInvalidInput,
		"clock out must be after clock in",
		http.StatusBadRequest,
	)
	ErrNoManagerAssigned = apperror.New(
		apperror.CodeInvalidState,
		"employee has no manager assigned",
		http.StatusBadRequest,
	)
	ErrClockInNotFound = apperror.New(
		apperror.CodeNotFound,
		"missed clock-in request not found",
		http.StatusNotFound,
	)
	ErrAlreadyProcessed = apperror.New(
		apperror.CodeInvalidState,
		"missed clock-in request has already been processed at this stage",
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
	ErrAttendanceExists = apperror.New(
		apperror.CodeConflict,
		"an attendance record already exists for the missed date",
		http.StatusConflict,
	)
	ErrCannotCancel = apperror.New(
		apperror.CodeInvalidState,
		"missed clock-in request cannot be cancelled in its current status",
		http.StatusConflict,
	)
)
