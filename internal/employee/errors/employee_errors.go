package employeeerrors

import (
	"net/http"

	"leaveflow/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeInactive = apperror.New(
		apperror.CodeInvalidState,
		"employee is not active",
		http.StatusBadRequest,
	)
	ErrInvalidDelta = apperror.New(
		apperror.CodeInvalidInput,
		"balance delta must be a decimal number",
		http.StatusBadRequest,
	)
	ErrNoDelta = apperror.New(
		apperror.CodeInvalidInput,
		"at least one of comp_off_delta or annual_leave_delta is required",
		http.StatusBadRequest,
	)
	ErrNegativeBalance = apperror.New(
		apperror.CodeInvalidState,
		"adjustment would drive a balance below zero",
		http.StatusBadRequest,
	)
	ErrSlackAlreadyLinked = apperror.New(
		apperror.CodeConflict,
		"slack member id is already linked to another employee",
		http.StatusConflict,
	)
)
