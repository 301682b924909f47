package slackerrors

import (
	"net/http"

	"leaveflow/internal/shared/apperror"
)

var (
	ErrMissingSignature = apperror.New(
		apperror.CodeUnauthorized,
		"missing slack signature headers",
		http.StatusUnauthorized,
	)
	ErrStaleTimestamp = apperror.New(
		apperror.CodeUnauthorized,
		"request timestamp outside the accepted window",
		http.StatusUnauthorized,
	)
	ErrInvalidSignature = apperror.New(
		apperror.CodeUnauthorized,
		"slack signature verification failed",
		http.StatusUnauthorized,
	)
	ErrReplayDetected = apperror.New(
		apperror.CodeUnauthorized,
		"slack request signature already seen",
		http.StatusUnauthorized,
	)
	ErrMalformedPayload = apperror.New(
		apperror.CodeInvalidInput,
		"malformed slack interaction payload",
		http.StatusBadRequest,
	)
)
