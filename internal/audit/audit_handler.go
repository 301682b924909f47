package audit

import (
	"net/http"
	"strconv"
	"time"

	"leaveflow/internal/shared/apperror"
	"leaveflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EntryResponse struct {
	ID            string  `json:"id"`
	Action        string  `json:"action"`
	PerformedBy   string  `json:"performed_by"`
	TargetUser    *string `json:"target_user,omitempty"`
	PreviousValue string  `json:"previous_value"`
	NewValue      string  `json:"new_value"`
	Reference     *string `json:"reference,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type Handler struct {
	repo   Repository
	logger *zap.Logger
}

func NewHandler(repo Repository, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("audit.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.handler")
	}
	return &Handler{repo: repo, logger: l}
}

func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	entries, err := h.repo.FindAllByCompany(c.Request.Context(), companyID, limit)
	if err != nil {
		h.logger.Error("list audit entries failed", zap.Error(err))
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = mapToResponse(e)
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func mapToResponse(e Entry) EntryResponse {
	resp := EntryResponse{
		ID:            e.ID.String(),
		Action:        e.Action,
		PerformedBy:   e.PerformedBy.String(),
		PreviousValue: e.PreviousValue,
		NewValue:      e.NewValue,
		Reference:     e.Reference,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
	if e.TargetUser != nil {
		v := e.TargetUser.String()
		resp.TargetUser = &v
	}
	return resp
}
