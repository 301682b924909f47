package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leaveflow/internal/employee"
	"leaveflow/internal/leave"
	"leaveflow/internal/shared/apperror"
	slackerrors "leaveflow/internal/slack/errors"
)

// actionValue is the JSON carried in each interactive button. It pins the
// decision to a specific request and approval stage so a stale button can
// never act on the wrong state.
type actionValue struct {
	RequestID string `json:"request_id"`
	Decision  string `json:"decision"` // approve | reject
	Stage     string `json:"stage"`    // manager | hr
}

type Gateway struct {
	verifier     *Verifier
	employeeRepo employee.Repository
	leaveService leave.Service
	logger       *zap.Logger
}

func NewGateway(
	verifier *Verifier,
	employeeRepo employee.Repository,
	leaveService leave.Service,
	logger ...*zap.Logger,
) *Gateway {
	l := zap.L().Named("slack.gateway")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("slack.gateway")
	}
	return &Gateway{
		verifier:     verifier,
		employeeRepo: employeeRepo,
		leaveService: leaveService,
		logger:       l,
	}
}

// HandleInteraction is the single entry point for Slack interactivity.
// Signature and replay checks run against the raw body before the payload is
// even parsed. Once a payload is authenticated the response is always 200;
// outcomes, including guard failures, are reported back through response_url.
func (g *Gateway) HandleInteraction(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if err := g.verifier.Verify(
		c.Request.Context(),
		c.GetHeader("X-Slack-Request-Timestamp"),
		c.GetHeader("X-Slack-Signature"),
		body,
	); err != nil {
		g.logger.Warn("slack request rejected", zap.Error(err))
		httpErr := apperror.ToHTTP(err)
		c.Status(httpErr.Status)
		return
	}

	payload, err := parseInteractionPayload(body)
	if err != nil {
		g.logger.Warn("slack payload parse failed", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	action, ok := firstAction(payload)
	if !ok {
		c.Status(http.StatusOK)
		return
	}

	actor, err := g.employeeRepo.FindBySlackMemberID(c.Request.Context(), payload.User.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unmapped Slack user: tell them, change nothing.
			g.logger.Warn("slack member not linked", zap.String("slack_user_id", payload.User.ID))
			c.JSON(http.StatusOK, gin.H{
				"response_type":    "ephemeral",
				"replace_original": false,
				"text":             "Your Slack account is not linked to an employee profile. Ask HR to link it before approving requests.",
			})
			return
		}
		g.logger.Error("slack member lookup failed",
			zap.String("slack_user_id", payload.User.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{
			"response_type":    "ephemeral",
			"replace_original": false,
			"text":             "Something went wrong while looking up your profile. Please try again in a moment.",
		})
		return
	}

	g.logger.Info("slack decision received",
		zap.String("request_id", action.RequestID),
		zap.String("stage", action.Stage),
		zap.String("decision", action.Decision),
		zap.String("actor_id", actor.ID.String()),
	)

	// Ack immediately; Slack expects a response within 3 seconds. The
	// decision itself re-runs every guard inside the leave service, so a
	// duplicate or stale button press fails safely there.
	c.Status(http.StatusOK)

	ctx := context.WithoutCancel(c.Request.Context())
	go g.applyDecision(ctx, payload.ResponseURL, actor, action)
}

func (g *Gateway) applyDecision(ctx context.Context, responseURL string, actor *employee.Employee, action actionValue) {
	approved := action.Decision == "approve"
	companyID := actor.CompanyID.String()
	actorID := actor.ID.String()

	var (
		resp leave.LeaveResponse
		err  error
	)
	switch action.Stage {
	case "manager":
		resp, err = g.leaveService.ManagerDecision(ctx, companyID, actorID, action.RequestID, leave.ManagerDecisionRequest{
			Approved: approved,
			Comment:  "decided via Slack",
		})
	case "hr":
		resp, err = g.leaveService.HRApproval(ctx, companyID, actorID, action.RequestID, leave.HRApprovalRequest{
			Approved: approved,
			Comment:  "decided via Slack",
		})
	default:
		err = slackerrors.ErrMalformedPayload
	}

	text := decisionResultText(resp, err)
	g.postResponse(ctx, responseURL, text, err == nil)
}

func decisionResultText(resp leave.LeaveResponse, err error) string {
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return ":warning: " + appErr.Message
		}
		return ":warning: The decision could not be applied. Please try again from the app."
	}

	switch resp.Status {
	case leave.StatusPendingHR:
		return ":white_check_mark: Approved. " + resp.RequestNumber + " is now waiting for HR."
	case leave.StatusApproved:
		return ":white_check_mark: " + resp.RequestNumber + " is fully approved."
	case leave.StatusRejected:
		return ":x: " + resp.RequestNumber + " was rejected."
	default:
		return resp.RequestNumber + " is now " + resp.Status + "."
	}
}

// postResponse replaces the original interactive message so the buttons
// cannot be pressed twice from the same message.
func (g *Gateway) postResponse(ctx context.Context, responseURL, text string, replaceOriginal bool) {
	if responseURL == "" {
		return
	}
	msg := &slackapi.WebhookMessage{
		Text:            text,
		ReplaceOriginal: replaceOriginal,
	}
	if err := slackapi.PostWebhookContext(ctx, responseURL, msg); err != nil {
		g.logger.Warn("slack response post failed", zap.Error(err))
	}
}

func parseInteractionPayload(body []byte) (*slackapi.InteractionCallback, error) {
	// Slack delivers interactions as a form with a single json field.
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, slackerrors.ErrMalformedPayload
	}
	raw := values.Get("payload")
	if raw == "" {
		return nil, slackerrors.ErrMalformedPayload
	}

	var payload slackapi.InteractionCallback
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, slackerrors.ErrMalformedPayload
	}
	return &payload, nil
}

func firstAction(payload *slackapi.InteractionCallback) (actionValue, bool) {
	if payload.Type != slackapi.InteractionTypeBlockActions {
		return actionValue{}, false
	}
	if len(payload.ActionCallback.BlockActions) == 0 {
		return actionValue{}, false
	}

	var action actionValue
	if err := json.Unmarshal([]byte(payload.ActionCallback.BlockActions[0].Value), &action); err != nil {
		return actionValue{}, false
	}
	if action.RequestID == "" || action.Stage == "" {
		return actionValue{}, false
	}
	return action, true
}
