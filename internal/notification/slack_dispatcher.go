package notification

import (
	"context"
	"encoding/json"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"

	"leaveflow/internal/events"
)

// slackPoster is the slice of the Slack client the dispatcher needs.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackDispatcher delivers transition messages as Slack DMs. Every send is
// best effort: failures are logged and dropped, recipients without a linked
// Slack account are skipped by the caller.
type SlackDispatcher struct {
	client slackPoster
	logger *zap.Logger
}

func NewSlackDispatcher(botToken string, logger ...*zap.Logger) *SlackDispatcher {
	l := zap.L().Named("notification.slack")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.slack")
	}
	return &SlackDispatcher{
		client: slackapi.New(botToken),
		logger: l,
	}
}

func (d *SlackDispatcher) LeaveTransition(ctx context.Context, ev events.LeaveTransition) {
	blocks := d.leaveBlocks(ev)
	for _, recipient := range ev.RecipientSlackIDs {
		d.post(ctx, recipient, ev.EventType, blocks)
	}
}

func (d *SlackDispatcher) RequestTransition(ctx context.Context, ev events.RequestTransition) {
	blocks := d.requestBlocks(ev)
	for _, recipient := range ev.RecipientSlackIDs {
		d.post(ctx, recipient, ev.EventType, blocks)
	}
}

func (d *SlackDispatcher) post(ctx context.Context, recipient, eventType string, blocks []slackapi.Block) {
	_, _, err := d.client.PostMessageContext(ctx, recipient,
		slackapi.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		d.logger.Warn("slack notification delivery failed",
			zap.String("recipient", recipient),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	d.logger.Debug("slack notification delivered",
		zap.String("recipient", recipient),
		zap.String("event_type", eventType),
	)
}

func (d *SlackDispatcher) leaveBlocks(ev events.LeaveTransition) []slackapi.Block {
	header := slackapi.NewHeaderBlock(
		slackapi.NewTextBlockObject(slackapi.PlainTextType, leaveHeadline(ev), false, false),
	)

	fields := []*slackapi.TextBlockObject{
		mrkdwn("*Request:*\n" + ev.RequestNumber),
		mrkdwn("*Employee:*\n" + ev.EmployeeName),
		mrkdwn("*Type:*\n" + ev.LeaveType),
		mrkdwn(fmt.Sprintf("*Dates:*\n%s to %s (%s days)", ev.StartDate, ev.EndDate, ev.TotalDays)),
	}
	if ev.Comment != "" {
		fields = append(fields, mrkdwn("*Comment:*\n"+ev.Comment))
	}
	body := slackapi.NewSectionBlock(nil, fields, nil)

	blocks := []slackapi.Block{header, body}
	if actions := leaveActions(ev); actions != nil {
		blocks = append(blocks, actions)
	}
	return blocks
}

func (d *SlackDispatcher) requestBlocks(ev events.RequestTransition) []slackapi.Block {
	header := slackapi.NewHeaderBlock(
		slackapi.NewTextBlockObject(slackapi.PlainTextType, requestHeadline(ev), false, false),
	)

	fields := []*slackapi.TextBlockObject{
		mrkdwn("*Request:*\n" + ev.RequestNumber),
		mrkdwn("*Employee:*\n" + ev.EmployeeName),
		mrkdwn("*Detail:*\n" + ev.Detail),
		mrkdwn("*Status:*\n" + ev.Status),
	}
	if ev.Comment != "" {
		fields = append(fields, mrkdwn("*Comment:*\n"+ev.Comment))
	}

	return []slackapi.Block{header, slackapi.NewSectionBlock(nil, fields, nil)}
}

// leaveActions attaches approve/reject buttons when the event lands the
// request in someone's queue. The button value pins request, stage, and
// decision; the gateway re-validates everything before acting.
func leaveActions(ev events.LeaveTransition) slackapi.Block {
	var stage string
	switch ev.EventType {
	case events.LeaveSubmitted:
		stage = "manager"
	case events.LeaveManagerApproved:
		if ev.Status != "PENDING_HR" {
			return nil
		}
		stage = "hr"
	default:
		return nil
	}

	approve := slackapi.NewButtonBlockElement(
		"leave_approve",
		buttonValue(ev.RequestID, "approve", stage),
		slackapi.NewTextBlockObject(slackapi.PlainTextType, "Approve", false, false),
	).WithStyle(slackapi.StylePrimary)

	reject := slackapi.NewButtonBlockElement(
		"leave_reject",
		buttonValue(ev.RequestID, "reject", stage),
		slackapi.NewTextBlockObject(slackapi.PlainTextType, "Reject", false, false),
	).WithStyle(slackapi.StyleDanger)

	return slackapi.NewActionBlock("leave_decision", approve, reject)
}

func buttonValue(requestID, decision, stage string) string {
	raw, _ := json.Marshal(map[string]string{
		"request_id": requestID,
		"decision":   decision,
		"stage":      stage,
	})
	return string(raw)
}

func leaveHeadline(ev events.LeaveTransition) string {
	switch ev.EventType {
	case events.LeaveSubmitted:
		return "New leave request"
	case events.LeaveManagerApproved:
		return "Leave approved by manager"
	case events.LeaveManagerRejected:
		return "Leave rejected by manager"
	case events.LeaveHRApproved:
		return "Leave fully approved"
	case events.LeaveHRRejected:
		return "Leave rejected by HR"
	case events.LeaveCancelled:
		return "Leave cancelled"
	default:
		return "Leave request update"
	}
}

func requestHeadline(ev events.RequestTransition) string {
	switch ev.EventType {
	case events.ClockInSubmitted:
		return "New missed clock-in request"
	case events.ClockInHRApproved:
		return "Missed clock-in approved"
	case events.ReimbursementSubmitted:
		return "New reimbursement request"
	case events.ReimbursementApproved:
		return "Reimbursement approved"
	case events.ReimbursementRejected:
		return "Reimbursement rejected"
	default:
		return "Request update"
	}
}

func mrkdwn(text string) *slackapi.TextBlockObject {
	return slackapi.NewTextBlockObject(slackapi.MarkdownType, text, false, false)
}
