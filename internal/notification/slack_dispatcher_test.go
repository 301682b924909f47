package notification

import (
	"context"
	"errors"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"leaveflow/internal/events"
)

type fakePoster struct {
	channels []string
	err      error
}

func (f *fakePoster) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	f.channels = append(f.channels, channelID)
	return channelID, "", f.err
}

func newTestDispatcher(poster slackPoster) *SlackDispatcher {
	return &SlackDispatcher{client: poster, logger: zap.NewNop()}
}

func TestSlackDispatcher_LeaveTransition(t *testing.T) {
	t.Run("posts one DM per recipient", func(t *testing.T) {
		poster := &fakePoster{}
		d := newTestDispatcher(poster)

		d.LeaveTransition(context.Background(), events.LeaveTransition{
			EventType:         events.LeaveSubmitted,
			RequestNumber:     "LV-0001",
			RecipientSlackIDs: []string{"U01", "U02"},
		})

		assert.Equal(t, []string{"U01", "U02"}, poster.channels)
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		poster := &fakePoster{err: errors.New("channel_not_found")}
		d := newTestDispatcher(poster)

		assert.NotPanics(t, func() {
			d.LeaveTransition(context.Background(), events.LeaveTransition{
				EventType:         events.LeaveHRApproved,
				RecipientSlackIDs: []string{"U01"},
			})
		})
	})

	t.Run("no recipients means no posts", func(t *testing.T) {
		poster := &fakePoster{}
		d := newTestDispatcher(poster)

		d.LeaveTransition(context.Background(), events.LeaveTransition{EventType: events.LeaveCancelled})
		assert.Empty(t, poster.channels)
	})
}

func TestSlackDispatcher_RequestTransition(t *testing.T) {
	poster := &fakePoster{}
	d := newTestDispatcher(poster)

	d.RequestTransition(context.Background(), events.RequestTransition{
		EventType:         events.ReimbursementApproved,
		RequestNumber:     "RB-0002",
		RecipientSlackIDs: []string{"U07"},
	})

	assert.Equal(t, []string{"U07"}, poster.channels)
}

func TestLeaveActions(t *testing.T) {
	t.Run("submission carries manager stage buttons", func(t *testing.T) {
		block := leaveActions(events.LeaveTransition{
			EventType: events.LeaveSubmitted,
			RequestID: "req-1",
		})

		actions, ok := block.(*slackapi.ActionBlock)
		if assert.True(t, ok) {
			assert.Len(t, actions.Elements.ElementSet, 2)
			button, ok := actions.Elements.ElementSet[0].(*slackapi.ButtonBlockElement)
			if assert.True(t, ok) {
				assert.Equal(t, "leave_approve", button.ActionID)
				assert.Contains(t, button.Value, `"stage":"manager"`)
			}
		}
	})

	t.Run("manager approval carries hr stage buttons only while pending", func(t *testing.T) {
		block := leaveActions(events.LeaveTransition{
			EventType: events.LeaveManagerApproved,
			Status:    "PENDING_HR",
			RequestID: "req-1",
		})
		assert.NotNil(t, block)

		// EXTRA_WORK approves in one stage and needs no HR buttons.
		block = leaveActions(events.LeaveTransition{
			EventType: events.LeaveManagerApproved,
			Status:    "APPROVED",
			RequestID: "req-1",
		})
		assert.Nil(t, block)
	})

	t.Run("terminal events carry no buttons", func(t *testing.T) {
		assert.Nil(t, leaveActions(events.LeaveTransition{EventType: events.LeaveHRApproved}))
		assert.Nil(t, leaveActions(events.LeaveTransition{EventType: events.LeaveCancelled}))
	})
}
