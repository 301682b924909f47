package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	slackerrors "leaveflow/internal/slack/errors"
)

type fakeReplayCache struct {
	seen  map[string]bool
	calls int
}

func (f *fakeReplayCache) Register(ctx context.Context, signature string, ttl time.Duration) (bool, error) {
	f.calls++
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[signature] {
		return false, nil
	}
	f.seen[signature] = true
	return true, nil
}

func sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestVerifier(t *testing.T, replay ReplayCache, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier("8f742231b10e8888abcd99yyyzzz85a5", replay)
	assert.NoError(t, err)
	v.now = func() time.Time { return now }
	return v
}

func TestNewVerifier(t *testing.T) {
	t.Run("negative empty secret", func(t *testing.T) {
		_, err := NewVerifier("", nil)
		assert.Error(t, err)
	})
}

func TestVerifier_Verify(t *testing.T) {
	now := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	body := []byte("payload=%7B%22type%22%3A%22block_actions%22%7D")
	ts := strconv.FormatInt(now.Unix(), 10)
	secret := "8f742231b10e8888abcd99yyyzzz85a5"

	t.Run("valid signature accepted", func(t *testing.T) {
		replay := &fakeReplayCache{}
		v := newTestVerifier(t, replay, now)

		err := v.Verify(context.Background(), ts, sign(secret, ts, body), body)
		assert.NoError(t, err)
		assert.Equal(t, 1, replay.calls)
	})

	t.Run("negative missing headers", func(t *testing.T) {
		v := newTestVerifier(t, nil, now)

		err := v.Verify(context.Background(), "", "", body)
		assert.ErrorIs(t, err, slackerrors.ErrMissingSignature)
	})

	t.Run("negative stale timestamp rejected before any other work", func(t *testing.T) {
		replay := &fakeReplayCache{}
		v := newTestVerifier(t, replay, now)

		old := strconv.FormatInt(now.Add(-5*time.Minute-time.Second).Unix(), 10)
		err := v.Verify(context.Background(), old, sign(secret, old, body), body)
		assert.ErrorIs(t, err, slackerrors.ErrStaleTimestamp)
		assert.Zero(t, replay.calls)
	})

	t.Run("negative timestamp from the future", func(t *testing.T) {
		v := newTestVerifier(t, nil, now)

		future := strconv.FormatInt(now.Add(6*time.Minute).Unix(), 10)
		err := v.Verify(context.Background(), future, sign(secret, future, body), body)
		assert.ErrorIs(t, err, slackerrors.ErrStaleTimestamp)
	})

	t.Run("negative tampered body", func(t *testing.T) {
		v := newTestVerifier(t, nil, now)

		err := v.Verify(context.Background(), ts, sign(secret, ts, body), append([]byte(nil), []byte("payload=%7B%7D")...))
		assert.ErrorIs(t, err, slackerrors.ErrInvalidSignature)
	})

	t.Run("negative wrong secret", func(t *testing.T) {
		v := newTestVerifier(t, nil, now)

		err := v.Verify(context.Background(), ts, sign("another-secret", ts, body), body)
		assert.ErrorIs(t, err, slackerrors.ErrInvalidSignature)
	})

	t.Run("negative replayed signature", func(t *testing.T) {
		replay := &fakeReplayCache{}
		v := newTestVerifier(t, replay, now)

		sig := sign(secret, ts, body)
		assert.NoError(t, v.Verify(context.Background(), ts, sig, body))
		assert.ErrorIs(t, v.Verify(context.Background(), ts, sig, body), slackerrors.ErrReplayDetected)
	})
}
