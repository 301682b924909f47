package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	slackerrors "leaveflow/internal/slack/errors"
)

const (
	// Slack signs requests with version v0 and rejects anything older than
	// five minutes; the same window bounds our clock-skew tolerance.
	signatureVersion = "v0"
	timestampWindow  = 5 * time.Minute

	replayKeyPrefix = "slack:sig:"
)

// Verifier authenticates incoming Slack requests: HMAC signature check first,
// then a replay check against recently seen signatures. The timestamp window
// is enforced before anything else so stale requests cost no lookups.
type Verifier struct {
	signingSecret []byte
	replay        ReplayCache
	now           func() time.Time
}

// ReplayCache remembers signatures for the timestamp window. Register returns
// false when the signature was already present.
type ReplayCache interface {
	Register(ctx context.Context, signature string, ttl time.Duration) (bool, error)
}

func NewVerifier(signingSecret string, replay ReplayCache) (*Verifier, error) {
	// A missing secret must never degrade into accepting everything.
	if signingSecret == "" {
		return nil, errors.New("slack signing secret is required")
	}
	return &Verifier{
		signingSecret: []byte(signingSecret),
		replay:        replay,
		now:           time.Now,
	}, nil
}

// Verify checks the X-Slack-Request-Timestamp / X-Slack-Signature pair
// against the raw request body.
func (v *Verifier) Verify(ctx context.Context, timestamp, signature string, body []byte) error {
	if timestamp == "" || signature == "" {
		return slackerrors.ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return slackerrors.ErrStaleTimestamp
	}
	age := v.now().UTC().Sub(time.Unix(ts, 0))
	if age > timestampWindow || age < -timestampWindow {
		return slackerrors.ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, v.signingSecret)
	fmt.Fprintf(mac, "%s:%s:%s", signatureVersion, timestamp, body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return slackerrors.ErrInvalidSignature
	}

	if v.replay != nil {
		fresh, err := v.replay.Register(ctx, signature, timestampWindow)
		if err != nil {
			return err
		}
		if !fresh {
			return slackerrors.ErrReplayDetected
		}
	}
	return nil
}

type redisReplayCache struct {
	client *redis.Client
}

func NewRedisReplayCache(client *redis.Client) ReplayCache {
	return &redisReplayCache{client: client}
}

func (c *redisReplayCache) Register(ctx context.Context, signature string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, replayKeyPrefix+signature, "1", ttl).Result()
}
