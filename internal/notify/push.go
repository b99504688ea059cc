package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rejectionhero/backend/internal/circuitbreaker"
	"github.com/rejectionhero/backend/internal/retry"
	"github.com/rejectionhero/backend/internal/security"
)

const (
	pushMaxAttempts  = 3
	pushBaseDelay    = 500 * time.Millisecond
	pushTripAfter    = 5
	pushOpenDuration = 30 * time.Second
)

// ErrGatewayUnavailable is returned while the gateway circuit is open.
var ErrGatewayUnavailable = fmt.Errorf("push gateway unavailable")

// PushSender posts notifications to the push gateway, signing each
// payload with HMAC-SHA256 so the gateway can authenticate the backend.
// A circuit breaker stops deliveries while the gateway is down.
type PushSender struct {
	url     string
	secret  string
	client  *http.Client
	breaker *circuitbreaker.Breaker
}

// NewPushSender creates a sender for the given gateway URL.
// The URL is validated against SSRF targets up front.
func NewPushSender(url, secret string) (*PushSender, error) {
	if err := security.ValidateEndpointURL(url); err != nil {
		return nil, fmt.Errorf("push gateway URL: %w", err)
	}
	return &PushSender{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: circuitbreaker.New("push_gateway", pushTripAfter, pushOpenDuration),
	}, nil
}

// Send posts the notification to the gateway, retrying transient failures.
// 4xx responses are treated as permanent. While the circuit is open the
// notification is dropped without touching the network.
func (p *PushSender) Send(ctx context.Context, n *Notification) error {
	if !p.breaker.Allow() {
		return ErrGatewayUnavailable
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = retry.Do(ctx, pushMaxAttempts, pushBaseDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", p.url, bytes.NewReader(payload))
		if err != nil {
			return retry.Permanent(err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-RejectionHero-Event", string(n.Type))
		req.Header.Set("X-RejectionHero-Timestamp", fmt.Sprintf("%d", n.CreatedAt.Unix()))
		req.Header.Set("X-RejectionHero-Signature", p.sign(payload))

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("push request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return retry.Permanent(fmt.Errorf("push rejected: status %d", resp.StatusCode))
		default:
			return fmt.Errorf("push failed: status %d", resp.StatusCode)
		}
	})
	if err != nil {
		p.breaker.RecordFailure()
		return err
	}
	p.breaker.RecordSuccess()
	return nil
}

func (p *PushSender) sign(payload []byte) string {
	h := hmac.New(sha256.New, []byte(p.secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Signature computes the HMAC hex digest for a payload and secret.
// Exported so gateway-side code and tests can verify signatures.
func Signature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
