package probeclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pulsecheck/controlplane/internal/domain/event"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

// ProbeError is returned for any network failure, non-2xx response,
// timeout, or malformed response body. Callers treat all of these the
// same way: at most one alternate-agent retry.
var ProbeError = errors.New("probeclient: probe failed")

const perCallTimeout = 5 * time.Second

type Config struct {
	Timeout   time.Duration
	Token     string
	VerifyTLS bool
}

// Client makes one outbound HTTP call per Probe invocation. It does not
// retry; the caller (the monitor worker) owns agent failover.
type Client struct {
	c     *http.Client
	token string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > perCallTimeout {
		timeout = perCallTimeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			MinVersion:         tls.VersionTLS12,
		},
	}
	return &Client{
		c:     &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(transport)},
		token: cfg.Token,
	}
}

type probeRequest struct {
	URL   string `json:"url"`
	Port  int    `json:"port"`
	Type  string `json:"type"`
	Token string `json:"token"`
}

type agentResponse struct {
	Availability string `json:"availability"`
	Ping         string `json:"ping"`
	Port         string `json:"port"`
	Reason       string `json:"reason"`
	Data         struct {
		Status string `json:"status"`
		Output string `json:"output"`
	} `json:"data"`
}

// Result is the normalized outcome of one probe call.
type Result struct {
	Availability     event.Availability
	Ping             event.Ping
	Port             event.Port
	Reason           string
	ResponseTimeMS   int64
	ConfirmedByAgent string
}

// Probe calls agentURL with a bounded timeout and returns a normalized
// result. Any failure collapses to ProbeError; the caller decides
// whether to retry against an alternate agent.
func (c *Client) Probe(ctx context.Context, agentURL string, m *monitor.Monitor) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, perCallTimeout)
	defer cancel()

	body, err := json.Marshal(probeRequest{
		URL:   m.URL,
		Port:  m.EffectivePort(),
		Type:  string(m.Kind),
		Token: c.token,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: encode request: %v", ProbeError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agentURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ProbeError, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.c.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ProbeError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: status %d", ProbeError, resp.StatusCode)
	}

	var ar agentResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ProbeError, err)
	}

	reason := ar.Data.Output
	if m.Kind == monitor.KindWeb {
		reason = ar.Data.Status
	}
	if reason == "" {
		reason = ar.Reason
	}
	if reason == "" && m.Kind == monitor.KindWeb {
		reason = fmt.Sprintf("%d", resp.StatusCode)
	}

	return Result{
		Availability:   normalizeAvailability(ar.Availability),
		Ping:           normalizePing(ar.Ping),
		Port:           normalizePort(ar.Port),
		Reason:         reason,
		ResponseTimeMS: elapsed.Milliseconds(),
	}, nil
}

func normalizeAvailability(s string) event.Availability {
	if s == string(event.AvailabilityUp) {
		return event.AvailabilityUp
	}
	return event.AvailabilityDown
}

func normalizePing(s string) event.Ping {
	if s == string(event.PingReachable) {
		return event.PingReachable
	}
	return event.PingUnreachable
}

func normalizePort(s string) event.Port {
	if s == string(event.PortOpen) {
		return event.PortOpen
	}
	return event.PortClosed
}
