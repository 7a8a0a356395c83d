//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type cfg struct {
	APIBase     string
	MailhogBase string
	WaitAlert   time.Duration
}

func loadCfg() cfg {
	return cfg{
		APIBase:     getenv("E2E_API_BASE", "http://localhost:8080"),
		MailhogBase: getenv("E2E_MAILHOG_BASE", "http://localhost:8025"),
		WaitAlert:   mustParseDur(getenv("E2E_WAIT_ALERT", "60s")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustParseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

type createMonitorResp struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type createAgentResp struct {
	ID int64 `json:"id"`
}

type mailhogMessages struct {
	Count    int          `json:"count"`
	Total    int          `json:"total"`
	Messages []mailhogMsg `json:"items"`
}

type mailhogMsg struct {
	Content struct {
		Headers map[string][]string `json:"Headers"`
		Body    string              `json:"Body"`
	} `json:"Content"`
}

func postJSON(t *testing.T, url string, in any, out any, wantCode int) {
	t.Helper()
	b, _ := json.Marshal(in)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, wantCode, resp.StatusCode, "POST %s body=%s", url, string(body))
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out))
	}
}

func getJSON(t *testing.T, url string, into any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	all, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(all, into))
}

// Test_MonitorGoesDown_LeadsToAlertEmail creates a monitor pointed at a
// host that never resolves and a probe agent that always reports it
// down, then waits for the alert-notifier to deliver a mail for it.
func Test_MonitorGoesDown_LeadsToAlertEmail(t *testing.T) {
	c := loadCfg()

	for {
		resp, err := http.Get(c.APIBase + "/healthz")
		if err == nil && resp.StatusCode == 200 {
			resp.Body.Close()
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(1 * time.Second)
	}

	var agent createAgentResp
	postJSON(t, c.APIBase+"/v1/agents", map[string]string{
		"type": "monitorAgents",
		"url":  "http://probe-agent-down:9000",
	}, &agent, 201)
	require.NotZero(t, agent.ID)

	var mon createMonitorResp
	url := fmt.Sprintf("https://down-%d.e2e.invalid", time.Now().UnixNano())
	postJSON(t, c.APIBase+"/v1/monitors", map[string]any{
		"name":                "e2e-down-monitor",
		"kind":                "web",
		"url":                 url,
		"frequency_min":       1,
		"alert_frequency_min": 1,
	}, &mon, 201)
	require.NotZero(t, mon.ID)
	t.Logf("created monitor id=%d url=%s", mon.ID, url)

	deadline := time.Now().Add(c.WaitAlert)
	for time.Now().Before(deadline) {
		var msgs mailhogMessages
		getJSON(t, c.MailhogBase+"/api/v2/messages", &msgs)
		for _, m := range msgs.Messages {
			if strings.Contains(m.Content.Body, url) {
				t.Logf("alert email received for %s", url)
				return
			}
		}
		time.Sleep(2 * time.Second)
	}
	t.Fatalf("no alert email for monitor %d (%s) within %s", mon.ID, url, c.WaitAlert)
}
