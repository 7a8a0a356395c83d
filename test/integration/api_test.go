//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestAPI_CreateMonitorAndReadStatus(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.APIBase+"/healthz", 90*time.Second)

	createReq := map[string]any{
		"name":          fmt.Sprintf("it-monitor-%d", RandID()),
		"kind":          "web",
		"url":           "https://example.com",
		"frequency_min": 5,
	}
	body, _ := json.Marshal(createReq)
	resp := HTTPDoJSON(t, "POST", cfg.APIBase+"/v1/monitors", body, 201)

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp, &created); err != nil {
		t.Fatalf("unmarshal create response: %v body=%s", err, string(resp))
	}
	if created.ID == 0 {
		t.Fatalf("expected nonzero monitor id, body=%s", string(resp))
	}

	statusResp := HTTPDoJSON(t, "GET", fmt.Sprintf("%s/v1/monitors/%d/status", cfg.APIBase, created.ID), nil, 200)
	var status struct {
		MonitorID int64  `json:"monitor_id"`
		State     string `json:"state"`
	}
	if err := json.Unmarshal(statusResp, &status); err != nil {
		t.Fatalf("unmarshal status response: %v body=%s", err, string(statusResp))
	}
	if status.MonitorID != created.ID {
		t.Fatalf("status monitor_id mismatch: got %d want %d", status.MonitorID, created.ID)
	}
	if status.State != "Unknown" {
		t.Fatalf("expected fresh monitor state Unknown, got %q", status.State)
	}
}

func TestAPI_CreateMonitor_RejectsBadFrequency(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.APIBase+"/healthz", 90*time.Second)

	createReq := map[string]any{
		"name":          "it-bad-freq",
		"kind":          "web",
		"url":           "https://example.com",
		"frequency_min": 7,
	}
	body, _ := json.Marshal(createReq)
	_ = HTTPDoJSON(t, "POST", cfg.APIBase+"/v1/monitors", body, 400)
}

func TestAPI_MonitorStatus_UnknownIsNotFound(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.APIBase+"/healthz", 90*time.Second)
	_ = HTTPDoJSON(t, "GET", fmt.Sprintf("%s/v1/monitors/%d/status", cfg.APIBase, RandID()), nil, 404)
}
