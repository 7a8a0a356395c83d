package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pulsecheck/controlplane/internal/domain/agent"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handlers) monitorStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid monitor id")
		return
	}
	m, err := h.Monitors.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, "monitor not found")
		return
	}
	last, err := h.Events.Latest(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "lookup latest event")
		return
	}

	resp := struct {
		MonitorID      int64  `json:"monitor_id"`
		Kind           string `json:"kind"`
		IsPaused       bool   `json:"is_paused"`
		State          string `json:"state"`
		SinceUnixMilli int64  `json:"since_unix_milli,omitempty"`
	}{
		MonitorID: m.ID,
		Kind:      string(m.Kind),
		IsPaused:  m.IsPaused,
		State:     "Unknown",
	}
	if last != nil {
		resp.State = last.Authoritative(m.Kind)
		resp.SinceUnixMilli = last.Timestamp.UnixMilli()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) monitorUptime(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid monitor id")
		return
	}
	days := 7.0
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeErr(w, http.StatusBadRequest, "invalid days")
			return
		}
		days = v
	}
	m, err := h.Monitors.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, "monitor not found")
		return
	}
	pct, err := h.Agg.RollingUptimePercent(r.Context(), m, days)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "compute uptime")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"monitor_id": id, "days": days, "uptime_percent": pct})
}

func (h *Handlers) monitorEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid monitor id")
		return
	}
	var cursor int64
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		cursor = v
	}
	events, err := h.Agg.EventHistory(r.Context(), id, cursor)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "fetch events")
		return
	}
	var next int64
	if len(events) > 0 {
		next = events[len(events)-1].ID
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "next_cursor": next})
}

func (h *Handlers) userStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	stats, err := h.Agg.MonitoringStats(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) latestDowntime(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("userId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid userId")
			return
		}
		userID = v
	}
	dt, err := h.Agg.LatestDowntime(r.Context(), userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "fetch downtime")
		return
	}
	if dt == nil {
		writeJSON(w, http.StatusOK, map[string]any{"downtime": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":            dt.Event,
		"duration_seconds": dt.Duration.Seconds(),
	})
}

type createMonitorRequest struct {
	UserID       *int64 `json:"user_id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	URL          string `json:"url"`
	Port         int    `json:"port"`
	FrequencyMin int    `json:"frequency_min"`
	AlertFreqMin int    `json:"alert_frequency_min"`
}

func (h *Handlers) createMonitor(w http.ResponseWriter, r *http.Request) {
	var req createMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.URL == "" || req.Name == "" {
		writeErr(w, http.StatusBadRequest, "name and url are required")
		return
	}
	if !monitor.IsValidFrequency(req.FrequencyMin) {
		writeErr(w, http.StatusBadRequest, "invalid frequency_min")
		return
	}
	if req.AlertFreqMin != 0 && !monitor.IsValidAlertFrequency(req.AlertFreqMin) {
		writeErr(w, http.StatusBadRequest, "invalid alert_frequency_min")
		return
	}

	kind := monitor.Kind(req.Kind)
	switch kind {
	case monitor.KindWeb, monitor.KindPing, monitor.KindPort:
	default:
		writeErr(w, http.StatusBadRequest, "invalid kind")
		return
	}

	m := &monitor.Monitor{
		UserID:       req.UserID,
		Name:         req.Name,
		Kind:         kind,
		URL:          req.URL,
		Port:         req.Port,
		FrequencyMin: req.FrequencyMin,
		AlertFreqMin: req.AlertFreqMin,
	}
	if err := h.Monitors.Create(r.Context(), m); err != nil {
		writeErr(w, http.StatusInternalServerError, "create monitor")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type createAgentRequest struct {
	Type   string `json:"type"`
	Region string `json:"region"`
	URL    string `json:"url"`
}

func (h *Handlers) createAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.URL == "" {
		writeErr(w, http.StatusBadRequest, "url is required")
		return
	}
	typ := agent.Type(req.Type)
	switch typ {
	case agent.TypeMonitor, agent.TypeAlert:
	default:
		writeErr(w, http.StatusBadRequest, "invalid type")
		return
	}
	a := &agent.MonitorAgent{Type: typ, Region: req.Region, URL: req.URL}
	if err := h.Agents.Create(r.Context(), a); err != nil {
		writeErr(w, http.StatusInternalServerError, "create agent")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
