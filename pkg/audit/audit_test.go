package audit

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry().
		Service("planner-svc").
		Method("/v1/networks").
		Action(ActionCreate).
		Outcome(OutcomeSuccess).
		User("operator").
		Client("127.0.0.1").
		Resource("network", "net-456").
		RequestID("req-789").
		Duration(100*time.Millisecond).
		Meta("stations", 12).
		Build()

	if entry.Service != "planner-svc" {
		t.Errorf("expected service 'planner-svc', got %s", entry.Service)
	}
	if entry.Method != "/v1/networks" {
		t.Errorf("expected method '/v1/networks', got %s", entry.Method)
	}
	if entry.Action != ActionCreate {
		t.Errorf("expected action CREATE, got %s", entry.Action)
	}
	if entry.Outcome != OutcomeSuccess {
		t.Errorf("expected outcome SUCCESS, got %s", entry.Outcome)
	}
	if entry.Username != "operator" {
		t.Errorf("expected username 'operator', got %s", entry.Username)
	}
	if entry.ClientIP != "127.0.0.1" {
		t.Errorf("expected clientIP '127.0.0.1', got %s", entry.ClientIP)
	}
	if entry.Resource != "network" {
		t.Errorf("expected resource 'network', got %s", entry.Resource)
	}
	if entry.ResourceID != "net-456" {
		t.Errorf("expected resourceID 'net-456', got %s", entry.ResourceID)
	}
	if entry.RequestID != "req-789" {
		t.Errorf("expected requestID 'req-789', got %s", entry.RequestID)
	}
	if entry.DurationMs != 100 {
		t.Errorf("expected durationMs 100, got %d", entry.DurationMs)
	}
	if entry.Metadata["stations"] != 12 {
		t.Errorf("expected metadata stations=12, got %v", entry.Metadata["stations"])
	}
	if entry.ID == "" {
		t.Error("expected ID to be generated")
	}
}

func TestBuildGeneratesUniqueIDs(t *testing.T) {
	a := NewEntry().Action(ActionSolve).Build()
	b := NewEntry().Action(ActionSolve).Build()

	if a.ID == b.ID {
		t.Errorf("expected distinct IDs, both were %s", a.ID)
	}
	if a.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestBuilder_Error(t *testing.T) {
	entry := NewEntry().
		Service("planner-svc").
		Method("/v1/networks/abc").
		Action(ActionDelete).
		Outcome(OutcomeFailure).
		Error("NOT_FOUND").
		Build()

	if entry.ErrorCode != "NOT_FOUND" {
		t.Errorf("expected errorCode 'NOT_FOUND', got %s", entry.ErrorCode)
	}
}

func TestEntry_MarshalJSON(t *testing.T) {
	entry := NewEntry().
		Service("planner-svc").
		Action(ActionSchedule).
		Outcome(OutcomeSuccess).
		Build()

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("failed to marshal entry: %v", err)
	}

	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal entry: %v", err)
	}

	if decoded.Service != entry.Service {
		t.Errorf("expected service %s, got %s", entry.Service, decoded.Service)
	}
	if decoded.Action != entry.Action {
		t.Errorf("expected action %s, got %s", entry.Action, decoded.Action)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal entry: %v", err)
	}
	if _, ok := raw["username"]; ok {
		t.Error("expected empty username to be omitted")
	}
	if _, ok := raw["error_code"]; ok {
		t.Error("expected empty error_code to be omitted")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("expected enabled to be true by default")
	}
	if cfg.Backend != "stdout" {
		t.Errorf("expected backend 'stdout', got %s", cfg.Backend)
	}
	if cfg.BufferSize != 1000 {
		t.Errorf("expected buffer size 1000, got %d", cfg.BufferSize)
	}
	if cfg.FlushPeriod != 5*time.Second {
		t.Errorf("expected flush period 5s, got %v", cfg.FlushPeriod)
	}
}

func TestAction_Constants(t *testing.T) {
	actions := []struct {
		action   Action
		expected string
	}{
		{ActionCreate, "CREATE"},
		{ActionDelete, "DELETE"},
		{ActionSolve, "SOLVE"},
		{ActionSelect, "SELECT"},
		{ActionSchedule, "SCHEDULE"},
		{ActionLogin, "LOGIN"},
	}

	for _, tc := range actions {
		if string(tc.action) != tc.expected {
			t.Errorf("expected action %s, got %s", tc.expected, tc.action)
		}
	}
}

func TestOutcome_Constants(t *testing.T) {
	outcomes := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomeSuccess, "SUCCESS"},
		{OutcomeFailure, "FAILURE"},
		{OutcomeDenied, "DENIED"},
	}

	for _, tc := range outcomes {
		if string(tc.outcome) != tc.expected {
			t.Errorf("expected outcome %s, got %s", tc.expected, tc.outcome)
		}
	}
}
