package health

import (
	"errors"
	"testing"
	"time"
)

func TestSeverity_Rank(t *testing.T) {
	order := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, Severity("BOGUS")}
	for i, s := range order {
		if s.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", s, s.Rank(), i)
		}
	}
	if Severity("BOGUS").Valid() {
		t.Error("unknown severity reported valid")
	}
}

func TestStatus_Failed(t *testing.T) {
	tests := map[Status]bool{
		StatusPass:    false,
		StatusWarning: false,
		StatusFail:    true,
		StatusError:   true,
		StatusSkipped: false,
	}
	for s, want := range tests {
		if got := s.Failed(); got != want {
			t.Errorf("%s.Failed() = %v, want %v", s, got, want)
		}
	}
}

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		want error
	}{
		{"valid", Definition{ID: "a", Severity: SeverityLow}, nil},
		{"missing id", Definition{Severity: SeverityLow}, ErrMissingID},
		{"bad severity", Definition{ID: "a", Severity: "URGENT"}, ErrInvalidSeverity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewResult_Normalisation(t *testing.T) {
	def := Definition{ID: "lockfile", Name: "Lockfile", Domain: "project", Severity: SeverityHigh}

	tests := []struct {
		name         string
		out          Outcome
		wantTier     int
		wantHealable bool
		wantStatus   Status
	}{
		{"plain pass", Pass("ok"), 0, false, StatusPass},
		{"tier implies healable", Outcome{Status: StatusFail, HealingTier: 2}, 2, true, StatusFail},
		{"tier clamped high", Outcome{Status: StatusFail, HealingTier: 9}, 3, true, StatusFail},
		{"tier clamped low", Outcome{Status: StatusWarning, HealingTier: -1}, 0, false, StatusWarning},
		{"healable without tier", Outcome{Status: StatusWarning, Healable: true}, 0, true, StatusWarning},
		{"unknown status", Outcome{Status: "MAYBE"}, 0, false, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult(def, tt.out, time.Millisecond)
			if r.HealingTier != tt.wantTier || r.Healable != tt.wantHealable || r.Status != tt.wantStatus {
				t.Errorf("got tier=%d healable=%v status=%s", r.HealingTier, r.Healable, r.Status)
			}
			if r.CheckID != "lockfile" || r.Domain != "project" || r.Severity != SeverityHigh {
				t.Errorf("definition fields not copied: %+v", r)
			}
		})
	}
}

func TestOutcomeBuilders(t *testing.T) {
	o := Fail("missing").WithRecommendation("run npm install").WithHealing(1).WithDetails(map[string]any{"n": 1})
	if o.Status != StatusFail || o.Recommendation == "" || !o.Healable || o.HealingTier != 1 || o.Details["n"] != 1 {
		t.Errorf("outcome = %+v", o)
	}
	if Warn("w").Status != StatusWarning {
		t.Error("Warn status")
	}
}

func TestErrorAndSkippedResults(t *testing.T) {
	def := Definition{ID: "x", Severity: SeverityLow}

	e := ErrorResult(def, "boom", time.Second)
	if e.Status != StatusError || e.Healable || e.Message != "boom" {
		t.Errorf("ErrorResult = %+v", e)
	}

	s := SkippedResult(def, "Skipped")
	if s.Status != StatusSkipped || s.Duration != 0 {
		t.Errorf("SkippedResult = %+v", s)
	}
}

func TestHasCriticalFailure(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    bool
	}{
		{"empty", nil, false},
		{"critical pass", []Result{{Severity: SeverityCritical, Status: StatusPass}}, false},
		{"critical fail", []Result{{Severity: SeverityCritical, Status: StatusFail}}, true},
		{"critical error", []Result{{Severity: SeverityCritical, Status: StatusError}}, true},
		{"critical warning", []Result{{Severity: SeverityCritical, Status: StatusWarning}}, false},
		{"high fail", []Result{{Severity: SeverityHigh, Status: StatusFail}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCriticalFailure(tt.results); got != tt.want {
				t.Errorf("HasCriticalFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}
