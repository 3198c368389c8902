package domain

import (
	"testing"
)

func TestRule_MatchesEventType(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		eventType string
		want      bool
	}{
		{name: "exact match", pattern: "device.offline", eventType: "device.offline", want: true},
		{name: "exact match is case insensitive", pattern: "Device.Offline", eventType: "device.offline", want: true},
		{name: "exact mismatch", pattern: "device.offline", eventType: "device.online", want: false},
		{name: "wildcard matches child", pattern: "audit.*", eventType: "audit.completed", want: true},
		{name: "wildcard matches other child", pattern: "audit.*", eventType: "audit.score_dropped", want: true},
		{name: "wildcard requires dot after prefix", pattern: "audit.*", eventType: "auditor.x", want: false},
		{name: "wildcard does not match bare prefix", pattern: "audit.*", eventType: "audit", want: false},
		{name: "wildcard matches deep type", pattern: "threat.*", eventType: "threat.detected.high", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{EventTypePattern: tt.pattern}
			if got := rule.MatchesEventType(tt.eventType); got != tt.want {
				t.Errorf("MatchesEventType(%q) with pattern %q = %v, want %v",
					tt.eventType, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestRule_MatchesDevice(t *testing.T) {
	tests := []struct {
		name     string
		targets  string
		deviceID string
		deviceIP string
		want     bool
	}{
		{name: "empty list matches everything", targets: "", deviceID: "abc", deviceIP: "10.0.0.1", want: true},
		{name: "whitespace list matches everything", targets: "  ", deviceID: "abc", want: true},
		{name: "matches by id", targets: "abc,def", deviceID: "abc", want: true},
		{name: "matches by ip", targets: "10.0.0.1, 10.0.0.2", deviceIP: "10.0.0.2", want: true},
		{name: "trimmed entries", targets: " abc , def ", deviceID: "def", want: true},
		{name: "case insensitive", targets: "AA:BB:CC", deviceID: "aa:bb:cc", want: true},
		{name: "no match", targets: "abc,def", deviceID: "xyz", deviceIP: "10.0.0.9", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{TargetDevices: tt.targets}
			if got := rule.MatchesDevice(tt.deviceID, tt.deviceIP); got != tt.want {
				t.Errorf("MatchesDevice(%q, %q) with targets %q = %v, want %v",
					tt.deviceID, tt.deviceIP, tt.targets, got, tt.want)
			}
		})
	}
}

func TestRule_PassesThreshold(t *testing.T) {
	threshold := 40.0

	tests := []struct {
		name    string
		rule    Rule
		context map[string]string
		want    bool
	}{
		{name: "no threshold always passes", rule: Rule{}, context: map[string]string{"drop_percent": "5"}, want: true},
		{name: "above threshold passes", rule: Rule{ThresholdPercent: &threshold}, context: map[string]string{"drop_percent": "42"}, want: true},
		{name: "equal to threshold passes", rule: Rule{ThresholdPercent: &threshold}, context: map[string]string{"drop_percent": "40"}, want: true},
		{name: "below threshold blocks", rule: Rule{ThresholdPercent: &threshold}, context: map[string]string{"drop_percent": "39.9"}, want: false},
		{name: "falls back to drop key", rule: Rule{ThresholdPercent: &threshold}, context: map[string]string{"drop": "50"}, want: true},
		{name: "missing key passes through", rule: Rule{ThresholdPercent: &threshold}, context: map[string]string{"other": "1"}, want: true},
		{name: "nil context passes through", rule: Rule{ThresholdPercent: &threshold}, context: nil, want: true},
		{name: "unparseable value passes through", rule: Rule{ThresholdPercent: &threshold}, context: map[string]string{"drop_percent": "n/a"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.PassesThreshold(tt.context); got != tt.want {
				t.Errorf("PassesThreshold(%v) = %v, want %v", tt.context, got, tt.want)
			}
		})
	}
}

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr error
	}{
		{
			name: "valid rule",
			rule: Rule{
				Name:             "Device Offline",
				EventTypePattern: "device.offline",
				MinSeverity:      SeverityWarning,
				CooldownSeconds:  300,
			},
			wantErr: nil,
		},
		{
			name:    "missing name",
			rule:    Rule{EventTypePattern: "device.offline", MinSeverity: SeverityWarning},
			wantErr: ErrEmptyRuleName,
		},
		{
			name:    "missing pattern",
			rule:    Rule{Name: "Device Offline", MinSeverity: SeverityWarning},
			wantErr: ErrEmptyEventTypePattern,
		},
		{
			name:    "invalid min severity",
			rule:    Rule{Name: "Device Offline", EventTypePattern: "device.offline", MinSeverity: "extreme"},
			wantErr: ErrInvalidMinSeverity,
		},
		{
			name: "negative cooldown",
			rule: Rule{
				Name:             "Device Offline",
				EventTypePattern: "device.offline",
				MinSeverity:      SeverityWarning,
				CooldownSeconds:  -1,
			},
			wantErr: ErrNegativeCooldown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rule.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
