package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrRuleNotFound is returned when a rule cannot be found.
var ErrRuleNotFound = errors.New("rule not found")

// Rule defines when an event should raise a notification.
// Rules are admin-managed, read-mostly, and cached by the pipeline.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string `json:"id"`

	// Name is a human-readable name for the rule.
	Name string `json:"name"`

	// Enabled controls whether the rule participates in evaluation.
	Enabled bool `json:"enabled"`

	// EventTypePattern is an exact event type ("device.offline") or a
	// trailing-wildcard prefix pattern ("audit.*").
	EventTypePattern string `json:"event_type_pattern"`

	// Source optionally restricts the rule to events from one source.
	// Empty means any source.
	Source string `json:"source,omitempty"`

	// MinSeverity is the minimum event severity for the rule to match.
	MinSeverity Severity `json:"min_severity"`

	// CooldownSeconds is the minimum time between two firings of this rule
	// for the same device (or globally). Zero means never suppress.
	CooldownSeconds int `json:"cooldown_seconds"`

	// ThresholdPercent optionally gates the rule on the event's
	// drop percentage context value. Nil means no threshold.
	ThresholdPercent *float64 `json:"threshold_percent,omitempty"`

	// TargetDevices is an optional comma-separated allow-list matched
	// against deviceId or deviceIp. Empty means all devices.
	TargetDevices string `json:"target_devices,omitempty"`

	// DigestOnly rules are recorded and correlated but never delivered
	// immediately; their matches only surface via digests.
	DigestOnly bool `json:"digest_only"`

	// CreatedAt is when the rule was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the rule was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation errors for Rule.
var (
	ErrEmptyRuleName         = errors.New("name is required")
	ErrEmptyEventTypePattern = errors.New("event_type_pattern is required")
	ErrInvalidMinSeverity    = errors.New("min_severity must be 'info', 'warning', 'error', or 'critical'")
	ErrNegativeCooldown      = errors.New("cooldown_seconds must not be negative")
)

// Validate checks if the rule has all required fields with valid values.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return ErrEmptyRuleName
	}
	if r.EventTypePattern == "" {
		return ErrEmptyEventTypePattern
	}
	if !r.MinSeverity.IsValid() {
		return ErrInvalidMinSeverity
	}
	if r.CooldownSeconds < 0 {
		return ErrNegativeCooldown
	}
	return nil
}

// MatchesEventType reports whether the event type matches the rule pattern.
// Patterns are matched case-insensitively. A pattern ending in ".*" matches
// any event type starting with the prefix followed by a literal dot, so
// "audit.*" matches "audit.completed" but not "auditor.x" or "audit".
func (r *Rule) MatchesEventType(eventType string) bool {
	pattern := strings.ToLower(r.EventTypePattern)
	et := strings.ToLower(eventType)

	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(et, prefix+".")
	}
	return et == pattern
}

// MatchesSource reports whether the event source passes the rule's source
// filter. An empty filter matches any source.
func (r *Rule) MatchesSource(source string) bool {
	if r.Source == "" {
		return true
	}
	return strings.EqualFold(r.Source, source)
}

// MatchesDevice reports whether the event's device identity passes the
// rule's target-device allow-list. The list is comma-separated, trimmed and
// case-insensitive; an empty list matches everything. A device matches if
// either its id or its ip is listed.
func (r *Rule) MatchesDevice(deviceID, deviceIP string) bool {
	if strings.TrimSpace(r.TargetDevices) == "" {
		return true
	}
	for _, target := range strings.Split(r.TargetDevices, ",") {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.EqualFold(target, deviceID) || strings.EqualFold(target, deviceIP) {
			return true
		}
	}
	return false
}

// PassesThreshold reports whether the event passes the rule's percentage
// threshold. Rules without a threshold always pass. The value is read from
// context["drop_percent"], falling back to context["drop"]. Events carrying
// no such key pass through: a missing measurement must not block the rule.
func (r *Rule) PassesThreshold(ctx map[string]string) bool {
	if r.ThresholdPercent == nil {
		return true
	}

	raw, ok := ctx["drop_percent"]
	if !ok {
		raw, ok = ctx["drop"]
	}
	if !ok {
		return true
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		// Unparseable values are treated permissively.
		return true
	}
	return value >= *r.ThresholdPercent
}

// CreateRuleRequest represents the input for creating a new rule.
type CreateRuleRequest struct {
	Name             string   `json:"name"`
	Enabled          *bool    `json:"enabled"`
	EventTypePattern string   `json:"event_type_pattern"`
	Source           string   `json:"source"`
	MinSeverity      Severity `json:"min_severity"`
	CooldownSeconds  int      `json:"cooldown_seconds"`
	ThresholdPercent *float64 `json:"threshold_percent"`
	TargetDevices    string   `json:"target_devices"`
	DigestOnly       bool     `json:"digest_only"`
}

// ToRule converts the request to a Rule entity.
func (req *CreateRuleRequest) ToRule(id string) *Rule {
	now := time.Now().UTC()
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return &Rule{
		ID:               id,
		Name:             req.Name,
		Enabled:          enabled,
		EventTypePattern: req.EventTypePattern,
		Source:           req.Source,
		MinSeverity:      req.MinSeverity,
		CooldownSeconds:  req.CooldownSeconds,
		ThresholdPercent: req.ThresholdPercent,
		TargetDevices:    req.TargetDevices,
		DigestOnly:       req.DigestOnly,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// UpdateRuleRequest represents the input for updating a rule.
type UpdateRuleRequest struct {
	Name             string   `json:"name"`
	Enabled          bool     `json:"enabled"`
	EventTypePattern string   `json:"event_type_pattern"`
	Source           string   `json:"source"`
	MinSeverity      Severity `json:"min_severity"`
	CooldownSeconds  int      `json:"cooldown_seconds"`
	ThresholdPercent *float64 `json:"threshold_percent"`
	TargetDevices    string   `json:"target_devices"`
	DigestOnly       bool     `json:"digest_only"`
}

// ApplyTo updates an existing Rule with the request values.
func (req *UpdateRuleRequest) ApplyTo(r *Rule) {
	r.Name = req.Name
	r.Enabled = req.Enabled
	r.EventTypePattern = req.EventTypePattern
	r.Source = req.Source
	r.MinSeverity = req.MinSeverity
	r.CooldownSeconds = req.CooldownSeconds
	r.ThresholdPercent = req.ThresholdPercent
	r.TargetDevices = req.TargetDevices
	r.DigestOnly = req.DigestOnly
	r.UpdatedAt = time.Now().UTC()
}
