// Package rules implements rule evaluation for incoming events.
// An evaluator checks each configured rule against an event and applies
// cooldown suppression through the cooldown tracker.
package rules

import (
	"log/slog"

	"netwarden/internal/cooldown"
	"netwarden/internal/domain"
	"netwarden/internal/metrics"
)

// Evaluator matches events against rules and gates matches on cooldown.
type Evaluator struct {
	tracker *cooldown.Tracker
	logger  *slog.Logger
}

// NewEvaluator creates a new rule evaluator backed by the given tracker.
func NewEvaluator(tracker *cooldown.Tracker, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		tracker: tracker,
		logger:  logger,
	}
}

// Evaluate returns the rules that match the event and are not suppressed
// by cooldown, in rule list order. Checks run cheapest first so most rules
// are rejected before the pattern match.
func (e *Evaluator) Evaluate(event *domain.Event, rules []*domain.Rule) []*domain.Rule {
	var matched []*domain.Rule

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if !event.Severity.AtLeast(rule.MinSeverity) {
			continue
		}
		if !rule.MatchesEventType(event.Type) {
			continue
		}
		if !rule.MatchesSource(event.Source) {
			continue
		}
		if !rule.MatchesDevice(event.DeviceID, event.DeviceIP) {
			continue
		}
		if !rule.PassesThreshold(event.Context) {
			continue
		}
		if e.tracker.IsInCooldown(CooldownKey(rule, event), rule.CooldownSeconds) {
			e.logger.Debug("rule suppressed by cooldown",
				"ruleID", rule.ID,
				"eventType", event.Type,
				"device", event.DeviceKey(),
			)
			metrics.CooldownSuppressionsTotal.WithLabelValues(rule.ID).Inc()
			continue
		}

		matched = append(matched, rule)
	}

	return matched
}

// RecordFired marks the rule as fired for the event's device scope.
// Callers invoke this after the match has been processed, so a rule whose
// processing failed outright does not enter cooldown.
func (e *Evaluator) RecordFired(rule *domain.Rule, event *domain.Event) {
	e.tracker.RecordFired(CooldownKey(rule, event))
}

// CooldownKey derives the suppression key for a rule/event pair:
// per-device when the event carries a device identity, global otherwise.
func CooldownKey(rule *domain.Rule, event *domain.Event) string {
	return rule.ID + ":" + event.DeviceKey()
}
