// Package pipeline implements the core event processing loop.
// It consumes events from the event bus, evaluates rules against each
// event, records alert history, correlates alerts into incidents, and
// fans matched alerts out to delivery channels.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"netwarden/internal/cooldown"
	"netwarden/internal/correlate"
	"netwarden/internal/domain"
	"netwarden/internal/metrics"
	"netwarden/internal/notify"
	"netwarden/internal/queue"
	"netwarden/internal/rules"
	"netwarden/internal/store"
)

const (
	// ruleCacheTTL is how long the enabled-rule cache is served before
	// being refreshed from the repository.
	ruleCacheTTL = 60 * time.Second

	// sweepInterval is how often stale cooldown entries are evicted.
	sweepInterval = 30 * time.Minute

	// sweepHorizon is the age past which a cooldown entry is evicted.
	// Well beyond any plausible configured cooldown.
	sweepHorizon = 2 * time.Hour
)

// Service processes events from the event bus and manages the alert
// lifecycle. It is responsible for:
// - Consuming events from the event bus
// - Evaluating rules (with cooldown suppression) against each event
// - Persisting a history entry per rule match
// - Correlating alerts into incidents
// - Fanning matched alerts out to delivery channels
type Service struct {
	consumer    queue.Consumer
	ruleRepo    store.RuleRepository
	channelRepo store.ChannelRepository
	historyRepo store.HistoryRepository
	evaluator   *rules.Evaluator
	correlator  *correlate.Engine
	tracker     *cooldown.Tracker
	registry    *notify.Registry
	logger      *slog.Logger

	mu          sync.Mutex
	cachedRules []*domain.Rule
	refreshedAt time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a new pipeline service.
func NewService(
	consumer queue.Consumer,
	ruleRepo store.RuleRepository,
	channelRepo store.ChannelRepository,
	historyRepo store.HistoryRepository,
	evaluator *rules.Evaluator,
	correlator *correlate.Engine,
	tracker *cooldown.Tracker,
	registry *notify.Registry,
	logger *slog.Logger,
) *Service {
	return &Service{
		consumer:    consumer,
		ruleRepo:    ruleRepo,
		channelRepo: channelRepo,
		historyRepo: historyRepo,
		evaluator:   evaluator,
		correlator:  correlator,
		tracker:     tracker,
		registry:    registry,
		logger:      logger,
		now:         time.Now,
	}
}

// Start begins consuming events from the bus and processing them.
// This is a blocking call that runs until the context is canceled.
// The cooldown sweep runs on its own timer alongside the consumer.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting pipeline service")
	go s.sweepLoop(ctx)
	return s.consumer.Start(ctx, s.handleMessage)
}

// sweepLoop periodically evicts cooldown entries older than the horizon.
func (s *Service) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := s.tracker.Len()
			s.tracker.Cleanup(sweepHorizon)
			s.logger.Debug("cooldown sweep complete",
				"before", before,
				"after", s.tracker.Len(),
			)
		}
	}
}

// handleMessage is the callback for processing each message from the bus.
// A malformed or failing event never stops the consumer loop: errors are
// logged and the message is considered handled.
func (s *Service) handleMessage(ctx context.Context, msg *queue.Message) error {
	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		s.logger.Error("failed to deserialize event", "error", err)
		// Return nil to avoid reprocessing malformed messages
		return nil
	}

	start := s.now()
	metrics.EventsConsumedTotal.WithLabelValues(event.Source, string(event.Severity)).Inc()

	s.logger.Debug("processing event",
		"eventType", event.Type,
		"severity", event.Severity,
		"source", event.Source,
		"device", event.DeviceKey(),
	)

	matched := s.evaluator.Evaluate(&event, s.enabledRules(ctx))
	for _, rule := range matched {
		if err := s.processRuleMatch(ctx, rule, &event); err != nil {
			s.logger.Error("rule match processing failed",
				"ruleID", rule.ID,
				"eventType", event.Type,
				"error", err,
			)
		}
	}

	metrics.EventProcessingLatency.Observe(s.now().Sub(start).Seconds())
	return nil
}

// enabledRules returns the cached enabled-rule list, refreshing it from
// the repository when the cache is older than the TTL. A refresh failure
// keeps serving the stale cache.
func (s *Service) enabledRules(ctx context.Context) []*domain.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.now().Sub(s.refreshedAt) < ruleCacheTTL {
		return s.cachedRules
	}

	fresh, err := s.ruleRepo.ListEnabled(ctx)
	if err != nil {
		s.logger.Warn("rule cache refresh failed, serving stale cache",
			"cachedRules", len(s.cachedRules),
			"error", err,
		)
		metrics.RuleCacheRefreshFailuresTotal.Inc()
		return s.cachedRules
	}

	s.cachedRules = fresh
	s.refreshedAt = s.now()
	return s.cachedRules
}

// processRuleMatch runs the per-match sequence: persist history, correlate,
// deliver (unless digest-only), and finally record the cooldown. Delivery
// and correlation failures are recorded or logged but do not abort the
// match; only a failed history write does, so the rule does not enter
// cooldown for an alert that was never recorded.
func (s *Service) processRuleMatch(ctx context.Context, rule *domain.Rule, event *domain.Event) error {
	entry := domain.NewHistoryEntry(rule, event, s.now().UTC())
	entry.ID = uuid.New().String()

	if err := s.historyRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist history entry: %w", err)
	}
	metrics.RuleMatchesTotal.WithLabelValues(rule.ID).Inc()

	if incident := s.correlator.Correlate(ctx, event, entry); incident != nil {
		entry.IncidentID = incident.ID
		if err := s.historyRepo.LinkIncident(ctx, entry.ID, incident.ID); err != nil {
			s.logger.Warn("failed to link incident to history entry",
				"entryID", entry.ID,
				"incidentID", incident.ID,
				"error", err,
			)
		}
	}

	if !rule.DigestOnly {
		outcome := s.deliver(ctx, event, entry)
		if err := s.historyRepo.UpdateDeliveryOutcome(ctx, entry.ID, outcome); err != nil {
			s.logger.Warn("failed to persist delivery outcome",
				"entryID", entry.ID,
				"error", err,
			)
		}
	}

	// The alert is recorded regardless of delivery outcome, so the
	// cooldown starts now either way.
	s.evaluator.RecordFired(rule, event)

	s.logger.Info("alert processed",
		"ruleID", rule.ID,
		"ruleName", rule.Name,
		"eventType", event.Type,
		"severity", event.Severity,
		"digestOnly", rule.DigestOnly,
		"incidentID", entry.IncidentID,
	)
	return nil
}

// deliver fans the alert out to every enabled channel whose minimum
// severity admits the event. Channels are attempted independently; one
// channel's failure never blocks the others. The aggregated outcome is
// returned for persistence onto the history entry.
func (s *Service) deliver(ctx context.Context, event *domain.Event, entry *domain.HistoryEntry) domain.DeliveryOutcome {
	channels, err := s.channelRepo.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to list channels for delivery", "error", err)
		return domain.DeliveryOutcome{
			Error: fmt.Sprintf("failed to list channels: %v", err),
		}
	}

	var delivered []string
	var errs []string

	for _, channel := range channels {
		if !event.Severity.AtLeast(channel.MinSeverity) {
			continue
		}

		sender := s.registry.Lookup(channel.Type)
		if sender == nil {
			s.logger.Warn("no sender registered for channel type, skipping",
				"channelID", channel.ID,
				"channelType", channel.Type,
			)
			continue
		}

		start := s.now()
		err := sender.Send(ctx, event, entry, channel)
		metrics.DeliveryLatency.Observe(s.now().Sub(start).Seconds())

		if err != nil {
			metrics.DeliveriesTotal.WithLabelValues(string(channel.Type), "failure").Inc()
			errs = append(errs, fmt.Sprintf("%s (%s): %v", channel.ID, channel.Name, err))
			s.logger.Error("delivery failed",
				"channelID", channel.ID,
				"channelType", channel.Type,
				"error", err,
			)
			continue
		}

		metrics.DeliveriesTotal.WithLabelValues(string(channel.Type), "success").Inc()
		delivered = append(delivered, channel.ID)
	}

	return domain.DeliveryOutcome{
		DeliveredTo: strings.Join(delivered, ","),
		Succeeded:   len(delivered) > 0 && len(errs) == 0,
		Error:       strings.Join(errs, "; "),
	}
}

// Stop gracefully stops the pipeline service.
func (s *Service) Stop() error {
	s.logger.Info("stopping pipeline service")
	return s.consumer.Close()
}
