package digest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"netwarden/internal/domain"
	"netwarden/internal/metrics"
	"netwarden/internal/notify"
	"netwarden/internal/store"
)

// tickInterval is how often due-checks run. Schedules have minute
// granularity, so a sub-minute tick never skips an occurrence.
const tickInterval = 30 * time.Second

// Summarizer runs the digest loop: every tick it checks each
// digest-enabled channel's schedule and, when due, collapses and sends
// the window's alert history. Per-channel last-sent instants are held in
// memory for fast checks and mirrored to the durable state store so a
// restart does not immediately re-fire a digest that already ran.
type Summarizer struct {
	channelRepo store.ChannelRepository
	historyRepo store.HistoryRepository
	state       store.DigestStateStore
	registry    *notify.Registry
	logger      *slog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewSummarizer creates a new digest summarizer.
func NewSummarizer(
	channelRepo store.ChannelRepository,
	historyRepo store.HistoryRepository,
	state store.DigestStateStore,
	registry *notify.Registry,
	logger *slog.Logger,
) *Summarizer {
	return &Summarizer{
		channelRepo: channelRepo,
		historyRepo: historyRepo,
		state:       state,
		registry:    registry,
		logger:      logger,
		lastSent:    make(map[string]time.Time),
		now:         time.Now,
	}
}

// Start begins the digest tick loop. This is a blocking call that runs
// until the context is canceled; an in-flight tick is allowed to finish.
func (s *Summarizer) Start(ctx context.Context) error {
	s.logger.Info("starting digest summarizer")
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping digest summarizer")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single due-check pass over all digest-enabled
// channels. Failures affect only the channel they occur on.
func (s *Summarizer) RunOnce(ctx context.Context) {
	channels, err := s.channelRepo.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to list channels for digest", "error", err)
		return
	}

	now := s.now().UTC()
	for _, channel := range channels {
		if !channel.DigestEnabled {
			continue
		}
		s.processChannel(ctx, channel, now)
	}
}

func (s *Summarizer) processChannel(ctx context.Context, channel *domain.Channel, now time.Time) {
	schedule, err := ParseSchedule(channel.Schedule())
	if err != nil {
		// Malformed schedules never fire.
		s.logger.Debug("unparseable digest schedule, skipping channel",
			"channelID", channel.ID,
			"schedule", channel.Schedule(),
			"error", err,
		)
		return
	}

	lastSent, err := s.lastSentFor(ctx, channel.ID)
	if err != nil {
		s.logger.Error("failed to load digest state, skipping channel",
			"channelID", channel.ID,
			"error", err,
		)
		return
	}

	if !schedule.Due(lastSent, now) {
		return
	}

	since := now.Add(-schedule.Window())
	entries, err := s.historyRepo.ListSince(ctx, since)
	if err != nil {
		s.logger.Error("failed to fetch history for digest",
			"channelID", channel.ID,
			"error", err,
		)
		return
	}

	if len(entries) == 0 {
		// An empty period must not re-trigger every tick.
		s.logger.Debug("no alerts in digest window, marking sent",
			"channelID", channel.ID,
		)
		metrics.DigestsSentTotal.WithLabelValues(string(channel.Type), "empty").Inc()
		s.markSent(ctx, channel.ID, now)
		return
	}

	sender := s.registry.Lookup(channel.Type)
	if sender == nil {
		s.logger.Warn("no sender registered for channel type, skipping digest",
			"channelID", channel.ID,
			"channelType", channel.Type,
		)
		return
	}

	collapsed := Collapse(entries)
	metrics.DigestBatchSize.Observe(float64(len(entries)))
	metrics.DigestCollapsedSize.Observe(float64(len(collapsed)))

	// The summary counts the uncollapsed set.
	summary := notify.Summarize(entries, since, now)

	if err := sender.SendDigest(ctx, collapsed, channel, summary); err != nil {
		metrics.DigestsSentTotal.WithLabelValues(string(channel.Type), "failure").Inc()
		s.logger.Error("digest delivery failed",
			"channelID", channel.ID,
			"channelType", channel.Type,
			"error", err,
		)
		return
	}

	metrics.DigestsSentTotal.WithLabelValues(string(channel.Type), "success").Inc()
	s.logger.Info("digest sent",
		"channelID", channel.ID,
		"entries", len(entries),
		"collapsed", len(collapsed),
	)
	s.markSent(ctx, channel.ID, now)
}

// lastSentFor returns the channel's last-sent instant, loading it from
// the durable store on first use. Zero time means never sent.
func (s *Summarizer) lastSentFor(ctx context.Context, channelID string) (time.Time, error) {
	s.mu.Lock()
	cached, ok := s.lastSent[channelID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	loaded, err := s.state.GetLastSent(ctx, channelID)
	if err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	s.lastSent[channelID] = loaded
	s.mu.Unlock()
	return loaded, nil
}

// markSent records last-sent = now in memory and durably. A durable
// write failure is logged but does not roll back the in-memory mark;
// the next check's availability wins over restart-safety.
func (s *Summarizer) markSent(ctx context.Context, channelID string, now time.Time) {
	s.mu.Lock()
	s.lastSent[channelID] = now
	s.mu.Unlock()

	if err := s.state.SetLastSent(ctx, channelID, now); err != nil {
		s.logger.Warn("failed to persist digest state",
			"channelID", channelID,
			"error", err,
		)
	}
}
