package digest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"netwarden/internal/domain"
	"netwarden/internal/notify"
	storemem "netwarden/internal/store/memory"
)

// digestSender records digest deliveries and can be primed to fail.
type digestSender struct {
	mu          sync.Mutex
	calls       int
	lastEntries []*domain.HistoryEntry
	lastSummary notify.Summary
	err         error
}

func (d *digestSender) Send(_ context.Context, _ *domain.Event, _ *domain.HistoryEntry, _ *domain.Channel) error {
	return nil
}

func (d *digestSender) SendDigest(_ context.Context, entries []*domain.HistoryEntry, _ *domain.Channel, summary notify.Summary) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.calls++
	d.lastEntries = entries
	d.lastSummary = summary
	return nil
}

func (d *digestSender) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// failingStateStore accepts reads but rejects writes.
type failingStateStore struct {
	*storemem.DigestStateStore
}

func (f *failingStateStore) SetLastSent(_ context.Context, _ string, _ time.Time) error {
	return errors.New("redis unavailable")
}

type summarizerDeps struct {
	summarizer  *Summarizer
	channelRepo *storemem.ChannelRepository
	historyRepo *storemem.HistoryRepository
	state       *storemem.DigestStateStore
	sender      *digestSender
}

func summarizerSetup() *summarizerDeps {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	channelRepo := storemem.NewChannelRepository()
	historyRepo := storemem.NewHistoryRepository()
	state := storemem.NewDigestStateStore()

	sender := &digestSender{}
	registry := notify.NewRegistry(logger)
	registry.Register(domain.ChannelTypeWebhook, sender)

	summarizer := NewSummarizer(channelRepo, historyRepo, state, registry, logger)

	return &summarizerDeps{
		summarizer:  summarizer,
		channelRepo: channelRepo,
		historyRepo: historyRepo,
		state:       state,
		sender:      sender,
	}
}

func digestChannel(id, schedule string) *domain.Channel {
	return &domain.Channel{
		ID:             id,
		Name:           "digest-" + id,
		Enabled:        true,
		Type:           domain.ChannelTypeWebhook,
		MinSeverity:    domain.SeverityInfo,
		DigestEnabled:  true,
		DigestSchedule: schedule,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}

func seedHistory(t *testing.T, repo *storemem.HistoryRepository, triggeredAt time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		e := entry("poller", "interface.down", "Interface down", domain.SeverityError, triggeredAt.Add(time.Duration(i)*time.Minute))
		if err := repo.Create(context.Background(), e); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}
}

func TestSummarizer_SendsDueDigest(t *testing.T) {
	deps := summarizerSetup()
	ctx := context.Background()

	_ = deps.channelRepo.Create(ctx, digestChannel("ch-1", "daily:08:00"))
	_ = deps.state.SetLastSent(ctx, "ch-1", time.Date(2025, 3, 9, 8, 5, 0, 0, time.UTC))
	seedHistory(t, deps.historyRepo, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC), 3)

	// Not due just before the scheduled minute.
	deps.summarizer.now = func() time.Time { return time.Date(2025, 3, 10, 7, 59, 0, 0, time.UTC) }
	deps.summarizer.RunOnce(ctx)
	if deps.sender.callCount() != 0 {
		t.Fatalf("digest sent at 07:59, want none")
	}

	// Due at the scheduled minute.
	now := time.Date(2025, 3, 10, 8, 0, 15, 0, time.UTC)
	deps.summarizer.now = func() time.Time { return now }
	deps.summarizer.RunOnce(ctx)

	if deps.sender.callCount() != 1 {
		t.Fatalf("digest calls = %d, want 1", deps.sender.callCount())
	}
	if deps.sender.lastSummary.Total != 3 {
		t.Errorf("summary Total = %d, want 3 (uncollapsed count)", deps.sender.lastSummary.Total)
	}
	if deps.sender.lastSummary.BySeverity[domain.SeverityError] != 3 {
		t.Errorf("summary error count = %d, want 3", deps.sender.lastSummary.BySeverity[domain.SeverityError])
	}

	persisted, err := deps.state.GetLastSent(ctx, "ch-1")
	if err != nil {
		t.Fatalf("GetLastSent error: %v", err)
	}
	if !persisted.Equal(now) {
		t.Errorf("persisted last-sent = %v, want %v", persisted, now)
	}

	// Same tick window again: already sent, nothing new.
	deps.summarizer.RunOnce(ctx)
	if deps.sender.callCount() != 1 {
		t.Errorf("digest calls after repeat tick = %d, want 1", deps.sender.callCount())
	}
}

func TestSummarizer_EmptyWindowMarksSent(t *testing.T) {
	deps := summarizerSetup()
	ctx := context.Background()

	_ = deps.channelRepo.Create(ctx, digestChannel("ch-1", "daily:08:00"))

	now := time.Date(2025, 3, 10, 8, 1, 0, 0, time.UTC)
	deps.summarizer.now = func() time.Time { return now }
	deps.summarizer.RunOnce(ctx)

	if deps.sender.callCount() != 0 {
		t.Errorf("digest calls = %d, want 0 for empty window", deps.sender.callCount())
	}

	persisted, _ := deps.state.GetLastSent(ctx, "ch-1")
	if !persisted.Equal(now) {
		t.Errorf("persisted last-sent = %v, want %v (empty period marks sent)", persisted, now)
	}
}

func TestSummarizer_MalformedWeeklyNeverFires(t *testing.T) {
	deps := summarizerSetup()
	ctx := context.Background()

	_ = deps.channelRepo.Create(ctx, digestChannel("ch-1", "weekly:someday:08:00"))
	seedHistory(t, deps.historyRepo, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC), 2)

	deps.summarizer.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	deps.summarizer.RunOnce(ctx)

	if deps.sender.callCount() != 0 {
		t.Errorf("digest calls = %d, want 0 for malformed schedule", deps.sender.callCount())
	}
}

func TestSummarizer_DefaultScheduleApplied(t *testing.T) {
	deps := summarizerSetup()
	ctx := context.Background()

	// No schedule configured: defaults to daily:08:00 and a never-sent
	// channel is due once the occurrence has passed.
	_ = deps.channelRepo.Create(ctx, digestChannel("ch-1", ""))
	seedHistory(t, deps.historyRepo, time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC), 1)

	deps.summarizer.now = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 5, 0, time.UTC) }
	deps.summarizer.RunOnce(ctx)

	if deps.sender.callCount() != 1 {
		t.Errorf("digest calls = %d, want 1", deps.sender.callCount())
	}
}

func TestSummarizer_DigestDisabledSkipped(t *testing.T) {
	deps := summarizerSetup()
	ctx := context.Background()

	channel := digestChannel("ch-1", "daily:08:00")
	channel.DigestEnabled = false
	_ = deps.channelRepo.Create(ctx, channel)
	seedHistory(t, deps.historyRepo, time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC), 1)

	deps.summarizer.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	deps.summarizer.RunOnce(ctx)

	if deps.sender.callCount() != 0 {
		t.Errorf("digest calls = %d, want 0 for digest-disabled channel", deps.sender.callCount())
	}
}

func TestSummarizer_SendFailureRetriesNextTick(t *testing.T) {
	deps := summarizerSetup()
	ctx := context.Background()

	_ = deps.channelRepo.Create(ctx, digestChannel("ch-1", "daily:08:00"))
	seedHistory(t, deps.historyRepo, time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC), 2)

	deps.summarizer.now = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 15, 0, time.UTC) }

	deps.sender.err = errors.New("webhook timeout")
	deps.summarizer.RunOnce(ctx)

	persisted, _ := deps.state.GetLastSent(ctx, "ch-1")
	if !persisted.IsZero() {
		t.Errorf("last-sent persisted after failed send, want untouched")
	}

	// Transport recovers: the next tick delivers.
	deps.sender.err = nil
	deps.summarizer.RunOnce(ctx)
	if deps.sender.callCount() != 1 {
		t.Errorf("digest calls = %d, want 1 after retry", deps.sender.callCount())
	}
}

func TestSummarizer_DurableWriteFailureKeepsMemoryMark(t *testing.T) {
	deps := summarizerSetup()
	ctx := context.Background()

	deps.summarizer.state = &failingStateStore{DigestStateStore: deps.state}

	_ = deps.channelRepo.Create(ctx, digestChannel("ch-1", "daily:08:00"))
	seedHistory(t, deps.historyRepo, time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC), 2)

	deps.summarizer.now = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 15, 0, time.UTC) }
	deps.summarizer.RunOnce(ctx)
	if deps.sender.callCount() != 1 {
		t.Fatalf("digest calls = %d, want 1", deps.sender.callCount())
	}

	// The durable write failed, but the in-memory mark prevents an
	// immediate re-fire.
	deps.summarizer.RunOnce(ctx)
	if deps.sender.callCount() != 1 {
		t.Errorf("digest calls = %d, want 1 (in-memory mark holds)", deps.sender.callCount())
	}
}

func TestSummarizer_InfoNoiseCollapsedInDigest(t *testing.T) {
	deps := summarizerSetup()
	ctx := context.Background()

	_ = deps.channelRepo.Create(ctx, digestChannel("ch-1", "daily:08:00"))

	base := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		e := entry("poller", "config.changed", "Config changed", domain.SeverityInfo, base.Add(time.Duration(i)*time.Minute))
		_ = deps.historyRepo.Create(ctx, e)
	}

	deps.summarizer.now = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 15, 0, time.UTC) }
	deps.summarizer.RunOnce(ctx)

	if deps.sender.callCount() != 1 {
		t.Fatalf("digest calls = %d, want 1", deps.sender.callCount())
	}
	if len(deps.sender.lastEntries) != 1 {
		t.Errorf("collapsed entries = %d, want 1", len(deps.sender.lastEntries))
	}
	if deps.sender.lastSummary.Total != 4 {
		t.Errorf("summary Total = %d, want 4 (uncollapsed)", deps.sender.lastSummary.Total)
	}
}
