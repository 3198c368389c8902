package integration

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"netwarden/internal/cooldown"
	"netwarden/internal/correlate"
	"netwarden/internal/digest"
	"netwarden/internal/domain"
	"netwarden/internal/ingest"
	"netwarden/internal/notify"
	"netwarden/internal/pipeline"
	"netwarden/internal/queue/memory"
	"netwarden/internal/rules"
	storemem "netwarden/internal/store/memory"
)

// captureSender records every alert and digest it receives.
type captureSender struct {
	mu      sync.Mutex
	alerts  []*domain.HistoryEntry
	digests [][]*domain.HistoryEntry
}

func (c *captureSender) Send(_ context.Context, _ *domain.Event, entry *domain.HistoryEntry, _ *domain.Channel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, entry)
	return nil
}

func (c *captureSender) SendDigest(_ context.Context, entries []*domain.HistoryEntry, _ *domain.Channel, _ notify.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.digests = append(c.digests, entries)
	return nil
}

func (c *captureSender) alertCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

func (c *captureSender) digestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.digests)
}

var _ = Describe("Alert processing flow", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		bus       *memory.Queue
		ruleRepo  *storemem.RuleRepository
		chanRepo  *storemem.ChannelRepository
		histRepo  *storemem.HistoryRepository
		incidents *storemem.IncidentRepository
		state     *storemem.DigestStateStore
		sender    *captureSender
		ingestor  *ingest.Service
		pipe      *pipeline.Service
		summ      *digest.Summarizer
		done      chan struct{}
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		bus = memory.NewQueue(100)
		ruleRepo = storemem.NewRuleRepository()
		chanRepo = storemem.NewChannelRepository()
		histRepo = storemem.NewHistoryRepository()
		incidents = storemem.NewIncidentRepository()
		state = storemem.NewDigestStateStore()

		sender = &captureSender{}
		registry := notify.NewRegistry(logger)
		registry.Register(domain.ChannelTypeWebhook, sender)

		tracker := cooldown.NewTracker()
		evaluator := rules.NewEvaluator(tracker, logger)
		correlator := correlate.NewEngine(incidents, logger)

		ingestor = ingest.NewService(bus, logger)
		pipe = pipeline.NewService(bus, ruleRepo, chanRepo, histRepo, evaluator, correlator, tracker, registry, logger)
		summ = digest.NewSummarizer(chanRepo, histRepo, state, registry, logger)

		done = make(chan struct{})
		go func() {
			defer close(done)
			_ = pipe.Start(ctx)
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(BeClosed())
	})

	createRule := func(mutate func(*domain.Rule)) *domain.Rule {
		rule := &domain.Rule{
			ID:               "rule-1",
			Name:             "Interface down",
			Enabled:          true,
			EventTypePattern: "interface.*",
			MinSeverity:      domain.SeverityWarning,
			CooldownSeconds:  300,
			CreatedAt:        time.Now().UTC(),
			UpdatedAt:        time.Now().UTC(),
		}
		if mutate != nil {
			mutate(rule)
		}
		Expect(ruleRepo.Create(ctx, rule)).To(Succeed())
		return rule
	}

	createChannel := func(mutate func(*domain.Channel)) *domain.Channel {
		channel := &domain.Channel{
			ID:          "ch-1",
			Name:        "ops-webhook",
			Enabled:     true,
			Type:        domain.ChannelTypeWebhook,
			MinSeverity: domain.SeverityInfo,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if mutate != nil {
			mutate(channel)
		}
		Expect(chanRepo.Create(ctx, channel)).To(Succeed())
		return channel
	}

	makeEvent := func(deviceIP string) *domain.Event {
		return &domain.Event{
			Type:       "interface.down",
			Severity:   domain.SeverityError,
			Source:     "poller.core",
			Title:      "Interface down",
			Message:    "GigabitEthernet0/1 went down",
			DeviceID:   "dev-" + deviceIP,
			DeviceIP:   deviceIP,
			OccurredAt: time.Now().UTC(),
		}
	}

	Context("when an event matches an enabled rule", func() {
		It("persists history and delivers to eligible channels", func() {
			createRule(nil)
			createChannel(nil)

			Expect(ingestor.IngestEvent(ctx, makeEvent("10.0.0.1"))).To(Succeed())

			Eventually(func() int {
				entries, _ := histRepo.List(ctx, domain.HistoryFilter{})
				return len(entries)
			}).Should(Equal(1))

			entries, _ := histRepo.List(ctx, domain.HistoryFilter{})
			Expect(entries[0].RuleID).To(Equal("rule-1"))
			Expect(entries[0].DeliverySucceeded).To(BeTrue())
			Expect(entries[0].DeliveredTo).To(Equal("ch-1"))
			Expect(sender.alertCount()).To(Equal(1))
		})
	})

	Context("when the same device fires the same rule twice", func() {
		It("suppresses the repeat via cooldown", func() {
			createRule(nil)
			createChannel(nil)

			Expect(ingestor.IngestEvent(ctx, makeEvent("10.0.0.1"))).To(Succeed())
			Expect(ingestor.IngestEvent(ctx, makeEvent("10.0.0.1"))).To(Succeed())

			// A different device is unaffected by the first cooldown.
			Expect(ingestor.IngestEvent(ctx, makeEvent("10.0.0.2"))).To(Succeed())

			Eventually(func() int {
				entries, _ := histRepo.List(ctx, domain.HistoryFilter{})
				return len(entries)
			}).Should(Equal(2))

			Consistently(func() int {
				entries, _ := histRepo.List(ctx, domain.HistoryFilter{})
				return len(entries)
			}, "200ms").Should(Equal(2))
		})
	})

	Context("when related alerts fire on the same device", func() {
		It("correlates them into one incident", func() {
			createRule(nil)
			createRule(func(r *domain.Rule) {
				r.ID = "rule-2"
				r.EventTypePattern = "device.*"
			})

			Expect(ingestor.IngestEvent(ctx, makeEvent("10.0.0.1"))).To(Succeed())

			related := makeEvent("10.0.0.1")
			related.Type = "device.unreachable"
			related.Severity = domain.SeverityCritical
			Expect(ingestor.IngestEvent(ctx, related)).To(Succeed())

			Eventually(func() int {
				entries, _ := histRepo.List(ctx, domain.HistoryFilter{})
				return len(entries)
			}).Should(Equal(2))

			entries, _ := histRepo.List(ctx, domain.HistoryFilter{})
			Expect(entries[0].IncidentID).NotTo(BeEmpty())
			Expect(entries[1].IncidentID).To(Equal(entries[0].IncidentID))

			incident, err := incidents.GetByID(ctx, entries[0].IncidentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(incident.AlertCount).To(Equal(2))
			Expect(incident.Severity).To(Equal(domain.SeverityCritical))
		})
	})

	Context("when a rule is digest-only", func() {
		It("records history without immediate delivery and ships it in the digest", func() {
			createRule(func(r *domain.Rule) { r.DigestOnly = true })
			createChannel(func(c *domain.Channel) {
				c.DigestEnabled = true
				c.DigestSchedule = "daily:00:00"
			})

			Expect(ingestor.IngestEvent(ctx, makeEvent("10.0.0.1"))).To(Succeed())

			Eventually(func() int {
				entries, _ := histRepo.List(ctx, domain.HistoryFilter{})
				return len(entries)
			}).Should(Equal(1))
			Expect(sender.alertCount()).To(BeZero())

			// The channel has never been sent a digest, so the first
			// pass is due immediately.
			summ.RunOnce(ctx)
			Expect(sender.digestCount()).To(Equal(1))

			lastSent, err := state.GetLastSent(ctx, "ch-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(lastSent.IsZero()).To(BeFalse())

			// Already sent for this occurrence: a second pass is a no-op.
			summ.RunOnce(ctx)
			Expect(sender.digestCount()).To(Equal(1))
		})
	})
})
