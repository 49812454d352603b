//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
	"github.com/eliteGoblin/frickd/internal/infra"
	"github.com/eliteGoblin/frickd/internal/ledger"
	"github.com/eliteGoblin/frickd/internal/profile"
	"github.com/eliteGoblin/frickd/internal/usecase"
)

// recordingShield counts applies without touching real processes.
type recordingShield struct {
	applies []bool
	apps    [][]domain.AppID
}

func (s *recordingShield) Apply(apps []domain.AppID, categories []domain.CategoryID, blocking bool) error {
	s.applies = append(s.applies, blocking)
	s.apps = append(s.apps, apps)
	return nil
}

type grantingAuthorizer struct{}

func (grantingAuthorizer) RequestPermission(ctx context.Context) (bool, error) { return true, nil }

var _ = Describe("Blocking engine over the encrypted store", func() {
	var (
		dataDir  string
		spoolDir string
		state    *infra.StateDB
		shield   *recordingShield
		reader   *infra.SpoolTagReader
		logger   *zap.Logger
	)

	newEngine := func(now time.Time) *usecase.Engine {
		profiles, err := profile.NewStore(state, logger)
		Expect(err).NotTo(HaveOccurred())

		gate := usecase.NewAuthGate(grantingAuthorizer{}, logger)
		Expect(gate.Request(context.Background())).To(Equal(domain.AuthGranted))

		engine, err := usecase.NewEngine(usecase.EngineDeps{
			State:    state,
			Profiles: profiles,
			Tracker:  usecase.NewTracker(ledger.New(state)),
			Gate:     gate,
			Shield:   shield,
			Tags:     reader,
			Logger:   logger,
		}, now)
		Expect(err).NotTo(HaveOccurred())
		return engine
	}

	reopenStore := func() {
		Expect(state.Close()).To(Succeed())
		key, err := infra.EnsureKey(dataDir)
		Expect(err).NotTo(HaveOccurred())
		state, err = infra.NewStateDB(dataDir, key)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		dataDir = GinkgoT().TempDir()
		logger = zap.NewNop()
		shield = &recordingShield{}

		key, err := infra.EnsureKey(dataDir)
		Expect(err).NotTo(HaveOccurred())
		state, err = infra.NewStateDB(dataDir, key)
		Expect(err).NotTo(HaveOccurred())

		spoolDir = GinkgoT().TempDir()
		reader, err = infra.NewSpoolTagReader(spoolDir, logger)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(state.Close()).To(Succeed())
	})

	It("runs a full block/unblock cycle and accounts the time", func() {
		start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local)
		engine := newEngine(start)

		res, err := engine.HandleTag(start, usecase.DefaultTagPhrase)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Blocking).To(BeTrue())
		Expect(engine.ElapsedSession(start.Add(time.Minute))).To(Equal(time.Minute))

		end := start.Add(2 * time.Hour)
		res, err = engine.HandleTag(end, usecase.DefaultTagPhrase)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Blocking).To(BeFalse())
		Expect(res.Session).To(Equal(2 * time.Hour))

		total, err := engine.TodayTotal(end)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(2 * time.Hour))
	})

	It("survives a restart mid-session", func() {
		start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local)
		engine := newEngine(start)

		_, err := engine.HandleTag(start, usecase.DefaultTagPhrase)
		Expect(err).NotTo(HaveOccurred())

		// Process restarts: a fresh engine over the reopened store picks
		// the session back up.
		reopenStore()
		restartAt := start.Add(30 * time.Minute)
		engine = newEngine(restartAt)

		Expect(engine.IsBlocking()).To(BeTrue())
		Expect(engine.Session().StartedAt().Equal(start)).To(BeTrue())

		end := start.Add(time.Hour)
		res, err := engine.HandleTag(end, usecase.DefaultTagPhrase)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Session).To(Equal(time.Hour))
	})

	It("accumulates multiple sessions into the same day", func() {
		at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local)
		engine := newEngine(at)

		for _, d := range []time.Duration{10 * time.Minute, 25 * time.Minute} {
			_, err := engine.HandleTag(at, usecase.DefaultTagPhrase)
			Expect(err).NotTo(HaveOccurred())
			at = at.Add(d)
			_, err = engine.HandleTag(at, usecase.DefaultTagPhrase)
			Expect(err).NotTo(HaveOccurred())
			at = at.Add(5 * time.Minute)
		}

		total, err := engine.TodayTotal(at)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(35 * time.Minute))
	})

	It("keeps profile edits durable across restarts", func() {
		now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local)
		engine := newEngine(now)

		work, err := engine.AddProfile("Work", "💼", []domain.AppID{"slack"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.SelectProfile(work.ID)).To(Succeed())

		reopenStore()
		engine = newEngine(now)

		Expect(engine.CurrentProfile().ID).To(Equal(work.ID))
		Expect(engine.Profiles()).To(HaveLen(2))
	})

	It("re-applies the shield when switching profiles mid-session", func() {
		now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local)
		engine := newEngine(now)

		work, err := engine.AddProfile("Work", "", []domain.AppID{"slack"}, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = engine.HandleTag(now, usecase.DefaultTagPhrase)
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.SelectProfile(work.ID)).To(Succeed())

		last := shield.apps[len(shield.apps)-1]
		Expect(last).To(Equal([]domain.AppID{"slack"}))
		Expect(engine.IsBlocking()).To(BeTrue())
	})

	It("consumes a spooled payload end to end", func() {
		now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local)
		engine := newEngine(now)

		// Provision a tag, then play the scanner daemon: echo the
		// provisioned payload back through the scan spool.
		Expect(engine.WriteTag(context.Background())).To(Succeed())
		data, err := os.ReadFile(filepath.Join(spoolDir, "tag"))
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(spoolDir, "scan"), data, 0600)).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		payload, err := reader.Scan(ctx)
		Expect(err).NotTo(HaveOccurred())

		res, err := engine.HandleTag(time.Now(), payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Blocking).To(BeTrue())
	})
})
