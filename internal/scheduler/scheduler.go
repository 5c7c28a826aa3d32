package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"TrendScreener/internal/collector"
	"TrendScreener/internal/model"
	"TrendScreener/internal/notifier"
	"TrendScreener/internal/scanner"
	"TrendScreener/internal/universe"
)

// ErrScanRunning is returned when a pass is requested while one is in flight.
var ErrScanRunning = errors.New("scan already running")

// Scheduler runs screening passes on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Scanner  *scanner.Scanner
	Universe universe.Provider
	Notifier notifier.Sender
	Ctx      context.Context

	running atomic.Bool
	manual  sync.WaitGroup // passes started outside cron
	mu      sync.RWMutex
	last    *model.Report
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, p universe.Provider, sender notifier.Sender) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Scanner:  sc,
		Universe: p,
		Notifier: sender,
		Ctx:      ctx,
	}
}

// Register schedules the screening pass.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running passes, scheduled or
// manual, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.manual.Wait()
	log.Info().Msg("scheduler stopped")
}

// LastReport returns the most recent completed report, or nil.
func (s *Scheduler) LastReport() *model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// RunScanNow screens the universe once and keeps the report as the latest.
// Only one pass runs at a time.
func (s *Scheduler) RunScanNow() (*model.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanRunning
	}
	defer s.running.Store(false)

	report, err := s.Scanner.RunUniverse(s.Ctx, s.Universe)
	if err != nil {
		return report, err
	}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, nil
}

// RunScanAsync starts a pass in the background and reports it like a
// scheduled one. Stop waits for it.
func (s *Scheduler) RunScanAsync() {
	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		s.scanTask()
	}()
}

func (s *Scheduler) scanTask() {
	log.Info().Msg("running scheduled scan")
	report, err := s.RunScanNow()
	switch {
	case errors.Is(err, ErrScanRunning):
		log.Warn().Msg("previous scan still running, skipping")
		return
	case err != nil:
		log.Error().Err(err).Msg("scan failed")
		s.trySend(fmt.Sprintf("❌ <b>Scan failed</b>: %s", html.EscapeString(err.Error())))
		return
	}
	s.trySend(notifier.FormatScanReport(report))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/scan@MyBot" in group chats
	name, _, _ := strings.Cut(fields[0], "@")

	switch strings.ToLower(name) {
	case "/scan":
		if s.running.Load() {
			return "⏳ A scan is already running."
		}
		s.RunScanAsync()
		return "⏳ Scan started, the report follows when it finishes."
	case "/last":
		report := s.LastReport()
		if report == nil {
			return "No scan has completed yet. Send /scan to run one."
		}
		return notifier.FormatScanReport(report)
	case "/ticker":
		if len(fields) < 2 {
			return "Usage: /ticker SYM"
		}
		return s.screenTicker(ctx, fields[1])
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) screenTicker(ctx context.Context, raw string) string {
	syms := universe.Normalize([]string{raw})
	if len(syms) == 0 {
		return "Usage: /ticker SYM"
	}
	sym := syms[0]

	fctx, cancel := context.WithTimeout(ctx, s.Scanner.Options.FetchTimeout)
	defer cancel()
	res, err := s.Scanner.Collector.Screen(fctx, sym)
	if err != nil {
		log.Warn().Err(err).Str("ticker", sym).Msg("ticker lookup failed")
		return fmt.Sprintf("⚠️ %s: %s (%s)", html.EscapeString(sym), collector.Classify(err), html.EscapeString(err.Error()))
	}
	return notifier.FormatResult(res)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
