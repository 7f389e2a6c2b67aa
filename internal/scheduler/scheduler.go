// Package scheduler drives periodic feed checks. The interval is a setting,
// re-read every cycle, so changes apply without restarting anything.
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/vidsink/vidsink/internal/constants"
	"github.com/vidsink/vidsink/internal/logger"
	"github.com/vidsink/vidsink/internal/store"
)

type checker interface {
	CheckAll(ctx context.Context)
}

type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	repo    *store.DB
	checker checker
	logger  *logger.Logger

	// wake lets SetInterval cut a long sleep short
	wake chan struct{}

	// scaled down in tests
	tickUnit     time.Duration
	disabledWait time.Duration

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

func New(repo *store.DB, c checker, log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		ctx:          ctx,
		cancel:       cancel,
		repo:         repo,
		checker:      c,
		logger:       log.WithComponent("scheduler"),
		wake:         make(chan struct{}, 1),
		tickUnit:     time.Minute,
		disabledWait: constants.DisabledPollInterval,
	}
}

// Start launches the loop. Calling it again is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.wg.Add(1)
	go s.loop()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// SetInterval stores the new interval in minutes and wakes the loop so the
// change takes effect now rather than after the old sleep. Zero disables
// checking.
func (s *Scheduler) SetInterval(minutes int) error {
	if minutes < 0 {
		minutes = 0
	}
	if err := s.repo.SetSetting(constants.SettingRSSCheckInterval, strconv.Itoa(minutes)); err != nil {
		return err
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Interval reports the configured interval in minutes.
func (s *Scheduler) Interval() int {
	return s.readInterval()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	for {
		minutes := s.readInterval()

		var wait time.Duration
		if minutes == 0 {
			wait = s.disabledWait
		} else {
			wait = time.Duration(minutes) * s.tickUnit
		}

		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			// Interval changed; recompute the sleep
			timer.Stop()
			continue
		case <-timer.C:
		}

		// The setting may have changed during the sleep
		if s.readInterval() == 0 {
			continue
		}

		s.logger.Debug("Running scheduled feed check")
		s.checker.CheckAll(s.ctx)
	}
}

func (s *Scheduler) readInterval() int {
	value, err := s.repo.GetSetting(constants.SettingRSSCheckInterval)
	if err != nil {
		s.logger.Error("Failed to read check interval", "error", err)
		return constants.DefaultCheckInterval
	}
	if value == "" {
		return constants.DefaultCheckInterval
	}
	minutes, err := strconv.Atoi(value)
	if err != nil || minutes < 0 {
		s.logger.Warn("Invalid check interval setting", "value", value)
		return constants.DefaultCheckInterval
	}
	return minutes
}
