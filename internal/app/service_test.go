package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/provider"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type stubService struct {
	name     string
	startErr error
	block    bool
	stopped  bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *stubService) Stop(ctx context.Context) error {
	s.stopped = true
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	failing := &stubService{name: "failing", startErr: errors.New("boom")}
	blocking := &stubService{name: "blocking", block: true}
	runner := NewRunner(failing, blocking)

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected start error, got %v", err)
	}
	if !failing.stopped || !blocking.stopped {
		t.Fatalf("expected every service to be stopped")
	}
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	blocking := &stubService{name: "blocking", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(blocking).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type recordingService struct {
	name string
	log  *eventLog
	fail bool
	done chan struct{}
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(ctx context.Context) error {
	if s.fail {
		return errors.New(s.name + " failed")
	}
	select {
	case <-ctx.Done():
	case <-s.done:
	}
	s.log.add("exit:" + s.name)
	return nil
}

func (s *recordingService) Stop(ctx context.Context) error {
	s.log.add("stop:" + s.name)
	close(s.done)
	return nil
}

func TestRunnerStopsInReverseOrderAndReleasesLast(t *testing.T) {
	log := &eventLog{}
	api := &recordingService{name: "api", log: log, done: make(chan struct{})}
	worker := &recordingService{name: "worker", log: log, done: make(chan struct{})}
	runner := NewRunner(api, worker)
	runner.onStop = func() error {
		log.add("release")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}

	events := log.snapshot()
	if len(events) != 5 || events[4] != "release" {
		t.Fatalf("expected release after every service exit, got %v", events)
	}
	stops := make([]string, 0, 2)
	for _, event := range events {
		if event == "stop:api" || event == "stop:worker" {
			stops = append(stops, event)
		}
	}
	if !reflect.DeepEqual(stops, []string{"stop:worker", "stop:api"}) {
		t.Fatalf("expected reverse stop order, got %v", stops)
	}
}

func TestRunnerReleasesOnStartFailure(t *testing.T) {
	log := &eventLog{}
	failing := &recordingService{name: "api", log: log, fail: true, done: make(chan struct{})}
	released := false
	runner := NewRunner(failing)
	runner.onStop = func() error {
		released = true
		return errors.New("close failed")
	}
	if err := runner.Run(context.Background(), time.Second, nil); err == nil || err.Error() != "api failed" {
		t.Fatalf("expected start error, got %v", err)
	}
	if !released {
		t.Fatalf("expected shared resources to be released")
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts := normalizeOptions(Options{Mode: " API "})
	if opts.Mode != ModeAPI || opts.Logger == nil || opts.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected normalized options %+v", opts)
	}
	if !ValidMode("worker") || ValidMode("cron") {
		t.Fatalf("unexpected mode validation")
	}
}

func TestBuildRunnerRequiresQueueForWorker(t *testing.T) {
	if _, err := BuildRunner(&config.Config{}, ModeWorker); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("expected queue disabled error, got %v", err)
	}
}

func TestBuildRunnerSkipsWorkerWithoutQueue(t *testing.T) {
	dsn := fmt.Sprintf("file:app_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	runner, err := buildRunner(cfg, ModeAll, provider.NewContainerWithDB(cfg, db))
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	if len(runner.services) != 1 || runner.services[0].Name() != "admin-api" {
		t.Fatalf("expected only the admin api service, got %d", len(runner.services))
	}
}
