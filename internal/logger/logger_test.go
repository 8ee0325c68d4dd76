package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	expectedDir := filepath.Join(realTmpDir, defaultLogDirName)
	if realGot != expectedDir {
		t.Fatalf("unexpected log dir: got=%s expected=%s", realGot, expectedDir)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestForTenantAttachesTenantField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	previous := L
	L = zap.New(core)
	t.Cleanup(func() { L = previous })

	ForTenant(42, "goal_id", 7).Infow("goal_progress_updated", "employee_id", 3)

	entries := logs.FilterMessage("goal_progress_updated").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["tenant_id"] != uint64(42) || fields["goal_id"] != int64(7) {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestResolveLevel(t *testing.T) {
	cases := []struct {
		name  string
		mode  string
		level string
		want  zapcore.Level
	}{
		{name: "debug mode default", mode: "debug", want: zapcore.DebugLevel},
		{name: "release mode default", mode: "release", want: zapcore.InfoLevel},
		{name: "explicit level wins", mode: "debug", level: "WARN", want: zapcore.WarnLevel},
		{name: "unknown level falls back", mode: "release", level: "verbose", want: zapcore.InfoLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveLevel(tc.mode, tc.level); got != tc.want {
				t.Fatalf("want %s got %s", tc.want, got)
			}
		})
	}
}

func TestNewReleaseTagsServiceAndFiltersLevel(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "svc.log", Level: "warn", Service: "compensation-engine"})
	log.Info("commission_calculated")
	log.Warn("commission_calculate_failed")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "svc.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "commission_calculated") {
		t.Fatalf("expected info entry to be filtered, got=%s", text)
	}
	if !strings.Contains(text, "commission_calculate_failed") || !strings.Contains(text, `"service":"compensation-engine"`) {
		t.Fatalf("expected warn entry tagged with service, got=%s", text)
	}
}
