package config

import (
	"errors"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/counterwatch/internal/calibration"
	"github.com/sweeney/counterwatch/internal/camera"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "0" {
		t.Errorf("Source: got %q", cfg.Source)
	}
	if cfg.DrawerEnter != 8000 || cfg.DrawerEnterFrames != 5 {
		t.Errorf("drawer defaults: got %v/%d", cfg.DrawerEnter, cfg.DrawerEnterFrames)
	}
	if cfg.PresenceRadius != 200 {
		t.Errorf("PresenceRadius: got %v", cfg.PresenceRadius)
	}
	if !cfg.Enabled(CheckZone) || !cfg.Enabled(CheckPresence) || !cfg.Enabled(CheckDrawer) {
		t.Errorf("Checks: got %v", cfg.Checks)
	}
	if cfg.ReadPolicy() != camera.PolicyStop {
		t.Errorf("ReadPolicy: got %v", cfg.ReadPolicy())
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	environ := []string{
		"COUNTERWATCH_SOURCE=/srv/clips/counter.mp4",
		"COUNTERWATCH_CHECKS=drawer",
		"COUNTERWATCH_INTERVAL=100ms",
		"COUNTERWATCH_DRAWER_ENTER=5000",
		"COUNTERWATCH_ON_READ_FAILURE=skip",
		"UNRELATED=1",
	}
	cfg, err := Load(nil, environ)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "/srv/clips/counter.mp4" {
		t.Errorf("Source: got %q", cfg.Source)
	}
	if len(cfg.Checks) != 1 || cfg.Checks[0] != CheckDrawer {
		t.Errorf("Checks: got %v", cfg.Checks)
	}
	if cfg.Interval != 100*time.Millisecond {
		t.Errorf("Interval: got %v", cfg.Interval)
	}
	if cfg.DrawerEnter != 5000 {
		t.Errorf("DrawerEnter: got %v", cfg.DrawerEnter)
	}
	if cfg.ReadPolicy() != camera.PolicySkip {
		t.Errorf("ReadPolicy: got %v", cfg.ReadPolicy())
	}
	// Untouched values keep their defaults.
	if cfg.DrawerExitFrames != 5 {
		t.Errorf("DrawerExitFrames: got %d", cfg.DrawerExitFrames)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	environ := []string{"COUNTERWATCH_SOURCE=1", "COUNTERWATCH_BROKER=tcp://env:1883"}
	args := []string{
		"--source", "frames/",
		"--checks", "Zone, drawer",
		"--zone", "0,0;100,0;100,100",
		"--heartbeat", "0",
		"--alarm-monitors", "",
	}
	cfg, err := Load(args, environ)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "frames/" {
		t.Errorf("Source: got %q, want flag value", cfg.Source)
	}
	if cfg.Broker != "tcp://env:1883" {
		t.Errorf("Broker: got %q, want env value", cfg.Broker)
	}
	if len(cfg.Checks) != 2 || cfg.Checks[0] != CheckZone {
		t.Errorf("Checks: got %v", cfg.Checks)
	}
	if cfg.Heartbeat != 0 {
		t.Errorf("Heartbeat: got %v", cfg.Heartbeat)
	}
	if len(cfg.AlarmMonitors) != 0 {
		t.Errorf("AlarmMonitors: got %v", cfg.AlarmMonitors)
	}
	poly, err := cfg.ZonePolygon()
	if err != nil || len(poly) != 3 {
		t.Errorf("ZonePolygon: got %v, %v", poly, err)
	}
}

func TestLoadBadEnv(t *testing.T) {
	if _, err := Load(nil, []string{"COUNTERWATCH_INTERVAL=soon"}); err == nil {
		t.Error("expected env parse error")
	}
}

func TestLoadBadFlag(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"}, nil)
	if err == nil {
		t.Fatal("expected flag error")
	}
	if errors.Is(err, flag.ErrHelp) {
		t.Error("unexpected ErrHelp")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"empty source", func(c *Config) { c.Source = "" }, "source"},
		{"zero interval", func(c *Config) { c.Interval = 0 }, "interval"},
		{"bad policy", func(c *Config) { c.OnReadFailure = "retry" }, "read policy"},
		{"no checks", func(c *Config) { c.Checks = nil }, "at least one check"},
		{"unknown check", func(c *Config) { c.Checks = []string{"till"} }, "unknown check"},
		{"bad zone", func(c *Config) { c.Zone = "1,2;3,4" }, "zone"},
		{"bad scorer", func(c *Config) { c.Scorer = "magic" }, "scorer"},
		{"zero frames", func(c *Config) { c.ZoneExitFrames = 0 }, "zone-exit-frames"},
		{"zero radius", func(c *Config) { c.PresenceRadius = 0 }, "presence-radius"},
		{"no model", func(c *Config) { c.Model = "" }, "model"},
		{"confidence", func(c *Config) { c.Confidence = 1.5 }, "confidence"},
		{"negative heartbeat", func(c *Config) { c.Heartbeat = -time.Second }, "heartbeat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFrameCountErrorsInOrder(t *testing.T) {
	cfg := Defaults()
	cfg.DrawerEnterFrames = 0
	cfg.PresenceExitFrames = 0
	cfg.ZoneEnterFrames = 0
	want := "drawer-enter-frames must be >= 1, got 0\n" +
		"presence-exit-frames must be >= 1, got 0\n" +
		"zone-enter-frames must be >= 1, got 0"

	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		if err.Error() != want {
			t.Fatalf("run %d: got %q, want %q", i, err.Error(), want)
		}
	}
}

func TestDefaultCalibrationFiles(t *testing.T) {
	cfg := Defaults()
	if cfg.ZoneFile != calibration.DefaultZoneFile || cfg.DrawerFile != calibration.DefaultRectFile {
		t.Errorf("got zone=%q drawer=%q", cfg.ZoneFile, cfg.DrawerFile)
	}
}

func TestValidateCalibrateSkipsChecks(t *testing.T) {
	cfg := Defaults()
	cfg.Calibrate = true
	cfg.Checks = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("calibration mode should not need checks: %v", err)
	}
}

func TestDrawerOnlyNeedsNoModel(t *testing.T) {
	cfg := Defaults()
	cfg.Checks = []string{CheckDrawer}
	cfg.Model = ""
	if cfg.NeedsDetector() {
		t.Error("drawer check does not use the detector")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
