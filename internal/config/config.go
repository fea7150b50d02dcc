// Package config builds the daemon configuration from compiled defaults,
// COUNTERWATCH_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sweeney/counterwatch/internal/calibration"
	"github.com/sweeney/counterwatch/internal/camera"
	"github.com/sweeney/counterwatch/internal/geometry"
)

// Check names. They double as monitor names.
const (
	CheckZone     = "zone"
	CheckPresence = "presence"
	CheckDrawer   = "drawer"
)

// Motion scorer names.
const (
	ScorerContour = "contour"
	ScorerPixel   = "pixel"
)

// Config is the complete daemon configuration.
type Config struct {
	Source           string        `env:"COUNTERWATCH_SOURCE"`
	Interval         time.Duration `env:"COUNTERWATCH_INTERVAL"`
	OnReadFailure    string        `env:"COUNTERWATCH_ON_READ_FAILURE"`
	Checks           []string      `env:"COUNTERWATCH_CHECKS" envSeparator:","`
	Calibrate        bool          `env:"COUNTERWATCH_CALIBRATE"`
	PrintCalibration bool          `env:"COUNTERWATCH_PRINT_CALIBRATION"`

	Zone     string `env:"COUNTERWATCH_ZONE"`
	ZoneFile string `env:"COUNTERWATCH_ZONE_FILE"`

	DrawerFile        string  `env:"COUNTERWATCH_DRAWER_FILE"`
	Scorer            string  `env:"COUNTERWATCH_SCORER"`
	DrawerEnter       float64 `env:"COUNTERWATCH_DRAWER_ENTER"`
	DrawerExit        float64 `env:"COUNTERWATCH_DRAWER_EXIT"`
	DrawerEnterFrames int     `env:"COUNTERWATCH_DRAWER_ENTER_FRAMES"`
	DrawerExitFrames  int     `env:"COUNTERWATCH_DRAWER_EXIT_FRAMES"`

	PresenceRadius      float64 `env:"COUNTERWATCH_PRESENCE_RADIUS"`
	PresenceEnterFrames int     `env:"COUNTERWATCH_PRESENCE_ENTER_FRAMES"`
	PresenceExitFrames  int     `env:"COUNTERWATCH_PRESENCE_EXIT_FRAMES"`

	ZoneEnterFrames int `env:"COUNTERWATCH_ZONE_ENTER_FRAMES"`
	ZoneExitFrames  int `env:"COUNTERWATCH_ZONE_EXIT_FRAMES"`

	Model       string  `env:"COUNTERWATCH_MODEL"`
	ONNXRuntime string  `env:"COUNTERWATCH_ONNXRUNTIME"`
	Confidence  float64 `env:"COUNTERWATCH_CONFIDENCE"`
	Threads     int     `env:"COUNTERWATCH_THREADS"`

	Broker    string        `env:"COUNTERWATCH_BROKER"`
	ClientID  string        `env:"COUNTERWATCH_CLIENT_ID"`
	Heartbeat time.Duration `env:"COUNTERWATCH_HEARTBEAT"`
	HTTPAddr  string        `env:"COUNTERWATCH_HTTP"`

	AlarmPin       int      `env:"COUNTERWATCH_ALARM_PIN"`
	AlarmActiveLow bool     `env:"COUNTERWATCH_ALARM_ACTIVE_LOW"`
	AlarmMonitors  []string `env:"COUNTERWATCH_ALARM_MONITORS" envSeparator:","`
	Bell           bool     `env:"COUNTERWATCH_BELL"`
}

// Defaults returns the compiled-in configuration.
func Defaults() Config {
	return Config{
		Source:        "0",
		Interval:      33 * time.Millisecond,
		OnReadFailure: "stop",
		Checks:        []string{CheckZone, CheckPresence, CheckDrawer},

		ZoneFile: calibration.DefaultZoneFile,

		DrawerFile:        calibration.DefaultRectFile,
		Scorer:            ScorerPixel,
		DrawerEnter:       8000,
		DrawerExit:        8000,
		DrawerEnterFrames: 5,
		DrawerExitFrames:  5,

		PresenceRadius:      200,
		PresenceEnterFrames: 3,
		PresenceExitFrames:  3,

		ZoneEnterFrames: 3,
		ZoneExitFrames:  5,

		Model:      "yolov8n.onnx",
		Confidence: 0.25,
		Threads:    2,

		Broker:    "tcp://localhost:1883",
		ClientID:  "counterwatch",
		Heartbeat: 15 * time.Minute,
		HTTPAddr:  ":8080",

		AlarmPin:      -1,
		AlarmMonitors: []string{CheckZone, CheckDrawer},
	}
}

// Load applies environ (KEY=value pairs) and then args over the defaults,
// and validates the result.
func Load(args, environ []string) (Config, error) {
	cfg := Defaults()

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("counterwatch", flag.ContinueOnError)
	bindFlags(fs, &cfg)
	checks := fs.String("checks", strings.Join(cfg.Checks, ","), "Comma-separated checks to run: zone, presence, drawer")
	alarmMonitors := fs.String("alarm-monitors", strings.Join(cfg.AlarmMonitors, ","), "Comma-separated monitors that drive the alarm (empty for all)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Checks = splitList(*checks)
	cfg.AlarmMonitors = splitList(*alarmMonitors)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Source, "source", cfg.Source, "Camera index, video file, or directory of frames")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Frame read interval")
	fs.StringVar(&cfg.OnReadFailure, "on-read-failure", cfg.OnReadFailure, "What to do when a frame read fails: stop or skip")
	fs.BoolVar(&cfg.Calibrate, "calibrate", cfg.Calibrate, "Select the drawer region on the first frame and save it before monitoring")
	fs.BoolVar(&cfg.PrintCalibration, "print-calibration", cfg.PrintCalibration, "Print the saved calibration and exit")

	fs.StringVar(&cfg.Zone, "zone", cfg.Zone, `Restricted zone polygon "x,y;x,y;x,y" (overrides --zone-file)`)
	fs.StringVar(&cfg.ZoneFile, "zone-file", cfg.ZoneFile, "Restricted zone polygon JSON file")

	fs.StringVar(&cfg.DrawerFile, "drawer-file", cfg.DrawerFile, "Drawer region JSON file")
	fs.StringVar(&cfg.Scorer, "scorer", cfg.Scorer, "Drawer motion scorer: contour (needs opencv) or pixel")
	fs.Float64Var(&cfg.DrawerEnter, "drawer-enter", cfg.DrawerEnter, "Motion area (px²) that counts toward OPEN")
	fs.Float64Var(&cfg.DrawerExit, "drawer-exit", cfg.DrawerExit, "Motion area (px²) below which a frame counts toward CLOSED")
	fs.IntVar(&cfg.DrawerEnterFrames, "drawer-enter-frames", cfg.DrawerEnterFrames, "Consecutive frames to confirm OPEN")
	fs.IntVar(&cfg.DrawerExitFrames, "drawer-exit-frames", cfg.DrawerExitFrames, "Consecutive frames to confirm CLOSED")

	fs.Float64Var(&cfg.PresenceRadius, "presence-radius", cfg.PresenceRadius, "Distance in px from the drawer centre that counts as near")
	fs.IntVar(&cfg.PresenceEnterFrames, "presence-enter-frames", cfg.PresenceEnterFrames, "Consecutive frames to confirm PRESENT")
	fs.IntVar(&cfg.PresenceExitFrames, "presence-exit-frames", cfg.PresenceExitFrames, "Consecutive frames to confirm ABSENT")

	fs.IntVar(&cfg.ZoneEnterFrames, "zone-enter-frames", cfg.ZoneEnterFrames, "Consecutive frames to confirm OCCUPIED")
	fs.IntVar(&cfg.ZoneExitFrames, "zone-exit-frames", cfg.ZoneExitFrames, "Consecutive frames to confirm CLEAR")

	fs.StringVar(&cfg.Model, "model", cfg.Model, "YOLOv8 ONNX model path")
	fs.StringVar(&cfg.ONNXRuntime, "onnxruntime", cfg.ONNXRuntime, "onnxruntime shared library path (empty for default)")
	fs.Float64Var(&cfg.Confidence, "confidence", cfg.Confidence, "Minimum detection confidence")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "Inference threads")

	fs.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address (empty to disable)")
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "MQTT client id")
	fs.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP address (empty to disable)")

	fs.IntVar(&cfg.AlarmPin, "alarm-pin", cfg.AlarmPin, "BCM pin for the alarm output (-1 to disable)")
	fs.BoolVar(&cfg.AlarmActiveLow, "alarm-active-low", cfg.AlarmActiveLow, "Drive the alarm pin low when on")
	fs.BoolVar(&cfg.Bell, "bell", cfg.Bell, "Ring the terminal bell on alerts")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// Enabled reports whether the named check is configured.
func (c Config) Enabled(check string) bool {
	for _, ch := range c.Checks {
		if ch == check {
			return true
		}
	}
	return false
}

// NeedsDetector reports whether any check uses the person detector.
func (c Config) NeedsDetector() bool {
	return c.Enabled(CheckZone) || c.Enabled(CheckPresence)
}

// ReadPolicy returns the parsed frame read failure policy.
func (c Config) ReadPolicy() camera.ReadPolicy {
	p, _ := camera.ParseReadPolicy(c.OnReadFailure)
	return p
}

// ZonePolygon returns the polygon from --zone, or nil if unset.
func (c Config) ZonePolygon() (geometry.Polygon, error) {
	if c.Zone == "" {
		return nil, nil
	}
	return geometry.ParsePolygon(c.Zone)
}

// Validate reports invalid values and combinations.
func (c Config) Validate() error {
	var errs []error

	if c.Source == "" {
		errs = append(errs, errors.New("source is required"))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be > 0, got %v", c.Interval))
	}
	if _, err := camera.ParseReadPolicy(c.OnReadFailure); err != nil {
		errs = append(errs, err)
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must be >= 0, got %v", c.Heartbeat))
	}

	if !c.Calibrate && !c.PrintCalibration {
		if len(c.Checks) == 0 {
			errs = append(errs, errors.New("at least one check is required"))
		}
		for _, ch := range c.Checks {
			switch ch {
			case CheckZone, CheckPresence, CheckDrawer:
			default:
				errs = append(errs, fmt.Errorf("unknown check %q", ch))
			}
		}
	}

	if c.Zone != "" {
		if _, err := geometry.ParsePolygon(c.Zone); err != nil {
			errs = append(errs, fmt.Errorf("zone: %w", err))
		}
	}

	switch c.Scorer {
	case ScorerContour, ScorerPixel:
	default:
		errs = append(errs, fmt.Errorf("unknown scorer %q", c.Scorer))
	}

	for _, fc := range []struct {
		name string
		n    int
	}{
		{"drawer-enter-frames", c.DrawerEnterFrames},
		{"drawer-exit-frames", c.DrawerExitFrames},
		{"presence-enter-frames", c.PresenceEnterFrames},
		{"presence-exit-frames", c.PresenceExitFrames},
		{"zone-enter-frames", c.ZoneEnterFrames},
		{"zone-exit-frames", c.ZoneExitFrames},
	} {
		if fc.n < 1 {
			errs = append(errs, fmt.Errorf("%s must be >= 1, got %d", fc.name, fc.n))
		}
	}

	if c.Enabled(CheckPresence) && c.PresenceRadius <= 0 {
		errs = append(errs, fmt.Errorf("presence-radius must be > 0, got %v", c.PresenceRadius))
	}
	if c.NeedsDetector() && c.Model == "" {
		errs = append(errs, errors.New("model is required for zone and presence checks"))
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		errs = append(errs, fmt.Errorf("confidence must be in (0,1), got %v", c.Confidence))
	}

	return errors.Join(errs...)
}
