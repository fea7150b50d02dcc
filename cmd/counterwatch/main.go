// Command counterwatch watches a camera feed of a cash counter and publishes
// zone, presence and drawer state changes to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/counterwatch/internal/alert"
	"github.com/sweeney/counterwatch/internal/calibration"
	"github.com/sweeney/counterwatch/internal/camera"
	"github.com/sweeney/counterwatch/internal/config"
	"github.com/sweeney/counterwatch/internal/detect"
	"github.com/sweeney/counterwatch/internal/gpio"
	"github.com/sweeney/counterwatch/internal/logic"
	"github.com/sweeney/counterwatch/internal/metrics"
	"github.com/sweeney/counterwatch/internal/mqtt"
	"github.com/sweeney/counterwatch/internal/render"
	"github.com/sweeney/counterwatch/internal/status"
	"github.com/sweeney/counterwatch/internal/web"
	"github.com/sweeney/counterwatch/internal/ws"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Environ())
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config) error {
	// Print calibration mode
	if cfg.PrintCalibration {
		return printCalibration(os.Stdout, cfg)
	}

	source, err := camera.Open(cfg.Source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	// One ROI window serves both --calibrate and browser uploads without a roi.
	sel := roiSelector(calibration.NewWindowSelector)
	if cfg.Calibrate {
		if sel == nil {
			return fmt.Errorf("calibrate: %w", calibration.ErrNoWindow)
		}
		if err := calibrate(cfg, source, sel); err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
	}

	set, err := buildPipeline(cfg, func() (detect.Detector, error) {
		return detect.NewYOLODetector(detect.YOLOConfig{
			ModelPath:   cfg.Model,
			LibraryPath: cfg.ONNXRuntime,
			Confidence:  float32(cfg.Confidence),
			Classes:     []int{detect.PersonClass},
			Threads:     cfg.Threads,
		})
	})
	if err != nil {
		return err
	}
	defer set.Close()

	// Initialize MQTT
	var publisher mqtt.Publisher = discardPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID)
		if p == nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		if err != nil {
			log.Printf("mqtt not connected yet, buffering: %v", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	// Initialize alarm output
	var out gpio.Output
	if cfg.AlarmPin >= 0 {
		o, err := gpio.NewRealOutput(cfg.AlarmPin, cfg.AlarmActiveLow)
		if err != nil {
			return fmt.Errorf("init alarm output: %w", err)
		}
		out = o
	}
	var bell *alert.Bell
	if cfg.Bell {
		bell = alert.NewBell(os.Stdout)
	}
	alarm := alert.NewController(out, bell, cfg.AlarmMonitors)
	defer alarm.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Source:      cfg.Source,
		Checks:      cfg.Checks,
		IntervalMs:  cfg.Interval.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		ReadPolicy:  cfg.ReadPolicy().String(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	})
	if info := collectHost(); info != nil {
		tracker.SetHost(info)
	}

	m := metrics.New()
	hub := ws.NewHub()
	defer hub.Close()
	latest := render.NewLatest()

	// Publish startup event with full status snapshot
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, webOptions(cfg, sel, latest, m, hub))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: source=%s checks=%v interval=%v on-read-failure=%s broker=%s heartbeat=%v",
		cfg.Source, cfg.Checks, cfg.Interval, cfg.ReadPolicy(), cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		source:      source,
		pipeline:    set.pipeline,
		publisher:   publisher,
		mqttStatus:  mqttStatus,
		tracker:     tracker,
		alarm:       alarm,
		hub:         hub,
		latest:      latest,
		metrics:     m,
		overlay:     set.overlay,
		membership:  set.membership,
		policy:      cfg.ReadPolicy(),
		heartbeat:   cfg.Heartbeat,
		collectHost: collectHost,
	}
	return runLoop(l, time.Now, ticker.C, sigCh)
}

func collectHost() *status.HostInfo {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	info, err := status.CollectHost(ctx)
	if err != nil {
		log.Printf("host stats: %v", err)
		return nil
	}
	return info
}

// roiSelector opens the ROI window, or returns nil when this build has none.
func roiSelector(open func(title string) (*calibration.WindowSelector, error)) calibration.Selector {
	sel, err := open("Select Drawer Area")
	if err != nil {
		log.Printf("roi window unavailable, uploads need a browser roi: %v", err)
		return nil
	}
	return sel
}

func webOptions(cfg config.Config, sel calibration.Selector, latest *render.Latest, m *metrics.Metrics, hub *ws.Hub) web.Options {
	return web.Options{
		Sessions: calibration.NewSessions(0),
		Selector: sel,
		RectFile: cfg.DrawerFile,
		Latest:   latest,
		Metrics:  m,
		Hub:      hub,
	}
}

// discardPublisher stands in when no broker is configured.
type discardPublisher struct{}

func (discardPublisher) Publish(event logic.Event) error { return nil }

func (discardPublisher) PublishSystem(event mqtt.SystemEvent) error { return nil }

func (discardPublisher) Close() error { return nil }
