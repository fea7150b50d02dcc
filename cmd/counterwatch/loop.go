package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/counterwatch/internal/alert"
	"github.com/sweeney/counterwatch/internal/camera"
	"github.com/sweeney/counterwatch/internal/logic"
	"github.com/sweeney/counterwatch/internal/metrics"
	"github.com/sweeney/counterwatch/internal/mqtt"
	"github.com/sweeney/counterwatch/internal/render"
	"github.com/sweeney/counterwatch/internal/status"
	"github.com/sweeney/counterwatch/internal/watch"
	"github.com/sweeney/counterwatch/internal/ws"
	"github.com/sweeney/counterwatch/internal/zone"
)

// loop holds everything the frame loop touches. Only latest, mqttStatus
// and collectHost may be nil.
type loop struct {
	source     camera.Source
	pipeline   *watch.Pipeline
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	alarm      *alert.Controller
	hub        *ws.Hub
	latest     *render.Latest
	metrics    *metrics.Metrics

	// overlay carries the fixed geometry drawn on every snapshot.
	overlay render.Overlay
	// membership colours detection boxes by whether they match.
	membership *zone.Membership

	policy      camera.ReadPolicy
	heartbeat   time.Duration
	collectHost func() *status.HostInfo
}

// runLoop reads one frame per tick until the source ends, a read fails under
// the stop policy, or a signal arrives. Each of these publishes SHUTDOWN.
func runLoop(l *loop, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(now())
	index := 0

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			l.shutdown(now(), signalName)
			return nil

		case <-tick:
			t := now()
			img, err := l.source.Read()
			if err != nil {
				if errors.Is(err, io.EOF) {
					log.Printf("source exhausted after %d frames", index)
					l.shutdown(now(), "EOF")
					return nil
				}
				log.Printf("frame read error: %v", err)
				l.tracker.AddReadError()
				l.metrics.ReadErrors.Inc()
				if l.policy == camera.PolicyStop {
					l.shutdown(now(), "READ_FAILURE")
					return fmt.Errorf("read frame %d: %w", index, err)
				}
				continue
			}
			l.metrics.FramesRead.Inc()

			frame := &watch.Frame{Index: index, Time: t, Image: img}
			index++

			events, err := l.pipeline.Process(frame)
			if err != nil {
				log.Printf("probe error on frame %d: %v", frame.Index, err)
				l.tracker.AddProbeError()
				for _, m := range l.pipeline.Monitors() {
					if r, ok := l.pipeline.Last(m.Name()); ok && r.Err != nil {
						l.metrics.ProbeErrors.WithLabelValues(m.Name()).Inc()
					}
				}
			}

			for _, event := range events {
				log.Printf("event: %s (frame=%d value=%.0f)", mqtt.EventName(event), event.Frame, event.Value)
				l.metrics.ObserveEvent(event)
				wasOn := l.alarm.On()
				if err := l.alarm.Handle(event); err != nil {
					log.Printf("alarm error: %v", err)
				}
				if on := l.alarm.On(); on != wasOn {
					log.Printf("alarm on=%v active=%v", on, l.alarm.Active())
				}
				l.hub.BroadcastEvent(event)
				err := l.publisher.Publish(event)
				l.metrics.ObservePublish(err)
				if err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			monitors := l.update(frame)
			l.render(frame, monitors)
			l.metrics.ObserveFrame(now().Sub(t))

			// Check for heartbeat
			if hbData := hb.Check(t, l.heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v frames=%d", hbData.Uptime, index)
				if l.collectHost != nil {
					if info := l.collectHost(); info != nil {
						l.tracker.SetHost(info)
					}
				}
				snap := l.tracker.Snapshot()
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hbData.Timestamp,
					Event:      mqtt.EventHeartbeat,
					RawPayload: status.FormatStatusEvent(snap, mqtt.EventHeartbeat, ""),
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// update copies monitor state into the tracker and the metrics.
func (l *loop) update(frame *watch.Frame) []status.MonitorStatus {
	monitors := l.pipeline.Monitors()
	statuses := make([]status.MonitorStatus, 0, len(monitors))
	for _, m := range monitors {
		ms := status.FromMonitor(m)
		if r, ok := l.pipeline.Last(m.Name()); ok {
			ms.LastValue = r.Value
			if r.Err != nil {
				ms.LastError = r.Err.Error()
			}
		}
		l.metrics.ObserveMonitor(ms.Name, ms.LastValue, ms.State)
		statuses = append(statuses, ms)
	}

	l.tracker.Update(frame.Index, statuses)
	l.tracker.SetAlarm(l.alarm.On())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
	return statuses
}

// render stores the annotated frame for /snapshot.jpg.
func (l *loop) render(frame *watch.Frame, monitors []status.MonitorStatus) {
	if l.latest == nil {
		return
	}
	o := l.overlay
	o.Detections = l.pipeline.Detections(frame)
	if l.membership != nil {
		o.Matches = l.membership.Matches(o.Detections)
	}
	for _, m := range monitors {
		c := render.Green
		if m.State == logic.StateActive {
			c = render.Red
		}
		o.Lines = append(o.Lines, render.Line{
			Text:  fmt.Sprintf("%s: %s (%.0f)", m.Name, m.Label, m.LastValue),
			Color: c,
		})
	}
	if err := l.latest.Set(frame.Index, render.Annotate(frame.Image, o), frame.Time); err != nil {
		log.Printf("snapshot error: %v", err)
	}
}

// shutdown publishes the retained SHUTDOWN event with the final status.
func (l *loop) shutdown(t time.Time, reason string) {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      mqtt.EventShutdown,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventShutdown, reason),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event (%s)", reason)
	}
}
