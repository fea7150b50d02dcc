// Package watch runs each frame through the configured probes and feeds the
// resulting signals to their monitors.
package watch

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sweeney/counterwatch/internal/detect"
	"github.com/sweeney/counterwatch/internal/logic"
	"github.com/sweeney/counterwatch/internal/motion"
	"github.com/sweeney/counterwatch/internal/zone"
)

// Frame is one image from the source with its position in the stream.
type Frame struct {
	Index int
	Time  time.Time
	Image image.Image

	dets    []detect.Detection
	detErr  error
	detDone bool
}

// Probe turns a frame into the scalar signal for one monitor.
type Probe interface {
	Measure(f *Frame) (float64, error)
}

// detections runs d once per frame and caches the result on the frame.
func (f *Frame) detections(d detect.Detector) ([]detect.Detection, error) {
	if !f.detDone {
		f.dets, f.detErr = d.Detect(f.Image)
		f.detDone = true
	}
	return f.dets, f.detErr
}

// ZoneProbe counts detections that satisfy a membership rule.
type ZoneProbe struct {
	Detector   detect.Detector
	Membership zone.Membership
}

// Measure returns the number of matching detections.
func (p *ZoneProbe) Measure(f *Frame) (float64, error) {
	dets, err := f.detections(p.Detector)
	if err != nil {
		return 0, fmt.Errorf("detect: %w", err)
	}
	return p.Membership.Measure(dets), nil
}

// MotionProbe reports the motion score of a region.
type MotionProbe struct {
	Scorer motion.Scorer
}

// Measure returns the scorer's value for the frame.
func (p *MotionProbe) Measure(f *Frame) (float64, error) {
	v, err := p.Scorer.Score(f.Image)
	if err != nil {
		return 0, fmt.Errorf("motion: %w", err)
	}
	return v, nil
}

// Reading is the latest signal value seen by a monitor.
type Reading struct {
	Value float64
	Err   error
}

type stage struct {
	probe   Probe
	monitor *logic.Monitor
	last    Reading
}

// Pipeline holds the probe and monitor pairs in evaluation order.
type Pipeline struct {
	stages []*stage
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Add appends a probe feeding monitor.
func (p *Pipeline) Add(probe Probe, monitor *logic.Monitor) {
	p.stages = append(p.stages, &stage{probe: probe, monitor: monitor})
}

// Process measures every probe and observes each monitor once. A monitor
// whose probe fails is skipped for this frame; the errors are joined and
// returned after the other monitors have run.
func (p *Pipeline) Process(f *Frame) ([]logic.Event, error) {
	var events []logic.Event
	var errs []error

	for _, s := range p.stages {
		v, err := s.probe.Measure(f)
		if err != nil {
			s.last = Reading{Err: err}
			errs = append(errs, fmt.Errorf("%s: %w", s.monitor.Name(), err))
			continue
		}
		s.last = Reading{Value: v}
		ev := s.monitor.Observe(logic.Signal{Frame: f.Index, Time: f.Time, Value: v})
		if ev != nil {
			events = append(events, *ev)
		}
	}

	return events, errors.Join(errs...)
}

// Monitors returns the monitors in evaluation order.
func (p *Pipeline) Monitors() []*logic.Monitor {
	out := make([]*logic.Monitor, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.monitor
	}
	return out
}

// Last returns the most recent reading for the named monitor.
func (p *Pipeline) Last(name string) (Reading, bool) {
	for _, s := range p.stages {
		if s.monitor.Name() == name {
			return s.last, true
		}
	}
	return Reading{}, false
}

// Detections returns what the detector found on f, if any probe ran it.
func (p *Pipeline) Detections(f *Frame) []detect.Detection {
	if !f.detDone || f.detErr != nil {
		return nil
	}
	return f.dets
}
