package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/sweeney/counterwatch/internal/calibration"
	"github.com/sweeney/counterwatch/internal/config"
	"github.com/sweeney/counterwatch/internal/detect"
	"github.com/sweeney/counterwatch/internal/geometry"
	"github.com/sweeney/counterwatch/internal/logic"
	"github.com/sweeney/counterwatch/internal/motion"
	"github.com/sweeney/counterwatch/internal/render"
	"github.com/sweeney/counterwatch/internal/watch"
	"github.com/sweeney/counterwatch/internal/zone"
)

// pipelineSet is the pipeline plus what the loop needs to render it.
type pipelineSet struct {
	pipeline   *watch.Pipeline
	overlay    render.Overlay
	membership *zone.Membership
	detector   detect.Detector
	scorer     motion.Scorer
}

// Close releases the detector and the motion scorer.
func (s *pipelineSet) Close() error {
	var errs []error
	if s.detector != nil {
		errs = append(errs, s.detector.Close())
	}
	if s.scorer != nil {
		errs = append(errs, s.scorer.Close())
	}
	return errors.Join(errs...)
}

// buildPipeline creates one monitor per configured check, in the order
// given. newDetector is called at most once, and only when a check needs it.
func buildPipeline(cfg config.Config, newDetector func() (detect.Detector, error)) (*pipelineSet, error) {
	set := &pipelineSet{pipeline: watch.New()}

	detector := func() (detect.Detector, error) {
		if set.detector != nil {
			return set.detector, nil
		}
		d, err := newDetector()
		if err != nil {
			return nil, fmt.Errorf("load detector: %w", err)
		}
		set.detector = d
		return d, nil
	}

	var drawer *calibration.Rect
	loadDrawer := func() (calibration.Rect, error) {
		if drawer != nil {
			return *drawer, nil
		}
		r, err := calibration.LoadRect(cfg.DrawerFile)
		if err != nil {
			return calibration.Rect{}, fmt.Errorf("load drawer calibration: %w", err)
		}
		drawer = &r
		box := r.Box()
		set.overlay.Drawer = &box
		return r, nil
	}

	for _, check := range cfg.Checks {
		switch check {
		case config.CheckZone:
			poly, err := zonePolygon(cfg)
			if err != nil {
				set.Close()
				return nil, err
			}
			d, err := detector()
			if err != nil {
				set.Close()
				return nil, err
			}
			mcfg := logic.ZoneConfig()
			mcfg.MinFramesEnter = cfg.ZoneEnterFrames
			mcfg.MinFramesExit = cfg.ZoneExitFrames
			m, err := logic.NewMonitor(config.CheckZone, mcfg)
			if err != nil {
				set.Close()
				return nil, err
			}
			mem := zone.Inside(poly)
			if err := set.addMembership(d, mem, m); err != nil {
				set.Close()
				return nil, err
			}
			set.overlay.Zone = poly
			set.membership = &mem

		case config.CheckPresence:
			r, err := loadDrawer()
			if err != nil {
				set.Close()
				return nil, err
			}
			d, err := detector()
			if err != nil {
				set.Close()
				return nil, err
			}
			mcfg := logic.PresenceConfig()
			mcfg.MinFramesEnter = cfg.PresenceEnterFrames
			mcfg.MinFramesExit = cfg.PresenceExitFrames
			m, err := logic.NewMonitor(config.CheckPresence, mcfg)
			if err != nil {
				set.Close()
				return nil, err
			}
			mem := zone.Near(r.Box(), cfg.PresenceRadius)
			if err := set.addMembership(d, mem, m); err != nil {
				set.Close()
				return nil, err
			}
			if set.membership == nil {
				set.membership = &mem
			}

		case config.CheckDrawer:
			r, err := loadDrawer()
			if err != nil {
				set.Close()
				return nil, err
			}
			scorer, err := newScorer(cfg.Scorer, r)
			if err != nil {
				set.Close()
				return nil, err
			}
			set.scorer = scorer
			mcfg := logic.DrawerConfig()
			mcfg.EnterThreshold = cfg.DrawerEnter
			mcfg.ExitThreshold = cfg.DrawerExit
			mcfg.MinFramesEnter = cfg.DrawerEnterFrames
			mcfg.MinFramesExit = cfg.DrawerExitFrames
			m, err := logic.NewMonitor(config.CheckDrawer, mcfg)
			if err != nil {
				set.Close()
				return nil, err
			}
			set.pipeline.Add(&watch.MotionProbe{Scorer: scorer}, m)

		default:
			set.Close()
			return nil, fmt.Errorf("unknown check %q", check)
		}
		log.Printf("monitor %s enabled", check)
	}
	return set, nil
}

// zonePolygon prefers --zone over the saved zone file.
func zonePolygon(cfg config.Config) (geometry.Polygon, error) {
	poly, err := cfg.ZonePolygon()
	if err != nil {
		return nil, err
	}
	if poly != nil {
		return poly, nil
	}
	z, err := calibration.LoadZone(cfg.ZoneFile)
	if err != nil {
		return nil, fmt.Errorf("load zone: %w", err)
	}
	return z.Polygon(), nil
}

func newScorer(name string, r calibration.Rect) (motion.Scorer, error) {
	switch name {
	case config.ScorerContour:
		s, err := motion.NewContourScorer(r.Rectangle())
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ScorerPixel:
		return motion.NewPixelScorer(r.Rectangle()), nil
	}
	return nil, fmt.Errorf("unknown scorer %q", name)
}

// addMembership validates mem and wires it to m through a detector probe.
func (s *pipelineSet) addMembership(d detect.Detector, mem zone.Membership, m *logic.Monitor) error {
	if err := mem.Validate(); err != nil {
		return fmt.Errorf("%s check: %w", m.Name(), err)
	}
	s.pipeline.Add(&watch.ZoneProbe{Detector: d, Membership: mem}, m)
	return nil
}
