package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sweeney/counterwatch/internal/calibration"
	"github.com/sweeney/counterwatch/internal/camera"
	"github.com/sweeney/counterwatch/internal/config"
)

// calibrate saves the --zone polygon, if any, then asks sel for the drawer
// region on the next frame from source and saves it. The frame used for
// selection is not monitored.
func calibrate(cfg config.Config, source camera.Source, sel calibration.Selector) error {
	poly, err := cfg.ZonePolygon()
	if err != nil {
		return err
	}
	if poly != nil {
		if err := calibration.SaveZone(cfg.ZoneFile, calibration.ZoneFromPolygon(poly)); err != nil {
			return fmt.Errorf("save zone: %w", err)
		}
		log.Printf("saved zone %s to %s", poly, cfg.ZoneFile)
	}

	img, err := source.Read()
	if err != nil {
		return err
	}
	picked, err := sel.Select(img)
	if err != nil {
		return err
	}
	rect, err := calibration.FromRectangle(picked)
	if err != nil {
		return err
	}
	if err := calibration.SaveRect(cfg.DrawerFile, rect); err != nil {
		return fmt.Errorf("save drawer: %w", err)
	}
	log.Printf("saved drawer %+v to %s", rect, cfg.DrawerFile)
	return nil
}

// printCalibration writes the saved drawer and zone documents to w.
func printCalibration(w io.Writer, cfg config.Config) error {
	found := false

	rect, err := calibration.LoadRect(cfg.DrawerFile)
	switch {
	case err == nil:
		found = true
		fmt.Fprintf(w, "drawer: x1=%d y1=%d x2=%d y2=%d (%dx%d)\n", rect.X1, rect.Y1, rect.X2, rect.Y2, rect.Width, rect.Height)
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(w, "drawer: not calibrated (%s)\n", cfg.DrawerFile)
	default:
		return err
	}

	z, err := calibration.LoadZone(cfg.ZoneFile)
	switch {
	case err == nil:
		found = true
		fmt.Fprintf(w, "zone: %s\n", z.Polygon())
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(w, "zone: not calibrated (%s)\n", cfg.ZoneFile)
	default:
		return err
	}

	if !found {
		return calibration.ErrNoSelection
	}
	return nil
}
