// Package alert turns monitor transitions into an audible or visible alarm.
package alert

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/sweeney/counterwatch/internal/gpio"
	"github.com/sweeney/counterwatch/internal/logic"
)

// Controller holds the alarm output on while any alerting monitor is Active.
type Controller struct {
	out      gpio.Output
	bell     *Bell
	alerting map[string]bool
	active   map[string]bool
	on       bool
	mu       sync.Mutex
}

// NewController drives out for the named monitors. A nil out or bell is
// allowed. An empty monitor list means every monitor alerts.
func NewController(out gpio.Output, bell *Bell, monitors []string) *Controller {
	c := &Controller{
		out:    out,
		bell:   bell,
		active: make(map[string]bool),
	}
	if len(monitors) > 0 {
		c.alerting = make(map[string]bool, len(monitors))
		for _, m := range monitors {
			c.alerting[m] = true
		}
	}
	return c
}

// Handle applies one transition. It rings the bell on every alerting
// enter and switches the output when the overall alarm state changes.
func (c *Controller) Handle(ev logic.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.alerting != nil && !c.alerting[ev.Monitor] {
		return nil
	}

	if ev.To == logic.StateActive {
		c.active[ev.Monitor] = true
		if c.bell != nil {
			c.bell.Ring()
		}
	} else {
		delete(c.active, ev.Monitor)
	}

	// on tracks what the output last accepted, so a failed write is
	// retried on the next transition.
	want := len(c.active) > 0
	if want == c.on {
		return nil
	}
	if c.out != nil {
		if err := c.out.Set(want); err != nil {
			return fmt.Errorf("alarm output: %w", err)
		}
	}
	c.on = want
	return nil
}

// On reports whether the alarm output is currently on.
func (c *Controller) On() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on
}

// Active returns the alerting monitors currently Active, sorted.
func (c *Controller) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.active))
	for m := range c.active {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Close switches the output off.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = make(map[string]bool)
	c.on = false
	if c.out == nil {
		return nil
	}
	return c.out.Close()
}

// Bell writes the terminal bell character.
type Bell struct {
	w io.Writer
}

// NewBell returns a bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Ring emits one bell. Write failures are logged.
func (b *Bell) Ring() {
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		log.Printf("alert: bell: %v", err)
	}
}
