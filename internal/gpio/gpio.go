// Package gpio drives the alarm output line (buzzer or lamp) with hardware
// abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Output drives a single digital output.
type Output interface {
	// Set switches the output on or off.
	Set(on bool) error

	// Close releases GPIO resources, leaving the line off.
	Close() error
}
