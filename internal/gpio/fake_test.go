package gpio

import (
	"errors"
	"testing"
)

func TestFakeOutputSet(t *testing.T) {
	f := NewFakeOutput()

	if f.On() {
		t.Error("should be off initially")
	}

	for _, v := range []bool{true, false, true} {
		if err := f.Set(v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(f.Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(f.Values))
	}
	if !f.On() {
		t.Error("expected last value on")
	}
}

func TestFakeOutputError(t *testing.T) {
	f := NewFakeOutput()
	f.SetError = errors.New("simulated error")

	err := f.Set(true)
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if len(f.Values) != 0 {
		t.Error("failed Set should not be recorded")
	}
}

func TestFakeOutputClose(t *testing.T) {
	f := NewFakeOutput()

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeOutputReset(t *testing.T) {
	f := NewFakeOutput()
	f.Set(true)
	f.Close()

	f.Reset()

	if f.On() || f.Closed || len(f.Values) != 0 {
		t.Errorf("after reset: got %+v", f)
	}
}

func TestOutputInterface(t *testing.T) {
	var _ Output = NewFakeOutput()
	var _ Output = (*RealOutput)(nil)
}
