package gpiolimit

import "testing"

func TestFakeReaderTriggered(t *testing.T) {
	f := NewFakeReader([]bool{false, true, true})

	if f.Triggered() {
		t.Error("sample 0: expected not triggered")
	}
	if !f.Triggered() {
		t.Error("sample 1: expected triggered")
	}
	if !f.Triggered() {
		t.Error("sample 2: expected triggered")
	}
	// Exhausted: repeats last sample.
	if !f.Triggered() {
		t.Error("sample 3 (repeat): expected triggered")
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)
	if f.Triggered() {
		t.Error("expected false with no samples configured")
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]bool{false})
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

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([]bool{false, true})
	f.Triggered()
	f.Reset()
	if f.Triggered() {
		t.Error("after reset: expected first sample again")
	}
}
