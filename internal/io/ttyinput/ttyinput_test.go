package ttyinput

import "testing"

func TestIndexByte(t *testing.T) {
	if got := indexByte([]byte("abc\ndef"), '\n'); got != 3 {
		t.Errorf("indexByte: want 3, got %d", got)
	}
	if got := indexByte([]byte("no newline"), '\n'); got != -1 {
		t.Errorf("indexByte: want -1, got %d", got)
	}
}

func TestTrimCR(t *testing.T) {
	if got := trimCR("G1 X10\r"); got != "G1 X10" {
		t.Errorf("trimCR: want %q, got %q", "G1 X10", got)
	}
	if got := trimCR("G1 X10"); got != "G1 X10" {
		t.Errorf("trimCR: want %q, got %q", "G1 X10", got)
	}
}

func TestBaudToSpeedKnownRate(t *testing.T) {
	if got := baudToSpeed(115200); got == 0 {
		t.Errorf("baudToSpeed(115200) returned 0")
	}
}
