package logging

import "testing"

func TestProgressSamplerEmitsPerBucket(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog(0) {
		t.Fatal("first update should log")
	}
	if s.ShouldLog(3.2) || s.ShouldLog(9.9) {
		t.Fatal("updates within the same bucket should be suppressed")
	}
	if !s.ShouldLog(10.5) {
		t.Fatal("crossing a bucket boundary should log")
	}
	if !s.ShouldLog(100) {
		t.Fatal("completion should log")
	}
	if s.ShouldLog(100) {
		t.Fatal("repeated completion should be suppressed")
	}
}

func TestProgressSamplerIgnoresUnknown(t *testing.T) {
	s := NewProgressSampler(5)
	if s.ShouldLog(-1) {
		t.Fatal("unknown percentage should not log")
	}
	if !s.ShouldLog(0) {
		t.Fatal("known percentage should log after unknown")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(5)
	if !s.ShouldLog(50) {
		t.Fatal("expected first emit")
	}
	s.Reset()
	if !s.ShouldLog(1) {
		t.Fatal("expected emit after reset")
	}
}
