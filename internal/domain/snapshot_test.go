package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewWatchSet(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		wantErr bool
	}{
		{"default", DefaultWatchOffsets, false},
		{"order kept", []int{58, 7}, false},
		{"empty", nil, true},
		{"negative", []int{7, -1}, true},
		{"duplicate", []int{7, 58, 7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWatchSet(tt.offsets)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("NewWatchSet() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWatchSet() error = %v", err)
			}
			if !reflect.DeepEqual(w.Offsets(), tt.offsets) {
				t.Errorf("Offsets() = %v, want %v", w.Offsets(), tt.offsets)
			}
		})
	}
}

func TestWatchSet_OffsetsIsCopy(t *testing.T) {
	w, _ := NewWatchSet([]int{1, 2})
	got := w.Offsets()
	got[0] = 99
	if w.Offsets()[0] != 1 {
		t.Error("Offsets() exposed internal slice")
	}
}

func TestWatchSet_CheckFits(t *testing.T) {
	w, _ := NewWatchSet([]int{7, 123, 58})
	if w.Max() != 123 {
		t.Errorf("Max() = %d, want 123", w.Max())
	}
	if err := w.CheckFits(128); err != nil {
		t.Errorf("CheckFits(128) = %v", err)
	}
	if err := w.CheckFits(123); !errors.Is(err, ErrWatchOffsetOutOfRange) {
		t.Errorf("CheckFits(123) = %v, want ErrWatchOffsetOutOfRange", err)
	}
}

func TestSnapshot_Clone(t *testing.T) {
	s := Snapshot{1, 2, 3}
	c := s.Clone()
	c[0] = 9
	if s[0] != 1 {
		t.Error("Clone() shares backing array")
	}
}

func TestCommand(t *testing.T) {
	if !CommandNoop.IsNoop() || Command(2).IsNoop() {
		t.Error("IsNoop() wrong")
	}
	if DefaultResetCommand.String() != "-1" {
		t.Errorf("String() = %q", DefaultResetCommand.String())
	}
}
