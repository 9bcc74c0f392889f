package app

import (
	"context"
	"reflect"
	"testing"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

func feed(e *Emitter, source int, codes ...domain.Command) {
	for _, c := range codes {
		e.Observe(context.Background(), domain.Result{Source: source, Code: c})
	}
}

func TestEmitter_EveryChange(t *testing.T) {
	tests := []struct {
		name string
		in   []domain.Command
		want []domain.Command
	}{
		{"debounces repeats", []domain.Command{0, 2, 2, 2, 5, 0}, []domain.Command{2, 5, 0}},
		{"idle only", []domain.Command{0, 0, 0}, nil},
		{"alternating", []domain.Command{1, 0, 1, 0}, []domain.Command{1, 0, 1, 0}},
		{"reset sentinel passes through", []domain.Command{3, -1, -1, 3}, []domain.Command{3, -1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSender{}
			e := NewEmitter(EmitterConfig{Source: 0}, s, &mockLogger{})
			feed(e, 0, tt.in...)

			if got := s.Commands(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sent %v, want %v", got, tt.want)
			}
			if got := countChanges(tt.in); got != len(s.Commands()) {
				t.Errorf("sends = %d, strict changes = %d", len(s.Commands()), got)
			}
		})
	}
}

// countChanges counts strict value changes starting from idle.
func countChanges(in []domain.Command) int {
	prev, n := domain.CommandNoop, 0
	for _, c := range in {
		if c != prev {
			n++
			prev = c
		}
	}
	return n
}

func TestEmitter_IntoActive(t *testing.T) {
	s := &recordingSender{}
	e := NewEmitter(EmitterConfig{Source: 0, Policy: EmitIntoActive}, s, &mockLogger{})

	feed(e, 0, 0, 1, 1, 0, 0, 1, 0)

	want := []domain.Command{1, 1}
	if got := s.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("sent %v, want %v", got, want)
	}
	if e.Previous() != domain.CommandNoop {
		t.Errorf("Previous() = %d, want idle", e.Previous())
	}
}

func TestEmitter_SourceFilter(t *testing.T) {
	s := &recordingSender{}
	e := NewEmitter(EmitterConfig{Source: 3}, s, &mockLogger{})

	feed(e, 1, 2, 4)
	feed(e, 3, 5)
	feed(e, 0, 6)

	if got := s.Commands(); !reflect.DeepEqual(got, []domain.Command{5}) {
		t.Errorf("sent %v, want [5]", got)
	}
	sent, filtered := e.Stats()
	if sent != 1 || filtered != 3 {
		t.Errorf("Stats() = (%d, %d), want (1, 3)", sent, filtered)
	}
	if e.Accepts(1) || !e.Accepts(3) {
		t.Error("Accepts() does not match the configured source")
	}
}

func TestEmitter_FailedSendRetriedOnNextResult(t *testing.T) {
	s := &recordingSender{err: errBoom}
	e := NewEmitter(EmitterConfig{}, s, &mockLogger{})

	if !e.Observe(context.Background(), domain.Result{Code: 2}) {
		t.Fatal("Observe() = false, want a send attempt")
	}
	if e.Previous() != domain.CommandNoop {
		t.Fatalf("Previous() = %d after failed send, want idle", e.Previous())
	}

	s.err = nil
	feed(e, 0, 2, 2)
	if got := s.Commands(); !reflect.DeepEqual(got, []domain.Command{2}) {
		t.Errorf("sent %v, want [2]", got)
	}
}

func TestParseEmitPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    EmitPolicy
		wantErr bool
	}{
		{"", EmitEveryChange, false},
		{"every-change", EmitEveryChange, false},
		{"Into-Active", EmitIntoActive, false},
		{"sometimes", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseEmitPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEmitPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEmitPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if EmitIntoActive.String() != "into-active" {
		t.Errorf("String() = %q", EmitIntoActive.String())
	}
}
