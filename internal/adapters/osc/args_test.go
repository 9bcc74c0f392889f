package osc

import (
	"errors"
	"testing"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

func TestCommandArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []interface{}
		want    domain.Command
		wantErr bool
	}{
		{"int32", []interface{}{int32(4)}, 4, false},
		{"int64", []interface{}{int64(-1)}, -1, false},
		{"float rejected", []interface{}{float32(4)}, 0, true},
		{"string rejected", []interface{}{"4"}, 0, true},
		{"no args", nil, 0, true},
		{"two args", []interface{}{int32(1), int32(2)}, 0, true},
		{"overflow", []interface{}{int64(1) << 40}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CommandArg(goosc.NewMessage("/action", tt.args...))
			if (err != nil) != tt.wantErr {
				t.Fatalf("CommandArg() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrMalformedMessage) {
				t.Errorf("error %v does not wrap ErrMalformedMessage", err)
			}
			if got != tt.want {
				t.Errorf("CommandArg() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFloatArg(t *testing.T) {
	msg := goosc.NewMessage("/pose", float32(1.5), float64(2.5), int32(3), "x")

	for i, want := range []float64{1.5, 2.5, 3} {
		got, err := FloatArg(msg, i)
		if err != nil {
			t.Fatalf("FloatArg(%d) error = %v", i, err)
		}
		if got != want {
			t.Errorf("FloatArg(%d) = %v, want %v", i, got, want)
		}
	}
	if _, err := FloatArg(msg, 3); !errors.Is(err, domain.ErrMalformedMessage) {
		t.Errorf("FloatArg(string) error = %v, want ErrMalformedMessage", err)
	}
	if _, err := FloatArg(msg, 9); !errors.Is(err, domain.ErrMalformedMessage) {
		t.Errorf("FloatArg(missing) error = %v, want ErrMalformedMessage", err)
	}
}

func TestNormalizeArgs(t *testing.T) {
	got := normalizeArgs([]interface{}{7, domain.Command(-1), byte(200), "s", float32(1)})
	want := []interface{}{int32(7), int32(-1), int32(200), "s", float32(1)}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}
