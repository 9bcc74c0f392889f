package ports

import (
	"time"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

// Logger is the structured logger used by the bridge, the controller and
// their adapters.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Command logs a command under "command" as its int32 wire value.
func Command(c domain.Command) Field {
	return Field{Key: "command", Value: int32(c)}
}

// Err logs err under "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
