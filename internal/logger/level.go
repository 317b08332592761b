package logger

import (
	"strings"

	"github.com/pkg/errors"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=Level -linecomment

// Level orders log verbosity; a logger writes every level up to and including its own.
type Level int

const (
	LevelOff   Level = iota // OFF
	LevelFatal              // FATAL
	LevelError              // ERROR
	LevelWarn               // WARN
	LevelInfo               // INFO
	LevelDebug              // DEBUG
	LevelTrace              // TRACE
)

func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for lv := LevelOff; lv <= LevelTrace; lv++ {
		if lv.String() == name {
			return lv, nil
		}
	}
	return -1, errors.Errorf("invalid log level: %q", s)
}
