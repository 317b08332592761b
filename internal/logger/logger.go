package logger

import (
	"fmt"
	"io"
	"log"
)

type logger struct {
	level   Level
	loggers map[Level]*log.Logger
}

func (l *logger) output(level Level, s string) {
	if lg, ok := l.loggers[level]; ok && level <= l.level {
		_ = lg.Output(3, s)
	}
}

func (l *logger) Error(v ...any) { l.output(LevelError, fmt.Sprintln(v...)) }
func (l *logger) Warn(v ...any)  { l.output(LevelWarn, fmt.Sprintln(v...)) }
func (l *logger) Info(v ...any)  { l.output(LevelInfo, fmt.Sprintln(v...)) }
func (l *logger) Debug(v ...any) { l.output(LevelDebug, fmt.Sprintln(v...)) }

func (l *logger) Errorf(format string, v ...any) { l.output(LevelError, fmt.Sprintf(format, v...)) }
func (l *logger) Warnf(format string, v ...any)  { l.output(LevelWarn, fmt.Sprintf(format, v...)) }
func (l *logger) Infof(format string, v ...any)  { l.output(LevelInfo, fmt.Sprintf(format, v...)) }
func (l *logger) Debugf(format string, v ...any) { l.output(LevelDebug, fmt.Sprintf(format, v...)) }
func (l *logger) Tracef(format string, v ...any) { l.output(LevelTrace, fmt.Sprintf(format, v...)) }

// Level reports the most verbose level this logger writes.
func (l *logger) Level() Level {
	return l.level
}

func NewLogger(level Level, out io.Writer) *logger {
	flag := log.LstdFlags | log.Lshortfile
	loggers := make(map[Level]*log.Logger, LevelTrace)
	for lv := LevelFatal; lv <= LevelTrace; lv++ {
		loggers[lv] = log.New(out, fmt.Sprintf("%-5s:", lv), flag)
	}
	return &logger{
		level:   level,
		loggers: loggers,
	}
}
