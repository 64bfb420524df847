package main

import (
	"fmt"
	"time"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelDebug LogLevel = "DEBUG"
)

// Logger is injected into every pipeline stage; there is no package-level logger.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// StdoutLogger writes timestamped log lines to standard output. An optional
// Component name is printed on every line so pipeline stages can be told apart.
type StdoutLogger struct {
	Component string
}

func (l *StdoutLogger) log(level LogLevel, msg string, args ...interface{}) {
	timestamp := time.Now().Format(time.RFC3339)
	if l.Component != "" {
		fmt.Printf("%s [%s] %s: %s \n", timestamp, level, l.Component, fmt.Sprintf(msg, args...))
		return
	}
	fmt.Printf("%s [%s] %s \n", timestamp, level, fmt.Sprintf(msg, args...))
}

// Tagged returns a logger whose lines carry the given component name.
func (l *StdoutLogger) Tagged(component string) *StdoutLogger {
	return &StdoutLogger{Component: component}
}

// Info, Warn, Error, and Debug methods implement the Logger interface for StdoutLogger.
func (l *StdoutLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

func (l *StdoutLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

func (l *StdoutLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

func (l *StdoutLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}
