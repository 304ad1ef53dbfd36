package cma

import (
	"github.com/hashicorp/go-hclog"
)

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// HCLogger adapts an hclog.Logger to Logger.
type HCLogger struct {
	logger hclog.Logger
}

// NewHCLogger wraps logger. A nil logger selects a default named "cma".
func NewHCLogger(logger hclog.Logger) *HCLogger {
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:  "cma",
			Level: hclog.Debug,
		})
	}

	return &HCLogger{logger: logger}
}

func (l *HCLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, flatten(fields)...)
}

func (l *HCLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, flatten(fields)...)
}

func (l *HCLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, flatten(fields)...)
}

func (l *HCLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, flatten(fields)...)
}

// flatten turns a field map into hclog's alternating key/value arguments.
func flatten(fields map[string]interface{}) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}

	return args
}
