// Package sinks provides the standard logging.Sink implementations.
package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"thingforge/server/logging"
)

// ConsoleSink renders events through a logrus logger so host and engine
// logs share one console format.
type ConsoleSink struct {
	logger *logrus.Logger
}

// NewConsoleSink writes human-readable event lines to w.
func NewConsoleSink(w io.Writer, useColor bool) *ConsoleSink {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   useColor,
	})
	return &ConsoleSink{logger: logger}
}

// Write satisfies logging.Sink.
func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	entry := s.logger.WithFields(logrus.Fields{
		"tick":  event.Tick,
		"actor": formatEntity(event.Actor),
	})
	if event.Category != "" {
		entry = entry.WithField("category", event.Category)
	}
	if payload := formatPayload(event.Payload); payload != "" {
		entry = entry.WithField("payload", payload)
	}
	message := string(event.Type)
	switch event.Severity {
	case logging.SeverityDebug:
		entry.Debug(message)
	case logging.SeverityWarn:
		entry.Warn(message)
	case logging.SeverityError:
		entry.Error(message)
	default:
		entry.Info(message)
	}
	return nil
}

// Close satisfies logging.Sink.
func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func formatEntity(ref logging.EntityRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return ref.ID
	}
	return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}
