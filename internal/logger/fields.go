package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldComponent = "component"
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldViewer    = "viewer_id"
	FieldProject   = "project_id"
)

// nonEmpty turns key/value pairs into string fields, skipping blank values.
func nonEmpty(pairs ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		value := strings.TrimSpace(pairs[i+1])
		if value == "" {
			continue
		}
		fields = append(fields, zap.String(pairs[i], value))
	}
	return fields
}

func with(log *zap.Logger, fields []zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// WithComponent tags every entry of log with the subsystem name.
func WithComponent(log *zap.Logger, name string) *zap.Logger {
	return with(log, nonEmpty(FieldComponent, name))
}

// WithCommonFields attaches the AI provider and model. A nil logger becomes a
// no-op one.
func WithCommonFields(log *zap.Logger, provider, model string) *zap.Logger {
	return with(log, nonEmpty(FieldProvider, provider, FieldModel, model))
}

// WithPair attaches the viewer and project of an alignment request.
func WithPair(log *zap.Logger, viewerID, projectID string) *zap.Logger {
	return with(log, nonEmpty(FieldViewer, viewerID, FieldProject, projectID))
}
