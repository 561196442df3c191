package logging

import (
	"fmt"
)

// PipelineLogger wraps a base logger with pipeline-specific context
type PipelineLogger struct {
	base     Logger
	pipeline string
	context  map[string]interface{}
}

// NewPipelineLogger creates a new pipeline-specific logger
func NewPipelineLogger(base Logger, pipeline string) *PipelineLogger {
	return &PipelineLogger{
		base:     base,
		pipeline: pipeline,
		context:  make(map[string]interface{}),
	}
}

// Info logs informational messages with pipeline context
func (p *PipelineLogger) Info(msg string, fields map[string]interface{}) {
	p.base.Info(p.prefix(msg), p.enrichFields(fields))
}

// Error logs error messages with pipeline context
func (p *PipelineLogger) Error(msg string, err error, fields map[string]interface{}) {
	p.base.Error(p.prefix(msg), err, p.enrichFields(fields))
}

// Warn logs warning messages with pipeline context
func (p *PipelineLogger) Warn(msg string, fields map[string]interface{}) {
	p.base.Warn(p.prefix(msg), p.enrichFields(fields))
}

// Debug logs debug messages with pipeline context
func (p *PipelineLogger) Debug(msg string, fields map[string]interface{}) {
	p.base.Debug(p.prefix(msg), p.enrichFields(fields))
}

// WithPipeline creates a new logger with updated pipeline context
func (p *PipelineLogger) WithPipeline(pipeline string) Logger {
	return &PipelineLogger{
		base:     p.base,
		pipeline: pipeline,
		context:  mergeFields(p.context, nil),
	}
}

// WithContext creates a new logger with additional context fields
func (p *PipelineLogger) WithContext(ctx map[string]interface{}) Logger {
	return p.with(ctx)
}

func (p *PipelineLogger) with(ctx map[string]interface{}) *PipelineLogger {
	return &PipelineLogger{
		base:     p.base,
		pipeline: p.pipeline,
		context:  mergeFields(p.context, ctx),
	}
}

func (p *PipelineLogger) prefix(msg string) string {
	return fmt.Sprintf("[%s] %s", p.pipeline, msg)
}

// enrichFields combines pipeline context with provided fields; provided
// fields win, the pipeline identifier is always set.
func (p *PipelineLogger) enrichFields(fields map[string]interface{}) map[string]interface{} {
	enriched := mergeFields(p.context, fields)
	enriched["pipeline"] = p.pipeline
	return enriched
}

// ServerLogger tags every entry with the server it concerns
type ServerLogger struct {
	Logger
	serverID string
}

// NewServerLogger scopes base to one server
func NewServerLogger(base Logger, serverID string) *ServerLogger {
	return &ServerLogger{
		Logger:   base.WithContext(map[string]interface{}{FieldServerID: serverID}),
		serverID: serverID,
	}
}

// ServerID returns the server the logger is scoped to
func (s *ServerLogger) ServerID() string {
	return s.serverID
}

// WithMember adds the acting member
func (s *ServerLogger) WithMember(memberID string) Logger {
	return s.WithContext(map[string]interface{}{FieldMemberID: memberID})
}
