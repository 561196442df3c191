package logging

import (
	"sync"
)

// DatabaseLogger wraps a base logger and persists every entry through a
// LogRepository. Persistence runs in the background; Flush waits for it.
type DatabaseLogger struct {
	base       Logger
	component  string
	context    map[string]interface{}
	repository LogRepository
	pending    *sync.WaitGroup
}

// NewDatabaseLogger creates a new database-backed logger
func NewDatabaseLogger(base Logger, component string, repository LogRepository) *DatabaseLogger {
	return &DatabaseLogger{
		base:       base,
		component:  component,
		context:    make(map[string]interface{}),
		repository: repository,
		pending:    &sync.WaitGroup{},
	}
}

// Info logs informational messages and persists them
func (d *DatabaseLogger) Info(msg string, fields map[string]interface{}) {
	d.base.Info(msg, fields)
	d.persistLog("INFO", msg, nil, fields)
}

// Error logs error messages and persists them
func (d *DatabaseLogger) Error(msg string, err error, fields map[string]interface{}) {
	d.base.Error(msg, err, fields)
	d.persistLog("ERROR", msg, err, fields)
}

// Warn logs warning messages and persists them
func (d *DatabaseLogger) Warn(msg string, fields map[string]interface{}) {
	d.base.Warn(msg, fields)
	d.persistLog("WARN", msg, nil, fields)
}

// Debug only goes to the base logger
func (d *DatabaseLogger) Debug(msg string, fields map[string]interface{}) {
	d.base.Debug(msg, fields)
}

// WithPipeline creates a new logger with pipeline context
func (d *DatabaseLogger) WithPipeline(pipeline string) Logger {
	return d.WithContext(map[string]interface{}{"pipeline": pipeline})
}

// WithContext creates a new logger with additional context fields
func (d *DatabaseLogger) WithContext(ctx map[string]interface{}) Logger {
	return &DatabaseLogger{
		base:       d.base.WithContext(ctx),
		component:  d.component,
		context:    mergeFields(d.context, ctx),
		repository: d.repository,
		pending:    d.pending,
	}
}

// Flush blocks until every persisted entry has been written
func (d *DatabaseLogger) Flush() {
	d.pending.Wait()
}

func (d *DatabaseLogger) persistLog(level, message string, err error, fields map[string]interface{}) {
	if d.repository == nil {
		return
	}

	entry := d.buildLogEntry(level, message, err, fields)

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		if saveErr := d.repository.SaveLog(entry); saveErr != nil {
			// Base logger only, persisting this would recurse.
			d.base.Error("Failed to persist log to database", saveErr, map[string]interface{}{
				"original_message": message,
				"original_level":   level,
			})
		}
	}()
}

func (d *DatabaseLogger) buildLogEntry(level, message string, err error, fields map[string]interface{}) LogEntry {
	allFields := mergeFields(d.context, fields)

	entry := LogEntry{
		Component: d.component,
		Level:     level,
		Message:   message,
		Fields:    allFields,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if val, ok := allFields[FieldServerID].(string); ok {
		entry.ServerID = val
	}
	if val, ok := allFields[FieldMemberID].(string); ok {
		entry.MemberID = val
	}
	if val, ok := allFields[FieldChannelID].(string); ok {
		entry.ChannelID = val
	}
	return entry
}
