package logging

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultLoggerFactory implements LoggerFactory using zap loggers
type DefaultLoggerFactory struct {
	level   string
	loggers map[string]Logger
	mu      sync.Mutex
	build   func(component string) Logger
}

// NewLoggerFactory creates a new logger factory at the given level
func NewLoggerFactory(level string) LoggerFactory {
	f := &DefaultLoggerFactory{
		level:   level,
		loggers: make(map[string]Logger),
	}
	f.build = f.newZap
	return f
}

func (f *DefaultLoggerFactory) newZap(component string) Logger {
	zapLogger, err := NewZapLogger(component, f.level)
	if err != nil {
		// Invalid level or broken sink config; keep the process logging somewhere.
		fallback, _ := zap.NewProduction()
		if fallback == nil {
			fallback = zap.NewNop()
		}
		return NewZapLoggerFrom(component, fallback)
	}
	return zapLogger
}

// CreateLogger returns the logger of a component, building it once
func (f *DefaultLoggerFactory) CreateLogger(component string) Logger {
	f.mu.Lock()
	defer f.mu.Unlock()

	if logger, exists := f.loggers[component]; exists {
		return logger
	}

	logger := f.build(component)
	f.loggers[component] = logger
	return logger
}

// CreateServerLogger returns the component logger scoped to serverID
func (f *DefaultLoggerFactory) CreateServerLogger(component, serverID string) *ServerLogger {
	return NewServerLogger(f.CreateLogger(component), serverID)
}

// DatabaseLoggerFactory extends the default factory with database persistence
type DatabaseLoggerFactory struct {
	*DefaultLoggerFactory
	repository LogRepository
}

// NewDatabaseLoggerFactory creates a logger factory with database persistence
func NewDatabaseLoggerFactory(level string, repository LogRepository) LoggerFactory {
	f := &DatabaseLoggerFactory{
		DefaultLoggerFactory: &DefaultLoggerFactory{
			level:   level,
			loggers: make(map[string]Logger),
		},
		repository: repository,
	}
	f.build = func(component string) Logger {
		return NewDatabaseLogger(f.newZap(component), component, f.repository)
	}
	return f
}

// GlobalLoggerFactory provides a process-wide logger factory instance
var (
	globalFactory LoggerFactory
	globalMu      sync.RWMutex
)

// GetGlobalLoggerFactory returns the global logger factory instance
func GetGlobalLoggerFactory() LoggerFactory {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()
	if factory != nil {
		return factory
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalFactory == nil {
		globalFactory = NewLoggerFactory("info")
	}
	return globalFactory
}

// SetGlobalLoggerFactory replaces the global logger factory
func SetGlobalLoggerFactory(factory LoggerFactory) {
	globalMu.Lock()
	globalFactory = factory
	globalMu.Unlock()
}
