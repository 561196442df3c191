package logging

// Logger writes structured entries. Fields are flat key/value maps; the
// keys server_id, member_id and channel_id are lifted into their own
// columns when entries are persisted.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})
	WithPipeline(pipeline string) Logger
	WithContext(ctx map[string]interface{}) Logger
}

// LoggerFactory hands out one logger per engine component
type LoggerFactory interface {
	CreateLogger(component string) Logger
	// CreateServerLogger scopes the component logger to one chat server
	CreateServerLogger(component, serverID string) *ServerLogger
}

// LogRepository persists log entries
type LogRepository interface {
	SaveLog(entry LogEntry) error
}

// LogEntry is one persisted log line
type LogEntry struct {
	Component string
	Level     string
	Message   string
	Error     string
	Fields    map[string]interface{}
	ServerID  string
	MemberID  string
	ChannelID string
}

// Field keys lifted into LogEntry
const (
	FieldServerID  = "server_id"
	FieldMemberID  = "member_id"
	FieldChannelID = "channel_id"
)
