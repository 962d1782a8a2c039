package log

// Field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldDriver     = "driver"
	FieldDatabase   = "database"
	FieldQueryLabel = "query_label"
	FieldQuerySlug  = "query_slug"
	FieldRows       = "rows"
	FieldFormat     = "format"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDashboard = "dashboard"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentSecurity  = "security"
	ComponentTrace     = "trace"
	ComponentAudit     = "audit"
)

// Operations
const (
	OpExecute = "execute"
	OpRender  = "render"
	OpExport  = "export"
	OpAudit   = "audit"
)

// Error types
const (
	ErrorTypeConnection = "connection_error"
	ErrorTypeDatabase   = "database_error"
	ErrorTypeBinding    = "binding_error"
)

// LogFields builds the attribute list for one log record.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds the error message; nil is ignored.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithQuery adds catalog query fields. Never pass credentials here.
func (f LogFields) WithQuery(label, slug string, rows int) LogFields {
	f[FieldQueryLabel] = label
	f[FieldQuerySlug] = slug
	f[FieldRows] = rows
	return f
}

func (f LogFields) WithDuration(ms int64) LogFields {
	f[FieldDuration] = ms
	return f
}

// ToSlice converts LogFields to slog key/value pairs
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
