package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldRecordID    = "record_id"
	FieldRecordDate  = "record_date"
	FieldRecordMode  = "record_mode"
	FieldRouteIDs    = "route_ids"
	FieldParcels     = "parcel_count"
	FieldCollections = "collection_count"
	FieldTotalCents  = "total_cents"
	FieldSheetRef    = "sheet_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentRecord    = "record"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentPhotos    = "photos"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpDelete   = "delete"
	OpList     = "list"
	OpAppend   = "append"
	OpSync     = "sync"
	OpExport   = "export"
	OpValidate = "validate"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

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

// WithRecord adds record-related fields
func (f LogFields) WithRecord(id, date, mode string, totalCents int64) LogFields {
	f[FieldRecordID] = id
	f[FieldRecordDate] = date
	f[FieldRecordMode] = mode
	f[FieldTotalCents] = totalCents
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
