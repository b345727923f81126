package log

import "sort"

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
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"

	FieldAccountID    = "account_id"
	FieldPropertyID   = "property_id"
	FieldReportID     = "report_id"
	FieldReportType   = "report_type"
	FieldYear         = "year"
	FieldStorageKey   = "storage_key"
	FieldFileName     = "file_name"
	FieldSizeBytes    = "size_bytes"
	FieldJobID        = "job_id"
	FieldPropertyCnt  = "property_count"
	FieldSucceededCnt = "succeeded"
	FieldFailedCnt    = "failed"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentBlob      = "blob"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpAggregate = "aggregate"
	OpRender    = "render"
	OpSave      = "save"
	OpBatch     = "batch"
	OpList      = "list"
	OpDownload  = "download"
	OpDelete    = "delete"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
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
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithReport adds the tenant, property and tax year a report is about.
func (f LogFields) WithReport(accountID, propertyID string, year int) LogFields {
	f[FieldAccountID] = accountID
	if propertyID != "" {
		f[FieldPropertyID] = propertyID
	}
	if year != 0 {
		f[FieldYear] = year
	}
	return f
}

// WithArtifact adds the stored record and blob identifiers.
func (f LogFields) WithArtifact(reportID, storageKey string, sizeBytes int64) LogFields {
	f[FieldReportID] = reportID
	f[FieldStorageKey] = storageKey
	f[FieldSizeBytes] = sizeBytes
	return f
}

func (f LogFields) WithJob(jobID string) LogFields {
	if jobID != "" {
		f[FieldJobID] = jobID
	}
	return f
}

// With sets an arbitrary field.
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// WithBatch adds batch outcome counters.
func (f LogFields) WithBatch(total, succeeded, failed int) LogFields {
	f[FieldPropertyCnt] = total
	f[FieldSucceededCnt] = succeeded
	f[FieldFailedCnt] = failed
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to slog key/value pairs, sorted by key.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
