package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"rentaltax/internal/core"
	"rentaltax/internal/log"
	"rentaltax/internal/tenant"
)

type errorBody struct {
	Error string `json:"error"`
}

// resultView is one batch item without its PDF bytes.
type resultView struct {
	PropertyID   string  `json:"propertyId"`
	PropertyName string  `json:"propertyName"`
	Success      bool    `json:"success"`
	HasData      bool    `json:"hasData"`
	Error        *string `json:"error,omitempty"`
}

type batchView struct {
	Year        int                  `json:"year"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Total       int                  `json:"total"`
	Succeeded   int                  `json:"succeeded"`
	Failed      int                  `json:"failed"`
	Results     []resultView         `json:"results"`
	Report      *core.ReportListItem `json:"report"`
}

type jobView struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

func newBatchView(result *core.BatchResult, rec *core.GeneratedReport) batchView {
	v := batchView{
		Year:        result.Year,
		GeneratedAt: result.GeneratedAt,
		Total:       len(result.Results),
		Results:     make([]resultView, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		if r.Success {
			v.Succeeded++
		} else {
			v.Failed++
		}
		v.Results = append(v.Results, resultView{
			PropertyID:   r.PropertyID,
			PropertyName: r.PropertyName,
			Success:      r.Success,
			HasData:      r.HasData,
			Error:        r.ErrorMessage,
		})
	}
	if rec != nil {
		item := rec.ListItem()
		v.Report = &item
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeFile sends data as a named attachment, or inline for previews.
func writeFile(w http.ResponseWriter, fileName, contentType string, data []byte, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": fileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tenant.ErrNoAccount):
		return http.StatusUnauthorized
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes its mapped status. Internal failures are
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithOperation(op).WithError(err)
	if id, ok := tenant.AccountID(r.Context()); ok {
		fields.With(log.FieldAccountID, id)
	}

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = "internal error"
		logger.ErrorContext(r.Context(), "Request failed", fields.WithErrorType(log.ErrorTypeInternal).ToSlice()...)
	case http.StatusNotFound:
		msg = "not found"
		logger.InfoContext(r.Context(), "Resource not found", fields.WithErrorType(log.ErrorTypeNotFound).ToSlice()...)
	default:
		logger.InfoContext(r.Context(), "Request rejected", fields.WithErrorType(log.ErrorTypeValidation).ToSlice()...)
	}
	writeJSON(w, status, errorBody{Error: msg})
}
