package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

type createReportRequest struct {
	PropertyID string `json:"propertyId"`
	Year       int    `json:"year"`
}

type createBatchRequest struct {
	PropertyIDs []string `json:"propertyIds"`
	Year        int      `json:"year"`
	Async       bool     `json:"async"`
}

// decodeJSON reads one JSON object from the body. Malformed input is
// reported as errBadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// parseYear reads ?year=, defaulting to the previous calendar year.
func parseYear(r *http.Request, now time.Time) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return now.Year() - 1, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: year must be a number", errBadRequest)
	}
	return y, nil
}

// cleanIDs trims ids and drops blanks, keeping order and duplicates.
func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
