package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// BatchReportMessage asks a worker to generate and save a batch report.
// It carries ids only; the worker reads ledger data itself.
type BatchReportMessage struct {
	JobID       string    `json:"jobId"`
	AccountID   string    `json:"accountId"`
	PropertyIDs []string  `json:"propertyIds"`
	Year        int       `json:"year"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewBatchReportMessage(jobID, accountID string, propertyIDs []string, year int) *BatchReportMessage {
	return &BatchReportMessage{
		JobID:       jobID,
		AccountID:   accountID,
		PropertyIDs: append([]string(nil), propertyIDs...),
		Year:        year,
		Timestamp:   time.Now(),
	}
}

// Validate rejects messages no worker could act on.
func (m *BatchReportMessage) Validate() error {
	switch {
	case m.JobID == "":
		return errors.New("missing job id")
	case m.AccountID == "":
		return errors.New("missing account id")
	case len(m.PropertyIDs) == 0:
		return errors.New("no property ids")
	case m.Year <= 0:
		return errors.New("missing year")
	}
	return nil
}

func (m *BatchReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BatchReportMessageFromJSON decodes and validates a message body.
func BatchReportMessageFromJSON(data []byte) (*BatchReportMessage, error) {
	var msg BatchReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// permanentError marks a handler failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the consumer drops the delivery instead of requeueing it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
