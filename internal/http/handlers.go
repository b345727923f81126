package http

import (
	"net/http"
	"strings"

	"rentaltax/internal/core"
	"rentaltax/internal/log"
	"rentaltax/internal/tenant"
)

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	accountID, err := tenant.RequireAccount(r.Context())
	if err != nil {
		writeError(w, r, log.OpAggregate, err)
		return
	}
	year, err := parseYear(r, s.now())
	if err != nil {
		writeError(w, r, log.OpAggregate, err)
		return
	}

	report, err := s.reports.Aggregate(r.Context(), accountID, r.PathValue("id"), year)
	if err != nil {
		writeError(w, r, log.OpAggregate, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePreviewPDF(w http.ResponseWriter, r *http.Request) {
	accountID, err := tenant.RequireAccount(r.Context())
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	year, err := parseYear(r, s.now())
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}

	single, err := s.reports.GenerateSingle(r.Context(), accountID, r.PathValue("id"), year)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	writeFile(w, single.FileName(), core.ContentTypePDF, single.PDF, true)
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	accountID, err := tenant.RequireAccount(r.Context())
	if err != nil {
		writeError(w, r, log.OpSave, err)
		return
	}
	var req createReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpSave, err)
		return
	}
	propertyID := strings.TrimSpace(req.PropertyID)
	if propertyID == "" {
		writeError(w, r, log.OpSave, core.Validation("propertyId is required"))
		return
	}

	rec, err := s.reports.GenerateAndSaveSingle(r.Context(), accountID, propertyID, req.Year)
	if err != nil {
		writeError(w, r, log.OpSave, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec.ListItem())
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	accountID, err := tenant.RequireAccount(r.Context())
	if err != nil {
		writeError(w, r, log.OpBatch, err)
		return
	}
	var req createBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpBatch, err)
		return
	}
	ids := cleanIDs(req.PropertyIDs)

	if req.Async && s.publisher != nil {
		s.enqueueBatch(w, r, accountID, ids, req.Year)
		return
	}

	result, rec, err := s.reports.RunBatch(r.Context(), accountID, ids, req.Year)
	if err != nil {
		writeError(w, r, log.OpBatch, err)
		return
	}
	status := http.StatusCreated
	if rec == nil {
		status = http.StatusOK
	}
	writeJSON(w, status, newBatchView(result, rec))
}

// enqueueBatch validates what can be checked without ledger access and
// hands the job to the worker queue.
func (s *Server) enqueueBatch(w http.ResponseWriter, r *http.Request, accountID string, ids []string, year int) {
	if len(ids) == 0 {
		writeError(w, r, log.OpPublish, core.Validation("at least one property must be selected"))
		return
	}
	if err := core.ValidateTaxYear(year); err != nil {
		writeError(w, r, log.OpPublish, core.Validation("invalid tax year %d", year))
		return
	}

	jobID := s.newJobID()
	if err := s.publisher.PublishBatchReport(r.Context(), jobID, accountID, ids, year); err != nil {
		writeError(w, r, log.OpPublish, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Batch report job queued",
		log.NewFields().WithReport(accountID, "", year).WithJob(jobID).
			With(log.FieldPropertyCnt, len(ids)).WithOperation(log.OpPublish).ToSlice()...)
	writeJSON(w, http.StatusAccepted, jobView{JobID: jobID, Status: "queued"})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	accountID, err := tenant.RequireAccount(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	items, err := s.reports.List(r.Context(), accountID)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	accountID, err := tenant.RequireAccount(r.Context())
	if err != nil {
		writeError(w, r, log.OpDownload, err)
		return
	}
	artifact, err := s.reports.Download(r.Context(), accountID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpDownload, err)
		return
	}
	writeFile(w, artifact.FileName, artifact.ContentType, artifact.Data, false)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	accountID, err := tenant.RequireAccount(r.Context())
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.reports.Delete(r.Context(), accountID, r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
