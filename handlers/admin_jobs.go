package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-dev/storefrontbackend/repository"
	"github.com/atelier-dev/storefrontbackend/workers"
)

// JobsHandler exposes the migration and consistency jobs as on-demand
// administrative operations. Each runs to completion within the request
// (the router's timeout middleware supplies the deadline) and answers with
// the job's report.
type JobsHandler struct {
	Migrator *workers.Migrator
}

// RunBackfill migrates one content table's legacy references, e.g.
// POST /api/admin/jobs/backfill/products
func (h *JobsHandler) RunBackfill(w http.ResponseWriter, r *http.Request) {
	tableKey := chi.URLParam(r, "table")
	if _, ok := repository.ContentTables[tableKey]; !ok {
		keys := make([]string, 0, len(repository.ContentTables))
		for k := range repository.ContentTables {
			keys = append(keys, k)
		}
		writeAPIError(w, http.StatusNotFound, "unknown_table",
			"unknown content table '"+tableKey+"' (expected one of: "+strings.Join(keys, ", ")+")")
		return
	}

	report, err := h.Migrator.Backfill(r.Context(), tableKey)
	if err != nil {
		log.Printf("Error running backfill for %s: %v", tableKey, err)
		writeAPIError(w, http.StatusInternalServerError, "job_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RunFixDimensions repairs records with missing width/height
func (h *JobsHandler) RunFixDimensions(w http.ResponseWriter, r *http.Request) {
	report, err := h.Migrator.FixMissingDimensions(r.Context())
	if err != nil {
		log.Printf("Error running dimension repair: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "job_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RunCleanup removes records whose original file has gone missing
func (h *JobsHandler) RunCleanup(w http.ResponseWriter, r *http.Request) {
	report, err := h.Migrator.CleanupBroken(r.Context())
	if err != nil {
		log.Printf("Error running cleanup: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "job_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RunReprocess rebuilds every record's derivatives from its stored original
func (h *JobsHandler) RunReprocess(w http.ResponseWriter, r *http.Request) {
	report, err := h.Migrator.ReprocessAll(r.Context())
	if err != nil {
		log.Printf("Error running reprocess: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "job_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}
