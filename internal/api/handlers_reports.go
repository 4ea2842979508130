package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/reportgen/internal/pipeline"
	"github.com/dgallion1/reportgen/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// sectionRequest mirrors report.Section for request bodies.
type sectionRequest struct {
	Title       string           `json:"title"`
	Content     string           `json:"content,omitempty"`
	Subsections []sectionRequest `json:"subsections,omitempty"`
}

type createReportRequest struct {
	Title         string           `json:"title"`
	Sections      []sectionRequest `json:"sections,omitempty"`
	Outline       string           `json:"outline,omitempty"`
	ResearchDir   string           `json:"research_dir,omitempty"`
	IncludeImages bool             `json:"include_images"`
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	if len(req.Sections) == 0 && strings.TrimSpace(req.Outline) == "" {
		jsonError(w, "either sections or outline is required", http.StatusBadRequest)
		return
	}
	if len(req.Sections) > 0 && strings.TrimSpace(req.Outline) != "" {
		jsonError(w, "sections and outline are mutually exclusive", http.StatusBadRequest)
		return
	}

	structure, err := s.buildStructure(req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(structure.Sections) == 0 {
		jsonError(w, "outline contains no sections", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(uuid.NewString(), structure, req.ResearchDir, req.IncludeImages)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":       job.ID,
		"status":       job.Status,
		"sections":     structure.CountSections(),
		"poll_url":     fmt.Sprintf("/api/reports/%s/status", job.ID),
		"download_url": fmt.Sprintf("/api/reports/%s/download", job.ID),
	})
}

func (s *Server) buildStructure(req createReportRequest) (*report.Structure, error) {
	if req.Outline != "" {
		structure, err := report.ParseOutline(strings.NewReader(req.Outline), req.Title)
		if err != nil {
			return nil, fmt.Errorf("parse outline: %w", err)
		}
		return structure, nil
	}
	return &report.Structure{
		Title:    req.Title,
		Sections: convertSections(req.Sections),
	}, nil
}

func convertSections(reqs []sectionRequest) []*report.Section {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]*report.Section, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, &report.Section{
			Title:       r.Title,
			Content:     r.Content,
			Subsections: convertSections(r.Subsections),
		})
	}
	return out
}

func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	path := job.Artifact()
	if path == "" {
		jsonError(w, "report not ready", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
