package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-reviewer/internal/checkpoint"
	"github.com/jonathan/resume-reviewer/internal/ingestion"
	"github.com/jonathan/resume-reviewer/internal/pipeline"
	"github.com/jonathan/resume-reviewer/internal/scoring"
	"github.com/jonathan/resume-reviewer/internal/types"
)

// AnalysisRequest is the JSON body of POST /analyses. Multipart uploads send
// the resume as the "file" part and thread_id as a form value instead.
type AnalysisRequest struct {
	ThreadID   string `json:"thread_id,omitempty"`
	Resume     string `json:"resume"`
	SourceName string `json:"source_name,omitempty"`
}

// AnalysisResponse acknowledges a started analysis
type AnalysisResponse struct {
	ThreadID string `json:"thread_id"`
	Status   string `json:"status"`
}

// AnalysisSummary is one entry of GET /analyses
type AnalysisSummary struct {
	ThreadID    string              `json:"thread_id"`
	SourceName  string              `json:"source_name,omitempty"`
	Status      string              `json:"status"`
	CurrentStep string              `json:"current_step,omitempty"`
	Summary     *types.ScoreSummary `json:"summary,omitempty"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ScoresResponse is the body of GET /analyses/{id}/scores
type ScoresResponse struct {
	ThreadID   string                     `json:"thread_id"`
	Summary    *types.ScoreSummary        `json:"summary"`
	Sections   []scoring.Section          `json:"sections"`
	Violations []types.AlignmentViolation `json:"violations,omitempty"`
}

// completeEvent is the final event of a streamed analysis
type completeEvent struct {
	ThreadID   string                     `json:"thread_id"`
	Status     string                     `json:"status"`
	Summary    *types.ScoreSummary        `json:"summary,omitempty"`
	Violations []types.AlignmentViolation `json:"violations,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

// readAnalysisRequest accepts a multipart upload or a JSON body and returns
// run options holding cleaned resume text and a thread id.
func (s *Server) readAnalysisRequest(w http.ResponseWriter, r *http.Request) (pipeline.RunOptions, error) {
	var opts pipeline.RunOptions
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return opts, &ErrValidation{Field: "file", Message: err.Error()}
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return opts, &ErrValidation{Field: "file", Message: "resume file is required"}
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return opts, &ErrValidation{Field: "file", Message: err.Error()}
		}
		doc, err := ingestion.IngestBytes(header.Filename, data)
		if err != nil {
			return opts, err
		}
		opts.Resume = doc.Text
		opts.SourceName = doc.Metadata.Source
		opts.ThreadID = r.FormValue("thread_id")
	} else {
		var req AnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return opts, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
		}
		opts.Resume = ingestion.CleanText(req.Resume)
		opts.SourceName = req.SourceName
		opts.ThreadID = req.ThreadID
	}

	if opts.Resume == "" {
		return opts, pipeline.ErrEmptyResume
	}
	opts.ThreadID = strings.TrimSpace(opts.ThreadID)
	if strings.ContainsAny(opts.ThreadID, "/ \t\n") || len(opts.ThreadID) > 128 {
		return opts, &ErrValidation{Field: "thread_id", Message: "must be at most 128 characters without slashes or spaces"}
	}
	if opts.ThreadID == "" {
		opts.ThreadID = uuid.NewString()
	}
	return opts, nil
}

// handleCreateAnalysis records a pending analysis, starts it in the
// background and returns its thread id
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	opts, err := s.readAnalysisRequest(w, r)
	if err == nil {
		opts, err = s.analyzer.Prepare(r.Context(), opts)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	logger := s.logger.With(zap.String("thread_id", opts.ThreadID))
	logger.Info("starting analysis", zap.String("source", opts.SourceName))

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		run, err := s.analyzer.Run(s.runCtx, opts)
		switch {
		case err == nil:
		case run.Complete():
			logger.Warn("analysis completed without a score summary", zap.Error(err))
		default:
			logger.Error("analysis failed", zap.Error(err))
		}
	}()

	s.jsonResponse(w, http.StatusAccepted, AnalysisResponse{ThreadID: opts.ThreadID, Status: "started"})
}

// handleStreamAnalysis runs an analysis within the request and streams every
// stage boundary as an SSE "progress" event. Disconnecting cancels the run at
// its next stage boundary.
func (s *Server) handleStreamAnalysis(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		s.errorResponse(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	opts, err := s.readAnalysisRequest(w, r)
	if err == nil {
		opts, err = s.analyzer.Prepare(r.Context(), opts)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	stopKeepAlive := sse.KeepAlive(s.keepAlive)
	defer stopKeepAlive()

	logger := s.logger.With(zap.String("thread_id", opts.ThreadID))
	opts.OnProgress = func(event types.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			logger.Warn("error writing SSE event", zap.Error(err))
		}
	}

	run, err := s.analyzer.Run(r.Context(), opts)
	var empty *scoring.EmptyScoreSetError
	if err != nil && !(errors.As(err, &empty) && run.Complete()) {
		logger.Error("streamed analysis failed", zap.Error(err))
		sse.WriteError(opts.ThreadID, HTTPStatus(err), err.Error())
		return
	}

	sse.WriteComplete(completeEvent{
		ThreadID:   run.ThreadID,
		Status:     run.Status,
		Summary:    run.Summary,
		Violations: run.Violations,
		Error:      run.Error,
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	filter := checkpoint.Filter{Status: r.URL.Query().Get("status")}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, &ErrValidation{Field: name, Message: "must be a non-negative integer"})
			return
		}
		*dst = n
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	runs, err := s.analyzer.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	items := make([]AnalysisSummary, 0, len(runs))
	for _, run := range runs {
		items = append(items, AnalysisSummary{
			ThreadID:    run.ThreadID,
			SourceName:  run.SourceName,
			Status:      run.Status,
			CurrentStep: run.CurrentStep,
			Summary:     run.Summary,
			Error:       run.Error,
			CreatedAt:   run.CreatedAt,
			UpdatedAt:   run.UpdatedAt,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"analyses": items, "count": len(items)})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	run, err := s.analyzer.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

func (s *Server) handleGetScores(w http.ResponseWriter, r *http.Request) {
	run, err := s.analyzer.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !run.Complete() || run.Summary == nil {
		s.writeError(w, &ErrScoresUnavailable{ThreadID: run.ThreadID, Status: run.Status, Reason: run.Error})
		return
	}

	s.jsonResponse(w, http.StatusOK, ScoresResponse{
		ThreadID:   run.ThreadID,
		Summary:    run.Summary,
		Sections:   scoring.Sections(&run.State),
		Violations: run.Violations,
	})
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.analyzer.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
