package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	appErrors "atsmatch/internal/errors"
	"atsmatch/internal/extract"
	"atsmatch/internal/observability"
	"atsmatch/internal/types"
	"atsmatch/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgMissingMatchInput = "Missing resume or JD text"
	msgMissingRephrase   = "Missing text or JD"
	msgInvalidAction     = "Invalid action"
	msgNoFile            = "No file uploaded"
)

// decode parses and validates a JSON body. On failure it writes the response
// and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, span trace.Span, v any, missingMsg string) bool {
	if err := parseJSONRequest(r, v); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, missingMsg, validationDetail(err), http.StatusBadRequest)
		return false
	}
	return true
}

// unavailable answers 503 for generator-backed endpoints with no generator
func (s *Server) unavailable(w http.ResponseWriter) {
	msg := "generator is not configured"
	if s.deps.AIError != nil {
		msg = s.deps.AIError.Error()
	}
	writeErrorResponse(w, "AI service unavailable", msg, http.StatusServiceUnavailable)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("atsmatch.api").Start(r.Context(), "api.score")
	defer span.End()

	var req types.MatchInput
	if !s.decode(w, r, span, &req, msgMissingMatchInput) {
		return
	}

	result := s.score(ctx, span, req.ResumeText, req.JobDescription)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("atsmatch.api").Start(r.Context(), "api.optimize")
	defer span.End()

	var req types.MatchInput
	if !s.decode(w, r, span, &req, msgMissingMatchInput) {
		return
	}
	s.optimize(ctx, w, r, span, req.ResumeText, req.JobDescription)
}

// handleResume dispatches on the request's action field
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("atsmatch.api").Start(r.Context(), "api.resume")
	defer span.End()

	var req ResumeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Action != "score" && req.Action != "optimize" {
		writeErrorResponse(w, msgInvalidAction, fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, msgMissingMatchInput, validationDetail(err), http.StatusBadRequest)
		return
	}

	span.SetAttributes(attribute.String("request.action", req.Action))
	if req.Action == "score" {
		writeJSON(w, http.StatusOK, s.score(ctx, span, req.ResumeText, req.JobDescription))
		return
	}
	s.optimize(ctx, w, r, span, req.ResumeText, req.JobDescription)
}

func (s *Server) score(ctx context.Context, span trace.Span, resumeText, jobDescription string) types.ScoreResult {
	span.SetAttributes(
		attribute.Int("request.resume_length", len(resumeText)),
		attribute.Int("request.job_length", len(jobDescription)),
	)

	var result types.ScoreResult
	_ = s.om.TrackOperation(ctx, "score", func(context.Context) error {
		result = s.deps.Scorer.Score(resumeText, jobDescription)
		return nil
	})
	s.om.RecordScore(ctx, "http", result)
	s.om.RecordBusinessMetric(ctx, observability.MetricResumeScored, true)
	span.SetAttributes(attribute.Float64("response.score", result.Score))
	return result
}

func (s *Server) optimize(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span, resumeText, jobDescription string) {
	if s.deps.Optimizer == nil {
		s.unavailable(w)
		return
	}

	score := s.score(ctx, span, resumeText, jobDescription)

	var result *types.OptimizationResult
	err := s.om.TrackOperation(ctx, "optimize", func(ctx context.Context) error {
		var err error
		result, err = s.deps.Optimizer.OptimizeScored(ctx, resumeText, jobDescription, score)
		return err
	})
	s.om.RecordBusinessMetric(ctx, observability.MetricResumeOptimized, err == nil)
	if err != nil {
		span.RecordError(err)
		s.writeAppError(w, r, err, "Failed to optimize resume")
		return
	}

	span.SetAttributes(attribute.Float64("response.expected_boost", result.ExpectedScoreBoost))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("atsmatch.api").Start(r.Context(), "api.analyze")
	defer span.End()

	var req types.GapAnalysisInput
	if !s.decode(w, r, span, &req, msgMissingMatchInput) {
		return
	}
	if s.deps.Analyzer == nil {
		s.unavailable(w)
		return
	}

	var analysis types.GapAnalysis
	err := s.om.TrackOperation(ctx, "analyze", func(ctx context.Context) error {
		var err error
		analysis, err = s.deps.Analyzer.AnalyzeGap(ctx, req)
		return err
	})
	s.om.RecordBusinessMetric(ctx, observability.MetricGapAnalyzed, err == nil)
	if err != nil {
		span.RecordError(err)
		s.writeAppError(w, r, err, "Failed to analyze resume")
		return
	}

	span.SetAttributes(
		attribute.Float64("response.total_score", analysis.Scores.Total),
		attribute.Int("response.gaps", len(analysis.Gaps)),
	)
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleRephrase(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("atsmatch.api").Start(r.Context(), "api.rephrase")
	defer span.End()

	var req types.RephraseInput
	if !s.decode(w, r, span, &req, msgMissingRephrase) {
		return
	}
	if s.deps.Rephraser == nil {
		s.unavailable(w)
		return
	}

	var result types.RephraseResult
	err := s.om.TrackOperation(ctx, "rephrase", func(ctx context.Context) error {
		var err error
		result, err = s.deps.Rephraser.Rephrase(ctx, req)
		return err
	})
	s.om.RecordBusinessMetric(ctx, observability.MetricSectionRephrased, err == nil)
	if err != nil {
		span.RecordError(err)
		s.writeAppError(w, r, err, "Failed to optimize text")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleParse extracts text from an uploaded document (multipart field "file")
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer("atsmatch.api").Start(r.Context(), "api.parse")
	defer span.End()

	if s.MaxFileSize > 0 {
		// multipart framing needs some room beyond the file itself
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxFileSize+64*1024)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErrorResponse(w, "File too large",
				fmt.Sprintf("limit is %s", utils.FormatFileSize(s.MaxFileSize)), http.StatusRequestEntityTooLarge)
			return
		}
		writeErrorResponse(w, msgNoFile, "multipart field \"file\" is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if s.MaxFileSize > 0 && header.Size > s.MaxFileSize {
		writeErrorResponse(w, "File too large",
			fmt.Sprintf("%s exceeds limit of %s", utils.FormatFileSize(header.Size), utils.FormatFileSize(s.MaxFileSize)),
			http.StatusRequestEntityTooLarge)
		return
	}

	contentType := extract.NormalizeContentType(header.Header.Get("Content-Type"))
	if !extract.Supported(contentType) {
		if byName, ok := extract.ContentTypeForFile(header.Filename); ok {
			contentType = byName
		}
	}
	span.SetAttributes(
		attribute.String("request.filename", filepath.Base(header.Filename)),
		attribute.String("request.content_type", contentType),
		attribute.Int64("request.size", header.Size),
	)

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeAppError(w, r, appErrors.NewIOError(appErrors.ErrCodeFileNotReadable, "Failed to read upload", err), "Failed to parse file")
		return
	}

	var text string
	err = s.om.TrackOperation(ctx, "parse", func(context.Context) error {
		var err error
		text, err = extract.Extract(data, contentType)
		return err
	})
	s.om.RecordBusinessMetric(ctx, observability.MetricDocumentParsed, err == nil,
		attribute.String("content_type", contentType))
	if err != nil {
		span.RecordError(err)
		s.writeAppError(w, r, err, "Failed to parse file")
		return
	}

	writeJSON(w, http.StatusOK, types.ParseResult{Text: text})
}
