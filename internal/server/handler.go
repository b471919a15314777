package server

import (
	"encoding/json"
	"net/http"

	"resumatch/internal/observability"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createMatchHandler serves POST /match
func (s *Server) createMatchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumatch.api").Start(r.Context(), "api.match")
		defer span.End()

		var req types.MatchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if err := validateRequest(req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, r, "Invalid request", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.Resume)),
			attribute.Int("request.job_length", len(req.JobDescription)),
		)

		report, err := s.Components.Pipeline.Run(ctx, req.Resume, req.JobDescription)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, r, "Failed to score resume", err)
			return
		}

		span.SetAttributes(attribute.Float64("score.final", report.FinalScore))
		s.writeJSON(w, r, http.StatusOK, report)
	}
}

// createKeywordsHandler serves POST /keywords
func (s *Server) createKeywordsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumatch.api").Start(r.Context(), "api.keywords")
		defer span.End()

		var req types.KeywordsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if err := validateRequest(req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid request", err.Error(), http.StatusBadRequest)
			return
		}

		limit := -1
		if req.MaxKeywords != nil {
			limit = *req.MaxKeywords
		}
		report, err := s.Components.Pipeline.ExtractKeywords(ctx, req.Text, limit)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, r, "Failed to extract keywords", err)
			return
		}

		span.SetAttributes(attribute.Int("keywords.count", len(report.Keywords)))
		s.writeJSON(w, r, http.StatusOK, report)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response",
			"endpoint", r.URL.Path,
			"request_id", requestIDFrom(r.Context()))
	}
}
