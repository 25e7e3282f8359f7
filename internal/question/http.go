package question

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/casnerano/snippet-war/pkg/http/errors"
)

// HTTPHandler exposes the question pipeline over HTTP.
type HTTPHandler struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandler(service *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		logger:  logger.With().Str("component", "question_http").Logger(),
	}
}

// HandleGenerate serves POST /v1/questions/generate.
func (h *HTTPHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "method not allowed")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	q, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.respondGenerateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, q)
}

// HandleBatch serves POST /v1/questions/batch.
func (h *HTTPHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "method not allowed")
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	questions, err := h.service.GetBatch(r.Context(), req)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, reqErr.Error())
			return
		}
		h.logger.Error().Err(err).Msg("batch request failed")
		httperrors.RespondInternalError(w, "failed to assemble batch")
		return
	}

	respondJSON(w, http.StatusOK, questions)
}

// HandleTopics serves GET /v1/topics?language=<id>.
func (h *HTTPHandler) HandleTopics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "method not allowed")
		return
	}

	language := Language(r.URL.Query().Get("language"))
	if !language.IsValid() {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "unsupported language")
		return
	}

	respondJSON(w, http.StatusOK, TopicsFor(language))
}

func (h *HTTPHandler) respondGenerateError(w http.ResponseWriter, err error) {
	var (
		reqErr      *RequestError
		genErr      *GenerationError
		mismatchErr *MismatchError
	)
	switch {
	case errors.As(err, &reqErr):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, reqErr.Error())
	case errors.As(err, &genErr):
		httperrors.RespondBadGateway(w, httperrors.ErrCodeUpstreamError, genErr.Error())
	case errors.As(err, &mismatchErr):
		httperrors.RespondBadGateway(w, httperrors.ErrCodeGenerationFailed, mismatchErr.Error())
	default:
		h.logger.Error().Err(err).Msg("question generation failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeStorageError, "failed to generate question")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
