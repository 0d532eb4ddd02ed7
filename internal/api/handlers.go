package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/sieve/internal/engine"
	"github.com/crimson-sun/sieve/internal/logging"
	"github.com/crimson-sun/sieve/internal/metrics"
	"github.com/crimson-sun/sieve/internal/model"
	"github.com/crimson-sun/sieve/internal/validation"
)

const maxBodyBytes = 1 << 20

// predictRequest uses pointers so that an absent key is distinguishable
// from an empty string.
type predictRequest struct {
	Hostname *string `json:"Hostname" validate:"required"`
	Process  *string `json:"Process" validate:"required"`
	Message  *string `json:"Message" validate:"required"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeStageError(w, r, engine.InvalidRequest(err))
		return
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		fields := verr.FieldsWithTag("required")
		if len(fields) == 0 {
			s.writeStageError(w, r, engine.InvalidRequest(verr))
			return
		}
		s.writeStageError(w, r, engine.ValidationError(fields))
		return
	}

	rec := model.LogRecord{
		Hostname: *req.Hostname,
		Process:  *req.Process,
		Message:  *req.Message,
	}

	pred, err := s.predictor.Predict(ctx, rec)
	if err != nil {
		se, ok := engine.AsStageError(err)
		if !ok {
			se = &engine.StageError{Stage: engine.StagePredict, Err: err}
		}
		s.writeStageError(w, r, se)
		return
	}

	writeJSON(w, http.StatusOK, pred)
}

func (s *Server) writeStageError(w http.ResponseWriter, r *http.Request, se *engine.StageError) {
	if se.Stage == engine.StageValidate {
		metrics.PipelineFailures.WithLabelValues(string(engine.StageValidate)).Inc()
		logging.Ctx(r.Context()).Debug().
			Err(se.Err).
			Strs("fields", se.Fields).
			Msg("rejected request")
	}
	writeJSON(w, se.Status(), errorResponse{
		Error:    se.Message(),
		Category: se.Category(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.widths == nil {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "loading"})
		return
	}
	c, v, m := s.widths()
	writeJSON(w, http.StatusOK, readyResponse{
		Status:      "ready",
		Categorical: c,
		Text:        v,
		Classifier:  m,
	})
}
