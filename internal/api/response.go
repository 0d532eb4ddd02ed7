package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/sieve/internal/logging"
)

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type readyResponse struct {
	Status      string `json:"status"`
	Categorical int    `json:"categorical_width"`
	Text        int    `json:"text_width"`
	Classifier  int    `json:"classifier_width"` // -1 when the model does not declare it
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("failed to encode JSON response")
	}
}
