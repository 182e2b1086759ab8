package httputils

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/omkargadekar/chats-app/api/response"
	"github.com/omkargadekar/chats-app/internal/pkg/apperr"
)

func ResponseError(w http.ResponseWriter, errorCode int, errorMessage string) {
	ResponseJSON(w, errorCode, response.ErrorResponse{
		Message: errorMessage,
	})
}

// ResponseAppError раскладывает ошибку по таксономии apperr.
func ResponseAppError(w http.ResponseWriter, err error) {
	ResponseError(w, apperr.StatusOf(err), apperr.MessageOf(err))
}

func ResponseJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}
