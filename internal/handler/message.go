package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/omkargadekar/chats-app/internal/pkg/httputils"
	"github.com/omkargadekar/chats-app/internal/service"
)

const (
	maxUploadSize  = 32 << 20 // 32MB на форму
	maxAttachments = 5
)

type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/messages/{chatId}", h.getMessages).Methods("GET", "OPTIONS")
	router.HandleFunc("/messages/{chatId}", h.sendMessage).Methods("POST", "OPTIONS")
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// @Summary Get messages
// @Description List chat messages, newest first
// @ID get-messages
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Success 200 {array} model.MessageView
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /messages/{chatId} [get]
func (h *MessageHandler) getMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(r)
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	chatID, ok := pathID(r, "chatId")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	messages, err := h.messageService.ListMessages(r.Context(), chatID, userID)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, messages)
}

// @Summary Send message
// @Description Send a message with optional attachments (multipart form, field "attachments") or plain JSON content
// @ID send-message
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Success 201 {object} service.SendMessageResult
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /messages/{chatId} [post]
func (h *MessageHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(r)
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	chatID, ok := pathID(r, "chatId")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	input := service.SendMessageInput{ChatID: chatID, SenderID: userID}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			httputils.ResponseError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		input.Content = r.FormValue("content")

		files := r.MultipartForm.File["attachments"]
		if len(files) > maxAttachments {
			httputils.ResponseError(w, http.StatusBadRequest, "Too many attachments")
			return
		}
		for _, header := range files {
			f, err := header.Open()
			if err != nil {
				httputils.ResponseError(w, http.StatusBadRequest, "Failed to read attachment")
				return
			}
			defer f.Close()

			input.Files = append(input.Files, service.FileUpload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Reader:      f,
				Size:        header.Size,
			})
		}
	} else {
		var request sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		r.Body.Close()
		input.Content = request.Content
	}

	result, err := h.messageService.SendMessage(r.Context(), input)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, result)
}
