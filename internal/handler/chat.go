package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/omkargadekar/chats-app/internal/pkg/httputils"
	"github.com/omkargadekar/chats-app/internal/service"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chats", h.listChats).Methods("GET", "OPTIONS")
	router.HandleFunc("/chats/group", h.createGroupChat).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/group/{chatId}", h.getGroupChat).Methods("GET", "OPTIONS")
	router.HandleFunc("/chats/group/{chatId}", h.renameGroupChat).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/chats/group/{chatId}", h.deleteGroupChat).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/chats/group/{chatId}/{participantId}", h.addParticipant).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/group/{chatId}/{participantId}", h.removeParticipant).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/chats/leave/group/{chatId}", h.leaveGroupChat).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/chats/remove/{chatId}", h.deleteDirectChat).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/chats/read/{chatId}", h.markChatRead).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/c/{receiverId}", h.createOrGetDirectChat).Methods("POST", "OPTIONS")
}

type createGroupChatRequest struct {
	Name         string `json:"name"`
	Participants []uint `json:"participants"`
}

type renameGroupChatRequest struct {
	Name string `json:"name"`
}

// @Summary List chats
// @Description List all chats of the current user, most recent first
// @ID list-chats
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {array} model.ChatView
// @Failure 401 {object} response.ErrorResponse
// @Router /chats [get]
func (h *ChatHandler) listChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(r)
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), userID)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chats)
}

// @Summary Create or get a one-on-one chat
// @Description Returns the existing direct chat with the receiver or creates a new one
// @ID create-direct-chat
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param receiverId path int true "Receiver ID"
// @Success 200 {object} model.ChatView
// @Success 201 {object} model.ChatView
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /chats/c/{receiverId} [post]
func (h *ChatHandler) createOrGetDirectChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(r)
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	receiverID, ok := pathID(r, "receiverId")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid receiver ID")
		return
	}

	chat, created, err := h.chatService.CreateOrGetDirectChat(r.Context(), userID, receiverID)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputils.ResponseJSON(w, status, chat)
}

// @Summary Create group chat
// @Description Create a group chat with at least two other participants
// @ID create-group-chat
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param groupData body createGroupChatRequest true "Group data"
// @Success 201 {object} model.ChatView
// @Failure 401 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /chats/group [post]
func (h *ChatHandler) createGroupChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(r)
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var request createGroupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	r.Body.Close()

	chat, err := h.chatService.CreateGroupChat(r.Context(), userID, request.Name, request.Participants)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, chat)
}

// @Summary Get group chat
// @ID get-group-chat
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Success 200 {object} model.ChatView
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/group/{chatId} [get]
func (h *ChatHandler) getGroupChat(w http.ResponseWriter, r *http.Request) {
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

	chat, err := h.chatService.GetGroupChat(r.Context(), chatID, userID)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

// @Summary Rename group chat
// @Description Rename a group chat, admin only
// @ID rename-group-chat
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Param nameData body renameGroupChatRequest true "New name"
// @Success 200 {object} model.ChatView
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/group/{chatId} [patch]
func (h *ChatHandler) renameGroupChat(w http.ResponseWriter, r *http.Request) {
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

	var request renameGroupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	r.Body.Close()

	chat, err := h.chatService.RenameGroupChat(r.Context(), chatID, userID, request.Name)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

// @Summary Delete group chat
// @Description Delete a group chat with all messages and files, admin only
// @ID delete-group-chat
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Success 204
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/group/{chatId} [delete]
func (h *ChatHandler) deleteGroupChat(w http.ResponseWriter, r *http.Request) {
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

	if err := h.chatService.DeleteGroupChat(r.Context(), chatID, userID); err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Delete direct chat
// @Description Delete a one-on-one chat with all messages and files
// @ID delete-direct-chat
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Success 204
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/remove/{chatId} [delete]
func (h *ChatHandler) deleteDirectChat(w http.ResponseWriter, r *http.Request) {
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

	if err := h.chatService.DeleteDirectChat(r.Context(), chatID, userID); err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Leave group chat
// @ID leave-group-chat
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Success 200 {object} model.ChatView
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/leave/group/{chatId} [delete]
func (h *ChatHandler) leaveGroupChat(w http.ResponseWriter, r *http.Request) {
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

	chat, err := h.chatService.LeaveGroupChat(r.Context(), chatID, userID)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

// @Summary Add participant
// @Description Add a user to a group chat, admin only
// @ID add-participant
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Param participantId path int true "Participant ID"
// @Success 200 {object} model.ChatView
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /chats/group/{chatId}/{participantId} [post]
func (h *ChatHandler) addParticipant(w http.ResponseWriter, r *http.Request) {
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

	participantID, ok := pathID(r, "participantId")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid participant ID")
		return
	}

	chat, err := h.chatService.AddParticipant(r.Context(), chatID, userID, participantID)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

// @Summary Remove participant
// @Description Remove a user from a group chat, admin only
// @ID remove-participant
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Param participantId path int true "Participant ID"
// @Success 200 {object} model.ChatView
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/group/{chatId}/{participantId} [delete]
func (h *ChatHandler) removeParticipant(w http.ResponseWriter, r *http.Request) {
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

	participantID, ok := pathID(r, "participantId")
	if !ok {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid participant ID")
		return
	}

	chat, err := h.chatService.RemoveParticipant(r.Context(), chatID, userID, participantID)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, chat)
}

// @Summary Mark chat as read
// @Description Reset the unread counter of the current user in a chat
// @ID mark-chat-read
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param chatId path int true "Chat ID"
// @Success 204
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/read/{chatId} [post]
func (h *ChatHandler) markChatRead(w http.ResponseWriter, r *http.Request) {
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

	if err := h.chatService.MarkChatRead(r.Context(), chatID, userID); err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
