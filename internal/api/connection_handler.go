package api

import (
	"encoding/json"
	"net/http"

	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/middleware"
	"github.com/skillswap/client/pkg/response"
	"go.uber.org/zap"
)

type ConnectionHandler struct {
	connService *domain.ConnectionService
	logger      *zap.Logger
}

func NewConnectionHandler(connService *domain.ConnectionService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connService: connService,
		logger:      logger,
	}
}

// SendRequest handles POST /api/connections/request
func (h *ConnectionHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req domain.ConnectionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReceiverID <= 0 {
		response.BadRequest(w, "Receiver is required")
		return
	}

	receiverName, err := h.connService.SendRequest(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.logger, err, "send connection request")
		return
	}

	response.Success(w, "Connection request sent successfully to "+receiverName)
}

// Received handles GET /api/connections/received
func (h *ConnectionHandler) Received(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	requests, err := h.connService.Received(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "list received requests")
		return
	}
	response.OK(w, requests)
}

// Sent handles GET /api/connections/sent
func (h *ConnectionHandler) Sent(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	requests, err := h.connService.Sent(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "list sent requests")
		return
	}
	response.OK(w, requests)
}

// Accept handles PUT /api/connections/{id}/accept
func (h *ConnectionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, domain.DecisionAccept, "Connection request accepted successfully")
}

// Decline handles PUT /api/connections/{id}/decline
func (h *ConnectionHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, domain.DecisionDecline, "Connection request declined successfully")
}

func (h *ConnectionHandler) respond(w http.ResponseWriter, r *http.Request, decision domain.Decision, message string) {
	userID, _ := middleware.GetUserID(r.Context())

	requestID, ok := idParam(r, "id")
	if !ok {
		response.BadRequest(w, domain.ErrRequestNotFound.Error())
		return
	}

	conn, err := h.connService.Respond(r.Context(), userID, requestID, decision)
	if err != nil {
		writeError(w, h.logger, err, "respond to connection request")
		return
	}

	h.logger.Info("connection request answered",
		zap.Int64("request_id", conn.ID),
		zap.String("status", string(conn.Status)),
	)
	response.Success(w, message)
}
