package handlers

import (
	"errors"
	"io"
	"net/http"

	"quizgate/dto"
	"quizgate/services"

	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	var req services.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	invitation, err := h.invitationService.Create(c.Request.Context(), userID, quizID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.InvitationResponse](c, http.StatusCreated, invitation)
}

func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	invitations, err := h.invitationService.List(c.Request.Context(), userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[[]dto.InvitationResponse](c, http.StatusOK, invitations)
}

func (h *InvitationHandler) JoinWithCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.invitationService.Join(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.JoinResponse](c, http.StatusOK, result)
}
