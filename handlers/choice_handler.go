package handlers

import (
	"net/http"

	"quizgate/dto"
	"quizgate/services"

	"github.com/gin-gonic/gin"
)

type ChoiceHandler struct {
	choiceService *services.ChoiceService
}

func NewChoiceHandler(choiceService *services.ChoiceService) *ChoiceHandler {
	return &ChoiceHandler{choiceService: choiceService}
}

func (h *ChoiceHandler) ListChoices(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}

	choices, err := h.choiceService.ListChoices(c.Request.Context(), userID, questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[[]dto.ChoiceResponse](c, http.StatusOK, choices)
}

func (h *ChoiceHandler) CreateChoice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}

	var req services.ChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	choice, err := h.choiceService.CreateChoice(c.Request.Context(), userID, questionID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.ChoiceResponse](c, http.StatusCreated, choice)
}

func (h *ChoiceHandler) GetChoice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}
	choiceID, ok := pathID(c, "choice_id")
	if !ok {
		return
	}

	choice, err := h.choiceService.GetChoice(c.Request.Context(), userID, questionID, choiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.ChoiceResponse](c, http.StatusOK, choice)
}

func (h *ChoiceHandler) UpdateChoice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}
	choiceID, ok := pathID(c, "choice_id")
	if !ok {
		return
	}

	var req services.ChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	choice, err := h.choiceService.UpdateChoice(c.Request.Context(), userID, questionID, choiceID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.ChoiceResponse](c, http.StatusOK, choice)
}

func (h *ChoiceHandler) DeleteChoice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}
	choiceID, ok := pathID(c, "choice_id")
	if !ok {
		return
	}

	if err := h.choiceService.DeleteChoice(c.Request.Context(), userID, questionID, choiceID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
