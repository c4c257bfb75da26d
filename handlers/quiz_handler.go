package handlers

import (
	"net/http"

	"quizgate/dto"
	"quizgate/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
	}
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quiz, err := h.quizService.CreateQuiz(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.QuizResponse](c, http.StatusCreated, quiz)
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	quizzes, err := h.quizService.ListQuizzes(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[[]dto.QuizResponse](c, http.StatusOK, quizzes)
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuiz(c.Request.Context(), userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.QuizResponse](c, http.StatusOK, quiz)
}

func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quiz, err := h.quizService.UpdateQuiz(c.Request.Context(), userID, quizID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.QuizResponse](c, http.StatusOK, quiz)
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	if err := h.quizService.DeleteQuiz(c.Request.Context(), userID, quizID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuizHandler) ListCreated(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summaries, err := h.quizService.ListCreated(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[[]dto.QuizSummaryResponse](c, http.StatusOK, summaries)
}
