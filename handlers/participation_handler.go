package handlers

import (
	"net/http"

	"quizgate/dto"
	"quizgate/services"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type ParticipationHandler struct {
	participationService *services.ParticipationService
	answerService        *services.AnswerService
	quizService          *services.QuizService
}

func NewParticipationHandler(
	participationService *services.ParticipationService,
	answerService *services.AnswerService,
	quizService *services.QuizService,
) *ParticipationHandler {
	return &ParticipationHandler{
		participationService: participationService,
		answerService:        answerService,
		quizService:          quizService,
	}
}

func (h *ParticipationHandler) JoinWithPassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.JoinQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.participationService.JoinWithPassword(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.JoinResponse](c, http.StatusOK, result)
}

func (h *ParticipationHandler) Play(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	play, err := h.participationService.GetPlayable(c.Request.Context(), userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.PlayQuizResponse{Answers: []dto.PlayAnswer{}}
	if err := copier.Copy(&resp, &play.Quiz); err != nil {
		respondError(c, err)
		return
	}
	if play.Participation != nil {
		resp.Participation = &dto.ParticipationResponse{}
		if err := copier.Copy(resp.Participation, play.Participation); err != nil {
			respondError(c, err)
			return
		}
	}
	if len(play.Answers) > 0 {
		if err := copier.Copy(&resp.Answers, &play.Answers); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ParticipationHandler) Start(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	p, err := h.participationService.Start(c.Request.Context(), userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.ParticipationResponse](c, http.StatusOK, p)
}

func (h *ParticipationHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.answerService.Submit(c.Request.Context(), userID, quizID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ParticipationHandler) Finish(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	p, err := h.participationService.Finish(c.Request.Context(), userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[dto.ParticipationResponse](c, http.StatusOK, p)
}

func (h *ParticipationHandler) ListTaken(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	taken, err := h.participationService.ListTaken(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[[]dto.TakenQuizResponse](c, http.StatusOK, taken)
}

func (h *ParticipationHandler) ListParticipants(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}

	participants, err := h.participationService.ListParticipants(c.Request.Context(), userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	render[[]dto.ParticipantResponse](c, http.StatusOK, participants)
}

// UserQuizzes combines the quizzes the user created with the ones they joined.
func (h *ParticipationHandler) UserQuizzes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	created, err := h.quizService.ListCreated(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	taken, err := h.participationService.ListTaken(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.UserQuizzesResponse{
		Created: []dto.QuizSummaryResponse{},
		Taken:   []dto.TakenQuizResponse{},
	}
	if err := copier.Copy(&resp.Created, &created); err != nil {
		respondError(c, err)
		return
	}
	if err := copier.Copy(&resp.Taken, &taken); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
