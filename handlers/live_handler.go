package handlers

import (
	"net/http"

	"quizgate/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// LiveHandler upgrades a quiz creator's dashboard to a websocket feed.
type LiveHandler struct {
	authService *services.AuthService
	quizService *services.QuizService
	hub         *services.Hub
	upgrader    websocket.Upgrader
}

func NewLiveHandler(authService *services.AuthService, quizService *services.QuizService, hub *services.Hub, origins []string) *LiveHandler {
	return &LiveHandler{
		authService: authService,
		quizService: quizService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

func (h *LiveHandler) ServeQuizFeed(c *gin.Context) {
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	claims, err := h.authService.ParseAccessToken(ctx, c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.quizService.GetQuiz(ctx, claims.UserID, quizID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Uint("quiz_id", quizID).Msg("websocket upgrade failed")
		return
	}
	if h.hub.RegisterClient(conn, quizID, claims.UserID) == nil {
		log.Warn().Uint("quiz_id", quizID).Msg("live hub is not running")
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
