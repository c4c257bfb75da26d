package routes

import (
	"quizgate/handlers"
	"quizgate/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Quiz          *handlers.QuizHandler
	Question      *handlers.QuestionHandler
	Choice        *handlers.ChoiceHandler
	Invitation    *handlers.InvitationHandler
	Participation *handlers.ParticipationHandler
	Live          *handlers.LiveHandler
}

func SetupRoutes(router *gin.Engine, h Handlers, tokens middleware.TokenParser) {
	handlers.UseJSONFieldNames()

	api := router.Group("/api/v1")
	{
		// Public
		api.POST("/register/", h.Auth.Register)
		api.POST("/login/", h.Auth.Login)
		api.POST("/token/refresh/", h.Auth.Refresh)

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(tokens))
		{
			protected.POST("/logout/", h.Auth.Logout)
			protected.GET("/profile/", h.Auth.GetProfile)
			protected.PUT("/profile/", h.Auth.UpdateProfile)

			quizzes := protected.Group("/quiz")
			{
				quizzes.GET("/", h.Quiz.ListQuizzes)
				quizzes.POST("/", h.Quiz.CreateQuiz)
				quizzes.GET("/created/", h.Quiz.ListCreated)
				quizzes.GET("/taken/", h.Participation.ListTaken)
				quizzes.POST("/join/", h.Participation.JoinWithPassword)
				quizzes.POST("/join/:code/", h.Invitation.JoinWithCode)

				quizzes.GET("/:quiz_id/", h.Quiz.GetQuiz)
				quizzes.PUT("/:quiz_id/", h.Quiz.UpdateQuiz)
				quizzes.DELETE("/:quiz_id/", h.Quiz.DeleteQuiz)

				quizzes.GET("/:quiz_id/question/", h.Question.ListQuestions)
				quizzes.POST("/:quiz_id/question/", h.Question.CreateQuestion)
				quizzes.GET("/:quiz_id/question/:question_id/", h.Question.GetQuestion)
				quizzes.PUT("/:quiz_id/question/:question_id/", h.Question.UpdateQuestion)
				quizzes.DELETE("/:quiz_id/question/:question_id/", h.Question.DeleteQuestion)

				quizzes.POST("/:quiz_id/create-invitation/", h.Invitation.CreateInvitation)
				quizzes.GET("/:quiz_id/invitations/", h.Invitation.ListInvitations)
				quizzes.GET("/:quiz_id/participants/", h.Participation.ListParticipants)

				quizzes.GET("/:quiz_id/play/", h.Participation.Play)
				quizzes.POST("/:quiz_id/start/", h.Participation.Start)
				quizzes.POST("/:quiz_id/submit-answer/", h.Participation.SubmitAnswer)
				quizzes.POST("/:quiz_id/finish/", h.Participation.Finish)
			}

			choices := protected.Group("/question/:question_id/choice")
			{
				choices.GET("/", h.Choice.ListChoices)
				choices.POST("/", h.Choice.CreateChoice)
				choices.GET("/:choice_id/", h.Choice.GetChoice)
				choices.PUT("/:choice_id/", h.Choice.UpdateChoice)
				choices.DELETE("/:choice_id/", h.Choice.DeleteChoice)
			}

			protected.GET("/user/quizzes/", h.Participation.UserQuizzes)
		}
	}

	// token travels in the query string; browsers cannot set headers on websockets
	router.GET("/ws/quiz/:quiz_id", h.Live.ServeQuizFeed)

	router.GET("/health", handlers.Health)
}
