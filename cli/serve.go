package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quizgate/config"
	"quizgate/handlers"
	"quizgate/logger"
	"quizgate/middleware"
	"quizgate/models"
	"quizgate/routes"
	"quizgate/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, cfg.LogPretty)

			app := fx.New(
				fx.NopLogger,
				fx.Supply(cfg),
				fx.Provide(
					newDatabase,
					newRedis,
					newHub,
					newGinEngine,
				),
				fx.Provide(
					func(c *redis.Client) *services.RevocationStore { return services.NewRevocationStore(c) },
					func(c *redis.Client, cfg *config.Config) *services.JoinLimiter {
						return services.NewJoinLimiter(c, cfg.JoinAttemptLimit, cfg.JoinAttemptWindow)
					},
					func(db *gorm.DB, revoked *services.RevocationStore, cfg *config.Config) *services.AuthService {
						return services.NewAuthService(db, revoked, services.AuthOptions{
							JWTSecret:       cfg.JWTSecret,
							AccessTokenTTL:  cfg.AccessTokenTTL,
							RefreshTokenTTL: cfg.RefreshTokenTTL,
						})
					},
					services.NewQuizService,
					services.NewQuestionService,
					services.NewChoiceService,
					func(db *gorm.DB, hub *services.Hub) *services.InvitationService {
						return services.NewInvitationService(db, hub)
					},
					func(db *gorm.DB, limiter *services.JoinLimiter, hub *services.Hub) *services.ParticipationService {
						return services.NewParticipationService(db, limiter, hub)
					},
					func(db *gorm.DB, hub *services.Hub) *services.AnswerService {
						return services.NewAnswerService(db, hub)
					},
				),
				fx.Provide(
					handlers.NewAuthHandler,
					handlers.NewQuizHandler,
					handlers.NewQuestionHandler,
					handlers.NewChoiceHandler,
					handlers.NewInvitationHandler,
					handlers.NewParticipationHandler,
					func(auth *services.AuthService, quizzes *services.QuizService, hub *services.Hub, cfg *config.Config) *handlers.LiveHandler {
						return handlers.NewLiveHandler(auth, quizzes, hub, cfg.AllowedOrigins)
					},
				),
				fx.Invoke(migrateDatabase),
				fx.Invoke(startHub),
				fx.Invoke(registerRoutesAndStartServer),
			)

			if err := app.Start(cmd.Context()); err != nil {
				log.Error().Err(err).Msg("failed to start application")
				return err
			}
			<-app.Done()
			log.Info().Msg("shutting down")

			stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
}

func newDatabase(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func newRedis(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	client := config.InitRedis(cfg)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Msg("redis unreachable, revocation and join throttling degraded")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

func newHub() *services.Hub {
	return services.NewHub(nil)
}

func newGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	return r
}

func migrateDatabase(db *gorm.DB) error {
	log.Info().Msg("running database migrations")
	if err := models.Migrate(db); err != nil {
		log.Error().Err(err).Msg("database migration failed")
		return err
	}
	return nil
}

func startHub(lc fx.Lifecycle, hub *services.Hub, participations *services.ParticipationService) {
	hub.SetRoster(participations.Roster)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func registerRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	auth *services.AuthService,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	questionHandler *handlers.QuestionHandler,
	choiceHandler *handlers.ChoiceHandler,
	invitationHandler *handlers.InvitationHandler,
	participationHandler *handlers.ParticipationHandler,
	liveHandler *handlers.LiveHandler,
) {
	routes.SetupRoutes(router, routes.Handlers{
		Auth:          authHandler,
		Quiz:          quizHandler,
		Question:      questionHandler,
		Choice:        choiceHandler,
		Invitation:    invitationHandler,
		Participation: participationHandler,
		Live:          liveHandler,
	}, auth)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Str("addr", server.Addr).Msg("server starting")
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("server shutting down")
			return server.Shutdown(ctx)
		},
	})
}
