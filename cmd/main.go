package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/karvel/traindesk/config"
	"github.com/karvel/traindesk/database"
	adminctrl "github.com/karvel/traindesk/internal/controller/admin"
	userctrl "github.com/karvel/traindesk/internal/controller/user"
	"github.com/karvel/traindesk/internal/logger"
	"github.com/karvel/traindesk/internal/middleware"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/karvel/traindesk/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Training Administration API
// @version 1.0
// @description Test builder, trainee assessment, grading and records for a training organization.
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewTestRepository,
			repository.NewSubmissionRepository,
			repository.NewRecordRepository,
			repository.NewRosterRepository,
			repository.NewSessionRepository,
			repository.NewUserRepository,
		),

		// Services
		fx.Provide(
			service.NewSyncService,
			service.NewCycleService,
			service.NewRecordService,
			service.NewAdminTestService,
			service.NewTraineeTestService,
			service.NewSessionService,
			service.NewAuthService,
			service.NewRosterService,
			service.NewReviewService,
			func(
				testRepo repository.TestRepository,
				submissionRepo repository.SubmissionRepository,
				recordRepo repository.RecordRepository,
				sessionRepo repository.SessionRepository,
				recordSvc service.RecordService,
				cycleSvc service.CycleService,
				syncSvc service.SyncService,
				db *gorm.DB,
			) service.SubmissionService {
				return service.NewSubmissionService(testRepo, submissionRepo, recordRepo, sessionRepo, recordSvc, cycleSvc, syncSvc, db)
			},
		),

		// Controllers
		fx.Provide(
			adminctrl.NewAdminTestController,
			adminctrl.NewAdminRecordController,
			adminctrl.NewAdminReviewController,
			userctrl.NewTraineeController,
			userctrl.NewAuthController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authSvc service.AuthService,
	adminTestCtrl *adminctrl.AdminTestController,
	adminRecordCtrl *adminctrl.AdminRecordController,
	adminReviewCtrl *adminctrl.AdminReviewController,
	traineeCtrl *userctrl.TraineeController,
	authCtrl *userctrl.AuthController,
) {
	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/register", authCtrl.Register)
	}

	// Admin surface
	adminGroup := api.Group("/admin", middleware.RequireAuth(authSvc), middleware.RequireAdmin())
	{
		adminGroup.POST("/tests", adminTestCtrl.CreateTest)
		adminGroup.GET("/tests", adminTestCtrl.ListTests)
		adminGroup.GET("/tests/:test_id", adminTestCtrl.GetTest)
		adminGroup.PUT("/tests/:test_id", adminTestCtrl.UpdateTest)
		adminGroup.DELETE("/tests/:test_id", adminTestCtrl.DeleteTest)
		adminGroup.GET("/tests/:test_id/submissions", adminReviewCtrl.ListTestSubmissions)

		adminGroup.GET("/records", adminRecordCtrl.ListRecords)
		adminGroup.POST("/records", adminRecordCtrl.CaptureRecord)
		adminGroup.DELETE("/records/:record_id", adminRecordCtrl.DeleteRecord)

		adminGroup.GET("/rosters", adminRecordCtrl.ListRosters)
		adminGroup.PUT("/rosters", adminRecordCtrl.UpsertRoster)

		adminGroup.GET("/review", adminReviewCtrl.ListPendingReview)
		adminGroup.GET("/review/:submission_id/draft", adminReviewCtrl.DraftFeedback)
		adminGroup.GET("/submissions/:submission_id", adminReviewCtrl.GetSubmission)
		adminGroup.PUT("/submissions/:submission_id/score", adminReviewCtrl.SetScore)
		adminGroup.POST("/submissions/:submission_id/retake", adminReviewCtrl.AllowRetake)
		adminGroup.DELETE("/submissions/:submission_id", adminReviewCtrl.DeleteSubmission)

		adminGroup.POST("/sessions", adminReviewCtrl.OpenSession)
		adminGroup.DELETE("/sessions/:session_id", adminReviewCtrl.CloseSession)
	}

	// Trainee surface
	traineeGroup := api.Group("", middleware.RequireAuth(authSvc))
	{
		traineeGroup.GET("/tests", traineeCtrl.ListTests)
		traineeGroup.GET("/tests/:test_id", traineeCtrl.GetTest)
		traineeGroup.POST("/tests/:test_id/submissions",
			middleware.RateLimitByIP(middleware.SubmitLimiter), traineeCtrl.Submit)
		traineeGroup.GET("/submissions", traineeCtrl.MySubmissions)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Training administration API starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Test{},
		&model.Question{},
		&model.Submission{},
		&model.Record{},
		&model.RosterGroup{},
		&model.RosterMember{},
		&model.LiveSession{},
		&model.SessionCompletion{},
		&model.User{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
