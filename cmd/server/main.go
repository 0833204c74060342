package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"coursemart/internal/cache"
	"coursemart/internal/config"
	"coursemart/internal/db"
	"coursemart/internal/handlers"
	"coursemart/internal/logger"
	"coursemart/internal/middleware"
	"coursemart/internal/observability"
	"coursemart/internal/repos"
	"coursemart/internal/serializers"
	"coursemart/internal/server"
	"coursemart/internal/services"
)

const serviceName = "coursemart"

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg := config.Load(os.Getenv("CONFIG_PATH"), log)

	// Tracing
	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.LogMode,
	})
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(cfg, log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis
	redisService, err := cache.NewRedisService(cfg, log)
	if err != nil {
		log.Error("Redis init failed", "error", err)
		os.Exit(1)
	}
	defer redisService.Close()
	cartStore := cache.NewCartStore(redisService, log)

	// Serializer registry
	serializers.Bootstrap()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
	moduleRepo := repos.NewModuleRepo(thePG, log)
	lessonRepo := repos.NewLessonRepo(thePG, log)
	quizRepo := repos.NewQuizRepo(thePG, log)
	quizQuestionRepo := repos.NewQuizQuestionRepo(thePG, log)
	ratingRepo := repos.NewRatingRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	answerRepo := repos.NewAnswerRepo(thePG, log)
	actionRepo := repos.NewActionRepo(thePG, log)
	noteRepo := repos.NewNoteRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(
		log,
		userRepo,
		redisService,
		cfg.JWTSecretKey,
		time.Duration(cfg.AccessTokenTTL)*time.Second,
		time.Duration(cfg.RefreshTokenTTL)*time.Second,
	)
	courseService := services.NewCourseService(thePG, log, courseRepo, enrollmentRepo)
	moduleService := services.NewModuleService(thePG, log, moduleRepo, courseRepo)
	lessonService := services.NewLessonService(thePG, log, lessonRepo, moduleRepo, courseRepo)
	quizService := services.NewQuizService(thePG, log, quizRepo, quizQuestionRepo, lessonRepo, courseRepo)
	ratingService := services.NewRatingService(thePG, log, ratingRepo, courseRepo)
	questionService := services.NewQuestionService(thePG, log, questionRepo, courseRepo)
	answerService := services.NewAnswerService(thePG, log, answerRepo, courseRepo)
	actionService := services.NewActionService(thePG, log, actionRepo, courseRepo)
	noteService := services.NewNoteService(thePG, log, noteRepo, lessonRepo, courseRepo)
	cartService := services.NewCartService(thePG, log, cartStore, courseRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(log, authService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	courseHandler := handlers.NewCourseHandler(log, thePG, courseService)
	moduleHandler := handlers.NewModuleHandler(log, thePG, moduleService)
	lessonHandler := handlers.NewLessonHandler(log, thePG, lessonService)
	quizHandler := handlers.NewQuizHandler(log, thePG, quizService)
	ratingHandler := handlers.NewRatingHandler(log, thePG, ratingService)
	questionHandler := handlers.NewQuestionHandler(log, thePG, questionService)
	answerHandler := handlers.NewAnswerHandler(log, thePG, answerService)
	actionHandler := handlers.NewActionHandler(log, thePG, actionService)
	noteHandler := handlers.NewNoteHandler(log, thePG, noteService)
	cartHandler := handlers.NewCartHandler(log, thePG, cartService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:     serviceName,
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		CourseHandler:   courseHandler,
		ModuleHandler:   moduleHandler,
		LessonHandler:   lessonHandler,
		QuizHandler:     quizHandler,
		RatingHandler:   ratingHandler,
		QuestionHandler: questionHandler,
		AnswerHandler:   answerHandler,
		ActionHandler:   actionHandler,
		NoteHandler:     noteHandler,
		CartHandler:     cartHandler,
	})

	log.Info("Starting server...", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
