package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"coursemart/internal/handlers"
	"coursemart/internal/middleware"
)

type RouterConfig struct {
	ServiceName     string
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	CourseHandler   *handlers.CourseHandler
	ModuleHandler   *handlers.ModuleHandler
	LessonHandler   *handlers.LessonHandler
	QuizHandler     *handlers.QuizHandler
	RatingHandler   *handlers.RatingHandler
	QuestionHandler *handlers.QuestionHandler
	AnswerHandler   *handlers.AnswerHandler
	ActionHandler   *handlers.ActionHandler
	NoteHandler     *handlers.NoteHandler
	CartHandler     *handlers.CartHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.Healthcheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)

	// Courses
	protected.GET("/courses", cfg.CourseHandler.List)
	protected.POST("/courses", cfg.CourseHandler.Create)
	protected.GET("/courses/:course_id", cfg.CourseHandler.Get)
	protected.PATCH("/courses/:course_id", cfg.CourseHandler.Update)
	protected.DELETE("/courses/:course_id", cfg.CourseHandler.Delete)
	protected.POST("/courses/:course_id/enroll", cfg.CourseHandler.Enroll)

	// Modules, sequenced within their course
	protected.GET("/courses/:course_id/modules", cfg.ModuleHandler.List)
	protected.POST("/courses/:course_id/modules", cfg.ModuleHandler.Create)
	protected.GET("/modules/:module_id", cfg.ModuleHandler.Get)
	protected.PATCH("/modules/:module_id", cfg.ModuleHandler.Update)
	protected.PATCH("/modules/:module_id/order", cfg.ModuleHandler.Move)
	protected.DELETE("/modules/:module_id", cfg.ModuleHandler.Delete)

	// Lessons, sequenced within their module
	protected.GET("/modules/:module_id/lessons", cfg.LessonHandler.List)
	protected.POST("/modules/:module_id/lessons", cfg.LessonHandler.Create)
	protected.GET("/lessons/:lesson_id", cfg.LessonHandler.Get)
	protected.PATCH("/lessons/:lesson_id", cfg.LessonHandler.Update)
	protected.PATCH("/lessons/:lesson_id/order", cfg.LessonHandler.Move)
	protected.DELETE("/lessons/:lesson_id", cfg.LessonHandler.Delete)

	// Quizzes
	protected.GET("/lessons/:lesson_id/quiz", cfg.QuizHandler.GetByLesson)
	protected.POST("/lessons/:lesson_id/quiz", cfg.QuizHandler.Create)
	protected.POST("/quizzes/:quiz_id/questions", cfg.QuizHandler.AddQuestion)
	protected.POST("/quizzes/:quiz_id/submit", cfg.QuizHandler.Submit)
	protected.PATCH("/quiz-questions/:question_id/order", cfg.QuizHandler.MoveQuestion)
	protected.DELETE("/quiz-questions/:question_id", cfg.QuizHandler.DeleteQuestion)

	// Ratings
	protected.GET("/courses/:course_id/ratings", cfg.RatingHandler.List)
	protected.POST("/courses/:course_id/ratings", cfg.RatingHandler.Create)
	protected.PATCH("/ratings/:rating_id", cfg.RatingHandler.Update)
	protected.DELETE("/ratings/:rating_id", cfg.RatingHandler.Delete)

	// Questions
	protected.GET("/courses/:course_id/questions", cfg.QuestionHandler.List)
	protected.POST("/courses/:course_id/questions", cfg.QuestionHandler.Create)
	protected.GET("/questions/:question_id", cfg.QuestionHandler.Get)
	protected.PATCH("/questions/:question_id", cfg.QuestionHandler.Update)
	protected.DELETE("/questions/:question_id", cfg.QuestionHandler.Delete)

	// Answers: one listing route per allow-listed target model
	protected.POST("/courses/:course_id/answers", cfg.AnswerHandler.Create)
	protected.GET("/questions/:question_id/answers", cfg.AnswerHandler.ListForTarget("question", "question_id"))
	protected.GET("/answers/:answer_id/replies", cfg.AnswerHandler.ListForTarget("answer", "answer_id"))
	protected.PATCH("/answers/:answer_id", cfg.AnswerHandler.Update)
	protected.DELETE("/answers/:answer_id", cfg.AnswerHandler.Delete)

	// Actions: one listing route per allow-listed target model
	protected.POST("/courses/:course_id/actions", cfg.ActionHandler.Create)
	protected.GET("/courses/:course_id/actions", cfg.ActionHandler.ListForTarget("course", "course_id"))
	protected.GET("/questions/:question_id/actions", cfg.ActionHandler.ListForTarget("question", "question_id"))
	protected.GET("/answers/:answer_id/actions", cfg.ActionHandler.ListForTarget("answer", "answer_id"))
	protected.GET("/ratings/:rating_id/actions", cfg.ActionHandler.ListForTarget("rating", "rating_id"))
	protected.DELETE("/actions/:action_id", cfg.ActionHandler.Delete)

	// Notes
	protected.GET("/lessons/:lesson_id/notes", cfg.NoteHandler.List)
	protected.POST("/lessons/:lesson_id/notes", cfg.NoteHandler.Create)
	protected.PATCH("/notes/:note_id", cfg.NoteHandler.Update)
	protected.DELETE("/notes/:note_id", cfg.NoteHandler.Delete)

	// Cart
	protected.GET("/cart", cfg.CartHandler.Get)
	protected.POST("/cart", cfg.CartHandler.Add)
	protected.DELETE("/cart", cfg.CartHandler.Clear)
	protected.DELETE("/cart/:course_id", cfg.CartHandler.Remove)

	return router
}
