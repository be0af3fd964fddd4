package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/middleware"
)

type RouterDeps struct {
	Chat      *ChatHandler
	Courses   *CourseHandler
	Exercises *ExerciseHandler
	Auth      *AuthHandler

	Sessions *middleware.SessionAuth
	Limiter  *middleware.RateLimiter
	Log      *logger.Logger

	AllowedOrigins []string
	ServiceName    string
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.ServiceName != "" {
		r.Use(otelgin.Middleware(d.ServiceName))
	}
	r.Use(middleware.RequestID(), middleware.RequestLogger(d.Log))

	config := cors.DefaultConfig()
	config.AllowOrigins = d.AllowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-Id"}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	{
		auth := api.Group("")
		{
			auth.POST("/register", d.Auth.Register)
			auth.POST("/login", d.Limiter.Limit("login", 5, 1*time.Minute), d.Auth.Login)
			auth.POST("/logout", d.Auth.Logout)
			auth.GET("/me", d.Sessions.Require(), d.Auth.Me)
		}

		// Анонимная работа разрешена, владелец курса ставится при наличии сессии
		open := api.Group("")
		open.Use(d.Sessions.Optional())
		{
			open.POST("/chat", d.Chat.Chat)
			open.POST("/approve", d.Chat.Approve)
			open.POST("/create-exercise", d.Exercises.Create)
			open.POST("/commit-exercise", d.Exercises.Commit)

			open.GET("/list-courses", d.Courses.ListCourses)
			open.GET("/list-sections", d.Courses.ListSections)
			open.GET("/list-lessons", d.Courses.ListLessons)
			open.GET("/get-lesson", d.Courses.GetLesson)
			open.GET("/list-exercises", d.Courses.ListExercises)
			open.GET("/get-exercise", d.Courses.GetExercise)
		}

		api.DELETE("/delete-course", d.Sessions.Require(), d.Courses.DeleteCourse)
	}

	return r
}
