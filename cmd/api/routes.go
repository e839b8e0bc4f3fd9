package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/response"
)

func (app *application) routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// simple logger middleware that uses zap
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		app.Logger.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	})

	r.Use(corsMiddleware(app.Config.GetCORSOrigins()))
	if app.Config.Limiter.Enabled && app.limiter != nil {
		r.Use(app.rateLimit(app.limiter))
	}

	r.GET("/healthz", app.healthz)

	h := app.Handler

	users := r.Group("/api/users")
	{
		users.POST("/signup", h.SignUp)
		users.POST("/login", h.Login)
		users.GET("/", app.AuthMiddleware(), h.ListUsers)
		users.GET("/me", app.AuthMiddleware(), h.Me)
	}

	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/signup", h.SignUp)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/logout", h.Logout)
		authRoutes.POST("/send-reset-otp", h.SendResetOTP)
		authRoutes.POST("/verify-reset-otp", h.VerifyResetOTP)
		authRoutes.POST("/reset-password", h.ResetPassword)
	}

	protected := authRoutes.Group("/")
	protected.Use(app.AuthMiddleware())
	{
		protected.GET("/is-auth", h.IsAuth)
		protected.POST("/send-verify-otp", h.SendVerifyOTP)
		protected.POST("/resend-otp", h.ResendOTP)
		protected.POST("/verify-account", h.VerifyAccount)
	}

	interview := r.Group("/api/interview")
	interview.Use(app.OptionalAuth())
	{
		interview.POST("/generate-questions", h.GenerateQuestions)
		interview.GET("/questions/:id", h.GetQuestions)
		interview.POST("/record-answer-text", h.RecordAnswerText)
		interview.GET("/feedback/:id", h.GetFeedback)
		interview.GET("/:id", h.GetInterview)
		interview.GET("", app.AuthMiddleware(), h.ListInterviews)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "")
	})

	return r
}

func (app *application) healthz(c *gin.Context) {
	ctx := c.Request.Context()
	if err := app.Handler.Repository.Ping(ctx); err != nil {
		app.Logger.Error("health check: store unreachable", zap.Error(err))
		response.InternalError(c, "store unavailable")
		return
	}
	if err := app.Handler.Cache.Ping(ctx); err != nil {
		app.Logger.Error("health check: cache unreachable", zap.Error(err))
		response.InternalError(c, "cache unavailable")
		return
	}
	response.Message(c, "ok")
}
