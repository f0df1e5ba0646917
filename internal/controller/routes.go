package controller

import (
	"github.com/gin-gonic/gin"

	"fablefeed-backend/internal/repository"
	"fablefeed-backend/internal/service"
	"fablefeed-backend/pkg/middleware"
)

// RegisterRoutes registers all route groups and their endpoints.
func RegisterRoutes(r *gin.Engine,
	authService service.AuthService,
	userService service.UserService,
	personalization service.PersonalizationService,
	bookService service.BookService,
	progressService service.ProgressService,
	reportService service.ReportService,
	questionService service.QuestionService,
	reelService service.ReelService,
	tagRepo repository.TagRepository,
	authRateLimit float64,
	authRateBurst int,
) {
	authCtrl := NewAuthController(authService)
	authRoutes := r.Group("/auth", middleware.RateLimit(authRateLimit, authRateBurst))
	{
		authRoutes.POST("/register", authCtrl.Register)
		authRoutes.POST("/login", authCtrl.Login)
		authRoutes.POST("/refresh", authCtrl.Refresh)
		authRoutes.POST("/forgot-password", authCtrl.ForgotPassword)
		authRoutes.POST("/reset-password", authCtrl.ResetPassword)
	}

	userCtrl := NewUserController(userService, personalization)
	userRoutes := r.Group("/users", middleware.RequireAuth())
	{
		userRoutes.GET("/me", userCtrl.Profile)
		userRoutes.PATCH("/me", userCtrl.UpdateProfile)
		userRoutes.GET("/me/tags", userCtrl.ChosenTags)
		userRoutes.POST("/me/merge-guest", userCtrl.MergeGuest)
	}

	bookCtrl := NewBookController(bookService, tagRepo)
	bookRoutes := r.Group("/books", middleware.OptionalAuth())
	{
		bookRoutes.GET("", bookCtrl.List)
		bookRoutes.GET("/:id", bookCtrl.Details)
	}

	progressCtrl := NewProgressController(progressService, reportService)
	progressRoutes := r.Group("/progress", middleware.OptionalAuth())
	{
		progressRoutes.POST("", progressCtrl.Record)
		progressRoutes.GET("/books/:id", progressCtrl.BookProgress)
		progressRoutes.GET("/report", progressCtrl.Report)
	}

	questionCtrl := NewQuestionController(questionService)
	questionRoutes := r.Group("/questions", middleware.OptionalAuth())
	{
		questionRoutes.GET("", questionCtrl.List)
		questionRoutes.POST("/responses", questionCtrl.Submit)
		questionRoutes.GET("/responses/mine", questionCtrl.MyResponses)
	}

	reelCtrl := NewReelController(reelService)
	reelRoutes := r.Group("/reels", middleware.OptionalAuth())
	{
		reelRoutes.GET("", reelCtrl.Feed)
	}
}
