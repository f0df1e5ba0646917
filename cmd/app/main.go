package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/net/netutil"

	"fablefeed-backend/internal/config"
	"fablefeed-backend/internal/controller"
	"fablefeed-backend/internal/db"
	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
	"fablefeed-backend/internal/service"
	"fablefeed-backend/pkg/middleware"
	"fablefeed-backend/utilities"
)

const version = "1.0.0"

func main() {
	printStartUpBanner()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	// Load XML configuration from file.
	cfg, err := config.LoadConfig("config.xml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	utilities.SetupLogging(cfg.Logging)

	// Initialize DB using the loaded config.
	db.InitDBFromConfig(cfg)
	// Run migrations.
	if err := db.GetDB().AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Book{},
		&model.Chapter{},
		&model.Reel{},
		&model.Tag{},
		&model.Question{},
		&model.Option{},
		&model.Response{},
		&model.ChapterProgress{},
		&model.PasswordReset{},
	); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// Create repositories.
	gdb := db.GetDB()
	userRepo := repository.NewUserRepository(gdb)
	bookRepo := repository.NewBookRepository(gdb)
	progressRepo := repository.NewProgressRepository(gdb)
	tagRepo := repository.NewTagRepository(gdb)
	questionRepo := repository.NewQuestionRepository(gdb)
	responseRepo := repository.NewResponseRepository(gdb)
	reelRepo := repository.NewReelRepository(gdb)
	resetRepo := repository.NewPasswordResetRepository(gdb)

	// Create services.
	personalization := service.NewPersonalizationService(gdb, questionRepo, tagRepo, userRepo, responseRepo, progressRepo)
	progressService := service.NewProgressService(bookRepo, progressRepo)
	authService := service.NewAuthService(userRepo, resetRepo, personalization,
		time.Duration(cfg.Authentication.OTPTTLMinutes)*time.Minute)
	userService := service.NewUserService(userRepo, personalization)
	bookService := service.NewBookService(bookRepo, progressService, personalization, cfg.Pagination.MaxPageSize)
	reelService := service.NewReelService(reelRepo, bookRepo, personalization, cfg.Pagination.MaxPageSize)
	questionService := service.NewQuestionService(questionRepo, responseRepo, personalization)
	reportService := service.NewReportService(bookRepo, progressService)

	registerEventListeners()

	// Initialize Gin router.
	r := gin.Default()

	// CORS configuration.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.GuestHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}

	controller.RegisterRoutes(r,
		authService,
		userService,
		personalization,
		bookService,
		progressService,
		reportService,
		questionService,
		reelService,
		tagRepo,
		cfg.Authentication.RateLimit,
		cfg.Authentication.RateBurst,
	)

	// Start server on the host and port specified in the XML config, with a
	// hard cap on concurrent connections.
	addr := fmt.Sprintf("%s:%d", cfg.Context.Host, cfg.Context.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listen on %s: %v", addr, err)
	}
	if cfg.Context.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.Context.MaxConns)
	}

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	utilities.Info("listening on %s", addr)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server stopped: %v", err)
	}
}

// registerEventListeners wires the out-of-band consumers. Email delivery is
// not part of this service, so the OTP mailer just logs the issue event.
func registerEventListeners() {
	utilities.GlobalEventBus.Subscribe(utilities.EventPasswordOTPIssued, func(data interface{}) {
		mail, ok := data.(service.OTPMail)
		if !ok {
			utilities.Warn("unexpected otp payload %T", data)
			return
		}
		utilities.Info("password reset code issued for %s", mail.Email)
	})

	utilities.GlobalEventBus.Subscribe(utilities.EventChapterCompleted, func(data interface{}) {
		rec, ok := data.(*model.ChapterProgress)
		if !ok {
			utilities.Warn("unexpected completion payload %T", data)
			return
		}
		utilities.Info("chapter %d of book %d completed", rec.ChapterID, rec.BookID)
	})
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("FABLEFEED", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("FABLEFEED API (v%s)\n\n", version)
}
