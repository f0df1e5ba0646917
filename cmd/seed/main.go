package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fablefeed-backend/internal/config"
	"fablefeed-backend/internal/db"
	"fablefeed-backend/internal/model"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	// Load XML configuration from file.
	cfg, err := config.LoadConfig("config.xml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize DB using the loaded config.
	db.InitDBFromConfig(cfg)
	conn := db.GetDB()
	if conn == nil {
		log.Fatal("database connection failed")
	}

	if err := conn.AutoMigrate(
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

	seedAdmin(conn)
	seedCatalog(conn)

	fmt.Println("seed complete")
}

func seedAdmin(conn *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@fablefeed.local"
	}

	var existing model.User
	err := conn.Where("email = ?", email).First(&existing).Error
	if err == nil {
		fmt.Printf("admin %s already exists, skipping\n", email)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("lookup admin: %v", err)
	}

	fmt.Printf("password for %s: ", email)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	if len(raw) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword(raw, bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := model.User{
		FullName: "FableFeed Admin",
		Email:    email,
		Password: string(hash),
		IsAdmin:  true,
		Status:   true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		log.Fatalf("create admin: %v", err)
	}
	fmt.Printf("admin %s created\n", email)
}

// seedCatalog loads a small demo catalogue so a fresh install has something to
// browse. Existing rows keep the seed idempotent.
func seedCatalog(conn *gorm.DB) {
	var bookCount int64
	conn.Model(&model.Book{}).Count(&bookCount)
	if bookCount > 0 {
		fmt.Println("catalogue already seeded, skipping")
		return
	}

	fiction := model.Category{Name: "Fiction", Slug: "fiction", Description: "Novels and short stories"}
	selfHelp := model.Category{Name: "Self-Help", Slug: "self-help", Description: "Personal growth"}
	if err := conn.Create(&fiction).Error; err != nil {
		log.Fatalf("seed categories: %v", err)
	}
	if err := conn.Create(&selfHelp).Error; err != nil {
		log.Fatalf("seed categories: %v", err)
	}

	for _, name := range []string{"Reels", "Adventure", "Mindfulness", "Classics"} {
		tag := model.Tag{Name: name, Slug: strings.ToLower(name)}
		if err := conn.Create(&tag).Error; err != nil {
			log.Fatalf("seed tag %s: %v", name, err)
		}
	}

	books := []model.Book{
		{
			Title:      "The Lighthouse Keeper",
			Author:     "M. Harrow",
			ShortDesc:  "A keeper's last winter on a cut-off island.",
			Tags:       datatypes.NewJSONSlice([]string{"Adventure", "Classics"}),
			Active:     true,
			Categories: []model.Category{fiction},
		},
		{
			Title:      "Quiet Hours",
			Author:     "S. Vale",
			ShortDesc:  "Practices for attention in a loud world.",
			Tags:       datatypes.NewJSONSlice([]string{"Mindfulness"}),
			Active:     true,
			Categories: []model.Category{selfHelp},
		},
	}
	for i := range books {
		if err := conn.Create(&books[i]).Error; err != nil {
			log.Fatalf("seed book %s: %v", books[i].Title, err)
		}
		for n := 1; n <= 3; n++ {
			ch := model.Chapter{
				BookID:   books[i].ID,
				Title:    fmt.Sprintf("Chapter %d", n),
				Duration: fmt.Sprintf("%d:00", 10+n*5),
			}
			if err := conn.Create(&ch).Error; err != nil {
				log.Fatalf("seed chapter: %v", err)
			}
		}
	}

	reel := model.Reel{
		Title:     "From The Lighthouse Keeper",
		ShortDesc: "Sixty seconds of the storm scene.",
		BookID:    &books[0].ID,
		Tags:      datatypes.NewJSONSlice([]string{"Reels", "Adventure"}),
		Active:    true,
	}
	if err := conn.Create(&reel).Error; err != nil {
		log.Fatalf("seed reel: %v", err)
	}

	question := model.Question{
		Title:    "What do you like to listen to?",
		Type:     "multi",
		Section:  "onboarding",
		Required: true,
		Active:   true,
		Options: []model.Option{
			{Text: "Gripping stories", Value: "stories", Tags: datatypes.NewJSONSlice([]string{"Adventure", "Classics"})},
			{Text: "Calm and focus", Value: "calm", Tags: datatypes.NewJSONSlice([]string{"Mindfulness"})},
		},
	}
	if err := conn.Create(&question).Error; err != nil {
		log.Fatalf("seed question: %v", err)
	}

	fmt.Println("demo catalogue created")
}
