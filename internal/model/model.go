package model

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID            uint                      `json:"id" gorm:"primaryKey"`
	FullName      string                    `json:"fullName"`
	Email         string                    `json:"email" gorm:"uniqueIndex;not null"`
	Phone         string                    `json:"phone" gorm:"uniqueIndex"`
	Password      string                    `json:"-"`
	ProfilePic    string                    `json:"profilePic"`
	FirebaseToken string                    `json:"firebaseToken"`
	IsAdmin       bool                      `json:"is_admin"`
	Status        bool                      `json:"status" gorm:"default:true"`
	ChosenTags    datatypes.JSONSlice[uint] `json:"chosenTags"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"uniqueIndex"`
	ParentID    *uint     `json:"parentId"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Status      bool      `json:"status" gorm:"default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Book struct {
	ID              uint                        `json:"id" gorm:"primaryKey"`
	Title           string                      `json:"title" gorm:"not null"`
	Author          string                      `json:"author" gorm:"not null"`
	Quote           string                      `json:"quote"`
	ShortDesc       string                      `json:"shortDesc"`
	LongDesc        string                      `json:"longDesc"`
	CoverImage      string                      `json:"coverImage"`
	BackgroundImage string                      `json:"backgroundImage"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	Meta            datatypes.JSONMap           `json:"meta"`
	Active          bool                        `json:"active" gorm:"default:true;index"`
	Categories      []Category                  `json:"categories" gorm:"many2many:book_categories"`
	CreatedBy       *uint                       `json:"createdBy"`
	CreatedAt       time.Time                   `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// Chapter.Duration is the human-entered free-form duration ("512", "8:32",
// "1:05:07"); normalize it with utilities.ParseDurationSeconds before any math.
type Chapter struct {
	ID                uint              `json:"id" gorm:"primaryKey"`
	BookID            uint              `json:"bookId" gorm:"index;not null"`
	Title             string            `json:"title" gorm:"not null"`
	ShortDesc         string            `json:"shortDesc"`
	LongDesc          string            `json:"longDesc"`
	Duration          string            `json:"duration"`
	MediaPath         string            `json:"mediaPath"`
	MediaType         string            `json:"mediaType"`
	MediaOriginalName string            `json:"mediaOriginalName"`
	Meta              datatypes.JSONMap `json:"meta"`
	Active            bool              `json:"active" gorm:"default:true"`
	CreatedBy         *uint             `json:"createdBy"`
	CreatedAt         time.Time         `json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

type Reel struct {
	ID                uint                        `json:"id" gorm:"primaryKey"`
	Title             string                      `json:"title" gorm:"not null"`
	ShortDesc         string                      `json:"shortDesc"`
	LongDesc          string                      `json:"longDesc"`
	CreatorText       string                      `json:"creatorText"`
	BookID            *uint                       `json:"bookId" gorm:"index"`
	ChapterID         *uint                       `json:"chapterId"`
	BookQuoteText     string                      `json:"bookQuoteText"`
	Tags              datatypes.JSONSlice[string] `json:"tags"`
	Categories        []Category                  `json:"categories" gorm:"many2many:reel_categories"`
	MediaPath         string                      `json:"mediaPath"`
	MediaType         string                      `json:"mediaType"`
	MediaOriginalName string                      `json:"mediaOriginalName"`
	Meta              datatypes.JSONMap           `json:"meta"`
	Active            bool                        `json:"active" gorm:"default:true;index"`
	CreatedBy         *uint                       `json:"createdBy"`
	CreatedAt         time.Time                   `json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time                   `json:"updatedAt"`
}

type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Question struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	Title     string            `json:"title" gorm:"not null"`
	Type      string            `json:"type" gorm:"default:'single'"`
	Options   []Option          `json:"options" gorm:"foreignKey:QuestionID"`
	Required  bool              `json:"required"`
	Section   string            `json:"section" gorm:"index"`
	Order     int               `json:"order" gorm:"column:ordering"`
	Meta      datatypes.JSONMap `json:"meta"`
	Active    bool              `json:"active" gorm:"default:true;index"`
	CreatedBy *uint             `json:"createdBy"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Option tags are tag names; they are resolved to Tag rows lazily when a
// response selecting the option is processed.
type Option struct {
	ID         uint                        `json:"id" gorm:"primaryKey"`
	QuestionID uint                        `json:"questionId" gorm:"index;not null"`
	Text       string                      `json:"text"`
	Value      string                      `json:"value"`
	Image      string                      `json:"image"`
	Video      string                      `json:"video"`
	Order      int                         `json:"order" gorm:"column:ordering"`
	Meta       datatypes.JSONMap           `json:"meta"`
	Tags       datatypes.JSONSlice[string] `json:"tags"`
}

type AnswerItem struct {
	QuestionID uint     `json:"questionId"`
	Values     []string `json:"values"`
	Text       string   `json:"text"`
}

// Response is immutable once created except for the ownership rewrite at
// guest-to-user merge time. GuestID duplicates metadata.userIdentifier into an
// indexed column so merge lookups stay relational.
type Response struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	UserID    *uint             `json:"userId" gorm:"index"`
	GuestID   string            `json:"-" gorm:"index"`
	SessionID string            `json:"sessionId"`
	Answers   []AnswerItem      `json:"answers" gorm:"serializer:json"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ChapterProgress holds the per-(identity, chapter) playback watermark. Exactly
// one row exists per pair; writes overwrite in place, last write wins. GuestID
// survives the merge rewrite as provenance.
type ChapterProgress struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          *uint     `json:"userId" gorm:"index"`
	GuestID         string    `json:"-" gorm:"index"`
	BookID          uint      `json:"bookId" gorm:"index;not null"`
	ChapterID       uint      `json:"chapterId" gorm:"index;not null"`
	PlayedSeconds   int       `json:"playedSeconds"`
	DurationSeconds int       `json:"durationSeconds"`
	Percent         float64   `json:"percent"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PasswordReset replaces the usual in-memory OTP map so codes survive restarts
// and multiple instances. Rows are deleted on use and ignored past ExpiresAt.
type PasswordReset struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"index;not null"`
	Code      string    `json:"-" gorm:"not null"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
