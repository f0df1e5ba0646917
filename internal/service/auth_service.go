package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
	"fablefeed-backend/utilities"
)

// RegisterInput is the registration payload. GuestIdentifier, when present,
// triggers the one-shot guest-to-user history merge after the account exists.
type RegisterInput struct {
	FullName        string
	Email           string
	Phone           string
	Password        string
	GuestIdentifier string
}

// AuthResult carries the user and the freshly minted token pair.
type AuthResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(refreshToken string) (access string, refresh string, err error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

// OTPMail is the payload published on the event bus when a reset code is
// issued; the subscribed mailer delivers it out of band.
type OTPMail struct {
	Email string
	Code  string
}

type authService struct {
	userRepo        repository.UserRepository
	resetRepo       repository.PasswordResetRepository
	personalization PersonalizationService
	otpTTL          time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	personalization PersonalizationService,
	otpTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:        userRepo,
		resetRepo:       resetRepo,
		personalization: personalization,
		otpTTL:          otpTTL,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if input.Email == "" || input.Password == "" || input.FullName == "" {
		return nil, fmt.Errorf("%w: fullName, email and password are required", ErrInvalidArgument)
	}

	existing, err := s.userRepo.GetByEmailOrPhone(ctx, input.Email, input.Phone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email or phone already registered", ErrInvalidArgument)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashed),
		Status:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if input.GuestIdentifier != "" {
		// The merged history is advisory; a failure here must not undo the
		// registration itself.
		if err := s.personalization.MergeGuestHistory(ctx, user.ID, input.GuestIdentifier); err != nil {
			utilities.Error("guest history merge for user %d failed: %v", user.ID, err)
		}
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Status {
		return nil, fmt.Errorf("%w: account disabled", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	access, refresh, err := utilities.GenerateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) Refresh(refreshToken string) (string, string, error) {
	access, refresh, err := utilities.RefreshTokens(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return access, refresh, nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return fmt.Errorf("load user: %w", err)
	}

	code, err := sixDigitCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.resetRepo.Issue(ctx, email, code, s.otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	utilities.GlobalEventBus.Publish(utilities.EventPasswordOTPIssued, OTPMail{Email: email, Code: code})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if email == "" || otp == "" || newPassword == "" {
		return fmt.Errorf("%w: email, otp and new password are required", ErrInvalidArgument)
	}
	if err := s.resetRepo.Consume(ctx, email, otp); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: invalid or expired OTP", ErrUnauthorized)
		}
		return fmt.Errorf("consume otp: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, email, string(hashed))
}

func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
