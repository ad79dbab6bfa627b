package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/evently/evently/internal/domain"
	"github.com/evently/evently/internal/mailer"
	"github.com/evently/evently/internal/otp"
	"github.com/evently/evently/internal/repository"
	"github.com/evently/evently/pkg/auth"
	"github.com/evently/evently/pkg/config"
	"github.com/evently/evently/pkg/events"
	"github.com/evently/evently/pkg/logger"
)

type AuthService interface {
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.UserInfo, error)
	Signin(ctx context.Context, req *domain.SigninRequest) (*domain.SigninResponse, error)
	VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (*domain.UserInfo, error)
	ResendOTP(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, req *domain.ChangePasswordRequest) error
}

type authService struct {
	userRepo repository.UserRepository
	mailer   mailer.Service
	eventBus events.Publisher
	config   *config.Config
	now      func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		eventBus: eventBus,
		config:   config,
		now:      time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.UserInfo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailInUse
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := otp.Generate(s.config.Auth.OTPLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}
	expiresAt := otp.Expiry(s.now(), s.config.Auth.OTPTTL)

	// The insert can still hit the unique constraint if a concurrent signup
	// won the race; the repository surfaces that as ErrEmailInUse.
	user, err := s.userRepo.Create(ctx, req, passwordHash, code, expiresAt)
	if err != nil {
		return nil, err
	}

	// OTP mail failure must not undo the signup; the created row is the
	// source of truth and the user can ask for a resend.
	if err := s.mailer.SendOTP(user.Email, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send OTP email after signup", "error", err, "user_id", user.ID)
	}

	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role,
		RegisteredAt: user.CreatedAt,
	})

	return user.ToUserInfo(), nil
}

func (s *authService) Signin(ctx context.Context, req *domain.SigninRequest) (*domain.SigninResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// Same error as a wrong password so responses don't reveal whether
		// the email is registered.
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, domain.ErrEmailNotVerified
	}

	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.SigninResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:      user.ToUserInfo(),
	}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (*domain.UserInfo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.OTPCode == nil || *user.OTPCode != req.OTPCode {
		return nil, domain.ErrOTPNotFound
	}

	if user.OTPExpiresAt == nil || otp.Expired(s.now(), *user.OTPExpiresAt) {
		return nil, domain.ErrOTPExpired
	}

	// Guarded by the code so a concurrent or repeated submission consumes it
	// at most once.
	ok, err := s.userRepo.MarkVerified(ctx, req.Email, req.OTPCode)
	if err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}
	if !ok {
		return nil, domain.ErrOTPNotFound
	}

	if err := s.mailer.SendVerified(user.Email, user.FullName); err != nil {
		logger.ErrorContext(ctx, "Failed to send verified email", "error", err, "user_id", user.ID)
	}

	s.publish(ctx, events.UserVerified, events.UserVerifiedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		VerifiedAt: s.now().UTC(),
	})

	user.IsVerified = true
	user.OTPCode = nil
	user.OTPExpiresAt = nil
	return user.ToUserInfo(), nil
}

func (s *authService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// Don't reveal if user exists or not
		return nil
	}

	if user.IsVerified {
		return domain.ErrAlreadyVerified
	}

	code, err := otp.Generate(s.config.Auth.OTPLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	expiresAt := otp.Expiry(s.now(), s.config.Auth.OTPTTL)

	if err := s.userRepo.SetOTP(ctx, user.Email, code, expiresAt); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.mailer.SendOTP(user.Email, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send OTP email", "error", err, "user_id", user.ID)
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	return nil
}

func (s *authService) ChangePassword(ctx context.Context, req *domain.ChangePasswordRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	valid, err := argon2id.ComparePasswordAndHash(req.OldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return domain.ErrIncorrectOldPassword
	}

	newHash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, req.Email, newHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Confirmation only; the new password is never put in an email.
	if err := s.mailer.SendPasswordChanged(user.Email, user.FullName); err != nil {
		logger.ErrorContext(ctx, "Failed to send password changed email", "error", err, "user_id", user.ID)
	}

	s.publish(ctx, events.UserPasswordChanged, events.UserPasswordChangedEvent{
		UserID:    user.ID,
		Email:     user.Email,
		ChangedAt: s.now().UTC(),
	})

	return nil
}

func (s *authService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
