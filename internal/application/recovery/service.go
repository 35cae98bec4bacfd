package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/support-role-api/internal/application/guard"
	"github.com/support-role-api/internal/domain"
	pkgtoken "github.com/support-role-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const otpTTL = 15 * time.Minute

const fieldPasswordHash = "password_hash"

type RequestRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CompleteRecoveryRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// Service implements password recovery by emailed OTP. Completing recovery is
// also the secondary email-ownership proof: a pending support account that
// finishes recovery is promoted without clicking the verification link.
type Service interface {
	RequestRecovery(ctx context.Context, req RequestRecoveryRequest) error
	CompleteRecovery(ctx context.Context, req CompleteRecoveryRequest) (*domain.Decision, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type otpStore interface {
	Put(ctx context.Context, otp *domain.RecoveryOTP) error
	Get(ctx context.Context, userID string) (*domain.RecoveryOTP, error)
	Delete(ctx context.Context, userID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	users   userStore
	otps    otpStore
	mailer  mailer
	guard   guard.Service
	appName string
}

type ServiceDeps struct {
	UserRepo userStore
	OTPRepo  otpStore
	Mailer   mailer
	Guard    guard.Service
	AppName  string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:   deps.UserRepo,
		otps:    deps.OTPRepo,
		mailer:  deps.Mailer,
		guard:   deps.Guard,
		appName: deps.AppName,
	}
}

func (s *service) RequestRecovery(ctx context.Context, req RequestRecoveryRequest) error {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	otp, err := pkgtoken.NewOTP()
	if err != nil {
		return err
	}
	rec := &domain.RecoveryOTP{
		UserID:    u.UserID,
		Code:      otp,
		ExpiresAt: time.Now().Add(otpTTL).Unix(),
	}
	if err := s.otps.Put(ctx, rec); err != nil {
		return err
	}
	subject := fmt.Sprintf("Password recovery for %s", s.appName)
	return s.mailer.SendEmail(u.Email, subject, "Your recovery code: "+otp)
}

func (s *service) CompleteRecovery(ctx context.Context, req CompleteRecoveryRequest) (*domain.Decision, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	otp, err := s.otps.Get(ctx, u.UserID)
	if err != nil {
		return nil, fmt.Errorf("recovery code not found: %w", domain.ErrNotFound)
	}
	if otp.Code != req.OTP {
		return nil, fmt.Errorf("invalid recovery code: %w", domain.ErrUnauthorized)
	}
	if otp.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("recovery code expired: %w", domain.ErrUnauthorized)
	}
	if err := s.otps.Delete(ctx, u.UserID); err != nil {
		slog.Warn("could not delete recovery OTP", "user_id", u.UserID, "err", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return nil, err
	}

	return s.guard.OnPasswordReset(ctx, u.UserID)
}
