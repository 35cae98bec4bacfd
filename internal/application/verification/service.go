package verification

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/support-role-api/internal/domain"
	"github.com/support-role-api/internal/pkg/checkhash"
	"github.com/support-role-api/internal/pkg/eligibility"
	pkgtoken "github.com/support-role-api/internal/pkg/token"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldCode              = "code"
	fieldEmail             = "email"
	fieldIssuedAt          = "issued_at"
	fieldVerifiedEmail     = "verified_email"
	fieldNeedsVerification = "needs_verification"
)

// Service owns the email verification state machine: challenge code issuance,
// link validation, and the verified-email marker that gates the support role.
type Service interface {
	// IssueCode returns the outstanding challenge code for u, generating and
	// persisting a fresh one when no code exists or the stored snapshot no
	// longer matches u's current email. Issuance is idempotent while the
	// email is stable; a code is never reused across two addresses.
	IssueCode(ctx context.Context, u *domain.User) (string, error)
	// SendChallenge issues a code and mails the signed verification link.
	SendChallenge(ctx context.Context, userID string) error
	// ValidateLink checks an inbound verification link. Every failure mode
	// (unknown login, actor mismatch, ineligible domain, missing or wrong
	// hash) comes back wrapping domain.ErrRebuffed so callers cannot be told
	// apart.
	ValidateLink(ctx context.Context, actorID, login, suppliedHash string) (*domain.User, error)

	HasVerifiedEmail(ctx context.Context, u *domain.User) (bool, error)
	VerifiedEmail(ctx context.Context, userID string) (string, error)
	NeedsVerification(ctx context.Context, userID string) (bool, error)
	MarkVerified(ctx context.Context, userID, email string) error
	MarkUnverified(ctx context.Context, userID string) error
	ClearVerification(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type recordStore interface {
	Get(ctx context.Context, userID string) (*domain.EmailVerification, error)
	Put(ctx context.Context, v *domain.EmailVerification) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type challengeCounter interface {
	RecordChallengeSent()
}

type service struct {
	records  recordStore
	users    userStore
	mailer   mailer
	composer *checkhash.Composer
	domains  *eligibility.Classifier
	metrics  challengeCounter
	baseURL  string
	appName  string
}

type ServiceDeps struct {
	RecordRepo recordStore
	UserRepo   userStore
	Mailer     mailer
	Composer   *checkhash.Composer
	Domains    *eligibility.Classifier
	Metrics    challengeCounter
	BaseURL    string
	AppName    string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		records:  deps.RecordRepo,
		users:    deps.UserRepo,
		mailer:   deps.Mailer,
		composer: deps.Composer,
		domains:  deps.Domains,
		metrics:  deps.Metrics,
		baseURL:  deps.BaseURL,
		appName:  deps.AppName,
	}
}

func (s *service) IssueCode(ctx context.Context, u *domain.User) (string, error) {
	rec, err := s.records.Get(ctx, u.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if rec != nil && rec.Code != "" && rec.Email == u.Email {
		return rec.Code, nil
	}

	code, err := pkgtoken.NewCode()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC().Unix()
	if rec == nil {
		return code, s.records.Put(ctx, &domain.EmailVerification{
			UserID:   u.UserID,
			Code:     code,
			Email:    u.Email,
			IssuedAt: now,
		})
	}
	// Stale snapshot: replace the challenge fields, keep the rest of the record.
	return code, s.records.Update(ctx, u.UserID, map[string]interface{}{
		fieldCode:     code,
		fieldEmail:    u.Email,
		fieldIssuedAt: now,
	})
}

func (s *service) SendChallenge(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	code, err := s.IssueCode(ctx, u)
	if err != nil {
		return err
	}
	hash := s.composer.Compose(u.UserID, code, u.Email)

	q := url.Values{}
	q.Set("code", hash)
	q.Set("login", u.Username)
	link := fmt.Sprintf("%s/v1/verify-email?%s", s.baseURL, q.Encode())

	subject := fmt.Sprintf("Email verification for %s", s.appName)
	body := fmt.Sprintf(
		"You need to verify the email address for your user on %s.\n"+
			"If you are expecting this, please open the link below to verify your email address:\n%s\n\n"+
			"If you were not expecting this email you can safely ignore it.",
		s.appName, link,
	)
	if err := s.mailer.SendEmail(u.Email, subject, body); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordChallengeSent()
	}
	return nil
}

func (s *service) ValidateLink(ctx context.Context, actorID, login, suppliedHash string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("unknown login: %w", domain.ErrRebuffed)
	}
	// Only the user the email was sent to may verify it, not another
	// authenticated or anonymous caller following the link.
	if actorID != u.UserID {
		return nil, fmt.Errorf("actor is not the link owner: %w", domain.ErrRebuffed)
	}
	if !s.domains.IsEligible(u.Email) {
		return nil, fmt.Errorf("email domain not eligible: %w", domain.ErrRebuffed)
	}
	rec, err := s.records.Get(ctx, u.UserID)
	if err != nil || rec.Code == "" {
		return nil, fmt.Errorf("no outstanding challenge: %w", domain.ErrRebuffed)
	}
	if !s.composer.Validate(u.UserID, suppliedHash, rec.Code, u.Email) {
		return nil, fmt.Errorf("check hash mismatch: %w", domain.ErrRebuffed)
	}
	return u, nil
}

func (s *service) HasVerifiedEmail(ctx context.Context, u *domain.User) (bool, error) {
	verified, err := s.VerifiedEmail(ctx, u.UserID)
	if err != nil {
		return false, err
	}
	return verified != "" && verified == u.Email, nil
}

func (s *service) VerifiedEmail(ctx context.Context, userID string) (string, error) {
	rec, err := s.records.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.VerifiedEmail, nil
}

func (s *service) NeedsVerification(ctx context.Context, userID string) (bool, error) {
	rec, err := s.records.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.NeedsVerification, nil
}

// MarkVerified records email as proven and clears the challenge, making the
// link single use: a replay recomputes against an empty code and fails.
func (s *service) MarkVerified(ctx context.Context, userID, email string) error {
	return s.records.Put(ctx, &domain.EmailVerification{
		UserID:        userID,
		VerifiedEmail: email,
	})
}

// MarkUnverified drops the verified-email marker and flags the account as
// pending verification.
func (s *service) MarkUnverified(ctx context.Context, userID string) error {
	return s.records.Update(ctx, userID, map[string]interface{}{
		fieldVerifiedEmail:     "",
		fieldNeedsVerification: true,
	})
}

// ClearVerification removes the whole record, challenge and verified marker
// alike.
func (s *service) ClearVerification(ctx context.Context, userID string) error {
	return s.records.Delete(ctx, userID)
}
