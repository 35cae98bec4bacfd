// Package guard decides every attempted assignment of the support role.
//
// The support role may only be held while the account email is on the
// organizational allow-list and has been proven via a verification link.
// Any attempt that fails those checks is reverted synchronously, within the
// same call, so the account is never observable as privileged-but-unproven.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/support-role-api/internal/domain"
	"github.com/support-role-api/internal/pkg/eligibility"
	"github.com/support-role-api/internal/pkg/id"
)

type Service interface {
	// SetRole runs a requested role change through the guard and applies the
	// resulting role. The returned Decision reports the final role and, when
	// the change was blocked, the outcome code for the presentation layer.
	SetRole(ctx context.Context, userID, requested string) (*domain.Decision, error)
	// OnRegister applies the registration policy to a freshly created account.
	OnRegister(ctx context.Context, userID string) (*domain.Decision, error)
	// OnProfileUpdate revokes the support role when the account email has
	// drifted from the last verified address.
	OnProfileUpdate(ctx context.Context, userID string) (*domain.Decision, error)
	// OnPasswordReset promotes a pending support account: completing recovery
	// through a mailed link is itself proof of control of the mailbox.
	OnPasswordReset(ctx context.Context, userID string) (*domain.Decision, error)
	// VerifyEmail processes an inbound verification link and, on success,
	// grants the support role. Returns the verified email address.
	VerifyEmail(ctx context.Context, actorID, login, suppliedHash string) (string, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetRole(ctx context.Context, userID, role string) error
}

type verifier interface {
	HasVerifiedEmail(ctx context.Context, u *domain.User) (bool, error)
	VerifiedEmail(ctx context.Context, userID string) (string, error)
	NeedsVerification(ctx context.Context, userID string) (bool, error)
	MarkVerified(ctx context.Context, userID, email string) error
	MarkUnverified(ctx context.Context, userID string) error
	ClearVerification(ctx context.Context, userID string) error
	SendChallenge(ctx context.Context, userID string) error
	ValidateLink(ctx context.Context, actorID, login, suppliedHash string) (*domain.User, error)
}

type transitionLog interface {
	Put(ctx context.Context, t *domain.RoleTransition) error
}

type alertPublisher interface {
	PublishAlert(ctx context.Context, subject, message string) error
}

type recorder interface {
	RecordGuardOutcome(outcome string)
	RecordVerifyAttempt(success bool)
}

type service struct {
	users       userStore
	verifier    verifier
	transitions transitionLog
	domains     *eligibility.Classifier
	alerts      alertPublisher
	metrics     recorder
	appName     string
}

type ServiceDeps struct {
	UserRepo       userStore
	Verifier       verifier
	TransitionRepo transitionLog
	Domains        *eligibility.Classifier
	Alerts         alertPublisher // optional
	Metrics        recorder       // optional
	AppName        string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:       deps.UserRepo,
		verifier:    deps.Verifier,
		transitions: deps.TransitionRepo,
		domains:     deps.Domains,
		alerts:      deps.Alerts,
		metrics:     deps.Metrics,
		appName:     deps.AppName,
	}
}

// transition carries the state of one role change request. The reverting flag
// suppresses the guard checks while the revert performs its own role write,
// so a revert can never recurse into another revert.
type transition struct {
	reverting bool
}

func (s *service) SetRole(ctx context.Context, userID, requested string) (*domain.Decision, error) {
	return s.apply(ctx, &transition{}, userID, requested)
}

func (s *service) apply(ctx context.Context, t *transition, userID, requested string) (*domain.Decision, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := u.Role

	d := &domain.Decision{
		UserID:        userID,
		RequestedRole: requested,
		PreviousRole:  previous,
		FinalRole:     requested,
	}

	if t.reverting {
		// The revert's own write: apply verbatim, checks already done.
		return d, s.users.SetRole(ctx, userID, requested)
	}

	if requested != domain.RoleSupport {
		if requested != previous {
			if err := s.users.SetRole(ctx, userID, requested); err != nil {
				return nil, err
			}
			s.record(ctx, d)
		}
		return d, nil
	}

	eligible := s.domains.IsEligible(u.Email)
	verified, err := s.verifier.HasVerifiedEmail(ctx, u)
	if err != nil {
		return nil, err
	}

	if eligible && verified {
		if err := s.users.SetRole(ctx, userID, domain.RoleSupport); err != nil {
			return nil, err
		}
		s.record(ctx, d)
		return d, nil
	}

	// Revert. The release is deferred so an error below can't leave the
	// flag set for the rest of the request.
	t.reverting = true
	defer func() { t.reverting = false }()

	revertTo := previous
	if previous == "" || previous == domain.RoleSupport {
		if eligible {
			revertTo = domain.RoleSupportInactive
		} else {
			revertTo = domain.RoleUser
		}
	}
	if _, err := s.apply(ctx, t, userID, revertTo); err != nil {
		return nil, err
	}
	d.FinalRole = revertTo

	if eligible {
		d.Outcome = domain.OutcomeBlockUpgradeVerifyEmail
		s.sendChallenge(ctx, d)
	} else {
		d.Outcome = domain.OutcomeBlockUpgradeNonEligible
		s.alert(ctx, u)
	}
	s.record(ctx, d)
	return d, nil
}

func (s *service) OnRegister(ctx context.Context, userID string) (*domain.Decision, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.domains.IsEligible(u.Email) && u.Role == domain.RoleSupport {
		// Eligible accounts start inactive and stay there until the address
		// is proven, either by the link or by completing password recovery.
		t := &transition{reverting: true}
		if _, err := s.apply(ctx, t, userID, domain.RoleSupportInactive); err != nil {
			return nil, err
		}
		if err := s.verifier.MarkUnverified(ctx, userID); err != nil {
			return nil, err
		}
		d := &domain.Decision{
			UserID:        userID,
			RequestedRole: domain.RoleSupport,
			PreviousRole:  domain.RoleSupport,
			FinalRole:     domain.RoleSupportInactive,
			Outcome:       domain.OutcomeMadeSupport,
		}
		s.sendChallenge(ctx, d)
		s.record(ctx, d)
		return d, nil
	}

	d, err := s.SetRole(ctx, userID, u.Role)
	if err != nil {
		return nil, err
	}
	if d.Outcome == domain.OutcomeBlockUpgradeNonEligible {
		// Same decision, specialized wording for a brand-new account.
		d.Outcome = domain.OutcomeBlockNewNonEligibleUser
	}
	return d, nil
}

func (s *service) OnProfileUpdate(ctx context.Context, userID string) (*domain.Decision, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !domain.IsSupportRole(u.Role) {
		return nil, nil
	}
	verifiedEmail, err := s.verifier.VerifiedEmail(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Email == verifiedEmail {
		return nil, nil
	}
	if u.Role == domain.RoleSupportInactive && verifiedEmail == "" {
		// Still pending its first verification; nothing to revoke.
		return nil, nil
	}

	t := &transition{reverting: true}
	if _, err := s.apply(ctx, t, userID, domain.RoleSupportInactive); err != nil {
		return nil, err
	}
	if err := s.verifier.ClearVerification(ctx, userID); err != nil {
		return nil, err
	}
	d := &domain.Decision{
		UserID:        userID,
		RequestedRole: u.Role,
		PreviousRole:  u.Role,
		FinalRole:     domain.RoleSupportInactive,
		Outcome:       domain.OutcomeDowngradedEmailChanged,
	}
	s.sendChallenge(ctx, d)
	s.record(ctx, d)
	return d, nil
}

func (s *service) OnPasswordReset(ctx context.Context, userID string) (*domain.Decision, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleSupportInactive {
		return nil, nil
	}
	needs, err := s.verifier.NeedsVerification(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !needs {
		return nil, nil
	}
	if err := s.verifier.MarkVerified(ctx, userID, u.Email); err != nil {
		return nil, err
	}
	return s.SetRole(ctx, userID, domain.RoleSupport)
}

func (s *service) VerifyEmail(ctx context.Context, actorID, login, suppliedHash string) (string, error) {
	u, err := s.verifier.ValidateLink(ctx, actorID, login, suppliedHash)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordVerifyAttempt(false)
		}
		return "", err
	}
	// Record first, role last: a failure in between leaves the account in
	// the less privileged state.
	if err := s.verifier.MarkVerified(ctx, u.UserID, u.Email); err != nil {
		return "", err
	}
	if _, err := s.SetRole(ctx, u.UserID, domain.RoleSupport); err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.RecordVerifyAttempt(true)
	}
	return u.Email, nil
}

// sendChallenge mails a fresh verification link. Delivery failure never blocks
// the role decision; it is logged and the decision reports ChallengeSent=false.
func (s *service) sendChallenge(ctx context.Context, d *domain.Decision) {
	if err := s.verifier.SendChallenge(ctx, d.UserID); err != nil {
		slog.Warn("could not send verification challenge", "user_id", d.UserID, "err", err)
		return
	}
	d.ChallengeSent = true
}

func (s *service) alert(ctx context.Context, u *domain.User) {
	if s.alerts == nil {
		return
	}
	subject := fmt.Sprintf("[%s] support role blocked", s.appName)
	message := fmt.Sprintf("Account %s (%s) attempted the support role with a non-organizational email address.", u.Username, u.Email)
	if err := s.alerts.PublishAlert(ctx, subject, message); err != nil {
		slog.Warn("could not publish ops alert", "user_id", u.UserID, "err", err)
	}
}

// record appends the decision to the audit log and bumps the outcome counter.
// Audit failures are logged, not propagated: the safer role is already written.
func (s *service) record(ctx context.Context, d *domain.Decision) {
	if d.Outcome != "" && s.metrics != nil {
		s.metrics.RecordGuardOutcome(string(d.Outcome))
	}
	if d.Outcome == "" && d.FinalRole == d.PreviousRole {
		return
	}
	tr := &domain.RoleTransition{
		TransitionID:  id.New(),
		UserID:        d.UserID,
		RequestedRole: d.RequestedRole,
		FromRole:      d.PreviousRole,
		ToRole:        d.FinalRole,
		Outcome:       d.Outcome,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transitions.Put(ctx, tr); err != nil {
		slog.Warn("could not record role transition", "user_id", d.UserID, "err", err)
	}
}
