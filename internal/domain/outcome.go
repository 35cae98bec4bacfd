package domain

// Outcome identifies what the role transition guard decided, so the
// presentation layer can surface the right notice. Codes are opaque to the
// core: handlers return them verbatim in the "update" field of envelopes.
type Outcome string

const (
	// Support role refused: email domain is not on the organizational list.
	OutcomeBlockUpgradeNonEligible Outcome = "block_upgrade_non_eligible"
	// Support role refused: eligible address, but not verified yet.
	OutcomeBlockUpgradeVerifyEmail Outcome = "block_upgrade_verify_email"
	// As OutcomeBlockUpgradeNonEligible, but for a freshly registered account.
	OutcomeBlockNewNonEligibleUser Outcome = "block_new_non_eligible_user"
	// Support users may only hold the support role or be deleted.
	OutcomeBlockDowngrade Outcome = "block_downgrade"
	// Account granted the support role, pending email verification.
	OutcomeMadeSupport Outcome = "made_support"
	// Email address changed, support role suspended until re-verified.
	OutcomeDowngradedEmailChanged Outcome = "downgraded_email_changed"
)
