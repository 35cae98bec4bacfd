package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldRole              = "role"
	fieldEnable            = "enable"
	fieldDeletedAt         = "deleted_at"
	fieldCode              = "code"
	fieldEmail             = "email"
	fieldIssuedAt          = "issued_at"
	fieldVerifiedEmail     = "verified_email"
	fieldNeedsVerification = "needs_verification"
)
