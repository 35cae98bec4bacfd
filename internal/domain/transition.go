package domain

import "time"

// RoleTransition is an audit record of one guard decision. PK: transition_id,
// queried per user via the user_id-created_at GSI.
type RoleTransition struct {
	TransitionID  string    `json:"id" dynamodbav:"transition_id"`
	UserID        string    `json:"user_id" dynamodbav:"user_id"`
	RequestedRole string    `json:"requested_role" dynamodbav:"requested_role"`
	FromRole      string    `json:"from_role" dynamodbav:"from_role"`
	ToRole        string    `json:"to_role" dynamodbav:"to_role"`
	Outcome       Outcome   `json:"outcome,omitempty" dynamodbav:"outcome"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
}

// Decision is the result of running a role change through the guard.
// FinalRole is what the account actually holds afterwards; Outcome is empty
// when the change was allowed (or was a plain pass-through).
type Decision struct {
	UserID        string  `json:"user_id"`
	RequestedRole string  `json:"requested_role"`
	PreviousRole  string  `json:"previous_role"`
	FinalRole     string  `json:"final_role"`
	Outcome       Outcome `json:"outcome,omitempty"`
	ChallengeSent bool    `json:"challenge_sent,omitempty"`
}

// Blocked reports whether the guard refused the requested role.
func (d *Decision) Blocked() bool {
	return d != nil && d.FinalRole != d.RequestedRole
}
