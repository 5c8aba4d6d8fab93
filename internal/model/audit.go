package model

import "time"

// Audit action tags. A fixed vocabulary keeps the log greppable — free-form
// action strings rot fast once several services write entries.
const (
	AuditRegister        = "register"
	AuditEmailVerified   = "email_verified"
	AuditLoginSuccess    = "login_success"
	AuditLoginFailed     = "login_failed"
	AuditVoteSuccess     = "vote_success"
	AuditVotePinRejected = "vote_pin_rejected"
	AuditVoteRejected    = "vote_rejected"
	AuditPasswordChanged = "password_changed"
	AuditResetRequested  = "password_reset_requested"
	AuditPasswordReset   = "password_reset"
	AuditUserDeleted     = "user_deleted"
)

// AuditEntry is one append-only record of a security-relevant action.
//
// Entries are best-effort: a failed audit write must never fail or roll back
// the action it describes, so nothing in this struct is load-bearing for the
// primary flows. Detail carries a small JSON payload (candidate id, reason)
// rather than dedicated columns — the shape varies per action.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	ActorEmail string    `json:"actorEmail"`
	SourceIP   string    `json:"sourceIp"`
	Client     string    `json:"client"` // User-Agent of the requester
	Detail     string    `json:"detail"` // JSON payload, may be empty
	CreatedAt  time.Time `json:"createdAt"`
}
