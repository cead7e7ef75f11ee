package domain

import "time"

// ApprovalStatus is the lifecycle of an admin elevation request:
// pending -> approved -> verified, or pending -> rejected.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalVerified ApprovalStatus = "verified"
)

// ApprovalRequest gates elevation of a user account to the admin role.
// Created at admin signup, mutated by the approver's email-link click, then by
// the user entering the verification code.
type ApprovalRequest struct {
	ID            int64
	UserID        int64
	Email         string
	Token         string // opaque approval-link credential
	Status        ApprovalStatus
	Code          *string // verification code, set on approval
	CodeExpiresAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Decided reports whether the approver already acted on the request.
func (s ApprovalStatus) Decided() bool {
	return s == ApprovalApproved || s == ApprovalRejected || s == ApprovalVerified
}

// CanDecide reports whether an approve/reject click may still change state.
func (s ApprovalStatus) CanDecide() bool { return s == ApprovalPending }

// CanVerify reports whether a verification code may be accepted or resent.
func (s ApprovalStatus) CanVerify() bool { return s == ApprovalApproved }
