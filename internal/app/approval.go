package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"staybook/internal/domain"
)

// ApprovalService drives the admin elevation lifecycle:
// signup -> pending -> approve/reject link click -> verification code -> verified.
// The server is authoritative; clients only render the status it reports.
type ApprovalService struct {
	users      domain.UserRepository
	approvals  domain.ApprovalRepository
	mailer     domain.Mailer
	cache      domain.Cache
	baseURL    string
	approver   string
	codeTTL    time.Duration
	sessionTTL time.Duration
}

func NewApprovalService(
	users domain.UserRepository,
	approvals domain.ApprovalRepository,
	mailer domain.Mailer,
	cache domain.Cache,
	baseURL, approver string,
	codeTTL, sessionTTL time.Duration,
) *ApprovalService {
	return &ApprovalService{
		users:      users,
		approvals:  approvals,
		mailer:     mailer,
		cache:      cache,
		baseURL:    baseURL,
		approver:   approver,
		codeTTL:    codeTTL,
		sessionTTL: sessionTTL,
	}
}

// Decision is what the approve/reject confirmation page renders.
type Decision struct {
	Status           domain.ApprovalStatus `json:"status"`
	AlreadyProcessed bool                  `json:"alreadyProcessed"`
	Message          string                `json:"message"`
}

// RequestApproval opens a pending request for the given user and mails the
// approver the approve/reject links. Mail failure is logged, not fatal: the
// request stays pending and the approver link can be re-sent by support.
func (s *ApprovalService) RequestApproval(ctx context.Context, userID int64, email string) error {
	token, err := randomToken()
	if err != nil {
		return err
	}
	req := domain.ApprovalRequest{
		UserID: userID,
		Email:  email,
		Token:  token,
		Status: domain.ApprovalPending,
	}
	if _, err := s.approvals.CreateApproval(ctx, req); err != nil {
		return err
	}

	q := url.Values{"token": {token}, "email": {email}}.Encode()
	body := fmt.Sprintf(
		"Admin access requested for %s.\n\nApprove: %s/api/admin-approval/approve?%s\nReject:  %s/api/admin-approval/reject?%s\n",
		email, s.baseURL, q, s.baseURL, q,
	)
	if err := s.mailer.Send(ctx, s.approver, "Admin access request: "+email, body); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("approval mail not sent")
	}
	return nil
}

// Decide applies an approve or reject link click.
//
// When neither token nor email is present the request is treated as already
// processed and nothing is looked up or written. Approval links get clicked
// twice (mail scanners, duplicate tabs); failing the second click would show
// the approver an error for an action that succeeded.
func (s *ApprovalService) Decide(ctx context.Context, token, email string, approve bool) (Decision, error) {
	if token == "" && email == "" {
		return Decision{AlreadyProcessed: true, Message: "This request was already processed."}, nil
	}
	if token == "" {
		return Decision{}, fmt.Errorf("%w: missing token", domain.ErrValidation)
	}

	req, err := s.approvals.GetApprovalByToken(ctx, token)
	if err != nil {
		return Decision{}, err
	}
	if email != "" && req.Email != email {
		return Decision{}, fmt.Errorf("%w: token does not match email", domain.ErrForbidden)
	}

	target := domain.ApprovalRejected
	if approve {
		target = domain.ApprovalApproved
	}

	if req.Status.Decided() {
		// same decision (or already verified after approval): idempotent success
		if req.Status == target ||
			(approve && req.Status == domain.ApprovalVerified) {
			return Decision{Status: req.Status, AlreadyProcessed: true, Message: "This request was already processed."}, nil
		}
		return Decision{}, fmt.Errorf("%w: request already %s", domain.ErrConflict, req.Status)
	}

	if err := s.approvals.SetApprovalStatus(ctx, req.ID, target); err != nil {
		return Decision{}, err
	}

	if approve {
		if err := s.issueCode(ctx, req); err != nil {
			log.Warn().Err(err).Str("email", req.Email).Msg("verification code not issued")
		}
		return Decision{Status: domain.ApprovalApproved, Message: "Request approved. A verification code was sent to the user."}, nil
	}
	return Decision{Status: domain.ApprovalRejected, Message: "Request rejected."}, nil
}

// Status reports the current lifecycle state for the polling client.
func (s *ApprovalService) Status(ctx context.Context, email string) (domain.ApprovalStatus, error) {
	if email == "" {
		return "", fmt.Errorf("%w: missing email", domain.ErrValidation)
	}
	req, err := s.approvals.GetApprovalByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return req.Status, nil
}

// ResendCode regenerates and re-mails the verification code. Only valid while
// the request sits in approved; it is an explicit user action, never automatic.
func (s *ApprovalService) ResendCode(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: missing email", domain.ErrValidation)
	}
	req, err := s.approvals.GetApprovalByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !req.Status.CanVerify() {
		return fmt.Errorf("%w: request is %s", domain.ErrConflict, req.Status)
	}
	return s.issueCode(ctx, req)
}

// VerifyCode checks the entered code and, on success, moves the request to
// verified, elevates the user to admin and issues exactly one session. A
// request that is already verified never yields a second session.
func (s *ApprovalService) VerifyCode(ctx context.Context, email, code string) (domain.Session, error) {
	if email == "" || code == "" {
		return domain.Session{}, fmt.Errorf("%w: missing email or code", domain.ErrValidation)
	}
	req, err := s.approvals.GetApprovalByEmail(ctx, email)
	if err != nil {
		return domain.Session{}, err
	}
	if req.Status == domain.ApprovalVerified {
		return domain.Session{}, fmt.Errorf("%w: request already verified", domain.ErrConflict)
	}
	if !req.Status.CanVerify() {
		return domain.Session{}, fmt.Errorf("%w: request is %s", domain.ErrForbidden, req.Status)
	}
	if req.Code == nil || *req.Code != code {
		return domain.Session{}, fmt.Errorf("%w: wrong code", domain.ErrValidation)
	}
	if req.CodeExpiresAt == nil || time.Now().After(*req.CodeExpiresAt) {
		return domain.Session{}, domain.ErrCodeExpired
	}

	// state first: once verified, no path below can run a second time
	if err := s.approvals.SetApprovalStatus(ctx, req.ID, domain.ApprovalVerified); err != nil {
		return domain.Session{}, err
	}
	if err := s.users.UpdateRole(ctx, req.UserID, domain.RoleAdmin); err != nil {
		return domain.Session{}, err
	}
	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		return domain.Session{}, err
	}
	return issueSession(ctx, s.cache, user, s.sessionTTL)
}

func (s *ApprovalService) issueCode(ctx context.Context, req domain.ApprovalRequest) error {
	code, err := randomCode()
	if err != nil {
		return err
	}
	expires := time.Now().Add(s.codeTTL)
	if err := s.approvals.SetApprovalCode(ctx, req.ID, code, expires); err != nil {
		return err
	}
	body := fmt.Sprintf("Your StayBook admin verification code is %s. It expires in %d minutes.\n",
		code, int(s.codeTTL.Minutes()))
	return s.mailer.Send(ctx, req.Email, "Your verification code", body)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
