package mysql

import (
	"context"
	"database/sql"
	"time"

	"staybook/internal/domain"
)

func (r *Repo) CreateApproval(ctx context.Context, a domain.ApprovalRequest) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertApprovalSQL, a.UserID, a.Email, a.Token, string(a.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetApprovalByToken(ctx context.Context, token string) (domain.ApprovalRequest, error) {
	return scanApproval(r.db.QueryRowContext(ctx, getApprovalByTokenSQL, token))
}

func (r *Repo) GetApprovalByEmail(ctx context.Context, email string) (domain.ApprovalRequest, error) {
	return scanApproval(r.db.QueryRowContext(ctx, getApprovalByEmailSQL, email))
}

func (r *Repo) SetApprovalStatus(ctx context.Context, id int64, st domain.ApprovalStatus) error {
	_, err := r.db.ExecContext(ctx, setApprovalStatusSQL, string(st), id)
	return err
}

func (r *Repo) SetApprovalCode(ctx context.Context, id int64, code string, expires time.Time) error {
	_, err := r.db.ExecContext(ctx, setApprovalCodeSQL, code, expires, id)
	return err
}

func scanApproval(row rowScanner) (domain.ApprovalRequest, error) {
	var a domain.ApprovalRequest
	var status string
	var code sql.NullString
	var expires sql.NullTime

	if err := row.Scan(
		&a.ID, &a.UserID, &a.Email, &a.Token, &status, &code, &expires,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.ApprovalRequest{}, domain.ErrNotFound
		}
		return domain.ApprovalRequest{}, err
	}
	a.Status = domain.ApprovalStatus(status)
	a.Code = nullStr(code)
	if expires.Valid {
		t := expires.Time
		a.CodeExpiresAt = &t
	}
	return a, nil
}
