package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"staybook/internal/domain"
)

func (r *Repo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Name, u.Email, u.PasswordHash, u.Role, u.Plan)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserSQL, id))
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmailSQL, email))
}

func (r *Repo) UpdateProfile(ctx context.Context, id int64, p domain.ProfileUpdate) error {
	_, err := r.db.ExecContext(ctx, updateProfileSQL, valStr(p.Name), valStr(p.Phone), valStr(p.Bio), id)
	return err
}

func (r *Repo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx, updatePasswordSQL, hash, id)
	return err
}

func (r *Repo) UpdatePlan(ctx context.Context, id int64, plan string) error {
	_, err := r.db.ExecContext(ctx, updatePlanSQL, plan, id)
	return err
}

func (r *Repo) UpdateRole(ctx context.Context, id int64, role string) error {
	_, err := r.db.ExecContext(ctx, updateRoleSQL, role, id)
	return err
}

func (r *Repo) UpdateImage(ctx context.Context, id int64, kind, path string) error {
	switch kind {
	case "profile":
		_, err := r.db.ExecContext(ctx, updateProfileImageSQL, path, id)
		return err
	case "cover":
		_, err := r.db.ExecContext(ctx, updateCoverImageSQL, path, id)
		return err
	default:
		return fmt.Errorf("%w: unknown image kind %q", domain.ErrValidation, kind)
	}
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var phone, bio, profileImg, coverImg sql.NullString

	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Plan,
		&phone, &bio, &profileImg, &coverImg, &u.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	u.Phone = nullStr(phone)
	u.Bio = nullStr(bio)
	u.ProfileImage = nullStr(profileImg)
	u.CoverImage = nullStr(coverImg)
	return u, nil
}
