package pgx

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lmarand/wicket"
)

const userColumns = `id, email, password_hash, password_reset_code,
	current_session_id, last_login_at, login_count, totp_method,
	totp_secret_key, totp_new_secret_key, totp_cookie, totp_cookie_expiration`

func (a *Adapter) FindByEmail(email string) (*wicket.User, error) {
	ctx := context.Background()
	q := `SELECT ` + userColumns + ` FROM public.users WHERE email = $1`
	return a.scanUser(a.pool.QueryRow(ctx, q, email))
}

func (a *Adapter) FindByID(id string) (*wicket.User, error) {
	ctx := context.Background()
	q := `SELECT ` + userColumns + ` FROM public.users WHERE id = $1`
	return a.scanUser(a.pool.QueryRow(ctx, q, id))
}

// Save inserts a record with no id and updates one that has an id. The
// transient password fields never touch the database.
func (a *Adapter) Save(user *wicket.User) error {
	ctx := context.Background()

	if user.ID == "" {
		q := `INSERT INTO public.users
			(email, password_hash, password_reset_code, current_session_id,
			 last_login_at, login_count, totp_method, totp_secret_key,
			 totp_new_secret_key, totp_cookie, totp_cookie_expiration)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`
		var id string
		err := a.pool.QueryRow(ctx, q,
			user.Email, user.PasswordHash, user.PasswordResetCode,
			user.CurrentSessionID, user.LastLoginAt, user.LoginCount,
			string(user.TOTPMethod), user.TOTPSecret, user.TOTPNewSecret,
			user.TOTPCookie, user.TOTPCookieExpiry).Scan(&id)
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	}

	q := `UPDATE public.users SET
		email = $1, password_hash = $2, password_reset_code = $3,
		current_session_id = $4, last_login_at = $5, login_count = $6,
		totp_method = $7, totp_secret_key = $8, totp_new_secret_key = $9,
		totp_cookie = $10, totp_cookie_expiration = $11, updated_at = now()
		WHERE id = $12`
	tag, err := a.pool.Exec(ctx, q,
		user.Email, user.PasswordHash, user.PasswordResetCode,
		user.CurrentSessionID, user.LastLoginAt, user.LoginCount,
		string(user.TOTPMethod), user.TOTPSecret, user.TOTPNewSecret,
		user.TOTPCookie, user.TOTPCookieExpiry, user.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return wicket.ErrUserNotFound
	}
	return nil
}

func (a *Adapter) scanUser(row pgx.Row) (*wicket.User, error) {
	user := &wicket.User{}
	var method *string
	var lastLogin, cookieExpiry *time.Time
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash,
		&user.PasswordResetCode, &user.CurrentSessionID, &lastLogin,
		&user.LoginCount, &method, &user.TOTPSecret, &user.TOTPNewSecret,
		&user.TOTPCookie, &cookieExpiry)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, wicket.ErrUserNotFound
		}
		return nil, err
	}
	if method != nil {
		user.TOTPMethod = wicket.TOTPMethod(*method)
	}
	user.LastLoginAt = lastLogin
	user.TOTPCookieExpiry = cookieExpiry
	return user, nil
}
