package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/blocklist"
	"github.com/Skotchmaster/task_manager/internal/hash"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/mail"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/mykafka"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/tokens"
	"github.com/Skotchmaster/task_manager/internal/transport"
)

type AuthService struct {
	Repo      *repo.GormRepo
	Codec     *tokens.Codec
	Blocklist blocklist.Store
	Mail      mail.Queue
	Events    mykafka.Publisher
	Jobs      *Background
	Hasher    *hash.Hasher

	Domain     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	EmailTTL   time.Duration
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

func (s *AuthService) hasher() *hash.Hasher {
	if s.Hasher == nil {
		return hash.Default
	}
	return s.Hasher
}

func subjectOf(u *models.User) tokens.Subject {
	return tokens.Subject{UserUID: u.UID.String(), Email: u.Email, Role: string(u.Role)}
}

func (s *AuthService) publish(ctx context.Context, typ string, u *models.User) {
	ev := mykafka.NewEvent(typ, map[string]string{"user_uid": u.UID.String(), "email": u.Email})
	s.Jobs.Go(ctx, typ, func(ctx context.Context) error {
		return s.Events.PublishEvent(ctx, mykafka.TopicUserEvents, u.UID.String(), ev)
	})
}

func (s *AuthService) sendMail(ctx context.Context, job string, msg mail.Message) {
	s.Jobs.Go(ctx, job, func(ctx context.Context) error {
		return s.Mail.Enqueue(ctx, msg)
	})
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := s.hasher().Hash(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			l.Warn("register_error", "status", 409, "reason", "user already exists")
		} else {
			l.Error("register_error", "status", 500, "error", err)
		}
		return nil, err
	}

	token, err := s.Codec.IssueURLToken(user.Email, tokens.PurposeEmailVerification, s.EmailTTL)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue verification token", "error", err)
		return nil, err
	}
	s.sendMail(ctx, "verification_mail", mail.VerificationMessage(s.Domain, user.Email, token))
	s.publish(ctx, "user_registered", user)

	l.Info("register_successful", "user_uid", user.UID)
	return user, nil
}

func (s *AuthService) Verify(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.verify")

	email, err := s.Codec.ParseURLToken(token, tokens.PurposeEmailVerification)
	if err != nil {
		l.Warn("verify_failed", "status", 401, "reason", "invalid token")
		return apperr.ErrInvalidToken
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.Repo.MarkVerified(ctx, user.UID); err != nil {
		return err
	}

	l.Info("verify_successful", "user_uid", user.UID)
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			l.Warn("login_failed", "status", 400, "reason", "unknown email")
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.hasher().Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, hash.ErrMalformed) {
			l.Error("login_failed", "status", 400, "reason", "stored hash is unreadable", "user_uid", user.UID, "error", err)
		} else {
			l.Warn("login_failed", "status", 400, "reason", "wrong password", "user_uid", user.UID)
		}
		return nil, apperr.ErrInvalidCredentials
	}
	s.rehash(ctx, user, password)

	sub := subjectOf(user)
	access, err := s.Codec.Issue(sub, s.AccessTTL, false)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Codec.Issue(sub, s.RefreshTTL, true)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	s.publish(ctx, "user_logged_in", user)
	l.Info("login_successful", "user_uid", user.UID)
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh issues a new access token for the subject of a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, claims *tokens.Claims) (string, error) {
	access, err := s.Codec.Issue(claims.User, s.AccessTTL, false)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	logging.FromContext(ctx).Info("refresh_successful", "svc", "auth.refresh", "user_uid", claims.User.UserUID)
	return access, nil
}

// Logout revokes the access token. A refresh token belonging to the same
// user is revoked as well; any other refresh token is ignored.
func (s *AuthService) Logout(ctx context.Context, access *tokens.Claims, refreshRaw string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_uid", access.User.UserUID)

	if err := s.Blocklist.Revoke(ctx, access.ID); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke access token", "error", err)
		return err
	}

	if refreshRaw != "" {
		rc, err := s.Codec.Parse(refreshRaw)
		switch {
		case err != nil:
			l.Warn("logout_refresh_ignored", "reason", "invalid token")
		case !rc.IsRefresh() || rc.User.UserUID != access.User.UserUID:
			l.Warn("logout_refresh_ignored", "reason", "not a refresh token of this user")
		default:
			if err := s.Blocklist.Revoke(ctx, rc.ID); err != nil {
				l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
				return err
			}
		}
	}

	l.Info("logout_successful")
	return nil
}

func (s *AuthService) Me(ctx context.Context, uid uuid.UUID) (*models.User, error) {
	return s.Repo.GetUserWithTasks(ctx, uid)
}

// PasswordResetRequest never reveals whether the email is registered.
func (s *AuthService) PasswordResetRequest(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.password_reset_request")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			l.Info("password_reset_skipped", "reason", "unknown email")
			return nil
		}
		return err
	}

	token, err := s.Codec.IssueURLToken(user.Email, tokens.PurposePasswordReset, s.EmailTTL)
	if err != nil {
		return err
	}
	s.sendMail(ctx, "password_reset_mail", mail.PasswordResetMessage(s.Domain, user.Email, token))
	l.Info("password_reset_requested", "user_uid", user.UID)
	return nil
}

func (s *AuthService) PasswordResetConfirm(ctx context.Context, token string, req transport.PasswordResetConfirm) error {
	l := logging.FromContext(ctx).With("svc", "auth.password_reset_confirm")

	if req.NewPassword != req.ConfirmNewPassword {
		return apperr.ErrPasswordMismatch
	}

	email, err := s.Codec.ParseURLToken(token, tokens.PurposePasswordReset)
	if err != nil {
		l.Warn("password_reset_failed", "status", 401, "reason", "invalid token")
		return apperr.ErrInvalidToken
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	pwHash, err := s.hasher().Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.SetPasswordHash(ctx, user.UID, pwHash); err != nil {
		return err
	}

	l.Info("password_reset_successful", "user_uid", user.UID)
	return nil
}

// rehash upgrades a stored hash made at a different cost. Failures are
// logged and retried on the next login.
func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	if !s.hasher().NeedsRehash(user.PasswordHash) {
		return
	}
	l := logging.FromContext(ctx)
	pwHash, err := s.hasher().Hash(password)
	if err != nil {
		l.Warn("password_rehash_failed", "user_uid", user.UID, "error", err)
		return
	}
	if err := s.Repo.SetPasswordHash(ctx, user.UID, pwHash); err != nil {
		l.Warn("password_rehash_failed", "user_uid", user.UID, "error", err)
		return
	}
	user.PasswordHash = pwHash
	l.Info("password_rehashed", "user_uid", user.UID, "cost", s.hasher().Cost())
}

func (s *AuthService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, offset, limit)
}

// SetRole changes a user's role. Tokens already issued stay valid; the role
// guard reads the role from the database on every request.
func (s *AuthService) SetRole(ctx context.Context, uid uuid.UUID, role models.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.set_role")

	if err := s.Repo.SetRole(ctx, uid, role); err != nil {
		l.Warn("role_change_failed", "user_id", uid, "error", err)
		return nil, err
	}
	user, err := s.Repo.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	l.Info("role_changed", "user_id", uid, "role", role)
	s.publish(ctx, "user_role_changed", user)
	return user, nil
}
