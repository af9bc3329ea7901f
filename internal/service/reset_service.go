package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"blogpose/internal/mailer"
	"blogpose/internal/middleware"
	"blogpose/internal/models"
	"blogpose/internal/observability"
	"blogpose/internal/repository"
	"blogpose/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const resetTokenBytes = 32

// invalidTokenErr is the single error for every bad-token case. Unknown,
// expired and consumed tokens must be indistinguishable to the caller.
func invalidTokenErr() *models.AppError {
	return models.NewValidationError("That is an invalid or expired token")
}

// PasswordResetService owns the reset token lifecycle: issue, verify,
// consume and sweep.
type PasswordResetService struct {
	userRepo repository.UserRepository
	mailer   mailer.Mailer
	baseURL  string
	tokenTTL time.Duration

	// now is swappable so tests can control expiry.
	now func() time.Time
}

func NewPasswordResetService(userRepo repository.UserRepository, m mailer.Mailer, baseURL string, tokenTTL time.Duration) *PasswordResetService {
	return &PasswordResetService{
		userRepo: userRepo,
		mailer:   m,
		baseURL:  baseURL,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// RequestReset issues a token for the account behind email and mails the
// reset link. It reports success whether or not the account exists, so
// the endpoint cannot be used to enumerate registered addresses. Any
// token the user already had is overwritten.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		middleware.Logger.InfoContext(ctx, "password reset requested for unknown email")
		return nil
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return models.NewInternalError(err)
	}
	token := hex.EncodeToString(raw)

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.tokenTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, hashToken(token), issuedAt, expiresAt); err != nil {
		return err
	}

	resetURL := s.baseURL + "/resetpassword/" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to send reset email",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
		return models.NewInternalError(err)
	}

	observability.ResetEmailsSent.Inc()
	return nil
}

// VerifyToken resolves a plaintext token to its user. Only a stored hash
// match with an unexpired window passes.
func (s *PasswordResetService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, invalidTokenErr()
	}

	user, err := s.userRepo.GetByResetTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasActiveResetToken(s.now().UTC()) {
		return nil, invalidTokenErr()
	}
	return user, nil
}

// ResetPassword consumes the token: after verification the new password
// is hashed and stored and the token fields cleared in one transaction,
// so the same token can never be used twice.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	user, err := s.VerifyToken(ctx, token)
	if err != nil {
		return err
	}

	fieldErrs := validation.Collect(
		validation.Password("password", newPassword),
		validation.PasswordConfirm(newPassword, confirmPassword),
	)
	if len(fieldErrs) > 0 {
		return models.NewFieldValidationError(fieldErrs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	return s.userRepo.ResetPassword(ctx, user.ID, string(hash))
}

// SweepExpired clears every expired token in one bounded UPDATE and
// returns how many were removed.
func (s *PasswordResetService) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.userRepo.SweepExpiredResetTokens(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		observability.ResetTokensSwept.Add(float64(swept))
		middleware.Logger.InfoContext(ctx, "swept expired reset tokens", slog.Int64("count", swept))
	}
	return swept, nil
}

// RunSweeper sweeps immediately and then on every tick until ctx is done.
func (s *PasswordResetService) RunSweeper(ctx context.Context, interval time.Duration) {
	if _, err := s.SweepExpired(ctx); err != nil {
		middleware.Logger.ErrorContext(ctx, "reset token sweep failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				middleware.Logger.ErrorContext(ctx, "reset token sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
