// Package services contains server-side business logic. This file implements
// SessionService, which handles registration, login/logout, profile and media
// updates, and issuing/rotating the JWT access/refresh pair stored on the
// user record.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/clipstream/backend/internal/common"
	"github.com/clipstream/backend/internal/dbx"
	"github.com/clipstream/backend/internal/server/auth"
	"github.com/clipstream/backend/internal/server/config"
	"github.com/clipstream/backend/internal/server/media"
	"github.com/clipstream/backend/internal/server/models"
	"github.com/clipstream/backend/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User *models.PublicUser
	TokenPair
}

// RegisterParams carries the registration form fields plus the local paths of
// the optional avatar/cover uploads.
type RegisterParams struct {
	Username       string
	FullName       string
	Email          string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minUsernameLen = 6

// SessionService provides the authentication/session lifecycle:
// - Register: create users, best-effort media uploads
// - Login: verify credentials and mint the token pair
// - RefreshAccessToken: rotate the stored refresh token and mint a new pair
// - Logout / ChangePassword / UpdateProfile / UpdateAvatar / UpdateCoverImage
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	media       media.Uploader
}

// NewSessionService constructs a SessionService using repositories, the media
// uploader, and server config. The signing secrets and token lifetimes are
// read once here and fixed for the life of the service.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, uploader media.Uploader) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		tokens: auth.NewTokenService(auth.TokenConfig{
			AccessSecret:  []byte(cfg.AccessTokenSecret),
			RefreshSecret: []byte(cfg.RefreshTokenSecret),
			AccessTTL:     cfg.AccessTokenValidityDuration,
			RefreshTTL:    cfg.RefreshTokenValidityDuration,
		}),
		media: uploader,
	}
}

// Register validates the form, uploads the optional avatar/cover images, and
// creates the user. Duplicate username or email yields common.ErrorConflict.
// The returned user carries no credential fields.
func (s *SessionService) Register(ctx context.Context, p RegisterParams) (*models.PublicUser, error) {
	if err := validateRegistration(p); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	// Media uploads are best-effort at registration: a missing or failed
	// upload leaves the URL empty rather than failing the request.
	avatarURL := s.uploadOptional(ctx, p.AvatarPath)
	coverURL := s.uploadOptional(ctx, p.CoverImagePath)

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{
		Username:      p.Username,
		Email:         p.Email,
		FullName:      p.FullName,
		PasswordHash:  hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	return user.Sanitize(), nil
}

// Login verifies the credentials for a username or email and, on success,
// mints a token pair and persists the refresh token on the user record,
// overwriting any previously issued one.
func (s *SessionService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user.Sanitize(), TokenPair: *pair}, nil
}

// Logout clears the user's stored refresh token, invalidating the current
// session.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

// RefreshAccessToken validates an incoming refresh token, checks it against
// the single stored slot (detecting reuse of a rotated-out token), and
// rotates: a brand-new pair is minted and the new refresh token replaces the
// old one. The check-and-overwrite runs in one transaction.
func (s *SessionService) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Users(tx)

		user, err := repoTx.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return common.ErrorInternal
		}

		// A rotated-out (or cleared) token no longer matches the slot.
		if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
			return common.ErrorUnauthorized
		}

		var genErr error
		pair, genErr = s.generateTokenPair(ctx, userID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// ChangePassword verifies the old password and replaces the stored hash.
// A mismatching old password yields common.ErrorBadRequest and leaves the
// stored hash unchanged.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password must not be empty", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	if !auth.CheckPassword(user.PasswordHash, oldPassword) {
		return common.ErrorBadRequest
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	if err := repo.UpdatePassword(ctx, userID, hash); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// UpdateProfile validates and persists the mutable account fields.
func (s *SessionService) UpdateProfile(ctx context.Context, userID, fullname, email string) (*models.PublicUser, error) {
	if strings.TrimSpace(fullname) == "" || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: fullname and email are required", common.ErrorValidation)
	}
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: malformed email", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.UpdateProfile(ctx, userID, fullname, email)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrorNotFound
		case errors.Is(err, common.ErrorConflict):
			return nil, common.ErrorConflict
		}
		return nil, common.ErrorInternal
	}
	return user.Sanitize(), nil
}

// UpdateAvatar uploads a new avatar and persists its URL.
func (s *SessionService) UpdateAvatar(ctx context.Context, userID, localPath string) (*models.PublicUser, error) {
	repo := s.repomanager.Users(s.db)
	return s.updateImage(ctx, userID, localPath, repo.UpdateAvatarURL)
}

// UpdateCoverImage uploads a new cover image and persists its URL.
func (s *SessionService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.PublicUser, error) {
	repo := s.repomanager.Users(s.db)
	return s.updateImage(ctx, userID, localPath, repo.UpdateCoverImageURL)
}

// GetUser returns the sanitized user for the given id.
func (s *SessionService) GetUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user.Sanitize(), nil
}

// Authenticate verifies an access token and loads the principal it names.
// Every failure mode collapses to common.ErrorUnauthorized.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error) {
	userID, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return user.Sanitize(), nil
}

// --- helpers below ---

func validateRegistration(p RegisterParams) error {
	switch {
	case len(p.Username) < minUsernameLen:
		return fmt.Errorf("%w: username must be at least %d characters", common.ErrorValidation, minUsernameLen)
	case strings.TrimSpace(p.FullName) == "":
		return fmt.Errorf("%w: fullname must not be empty", common.ErrorValidation)
	case p.Password == "":
		return fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
	case !emailRegexp.MatchString(p.Email):
		return fmt.Errorf("%w: malformed email", common.ErrorValidation)
	}
	return nil
}

func (s *SessionService) uploadOptional(ctx context.Context, localPath string) string {
	url, err := s.media.Upload(ctx, localPath)
	if err != nil {
		return ""
	}
	return url
}

func (s *SessionService) updateImage(ctx context.Context, userID, localPath string,
	persist func(ctx context.Context, id, url string) (*models.User, error)) (*models.PublicUser, error) {

	if localPath == "" {
		return nil, fmt.Errorf("%w: image file is missing", common.ErrorBadRequest)
	}

	url, err := s.media.Upload(ctx, localPath)
	if err != nil || url == "" {
		return nil, common.ErrorInternal
	}

	user, err := persist(ctx, userID, url)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user.Sanitize(), nil
}

// generateTokenPair mints a new access/refresh pair and persists the refresh
// token into the user's single slot via the given handle (DB or transaction).
func (s *SessionService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	repo := s.repomanager.Users(tx)
	if err := repo.UpdateRefreshToken(ctx, userID, refresh); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
