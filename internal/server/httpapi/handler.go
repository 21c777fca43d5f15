package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/common"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/server/models"
	"github.com/clipstream/backend/internal/server/services"
)

// SessionService is the slice of the session layer the HTTP surface depends
// on. Declared here so handler tests can substitute a fake.
type SessionService interface {
	Register(ctx context.Context, p services.RegisterParams) (*models.PublicUser, error)
	Login(ctx context.Context, login, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	RefreshAccessToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, userID, fullname, email string) (*models.PublicUser, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*models.PublicUser, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.PublicUser, error)
	GetUser(ctx context.Context, userID string) (*models.PublicUser, error)
	Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error)
}

// Server is the HTTP transport over the session service.
type Server struct {
	address   string
	logger    logging.Logger
	sessions  SessionService
	uploadDir string
}

func NewServer(address string, logger logging.Logger, sessions SessionService, uploadDir string) *Server {
	return &Server{
		address:   address,
		logger:    logger,
		sessions:  sessions,
		uploadDir: uploadDir,
	}
}

// RegisterRoutes mounts all user endpoints on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/users/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/users/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/users/refresh-token", s.handleRefreshToken)
	mux.HandleFunc("POST /api/v1/users/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("POST /api/v1/users/change-password", s.requireAuth(s.handleChangePassword))
	mux.HandleFunc("GET /api/v1/users/current-user", s.requireAuth(s.handleCurrentUser))
	mux.HandleFunc("PATCH /api/v1/users/update-account", s.requireAuth(s.handleUpdateAccount))
	mux.HandleFunc("PATCH /api/v1/users/avatar", s.requireAuth(s.handleUpdateAvatar))
	mux.HandleFunc("PATCH /api/v1/users/cover-image", s.requireAuth(s.handleUpdateCoverImage))
}

// handleRegister accepts a multipart form with the account fields and the
// optional avatar/coverImage files.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.writeError(r.Context(), w, badRequest("malformed form data"))
		return
	}

	avatarPath, err := saveUploadedFile(r, "avatar", s.uploadDir)
	if err != nil {
		s.writeError(r.Context(), w, badRequest("bad avatar upload"))
		return
	}
	defer removeIfPresent(avatarPath)

	coverPath, err := saveUploadedFile(r, "coverImage", s.uploadDir)
	if err != nil {
		s.writeError(r.Context(), w, badRequest("bad cover image upload"))
		return
	}
	defer removeIfPresent(coverPath)

	user, err := s.sessions.Register(r.Context(), services.RegisterParams{
		Username:       strings.ToLower(strings.TrimSpace(r.FormValue("username"))),
		FullName:       strings.TrimSpace(r.FormValue("fullname")),
		Email:          strings.TrimSpace(r.FormValue("email")),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeSuccess(w, http.StatusCreated, user, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(r.Context(), w, badRequest("malformed request body"))
		return
	}

	// Usernames are stored lowercased at registration; normalize the same
	// way here so the lookup matches.
	login := strings.ToLower(strings.TrimSpace(req.Username))
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" {
		s.writeError(r.Context(), w, badRequest("username or email is required"))
		return
	}

	result, err := s.sessions.Login(r.Context(), login, req.Password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	setAuthCookies(w, result.TokenPair)
	s.writeSuccess(w, http.StatusOK, map[string]any{
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "User logged in successfully")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	if err := s.sessions.Logout(r.Context(), user.ID); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	clearAuthCookies(w)
	s.writeSuccess(w, http.StatusOK, nil, "User logged out successfully")
}

// handleRefreshToken rotates the session. The incoming refresh token is read
// from the refreshToken cookie, falling back to the request body.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeJSON(w, r, &req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	pair, err := s.sessions.RefreshAccessToken(r.Context(), token)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	setAuthCookies(w, *pair)
	s.writeSuccess(w, http.StatusOK, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed successfully")
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(r.Context(), w, badRequest("malformed request body"))
		return
	}

	if err := s.sessions.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeSuccess(w, http.StatusOK, nil, "Password changed successfully")
}

// handleCurrentUser re-fetches the account so the response reflects updates
// made after the access token was minted.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	current, err := s.sessions.GetUser(r.Context(), user.ID)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeSuccess(w, http.StatusOK, current, "Current user fetched successfully")
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	var req struct {
		FullName string `json:"fullname"`
		Email    string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(r.Context(), w, badRequest("malformed request body"))
		return
	}

	updated, err := s.sessions.UpdateProfile(r.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeSuccess(w, http.StatusOK, updated, "Account details updated successfully")
}

func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	s.handleImageUpdate(w, r, "avatar", s.sessions.UpdateAvatar, "Avatar updated successfully")
}

func (s *Server) handleUpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	s.handleImageUpdate(w, r, "coverImage", s.sessions.UpdateCoverImage, "Cover image updated successfully")
}

func (s *Server) handleImageUpdate(w http.ResponseWriter, r *http.Request, field string,
	update func(ctx context.Context, userID, localPath string) (*models.PublicUser, error), message string) {

	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	if err := parseForm(r); err != nil {
		s.writeError(r.Context(), w, badRequest("malformed form data"))
		return
	}

	path, err := saveUploadedFile(r, field, s.uploadDir)
	if err != nil {
		s.writeError(r.Context(), w, badRequest("bad file upload"))
		return
	}
	defer removeIfPresent(path)

	updated, err := update(r.Context(), user.ID, path)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeSuccess(w, http.StatusOK, updated, message)
}

// parseForm parses the request form, accepting both multipart and urlencoded
// bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorBadRequest, msg)
}
