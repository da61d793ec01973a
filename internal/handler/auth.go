package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/toshahriar/documenter/internal/apperr"
	"github.com/toshahriar/documenter/internal/config"
	"github.com/toshahriar/documenter/internal/mailer"
	"github.com/toshahriar/documenter/internal/middleware"
	"github.com/toshahriar/documenter/internal/model"
	"github.com/toshahriar/documenter/internal/queue"
	"github.com/toshahriar/documenter/internal/repository"
	"github.com/toshahriar/documenter/internal/utils"
)

// AuthHandler implements registration, login, token lifecycle and profile
// endpoints.
type AuthHandler struct {
	cfg           config.Config
	users         UserStore
	sessions      AuthTokenStore
	verifications VerificationTokenStore
	integrations  IntegrationStore
	emails        EmailPublisher
}

func NewAuthHandler(cfg config.Config, users UserStore, sessions AuthTokenStore, verifications VerificationTokenStore, integrations IntegrationStore, emails EmailPublisher) *AuthHandler {
	return &AuthHandler{
		cfg:           cfg,
		users:         users,
		sessions:      sessions,
		verifications: verifications,
		integrations:  integrations,
		emails:        emails,
	}
}

type registerRequest struct {
	FirstName       string `json:"firstName" validate:"required,min=3"`
	LastName        string `json:"lastName" validate:"required,min=3"`
	Username        string `json:"username" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// Register creates an unverified account and queues the verification email.
// Duplicate email or username surfaces as a field error, same shape as a
// validation failure, so clients render both identically.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if fields := utils.Validate(req); fields != nil {
		return apperr.Unprocessable("Registration data is not valid", fields)
	}

	hash, err := utils.HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		return apperr.Internal("Failed to hash password", err)
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	ctx := c.Request().Context()
	if err := h.users.Create(ctx, user); err != nil {
		if fields := duplicateFields(err); fields != nil {
			return apperr.Unprocessable("Registration data is not valid", fields)
		}
		return apperr.Database("Failed to create user", err)
	}

	vt, err := h.verifications.Create(ctx, user.ID, model.VerificationTokenEmail,
		time.Now().UTC().Add(h.cfg.EmailVerificationTTL))
	if err != nil {
		return apperr.Database("Failed to create verification token", err)
	}

	link := fmt.Sprintf("%s/v1/auth/account-verify?token=%s&userId=%s", h.cfg.APIURL, vt.Token, user.ID)
	if err := h.emails.PublishEmail(ctx, queue.EmailMessage{
		To:       user.Email,
		Subject:  "Welcome! Please verify your email",
		Template: mailer.TemplateAccountVerification,
		Context:  map[string]any{"link": link},
	}); err != nil {
		return apperr.Internal("Failed to queue verification email", err)
	}

	return utils.Respond(c).
		Code(http.StatusCreated).
		Message("User registered successfully. Please verify your email.").
		Notify().
		Send()
}

// AccountVerify consumes the emailed verification link and redirects to the
// dashboard's confirmation page.
func (h *AuthHandler) AccountVerify(c echo.Context) error {
	token := c.QueryParam("token")
	userID := c.QueryParam("userId")
	if token == "" || userID == "" {
		return apperr.BadRequest("Token and User ID are required.")
	}

	ctx := c.Request().Context()
	vt, err := h.verifications.FindValid(ctx, token, model.VerificationTokenEmail, userID)
	if err != nil {
		return apperr.BadRequest("Verification token is not valid")
	}

	user, err := h.users.GetByID(ctx, vt.UserID)
	if err != nil {
		return apperr.BadRequest("User not found")
	}

	if err := h.users.MarkVerified(ctx, vt.UserID); err != nil {
		return apperr.Database("Failed to verify user", err)
	}
	if err := h.verifications.Revoke(ctx, user.ID, model.VerificationTokenEmail); err != nil {
		return apperr.Database("Failed to revoke verification token", err)
	}

	if err := h.emails.PublishEmail(ctx, queue.EmailMessage{
		To:       user.Email,
		Subject:  "Account Verified! Welcome to Our Platform.",
		Template: mailer.TemplateWelcome,
		Context:  map[string]any{"link": h.cfg.WebURL},
	}); err != nil {
		return apperr.Internal("Failed to queue welcome email", err)
	}

	return c.Redirect(http.StatusFound, h.cfg.WebURL+"/account-verified")
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Tokens utils.TokenPair `json:"tokens"`
	User   *model.User     `json:"user"`
}

// AuthToken is the login endpoint: it verifies credentials, mints a token
// pair, persists the session row and sets the auth cookies.
func (h *AuthHandler) AuthToken(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if req.Identifier == "" || req.Password == "" {
		return apperr.BadRequest("Email and Password are required.")
	}

	ctx := c.Request().Context()
	user, err := h.users.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same status class as a wrong password; the code must not
			// reveal whether the account exists.
			return apperr.BadRequest("User not found")
		}
		return apperr.Database("Failed to look up user", err)
	}
	if !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return apperr.BadRequest("Invalid password")
	}

	pair, err := utils.NewTokenPair(h.cfg.JWTSecret, *user, h.cfg.AccessTokenTTL, h.cfg.RefreshTokenTTL)
	if err != nil {
		return apperr.Internal("Failed to issue tokens", err)
	}

	if err := h.sessions.Create(ctx, &model.AuthToken{
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		UserID:                user.ID,
	}); err != nil {
		return apperr.Database("Failed to persist session", err)
	}

	h.setAuthCookies(c, pair)

	return utils.Respond(c).
		Message("Authenticated successfully").
		Data(loginResponse{Tokens: pair, User: user}).
		Notify().
		Send()
}

type refreshRequest struct {
	Token string `json:"token"`
}

// RefreshToken exchanges a valid refresh token for a new access token. The
// refresh token itself is left untouched; the session row keeps it until
// logout or expiry, so a stolen refresh token cannot extend its own life.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshRequest
	_ = c.Bind(&req)
	token := req.Token
	if token == "" {
		if cookie, err := c.Cookie("refreshToken"); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return apperr.BadRequest("Refresh token is required.")
	}

	claims, err := utils.VerifyToken(h.cfg.JWTSecret, token, model.TokenTypeRefresh)
	if err != nil {
		return apperr.Authentication("Invalid refresh token")
	}

	ctx := c.Request().Context()
	session, err := h.sessions.FindValidRefresh(ctx, token, claims.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Authentication("Invalid refresh token")
		}
		return apperr.Database("Failed to look up session", err)
	}

	user := model.User{
		ID:        claims.User.ID,
		FirstName: claims.User.FirstName,
		LastName:  claims.User.LastName,
		Username:  claims.User.Username,
		Email:     claims.User.Email,
	}
	access, accessExp, err := utils.NewSignedToken(h.cfg.JWTSecret, user, model.TokenTypeAccess, h.cfg.AccessTokenTTL)
	if err != nil {
		return apperr.Internal("Failed to issue access token", err)
	}
	if err := h.sessions.UpdateAccessToken(ctx, session.ID, access, accessExp); err != nil {
		return apperr.Database("Failed to update session", err)
	}

	pair := utils.TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          session.RefreshToken,
		RefreshTokenExpiresAt: session.RefreshTokenExpiresAt,
	}
	h.setAuthCookies(c, pair)

	return utils.Respond(c).
		Message("Token refreshed successfully").
		Data(pair).
		Notify().
		Send()
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword revokes any outstanding reset token and emails a fresh
// one. Unknown addresses return 404, matching the account lookup endpoints.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if req.Email == "" {
		return apperr.BadRequest("Email is required.")
	}

	ctx := c.Request().Context()
	user, err := h.users.GetByIdentifier(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Database("Failed to look up user", err)
	}

	if err := h.verifications.Revoke(ctx, user.ID, model.VerificationTokenPasswordReset); err != nil {
		return apperr.Database("Failed to revoke reset token", err)
	}
	vt, err := h.verifications.Create(ctx, user.ID, model.VerificationTokenPasswordReset,
		time.Now().UTC().Add(h.cfg.PasswordResetTTL))
	if err != nil {
		return apperr.Database("Failed to create reset token", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&userId=%s", h.cfg.WebURL, vt.Token, user.ID)
	if err := h.emails.PublishEmail(ctx, queue.EmailMessage{
		To:       user.Email,
		Subject:  "Password Reset Link",
		Template: mailer.TemplatePasswordReset,
		Context:  map[string]any{"link": link},
	}); err != nil {
		return apperr.Internal("Failed to queue reset email", err)
	}

	return utils.Respond(c).
		Message("Password reset email sent successfully").
		Notify().
		Send()
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	UserID          string `json:"userId"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword sets a new password against a valid reset token and revokes
// the token so the link is single-use.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if req.Token == "" || req.UserID == "" {
		return apperr.BadRequest("Something went wrong, please try again.")
	}
	if req.Password == "" || req.ConfirmPassword == "" || req.Password != req.ConfirmPassword {
		return apperr.BadRequest("Password and confirmation password are required. Please provide both and try again.")
	}

	ctx := c.Request().Context()
	vt, err := h.verifications.FindValid(ctx, req.Token, model.VerificationTokenPasswordReset, req.UserID)
	if err != nil {
		return apperr.BadRequest("Verification token is not valid")
	}

	user, err := h.users.GetByID(ctx, vt.UserID)
	if err != nil {
		return apperr.BadRequest("User not found")
	}

	hash, err := utils.HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		return apperr.Internal("Failed to hash password", err)
	}
	user.PasswordHash = hash
	if err := h.users.Update(ctx, user); err != nil {
		return apperr.Database("Failed to update password", err)
	}

	if err := h.verifications.Revoke(ctx, req.UserID, model.VerificationTokenPasswordReset); err != nil {
		return apperr.Database("Failed to revoke reset token", err)
	}

	return utils.Respond(c).
		Message("Password updated successfully").
		Notify().
		Send()
}

// integrationStatus summarises whether the user has connected the signing
// provider; timestamps appear only when a connection exists.
type integrationStatus struct {
	Status    bool       `json:"status"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type meResponse struct {
	*model.User
	Docusign integrationStatus `json:"docusign"`
}

// Me returns the authenticated user's profile plus provider connection
// state.
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return apperr.Authentication("User not authenticated.")
	}

	ctx := c.Request().Context()
	user, err := h.users.GetByID(ctx, claims.User.ID)
	if err != nil {
		return apperr.Authentication("User not authenticated.")
	}

	status := integrationStatus{}
	if integ, err := h.integrations.GetByUser(ctx, user.ID); err == nil {
		status.Status = true
		status.CreatedAt = &integ.CreatedAt
		status.UpdatedAt = &integ.UpdatedAt
	}

	return utils.Respond(c).
		Message("User details fetched successfully.").
		Data(meResponse{User: user, Docusign: status}).
		Send()
}

// Logout clears the auth cookies and revokes the session holding the
// presented access token.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearCookie(c, "accessToken")
	clearCookie(c, "refreshToken")

	if token, ok := c.Get(middleware.AccessTokenKey).(string); ok && token != "" {
		if err := h.sessions.Revoke(c.Request().Context(), token, model.TokenTypeAccess); err != nil {
			return apperr.Database("Failed to revoke session", err)
		}
	}

	return utils.Respond(c).
		Message("Logged out successfully. Token removed.").
		Notify().
		Send()
}

type updateProfileRequest struct {
	FirstName       string `json:"firstName" validate:"required,min=3"`
	LastName        string `json:"lastName" validate:"required,min=3"`
	Username        string `json:"username" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"omitempty,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// UpdateProfile updates the authenticated user's details. Password change
// is optional and requires a matching confirmation.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return apperr.Authentication("User not authenticated.")
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if fields := utils.Validate(req); fields != nil {
		return apperr.Unprocessable("Profile data is not valid", fields)
	}

	ctx := c.Request().Context()
	user, err := h.users.GetByID(ctx, claims.User.ID)
	if err != nil {
		return apperr.NotFound("User not found")
	}

	// Pre-check both unique columns so a single response can name every
	// conflict; the DB unique keys still close the insert race.
	taken := map[string]string{}
	if dup, err := h.users.EmailTaken(ctx, req.Email, user.ID); err != nil {
		return apperr.Database("Failed to check email", err)
	} else if dup {
		taken["email"] = "Email is already in use"
	}
	if dup, err := h.users.UsernameTaken(ctx, req.Username, user.ID); err != nil {
		return apperr.Database("Failed to check username", err)
	} else if dup {
		taken["username"] = "Username is already taken"
	}
	if len(taken) > 0 {
		return apperr.Unprocessable("Profile data is not valid", taken)
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Username = req.Username
	user.Email = req.Email
	user.PasswordHash = ""
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password, h.cfg.BcryptCost)
		if err != nil {
			return apperr.Internal("Failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	if err := h.users.Update(ctx, user); err != nil {
		if fields := duplicateFields(err); fields != nil {
			return apperr.Unprocessable("Profile data is not valid", fields)
		}
		return apperr.Database("Failed to update profile", err)
	}

	return utils.Respond(c).
		Message("Profile updated successfully.").
		Data(user).
		Notify().
		Send()
}

func (h *AuthHandler) setAuthCookies(c echo.Context, pair utils.TokenPair) {
	setCookie(c, "accessToken", pair.AccessToken, h.cfg.AccessTokenTTL)
	setCookie(c, "refreshToken", pair.RefreshToken, h.cfg.RefreshTokenTTL)
}

func setCookie(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// duplicateFields maps unique-key violations onto the same field-error
// shape validation failures use.
func duplicateFields(err error) map[string]string {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return map[string]string{"email": "Email is already in use"}
	case errors.Is(err, repository.ErrUsernameExists):
		return map[string]string{"username": "Username is already taken"}
	}
	return nil
}
