package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thinkplus-app/thinkplus-api/internal/accounts"
	"github.com/thinkplus-app/thinkplus-api/internal/session"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// accountSvc is the interface expected by AuthHandler, satisfied by *accounts.Service.
type accountSvc interface {
	Signup(ctx context.Context, name, email, password, profileImage string) (*accounts.Account, error)
	Login(ctx context.Context, email, password string) (*accounts.Account, error)
	OAuthLogin(ctx context.Context, provider accounts.Provider, email, name, profileImage string) (*accounts.Account, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error)
}

// AuthHandler handles account authentication routes.
type AuthHandler struct {
	accounts    accountSvc
	tokens      *session.Issuer
	oauthCfgs   map[string]*oauth2.Config
	frontendURL string // used to redirect after the server-side OAuth callback
	logger      *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
// oauthProviders may be nil or empty to disable the server-side OAuth routes.
func NewAuthHandler(
	accountSvc accountSvc,
	tokens *session.Issuer,
	oauthProviders map[string]OAuthProviderConfig,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:    accountSvc,
		tokens:      tokens,
		oauthCfgs:   buildOAuthConfigs(oauthProviders),
		frontendURL: "http://localhost:3000",
		logger:      logger,
	}
}

// SetFrontendURL sets the base URL of the frontend for OAuth callback redirects.
func (h *AuthHandler) SetFrontendURL(url string) {
	h.frontendURL = url
}

// Register mounts all auth routes on the provided router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/google-login", h.GoogleLogin)
		auth.POST("/apple-login", h.AppleLogin)
		auth.GET("/me", session.RequireSession(h.tokens), h.Me)
		auth.GET("/oauth/:provider", h.OAuthRedirect)
		auth.GET("/oauth/:provider/callback", h.OAuthCallback)
	}
}

// ─── Request / Response types ────────────────────────────────────────────────

type signupRequest struct {
	Name         string `json:"name"     binding:"required"`
	Email        string `json:"email"    binding:"required"`
	Password     string `json:"password" binding:"required"`
	ProfileImage string `json:"profileImage"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type oauthLoginRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

// accountSummary is the outward shape of an account; the password hash is
// never part of it.
type accountSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

func summarize(a *accounts.Account) accountSummary {
	return accountSummary{
		ID:           a.ID.String(),
		Name:         a.Name,
		Email:        a.Email,
		ProfileImage: a.ProfileImage,
	}
}

// ─── Handlers ────────────────────────────────────────────────────────────────

// Signup handles POST /auth/signup — creates a new account. No token is
// issued; the caller logs in separately.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Name, email and password are required"})
		return
	}

	_, err := h.accounts.Signup(c.Request.Context(), req.Name, req.Email, req.Password, req.ProfileImage)
	if err != nil {
		if errors.Is(err, accounts.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already in use"})
			return
		}
		h.logger.Error("signup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error registering user"})
		return
	}

	RecordSignup()
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login handles POST /auth/login — authenticates with email/password and
// issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	a, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			RecordLogin("password", false)
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
			return
		}
		h.logger.Error("login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	tok, err := h.tokens.Issue(a.ID.String())
	if err != nil {
		h.logger.Error("issue session token after login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	RecordLogin("password", true)
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": summarize(a)})
}

// GoogleLogin handles POST /auth/google-login — matches or creates an account
// for an identity already verified with Google by the calling client.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req oauthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and name are required"})
		return
	}
	h.oauthLogin(c, accounts.ProviderGoogle, req, "Error with Google login")
}

// AppleLogin handles POST /auth/apple-login. Apple does not always release the
// user's name, so only the email is required.
func (h *AuthHandler) AppleLogin(c *gin.Context) {
	var req oauthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}
	h.oauthLogin(c, accounts.ProviderApple, req, "Error with Apple login")
}

// oauthLogin is the shared implementation behind both provider bridges.
func (h *AuthHandler) oauthLogin(c *gin.Context, provider accounts.Provider, req oauthLoginRequest, failMsg string) {
	a, _, err := h.accounts.OAuthLogin(c.Request.Context(), provider, req.Email, req.Name, req.ProfileImage)
	if err != nil {
		if errors.Is(err, accounts.ErrMissingField) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
			return
		}
		h.logger.Error("oauth login", zap.String("provider", string(provider)), zap.Error(err))
		RecordLogin(string(provider), false)
		c.JSON(http.StatusInternalServerError, gin.H{"message": failMsg})
		return
	}

	tok, err := h.tokens.Issue(a.ID.String())
	if err != nil {
		h.logger.Error("issue session token after oauth login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": failMsg})
		return
	}

	RecordLogin(string(provider), true)
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": summarize(a)})
}

// Me handles GET /auth/me — returns the account bound to the presented token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := session.ClaimsFromCtx(c)
	id, err := uuid.Parse(claims.AccountID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}

	a, err := h.accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		h.logger.Error("get account for token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error loading account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": summarize(a)})
}
