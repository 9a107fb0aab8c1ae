package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/logging"
)

const tokenTypeBearer = "bearer"

// AuthController handles the /auth endpoints.
type AuthController struct {
	service     *Service
	middleware  *Middleware
	rateLimiter *RateLimiter
	log         *logging.Logger
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, middleware *Middleware, cfg config.Auth, log *logging.Logger) *AuthController {
	return &AuthController{
		service:    service,
		middleware: middleware,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
		log: log.With("component", "auth"),
	}
}

// RegisterRoutes registers authentication routes on the group.
func (ac *AuthController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", ac.Login)
	rg.POST("/token", ac.Token)
	rg.POST("/signup", ac.Signup)
	rg.GET("/check-email/:email", ac.CheckEmail)
	rg.GET("/check-username/:username", ac.CheckUsername)

	authed := rg.Group("", ac.middleware.RequireAuth())
	authed.POST("/logout", ac.Logout)
	authed.GET("/logout", ac.Logout) // Support GET for simple logout links
	authed.GET("/current-user", ac.CurrentUser)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

type credentials struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type loginResponse struct {
	tokenResponse
	User *entities.User `json:"user"`
}

func validationFailed(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
}

// authenticate runs the credential check shared by /login and /token.
// It writes the error response itself and returns nil on failure.
func (ac *AuthController) authenticate(c *gin.Context) *entities.User {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		validationFailed(c, err)
		return nil
	}

	ip := c.ClientIP()
	if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Username); !allowed {
		abortTooManyRequests(c, retryAfter)
		return nil
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		ac.rateLimiter.RecordSuccess(ip, req.Username)
		return user
	case errors.Is(err, ErrInvalidCredentials):
		ac.rateLimiter.RecordFailure(ip, req.Username)
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUserDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAccountLocked):
		ac.rateLimiter.RecordFailure(ip, req.Username)
		c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
	default:
		ac.log.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	return nil
}

// Login exchanges credentials for a token and the user record.
func (ac *AuthController) Login(c *gin.Context) {
	user := ac.authenticate(c)
	if user == nil {
		return
	}
	token, err := ac.service.IssueToken(c.Request.Context(), user)
	if err != nil {
		ac.log.Error("failed to issue token", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ac.log.Info("user logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, loginResponse{
		tokenResponse: tokenResponse{AccessToken: token, TokenType: tokenTypeBearer},
		User:          user,
	})
}

// Token is the OAuth2 password-flow variant of Login for API tooling.
func (ac *AuthController) Token(c *gin.Context) {
	user := ac.authenticate(c)
	if user == nil {
		return
	}
	token, err := ac.service.IssueToken(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}

// Logout revokes the bearer token used for this request.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.service.Logout(c.Request.Context(), c.GetString(ContextKeyToken)); err != nil {
		ac.log.Error("logout failed", "user_id", GetUserID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

type signupRequest struct {
	Email          string `json:"email" binding:"required,email,max=60"`
	Password       string `json:"password" binding:"required,min=8,max=72"`
	Name           string `json:"name" binding:"required,max=60"`
	FirstLastName  string `json:"first_last_name" binding:"required,max=60"`
	SecondLastName string `json:"second_last_name" binding:"max=60"`
	DateOfBirth    string `json:"date_of_birth"`
	Username       string `json:"username" binding:"omitempty,min=3,max=15"`
	EmergingAuthor bool   `json:"emerging_author"`
}

// Signup registers a new account.
func (ac *AuthController) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}
	dob, err := entities.ParseDate(req.DateOfBirth)
	if err != nil {
		validationFailed(c, err)
		return
	}

	user, err := ac.service.Signup(c.Request.Context(), SignupRequest{
		Email:          req.Email,
		Password:       req.Password,
		Username:       req.Username,
		Name:           req.Name,
		FirstLastName:  req.FirstLastName,
		SecondLastName: req.SecondLastName,
		DateOfBirth:    dob,
		EmergingAuthor: req.EmergingAuthor,
	})
	switch {
	case err == nil:
		ac.log.Info("user signed up", "user_id", user.ID, "role", user.UserRole)
		c.JSON(http.StatusCreated, user)
	case errors.Is(err, ErrEmailExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already exists", "code": CodeEmailExists})
	case errors.Is(err, ErrUsernameExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username already exists", "code": CodeUsernameExists})
	case errors.Is(err, ErrEmailInvalid), errors.Is(err, ErrUsernameInvalid),
		errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		validationFailed(c, err)
	default:
		ac.log.Error("signup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CheckEmail answers true when the email is still free.
func (ac *AuthController) CheckEmail(c *gin.Context) {
	free, err := ac.service.EmailAvailable(c.Request.Context(), c.Param("email"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, free)
}

// CheckUsername answers true when the username is still free.
func (ac *AuthController) CheckUsername(c *gin.Context) {
	free, err := ac.service.UsernameAvailable(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, free)
}

func (ac *AuthController) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}
