package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/middleware"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	authenticator  *middleware.Authenticator
	firebaseAuth   *auth.Client // nil when Firebase is not configured
	log            logger.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, authenticator *middleware.Authenticator, firebaseAuthClient *auth.Client, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		authenticator:  authenticator,
		firebaseAuth:   firebaseAuthClient,
		log:            log,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// Signup registers a local account and logs it in
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		Password:       string(hashedPassword),
		ImageURL:       req.ImageURL,
		HeaderImageURL: models.DefaultHeaderImageURL,
	}
	if user.ImageURL == "" {
		user.ImageURL = models.DefaultImageURL
	}

	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return echo.NewHTTPError(http.StatusConflict, "Username or email already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.log.Info("user signed up", logger.Uint("user_id", user.ID), logger.String("username", user.Username))
	return h.respondWithSession(c, http.StatusCreated, user)
}

// Login checks a username and password
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials.")
	}

	return h.respondWithSession(c, http.StatusOK, user)
}

// Logout clears the login session
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := middleware.Logout(c); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and logs in the matching user,
// linking or creating the account on first use
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	uid := token.UID
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, uid)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			user.FirebaseUID = &uid
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to link Firebase account")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			name, _ := token.Claims["name"].(string)
			if user, err = h.createFirebaseUser(c, uid, email, name); err != nil {
				return err
			}
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	return h.respondWithSession(c, http.StatusOK, user)
}

func (h *AuthHandler) createFirebaseUser(c echo.Context, uid, email, name string) (*models.User, error) {
	base := name
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
	}
	base = strings.ReplaceAll(base, " ", "")
	if len(base) > 24 {
		base = base[:24]
	}

	// Usernames are unique; retry with a numeric suffix.
	for i := 0; i < 10; i++ {
		username := base
		if i > 0 {
			username = base + strconv.Itoa(i)
		}
		user := &models.User{
			Username:       username,
			Email:          email,
			FirebaseUID:    &uid,
			ImageURL:       models.DefaultImageURL,
			HeaderImageURL: models.DefaultHeaderImageURL,
		}
		err := h.userRepository.CreateUser(c.Request().Context(), user)
		if err == nil {
			h.log.Info("firebase user created", logger.Uint("user_id", user.ID), logger.String("username", username))
			return user, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateUser) {
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
		}
	}
	return nil, echo.NewHTTPError(http.StatusConflict, "Could not pick a free username")
}

// respondWithSession logs user into the cookie session and returns a bearer token too.
func (h *AuthHandler) respondWithSession(c echo.Context, status int, user *models.User) error {
	if err := middleware.Login(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to start session")
	}
	token, err := h.authenticator.IssueToken(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(status, echo.Map{"token": token, "user": user})
}
