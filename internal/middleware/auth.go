package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	UserContextKey = "user"
	SessionName    = "warbler"
	SessionUserKey = "curr_user"

	tokenTTL = 72 * time.Hour
)

var errInvalidToken = errors.New("invalid token")

// Authenticator resolves the current user from a bearer token or the login
// session, and issues the bearer tokens it accepts.
type Authenticator struct {
	users     repositories.UserRepository
	jwtSecret []byte
	firebase  *auth.Client // optional
}

func NewAuthenticator(users repositories.UserRepository, jwtSecret string, firebaseClient *auth.Client) *Authenticator {
	return &Authenticator{users: users, jwtSecret: []byte(jwtSecret), firebase: firebaseClient}
}

// LoadUser stores the current user, if any, under UserContextKey. Anonymous
// requests pass through; a bearer token that does not verify is rejected.
func (a *Authenticator) LoadUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
				parts := strings.Split(header, " ")
				if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
				}
				user, err := a.userFromToken(ctx, parts[1])
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				}
				c.Set(UserContextKey, user)
				return next(c)
			}

			if userID, ok := sessionUserID(c); ok {
				user, err := a.users.GetUserByID(ctx, userID)
				switch {
				case err == nil:
					c.Set(UserContextKey, user)
				case errors.Is(err, gorm.ErrRecordNotFound):
					// The account was deleted; forget the stale session.
					_ = Logout(c)
				default:
					return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
				}
			}
			return next(c)
		}
	}
}

func (a *Authenticator) userFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return a.jwtSecret, nil
	})
	if err == nil && token.Valid {
		return a.users.GetUserByID(ctx, claims.UserID)
	}

	if a.firebase != nil {
		return firebaseUser(ctx, a.firebase, a.users, tokenString)
	}
	return nil, errInvalidToken
}

// IssueToken signs a bearer token for user.
func (a *Authenticator) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

// RequireUser rejects requests without a current user.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user LoadUser resolved, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(UserContextKey).(*models.User)
	return user
}

// Login records user in the session cookie.
func Login(c echo.Context, user *models.User) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Values[SessionUserKey] = user.ID
	return sess.Save(c.Request(), c.Response())
}

// Logout removes the user from the session cookie.
func Logout(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, SessionUserKey)
	return sess.Save(c.Request(), c.Response())
}

func sessionUserID(c echo.Context) (uint, bool) {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Values[SessionUserKey].(uint)
	return id, ok && id != 0
}
