package middleware

import "github.com/labstack/echo/v4"

// Names shared by the CSRF middleware configuration and the page markup.
const (
	CSRFContextKey = "csrf"
	CSRFCookieName = "csrf_token"
	CSRFFormField  = "csrf_token"
)

// CSRFToken returns the token the CSRF middleware generated for this request.
func CSRFToken(c echo.Context) string {
	token, _ := c.Get(CSRFContextKey).(string)
	return token
}
