package views

import (
	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"
)

// Render writes node as the HTML response.
func Render(c echo.Context, status int, node g.Node) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return node.Render(c.Response())
}
