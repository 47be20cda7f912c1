package views

import (
	"strconv"

	"github.com/anonto42/warbler/internal/models"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/components"
	. "maragu.dev/gomponents/html"
)

const (
	bootstrapCSS = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"
	iconsCSS     = "https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/font/bootstrap-icons.min.css"
	htmxJS       = "https://unpkg.com/htmx.org@1.9.12"
)

// Page wraps body in the site chrome. user may be nil.
func Page(title string, user *models.User, csrf string, body ...g.Node) g.Node {
	return components.HTML5(components.HTML5Props{
		Title:    title + " | Warbler",
		Language: "en",
		Head: []g.Node{
			Link(Rel("stylesheet"), Href(bootstrapCSS)),
			Link(Rel("stylesheet"), Href(iconsCSS)),
			Script(Src(htmxJS)),
		},
		Body: []g.Node{
			navbar(user, csrf),
			Main(Class("container mt-4"), g.Group(body)),
		},
	})
}

func navbar(user *models.User, csrf string) g.Node {
	return Nav(Class("navbar navbar-expand bg-light mb-3"),
		Div(Class("container"),
			A(Class("navbar-brand"), Href("/"), g.Text("Warbler")),
			g.If(user != nil, g.Group{
				Span(Class("navbar-text ms-auto me-3"), g.Text("@"+usernameOf(user))),
				A(Class("nav-link me-3"), Href("/users/"+userIDOf(user)+"/likes"), g.Text("Likes")),
				Form(Method("post"), Action("/api/v1/auth/logout"),
					Input(Type("hidden"), Name("csrf_token"), Value(csrf)),
					Button(Type("submit"), Class("btn btn-outline-secondary btn-sm"), g.Text("Log out")),
				),
			}),
		),
	)
}

func usernameOf(user *models.User) string {
	if user == nil {
		return ""
	}
	return user.Username
}

func userIDOf(user *models.User) string {
	if user == nil {
		return ""
	}
	return strconv.FormatUint(uint64(user.ID), 10)
}
