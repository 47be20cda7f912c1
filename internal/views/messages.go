package views

import (
	"strconv"

	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/pkg/liketoggle"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"
)

// LikeForm is the favorite control of one message. Without JavaScript it is a
// plain form post; with htmx it swaps itself for the server's re-render; a
// liketoggle client reads data-message-id and data-csrf from it.
func LikeForm(messageID string, favorited bool, csrf string) g.Node {
	action := "/messages/" + messageID + "/like"
	return Form(Class("like-form d-inline"), Data("message-id", messageID),
		Method("post"), Action(action),
		hx.Post(action), hx.Target("this"), hx.Swap("outerHTML"),
		Input(Type("hidden"), Name("csrf_token"), Value(csrf)),
		Button(Type("submit"), Class("btn btn-sm btn-link fav-button"), Data("csrf", csrf),
			I(Class("bi fav-icon "+liketoggle.IconClasses(favorited))),
		),
	)
}

func messageItem(m models.EnrichedMessage, csrf string) g.Node {
	id := m.ID.Hex()
	return Li(Class("list-group-item d-flex align-items-start"),
		Img(Src(m.Author.ImageURL), Alt(m.Author.Username), Class("rounded-circle me-3"), Width("48"), Height("48")),
		Div(Class("flex-grow-1"),
			A(Href("/messages/"+id), Class("fw-bold text-decoration-none"), g.Text("@"+m.Author.Username)),
			Span(Class("text-muted ms-2 small"), g.Text(m.Timestamp.Format("January 2, 2006"))),
			P(Class("mb-0"), g.Text(m.Text)),
		),
		Span(Class("ms-2 text-muted small"), g.Text(strconv.Itoa(m.LikesCount))),
		LikeForm(id, m.IsLiked, csrf),
	)
}

func messageList(messages []models.EnrichedMessage, csrf string) g.Node {
	if len(messages) == 0 {
		return P(Class("text-muted"), g.Text("No warbles yet."))
	}
	return Ul(Class("list-group"), g.Map(messages, func(m models.EnrichedMessage) g.Node {
		return messageItem(m, csrf)
	}))
}

// Home is the feed of a logged in user.
func Home(user *models.User, feed []models.EnrichedMessage, csrf string) g.Node {
	return Page("Home", user, csrf,
		H1(Class("h4 mb-3"), g.Text("Latest warbles")),
		messageList(feed, csrf),
	)
}

// AnonHome is shown to visitors without a session.
func AnonHome() g.Node {
	return Page("Welcome", nil, "",
		Div(Class("text-center my-5"),
			H1(g.Text("What's Happening?")),
			P(Class("lead"), g.Text("New to Warbler? Sign up now to get your own personalized timeline!")),
		),
	)
}

// MessageDetail shows one warble; owners also get a delete button.
func MessageDetail(viewer *models.User, m models.EnrichedMessage, csrf string) g.Node {
	return Page("Warble", viewer, csrf,
		Ul(Class("list-group"), messageItem(m, csrf)),
		g.If(viewer != nil && viewer.ID == m.UserID,
			Button(Class("btn btn-outline-danger btn-sm mt-3 delete-message"),
				hx.Delete("/api/v1/messages/"+m.ID.Hex()),
				g.Attr("hx-headers", `{"`+liketoggle.CSRFHeader+`": "`+csrf+`"}`),
				g.Text("Delete"),
			),
		),
	)
}

// Likes lists the warbles owner liked.
func Likes(viewer, owner *models.User, liked []models.EnrichedMessage, csrf string) g.Node {
	return Page("Likes", viewer, csrf,
		H1(Class("h4 mb-3"), g.Textf("Warbles liked by @%s", owner.Username)),
		messageList(liked, csrf),
	)
}
