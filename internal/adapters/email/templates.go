package email

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Notification kinds, matching the outbox entry kinds.
const (
	KindBookingConfirmed = "booking_confirmed"
	KindWaitlistPromoted = "waitlist_promoted"
)

// Notification is the data a booking email is rendered from.
type Notification struct {
	Kind            string
	UserName        string
	ClassName       string
	ClassType       string
	Instructor      string
	StartsAt        time.Time
	DurationMinutes int
}

// Message is a rendered email.
type Message struct {
	Subject string
	Text    string // the Markdown source, used as the plain-text part
	HTML    string
}

// md escapes raw HTML in the Markdown source; WithUnsafe is not set.
var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var bodies = map[string]*template.Template{
	KindBookingConfirmed: template.Must(template.New(KindBookingConfirmed).Parse(`Hi {{.UserName}},

Your place in **{{.ClassName}}** is confirmed.

- When: {{.When}}
- Instructor: {{.Instructor}}
- Duration: {{.DurationMinutes}} minutes

Need to change plans? Cancel from *My Bookings* so someone on the waitlist can take your spot.
`)),
	KindWaitlistPromoted: template.Must(template.New(KindWaitlistPromoted).Parse(`Hi {{.UserName}},

Good news: a spot opened up and you have been moved from the waitlist into **{{.ClassName}}**.

- When: {{.When}}
- Instructor: {{.Instructor}}
- Duration: {{.DurationMinutes}} minutes

Can no longer make it? Cancel from *My Bookings* to pass the spot on.
`)),
}

var subjects = map[string]string{
	KindBookingConfirmed: "Booking confirmed: %s",
	KindWaitlistPromoted: "You're off the waitlist: %s",
}

// Render builds the subject and bodies for n, formatting times in loc.
// PRE: n.Kind is KindBookingConfirmed or KindWaitlistPromoted
func Render(n Notification, loc *time.Location) (Message, error) {
	tmpl, ok := bodies[n.Kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for notification kind %q", n.Kind)
	}
	if loc == nil {
		loc = time.UTC
	}
	if n.UserName == "" {
		n.UserName = "there"
	}

	data := struct {
		Notification
		When string
	}{n, n.StartsAt.In(loc).Format("Monday, January 2 at 15:04")}

	var src bytes.Buffer
	if err := tmpl.Execute(&src, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", n.Kind, err)
	}
	var html bytes.Buffer
	if err := md.Convert(src.Bytes(), &html); err != nil {
		return Message{}, fmt.Errorf("convert %s markdown: %w", n.Kind, err)
	}
	return Message{
		Subject: fmt.Sprintf(subjects[n.Kind], n.ClassName),
		Text:    src.String(),
		HTML:    html.String(),
	}, nil
}
