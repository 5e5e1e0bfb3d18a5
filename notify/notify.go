// Package notify sends the booking confirmation message to the customer.
package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/rs/zerolog"

	"parlour/models"
)

// Message is a rendered email, with a plain text and an HTML part.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const subjectTmpl = `Jerins parlour booking for {{.Booking.Name}}`

const textTmpl = `Hello,

Thanks for your booking. We have received your booking {{.Booking.Name}}{{if .Booking.Date}} on {{.Booking.Date}}{{if .Booking.Time}} at {{.Booking.Time}}{{end}}{{end}}.

Our address
{{.Address}}
`

const htmlTmpl = `<div>
    <h2>Hello</h2>
    <p>Thanks for your booking</p>
    <p>We have received your booking {{.Booking.Name}}{{if .Booking.Date}} on {{.Booking.Date}}{{if .Booking.Time}} at {{.Booking.Time}}{{end}}{{end}}</p>
    <h3>Our Address</h3>
    <p>{{.Address}}</p>
</div>
`

var (
	subjectT = template.Must(template.New("subject").Parse(subjectTmpl))
	textT    = template.Must(template.New("text").Parse(textTmpl))
	htmlT    = htmltemplate.Must(htmltemplate.New("html").Parse(htmlTmpl))
)

type view struct {
	Booking models.Booking
	Address string
}

// Render builds the confirmation message for b. The HTML part escapes the
// customer supplied fields.
func Render(b models.Booking, address string) (Message, error) {
	v := view{Booking: b, Address: address}
	var subject, text, html bytes.Buffer

	if err := subjectT.Execute(&subject, v); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := textT.Execute(&text, v); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	if err := htmlT.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	return Message{To: b.Email, Subject: subject.String(), Text: text.String(), HTML: html.String()}, nil
}

// Email notifies customers through a Sender.
type Email struct {
	sender  Sender
	address string
}

func NewEmail(sender Sender, salonAddress string) *Email {
	return &Email{sender: sender, address: salonAddress}
}

func (e *Email) BookingCreated(ctx context.Context, b models.Booking) error {
	if b.Email == "" {
		return fmt.Errorf("booking %s has no recipient", b.ID.Hex())
	}
	msg, err := Render(b, e.address)
	if err != nil {
		return err
	}
	return e.sender.Send(ctx, msg)
}

// Log only writes the notification to the log. Used when email is disabled.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) BookingCreated(_ context.Context, b models.Booking) error {
	l.log.Info().
		Str("booking_id", b.ID.Hex()).
		Str("to", b.Email).
		Str("service", b.Name).
		Msg("email disabled, booking notification skipped")
	return nil
}
