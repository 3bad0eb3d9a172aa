package mail

import (
	"fmt"
	"strconv"

	gomail "gopkg.in/gomail.v2"
)

// Sender delivers a single contact-form message. The production
// implementation is SMTP via gomail; tests substitute a fake.
type Sender interface {
	Send(fromName, replyTo, subject, body string) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

// NewSMTPSender builds the transport for the contact form. All mail goes to
// the single configured destination address.
func NewSMTPSender(host, port, user, password, to string) (*SMTPSender, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port %q: %w", port, err)
	}

	return &SMTPSender{
		dialer: gomail.NewDialer(host, p, user, password),
		from:   user,
		to:     to,
	}, nil
}

func (s *SMTPSender) Send(fromName, replyTo, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, fromName)
	m.SetHeader("To", s.to)
	m.SetHeader("Reply-To", replyTo)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
