package mail

import (
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SubjectPrefix starts the subject of every submission mail; the submitter's name follows.
const SubjectPrefix = "Новая заявка с сайта: "

// Submission is a validated contact form entry.
type Submission struct {
	// ID correlates log lines and the Message-ID header. Generated when empty.
	ID    string
	Name  string
	Phone string
}

// Subject returns the mail subject for the submission.
func (s Submission) Subject() string {
	return SubjectPrefix + s.Name
}

// ComposeMessage builds the multipart/alternative message for a submission.
// The relay account is both sender and recipient, so address is used for
// From and To. It must be a valid mail address.
func ComposeMessage(sub Submission, address string) (*gomail.Message, error) {
	if _, err := netmail.ParseAddress(address); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAddress, address, err)
	}

	params := SubmissionMailParams{
		Name:     sub.Name,
		Phone:    sub.Phone,
		SiteName: SiteName,
	}
	text, err := RenderSubmissionText(params)
	if err != nil {
		return nil, fmt.Errorf("rendering plain text body: %w", err)
	}
	html, err := RenderSubmissionHTML(params)
	if err != nil {
		return nil, fmt.Errorf("rendering html body: %w", err)
	}

	id := sub.ID
	if id == "" {
		id = uuid.NewString()
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", address)
	msg.SetHeader("To", address)
	msg.SetHeader("Subject", sub.Subject())
	msg.SetHeader("Message-ID", messageID(id, address))
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)
	return msg, nil
}

func messageID(id, address string) string {
	domain := "localhost"
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		domain = address[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", id, domain)
}
