package contactform

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ruscor/contact-relay/pkg/mail"
)

// decodeBody returns the raw request body, undoing base64 transport encoding.
func decodeBody(ev Event) (string, error) {
	if !ev.IsBase64Encoded {
		return ev.Body, nil
	}
	raw, err := base64.StdEncoding.DecodeString(ev.Body)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", ErrMalformedBody, err)
	}
	return string(raw), nil
}

// parseSubmission extracts name and phone from a JSON object body. An empty
// body counts as {}. Absent or non-string fields become "". Values are trimmed.
func parseSubmission(body string) (mail.Submission, error) {
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return mail.Submission{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	fields, ok := doc.(map[string]any)
	if !ok {
		return mail.Submission{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedBody)
	}

	return mail.Submission{
		Name:  stringField(fields, "name"),
		Phone: stringField(fields, "phone"),
	}, nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

// validate reports ErrMissingFields when name or phone is empty.
func validate(sub mail.Submission) error {
	if sub.Name == "" || sub.Phone == "" {
		return ErrMissingFields
	}
	return nil
}
