package mailtest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// Message is a mail accepted by the Server.
type Message struct {
	// Envelope
	From string
	To   []string

	// Decoded headers and parts
	Header  mail.Header
	Subject string
	Text    string
	HTML    string

	Raw      []byte
	ParseErr error
}

// ParseMessage decodes the subject and the text/plain and text/html parts of
// a raw RFC 5322 message.
func ParseMessage(raw []byte) (Message, error) {
	out := Message{Raw: raw}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("reading message: %w", err)
	}
	out.Header = msg.Header

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		return out, fmt.Errorf("decoding subject: %w", err)
	}
	out.Subject = subject

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		body, err := io.ReadAll(transferDecoder(msg.Body, msg.Header.Get("Content-Transfer-Encoding")))
		if err != nil {
			return out, fmt.Errorf("reading body: %w", err)
		}
		out.assign(mediaType, string(body))
		return out, nil
	}

	// NextPart decodes quoted-printable parts transparently.
	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("reading part: %w", err)
		}
		body, err := io.ReadAll(transferDecoder(part, part.Header.Get("Content-Transfer-Encoding")))
		if err != nil {
			return out, fmt.Errorf("reading part body: %w", err)
		}
		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}
		out.assign(partType, string(body))
	}
	return out, nil
}

func (m *Message) assign(mediaType, body string) {
	switch mediaType {
	case "text/html":
		m.HTML = body
	case "text/plain":
		m.Text = body
	}
}

func transferDecoder(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return newBase64Reader(r)
	}
	return r
}

func newBase64Reader(r io.Reader) io.Reader {
	return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
}

// newlineStripper drops CR and LF so wrapped base64 bodies decode.
type newlineStripper struct {
	r io.Reader
}

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		k, err := n.r.Read(p)
		j := 0
		for _, b := range p[:k] {
			if b != '\r' && b != '\n' {
				p[j] = b
				j++
			}
		}
		if j > 0 || err != nil {
			return j, err
		}
	}
}
