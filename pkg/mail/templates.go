package mail

import (
	"bytes"
	_ "embed"
	htmltemplate "html/template"
	"io"
	texttemplate "text/template"
)

// SiteName is the website the contact form belongs to.
const SiteName = "ruscor.pro"

type SubmissionMailParams struct {
	Name     string
	Phone    string
	SiteName string
}

type executor interface {
	Execute(w io.Writer, data any) error
}

var (
	submissionHTMLTemplate = htmltemplate.New("submissionHTML")
	submissionTextTemplate = texttemplate.New("submissionText")

	//go:embed templates/submission.html
	submissionHTMLTemplateRaw string
	//go:embed templates/submission.txt
	submissionTextTemplateRaw string
)

func init() {
	if _, err := submissionHTMLTemplate.Parse(submissionHTMLTemplateRaw); err != nil {
		panic(err)
	}
	if _, err := submissionTextTemplate.Parse(submissionTextTemplateRaw); err != nil {
		panic(err)
	}
}

func render(t executor, p any) (string, error) {
	b := bytes.Buffer{}
	err := t.Execute(&b, p)
	return b.String(), err
}

// RenderSubmissionText renders the plain-text part. Values are inserted as submitted.
func RenderSubmissionText(p SubmissionMailParams) (string, error) {
	return render(submissionTextTemplate, p)
}

// RenderSubmissionHTML renders the HTML part. Values are HTML-escaped.
func RenderSubmissionHTML(p SubmissionMailParams) (string, error) {
	return render(submissionHTMLTemplate, p)
}
