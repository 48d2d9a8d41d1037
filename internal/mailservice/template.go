package mailservice

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

// NewTemplate returns a parser over the embedded templates directory.
func NewTemplate() *Template {
	return &Template{}
}

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

// ParseTemplate renders the subject, plainBody and htmlBody blocks of the named
// template. Subject and plain body are mail header and text/plain content, so
// they go through text/template and keep characters like & and " as written.
// Only htmlBody is HTML escaped.
func (tp *Template) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	path := "templates/" + name

	text, err := texttemplate.New("email").ParseFS(templateFS, path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not parse template: %w", err)
	}

	html, err := htmltemplate.New("email").ParseFS(templateFS, path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not parse template: %w", err)
	}

	subject, err := render(text, "subject", data)
	if err != nil {
		return nil, nil, nil, err
	}
	// headers are single line
	subject = bytes.NewBufferString(strings.Join(strings.Fields(subject.String()), " "))

	plainBody, err := render(text, "plainBody", data)
	if err != nil {
		return nil, nil, nil, err
	}

	htmlBody, err := render(html, "htmlBody", data)
	if err != nil {
		return nil, nil, nil, err
	}

	return subject, plainBody, htmlBody, nil
}

func render(t executor, block string, data any) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := t.ExecuteTemplate(buf, block, data); err != nil {
		return nil, fmt.Errorf("could not render %s: %w", block, err)
	}
	return buf, nil
}
