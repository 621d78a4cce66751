package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	texttemplate "text/template"

	"flockmanager/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// Every message is <name>_subject.txt plus <name>.html and <name>.txt bodies.
// The bodies define "body" and are wrapped by the shared layout files.
const (
	subjectSuffix = "_subject.txt"
	htmlLayout    = "templates/layout.html"
	textLayout    = "templates/layout.txt"
)

type messageTemplates struct {
	subject *texttemplate.Template
	html    *template.Template
	text    *texttemplate.Template
}

// templateRenderer implements domain.EmailTemplateRenderer over the embedded
// templates, parsed once.
type templateRenderer struct {
	messages map[string]*messageTemplates
}

// NewTemplateRenderer parses the embedded templates. They ship with the
// binary, so a parse failure panics.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	r, err := parseTemplates(templateFS)
	if err != nil {
		panic(fmt.Sprintf("email templates: %v", err))
	}
	return r
}

func parseTemplates(fsys fs.FS) (*templateRenderer, error) {
	subjects, err := fs.Glob(fsys, "templates/*"+subjectSuffix)
	if err != nil {
		return nil, err
	}
	r := &templateRenderer{messages: make(map[string]*messageTemplates, len(subjects))}
	for _, path := range subjects {
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), subjectSuffix)
		m := &messageTemplates{}
		if m.subject, err = texttemplate.ParseFS(fsys, path); err != nil {
			return nil, fmt.Errorf("%s subject: %w", name, err)
		}
		if m.html, err = template.ParseFS(fsys, htmlLayout, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("%s html: %w", name, err)
		}
		if m.text, err = texttemplate.ParseFS(fsys, textLayout, "templates/"+name+".txt"); err != nil {
			return nil, fmt.Errorf("%s text: %w", name, err)
		}
		r.messages[name] = m
	}
	return r, nil
}

// Render executes the named message (e.g. "magic_link") with data and returns
// its subject, html and text bodies.
func (r *templateRenderer) Render(templateName string, data any) (subject, htmlBody, textBody string, err error) {
	m, ok := r.messages[templateName]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", templateName)
	}
	var buf bytes.Buffer
	if err := m.subject.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	// A subject must stay on one line.
	subject = strings.Join(strings.Fields(buf.String()), " ")

	buf.Reset()
	if err := m.html.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	htmlBody = buf.String()

	buf.Reset()
	if err := m.text.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return subject, htmlBody, buf.String(), nil
}
