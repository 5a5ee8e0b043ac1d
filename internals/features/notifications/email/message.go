package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/*
var templateFS embed.FS

type tmplEntry struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

var (
	templates map[string]tmplEntry
	tmplErr   error
	tmplInit  sync.Once
)

// Message is one outgoing email. Templated messages are rendered lazily by the sender.
type Message struct {
	To      []mail.Address
	Subject string
	BodyStr string

	TemplateName string
	TemplateData any
	TextContent  string
	HTMLContent  string
}

// Sender delivers messages asynchronously. Failures are logged, never returned.
type Sender interface {
	SendMessages(msgs ...*Message)
}

func (m *Message) HasRecipients() bool { return len(m.To) > 0 }
func (m *Message) HasContent() bool    { return m.TextContent != "" || m.HTMLContent != "" }

func (m *Message) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	tmplInit.Do(parseTemplates)
	if tmplErr != nil {
		return tmplErr
	}
	entry, ok := templates[m.TemplateName]
	if !ok {
		return fmt.Errorf("email template %q not found", m.TemplateName)
	}
	if entry.text != nil && m.BodyStr == "" {
		var buf bytes.Buffer
		if err := entry.text.ExecuteTemplate(&buf, "base", m.TemplateData); err != nil {
			return fmt.Errorf("render %s.txt: %w", m.TemplateName, err)
		}
		m.TextContent = buf.String()
	}
	if entry.html != nil {
		var buf bytes.Buffer
		if err := entry.html.ExecuteTemplate(&buf, "base", m.TemplateData); err != nil {
			return fmt.Errorf("render %s.gohtml: %w", m.TemplateName, err)
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

func parseTemplates() {
	templates = map[string]tmplEntry{}
	files, err := fs.Glob(templateFS, "templates/*")
	if err != nil {
		tmplErr = err
		return
	}
	for _, fp := range files {
		name := path.Base(fp)
		ext := path.Ext(name)
		if strings.HasPrefix(name, "_") || (ext != ".txt" && ext != ".gohtml") {
			continue
		}
		key := strings.TrimSuffix(name, ext)
		entry := templates[key]
		if ext == ".txt" {
			t, err := texttmpl.New(name).Option("missingkey=error").ParseFS(templateFS, "templates/_base.txt", fp)
			if err != nil {
				tmplErr = err
				return
			}
			entry.text = t
		} else {
			t, err := htmltmpl.New(name).Option("missingkey=error").ParseFS(templateFS, "templates/_base.gohtml", fp)
			if err != nil {
				tmplErr = err
				return
			}
			entry.html = t
		}
		templates[key] = entry
	}
}

func to(name, addr string) []mail.Address {
	return []mail.Address{{Name: name, Address: addr}}
}
