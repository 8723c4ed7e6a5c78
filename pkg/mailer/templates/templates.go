package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmpl "html/template"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

const VerifyEmail = "verify_email"

var ErrUnknownTemplate = errors.New("unknown email template")

// EmailData is the data every template may reference.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`
	SupportURL     string `json:"SupportURL"`

	VerifyURL string `json:"VerifyURL"`

	Time   string    `json:"Time"`
	TimeAt time.Time `json:"TimeAt"`
}

// ToMap flattens d into the shape carried by EmailJob.Data, so a job survives a
// round trip through the mail queue unchanged.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.IsZero() {
		return fallback
	}
	return value
}

func funcs() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

// set is one parsed template family: <name>.subject.tmpl, <name>.text.tmpl, <name>.html.tmpl.
type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var (
	mu     sync.Mutex
	parsed = map[string]*set{}
)

func lookup(name string) (*set, error) {
	mu.Lock()
	defer mu.Unlock()
	if s, ok := parsed[name]; ok {
		return s, nil
	}
	if _, err := fs.Stat(FS, name+".subject.tmpl"); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	var (
		s   set
		err error
	)
	if s.subject, err = texttpl.New(name).Funcs(funcs()).ParseFS(FS, name+".subject.tmpl"); err != nil {
		return nil, fmt.Errorf("parse %s subject: %w", name, err)
	}
	if s.text, err = texttpl.New(name).Funcs(funcs()).ParseFS(FS, name+".text.tmpl"); err != nil {
		return nil, fmt.Errorf("parse %s text: %w", name, err)
	}
	if s.html, err = htmpl.New(name).Funcs(funcs()).ParseFS(FS, name+".html.tmpl"); err != nil {
		return nil, fmt.Errorf("parse %s html: %w", name, err)
	}
	parsed[name] = &s
	return &s, nil
}

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func exec(t executor, file string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, file, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", file, err)
	}
	return buf.String(), nil
}

// Render renders the subject, text and html parts of the named template.
// Parsed templates are cached per name.
func Render(name string, data any) (subject, text, html string, err error) {
	s, err := lookup(name)
	if err != nil {
		return "", "", "", err
	}
	if subject, err = exec(s.subject, name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = exec(s.text, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = exec(s.html, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
