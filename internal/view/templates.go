package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/coachdesk/coachdesk/internal/shared"
	"github.com/coachdesk/coachdesk/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        *shared.AuthUser
	Nav         []NavItem
	Data        any
}

// NavItem is one sidebar link.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

var navigation = []struct {
	label string
	path  string
	roles []string
}{
	{"Dashboard", "/dashboard", nil},
	{"Students", "/students", []string{shared.RoleAdmin, shared.RoleTeacher}},
	{"Teachers", "/teachers", []string{shared.RoleAdmin}},
	{"Attendance", "/attendance", nil},
	{"Fees", "/fees", []string{shared.RoleAdmin, shared.RoleStudent}},
	{"Expenses", "/expenses", []string{shared.RoleAdmin}},
	{"Enquiries", "/enquiries", []string{shared.RoleAdmin}},
	{"Assessments", "/assessments", nil},
	{"Daily activities", "/activities", []string{shared.RoleAdmin, shared.RoleTeacher}},
	{"Notifications", "/notifications", nil},
}

// Navigation lists the sidebar entries visible to user.
func Navigation(user *shared.AuthUser, currentPath string) []NavItem {
	if user == nil {
		return nil
	}
	items := make([]NavItem, 0, len(navigation))
	for _, n := range navigation {
		if len(n.roles) > 0 && !user.HasRole(n.roles...) {
			continue
		}
		active := currentPath == n.path || strings.HasPrefix(currentPath, n.path+"/")
		items = append(items, NavItem{Label: n.label, Path: n.path, Active: active})
	}
	return items
}

var (
	printer  = message.NewPrinter(language.English)
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
)

// FormatMoney renders an amount in rupees with digit grouping.
func FormatMoney(amount float64) string {
	return printer.Sprintf("₹%.2f", amount)
}

// FormatNumber renders an integer with digit grouping.
func FormatNumber(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDate accepts an API date or timestamp and renders it for humans. Unparseable input is
// returned unchanged.
func FormatDate(v any) string {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case string:
		if val == "" {
			return ""
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, val); err == nil {
				t = parsed
				break
			}
		}
		if t.IsZero() {
			return val
		}
	default:
		return fmt.Sprint(v)
	}
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("02 Jan 2006")
	}
	return t.Format("02 Jan 2006 15:04")
}

// Markdown converts a notification body to HTML. Raw HTML in the source is not rendered.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	out := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", values[i])
		}
		out[key] = values[i+1]
	}
	return out, nil
}

// withQuery returns path with key set to value in the encoded query.
func withQuery(path, encoded, key string, value any) string {
	q, _ := url.ParseQuery(encoded)
	q.Set(key, fmt.Sprint(value))
	return path + "?" + q.Encode()
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate":   FormatDate,
		"formatMoney":  FormatMoney,
		"formatNumber": FormatNumber,
		"markdown":     Markdown,
		"dict":         dict,
		"withQuery":    withQuery,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"title": func(s string) string {
			s = strings.ReplaceAll(s, "_", " ")
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, name, data, http.StatusOK)
}

// RenderStatus executes a named template and writes it with status. Nothing is written when
// the template fails, so the caller can still send an error response.
func (e *Engine) RenderStatus(w http.ResponseWriter, name string, data TemplateData, status int) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
