package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// HTML draws node trees as an RTL HTML document.
type HTML struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
	lang   string
}

// pageData is the input of the page template.
type pageData struct {
	Lang       string
	Title      string
	Root       *Node
	Live       bool
	EventsPath string
}

// inlineMarkup matches the formatting tags a generated message may carry.
// Text without them is plain and only escaped.
var inlineMarkup = regexp.MustCompile(`(?i)</?(b|strong|i|em|u|br|p|ul|ol|li|a|span|h[1-6])(\s[^>]*)?/?>`)

// markupPolicy keeps inline formatting and safe links.
func markupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "br", "p", "ul", "ol", "li", "span", "h4", "h5", "h6")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// NewHTML parses the embedded templates. Document text is escaped by the
// templates; only a message that carries formatting tags goes through the
// sanitizer.
func NewHTML(lang string) (*HTML, error) {
	if lang == "" {
		lang = "he"
	}
	h := &HTML{
		policy: markupPolicy(),
		lang:   lang,
	}
	tmpl, err := template.New("render").
		Funcs(template.FuncMap{"message": h.message}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	h.tmpl = tmpl
	return h, nil
}

// Page writes a complete document. When eventsPath is non-empty the page
// subscribes to it and swaps in every "state" event it receives.
func (h *HTML) Page(w io.Writer, root *Node, eventsPath string) error {
	return h.tmpl.ExecuteTemplate(w, "page", pageData{
		Lang:       h.lang,
		Title:      PageTitle,
		Root:       root,
		Live:       eventsPath != "",
		EventsPath: eventsPath,
	})
}

// Fragment writes n without the surrounding document.
func (h *HTML) Fragment(w io.Writer, n *Node) error {
	return h.tmpl.ExecuteTemplate(w, "node", n)
}

// FragmentString is Fragment into a string.
func (h *HTML) FragmentString(n *Node) (string, error) {
	var buf bytes.Buffer
	if err := h.Fragment(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// message renders free-form message text. Plain text is returned as a string
// so the template escapes it; text with formatting tags is sanitized and
// passed through as-is.
func (h *HTML) message(s string) interface{} {
	if !inlineMarkup.MatchString(s) {
		return s
	}
	return template.HTML(h.policy.Sanitize(s))
}
