package analytics

import (
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strings"

	"github.com/wildoasis/booking/internal/config"
)

const DefaultScriptURL = "https://plausible.io/js/script.js"

// ValidExtensions lists the known Plausible script extensions
var ValidExtensions = []string{
	"outbound-links",
	"file-downloads",
	"tagged-events",
	"hash",
	"compat",
	"local",
	"manual",
	"pageview-props",
	"revenue",
}

// Plausible is the page-view tracking injected into public pages.
// The zero value is disabled.
type Plausible struct {
	Domain     string
	ScriptURL  string
	Extensions []string
}

// NewPlausible validates the environment settings. Tracking stays off when
// no domain is configured.
func NewPlausible(cfg config.Plausible) (*Plausible, error) {
	p := &Plausible{
		Domain:     strings.TrimSpace(cfg.Domain),
		ScriptURL:  strings.TrimSpace(cfg.ScriptURL),
		Extensions: parseExtensions(cfg.Extensions),
	}
	if p.Domain == "" {
		return p, nil
	}
	if p.ScriptURL == "" {
		p.ScriptURL = DefaultScriptURL
	}
	u, err := url.Parse(p.ScriptURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid plausible script URL %q", p.ScriptURL)
	}
	for _, ext := range p.Extensions {
		if !IsValidExtension(ext) {
			return nil, fmt.Errorf("unknown plausible extension %q", ext)
		}
	}
	return p, nil
}

func (p *Plausible) Enabled() bool {
	return p != nil && p.Domain != ""
}

// Origin is the script host, allowed in script-src and connect-src.
func (p *Plausible) Origin() string {
	if !p.Enabled() {
		return ""
	}
	u, err := url.Parse(p.ScriptURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// ScriptTag returns safe HTML for the layout head.
func (p *Plausible) ScriptTag() template.HTML {
	if !p.Enabled() {
		return ""
	}
	src := BuildScriptURL(p.ScriptURL, p.Extensions)
	return template.HTML(`<script defer data-domain="` + template.HTMLEscapeString(p.Domain) +
		`" src="` + template.HTMLEscapeString(src) + `"></script>`)
}

// BuildScriptURL inserts extensions before the .js suffix:
// script.js becomes script.outbound-links.file-downloads.js.
func BuildScriptURL(baseURL string, extensions []string) string {
	if len(extensions) == 0 {
		return baseURL
	}
	if base, found := strings.CutSuffix(baseURL, ".js"); found {
		return base + "." + strings.Join(extensions, ".") + ".js"
	}
	return baseURL
}

func IsValidExtension(ext string) bool {
	return slices.Contains(ValidExtensions, ext)
}

// parseExtensions splits comma-separated extensions and trims whitespace
func parseExtensions(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
