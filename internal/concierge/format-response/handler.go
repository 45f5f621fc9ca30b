// internal/concierge/format-response/handler.go
package formatresponse

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

const (
	LineBreak = "<br>"
	Separator = "<hr>"

	// MarkerWord is the label the recommendation prompt asks the model to put
	// in front of each enumerated candidate.
	MarkerWord = "recommendation"
)

var (
	markerPattern = regexp.MustCompile(`(?i)` + MarkerWord + `\s*#(\d+)`)
	// URLs may contain one level of balanced parentheses.
	linkPattern   = regexp.MustCompile(`\[([^\]\n]*)\]\(((?:[^()\s]|\([^()\s]*\))+)\)`)
)

// Marker returns the ordinal marker for the n-th candidate.
func Marker(n int) string {
	return fmt.Sprintf("%s #%d", MarkerWord, n)
}

// Formatter turns raw recommendation text into transcript markup.
type Formatter struct {
	linkLabel string
}

// New returns a Formatter that labels every link with linkLabel.
func New(linkLabel string) *Formatter {
	return &Formatter{linkLabel: linkLabel}
}

// Format applies the transforms in their fixed order. Only recommendation
// output goes through here; conversational replies are returned untouched.
func (f *Formatter) Format(raw string) string {
	out := SeparateRecommendations(raw)
	out = ConvertNewlines(out)
	return ConvertLinks(out, f.linkLabel)
}

// SeparateRecommendations puts a separator block in front of every
// "recommendation #N" marker.
func SeparateRecommendations(s string) string {
	return markerPattern.ReplaceAllStringFunc(s, func(m string) string {
		return LineBreak + LineBreak + Separator + m + LineBreak + LineBreak
	})
}

// ConvertNewlines replaces raw newlines with explicit line-break tokens.
func ConvertNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", LineBreak)
}

// ConvertLinks rewrites http(s) markdown links to anchors that open in a new
// tab and carry label in place of the link text. Links with any other scheme
// are reduced to their escaped link text.
func ConvertLinks(s, label string) string {
	return linkPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := linkPattern.FindStringSubmatch(m)
		if !isWebURL(parts[2]) {
			return html.EscapeString(parts[1])
		}
		return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
			html.EscapeString(parts[2]), html.EscapeString(label))
	})
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
