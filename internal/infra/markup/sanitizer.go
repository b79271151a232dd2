// Package markup cleans the HTML fragments the backend stores for translated
// variants before they are handed to a renderer.
package markup

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

type Sanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	// UGCPolicy keeps lists, emphasis and links which key points rely on.
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

// HTML returns content safe to embed as markup.
func (s *Sanitizer) HTML(content string) string {
	return strings.TrimSpace(s.policy.Sanitize(content))
}

// Text strips every tag, for terminal output and card descriptions.
func (s *Sanitizer) Text(content string) string {
	// Keep block boundaries readable once tags are gone.
	r := strings.NewReplacer("</p>", "\n\n", "<br>", "\n", "<br/>", "\n", "<br />", "\n", "</li>", "\n", "<li>", "- ")
	out := s.strict.Sanitize(r.Replace(content))
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
