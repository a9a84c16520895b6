package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

var strict = bluemonday.StrictPolicy()

// plain undoes the escaping bluemonday applies to text. &lt; and &gt; stay
// encoded so the result can never contain markup.
var plain = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&quot;", `"`)

// Text strips every HTML element from s and trims surrounding space.
// Entities are decoded first so encoded markup is stripped as well.
func Text(s string) string {
	return strings.TrimSpace(plain.Replace(strict.Sanitize(html.UnescapeString(s))))
}

// Tags cleans, lowercases and de-duplicates tags, dropping empties.
// Order of first occurrence is kept.
func Tags(tags []string) []string {
	cleaned := lo.Map(tags, func(t string, _ int) string {
		return strings.ToLower(Text(t))
	})
	return lo.Uniq(lo.Compact(cleaned))
}
