package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Class identifies a category of route sharing one TTL and invalidation
// policy.
type Class string

// Route classes.
const (
	ClassArticlesList  Class = "articles-list"
	ClassCategories    Class = "categories"
	ClassDashboard     Class = "analytics-dashboard"
	ClassTopArticles   Class = "top-articles"
	ClassArticleByID   Class = "article-by-id"
	ClassArticleBySlug Class = "article-by-slug"
	ClassNone          Class = "none"
)

// keyPrefix maps each class to its key namespace. The analytics classes
// share the "analytics:" prefix so they can be invalidated with one scan.
var keyPrefix = map[Class]string{
	ClassArticlesList:  "articles:list",
	ClassCategories:    "categories",
	ClassDashboard:     "analytics:dashboard",
	ClassTopArticles:   "analytics:top",
	ClassArticleByID:   "articles:id",
	ClassArticleBySlug: "articles:slug",
}

// recognizedParams is the per-class query parameter allowlist. Parameters
// outside the allowlist never reach the key, so requests differing only
// in extraneous parameters share an entry.
var recognizedParams = map[Class][]string{
	ClassArticlesList: {"status", "category_id", "author_id", "page", "limit", "orderBy", "orderDir"},
	ClassDashboard:    {"range"},
	ClassTopArticles:  {"limit", "range"},
}

// Key derives the cache key for a request: class prefix, optional route
// identity (path parameter), and the recognized query parameters sorted
// by name.
func Key(class Class, ident string, query url.Values) string {
	var b strings.Builder
	b.WriteString(keyPrefix[class])
	if ident != "" {
		b.WriteByte(':')
		b.WriteString(ident)
	}

	allowed := recognizedParams[class]
	if len(allowed) == 0 {
		return b.String()
	}

	var parts []string
	for _, name := range allowed {
		vals := query[name]
		if len(vals) == 0 {
			continue
		}
		escaped := make([]string, len(vals))
		for i, v := range vals {
			escaped[i] = url.QueryEscape(v)
		}
		sort.Strings(escaped)
		parts = append(parts, name+"="+strings.Join(escaped, ","))
	}
	if len(parts) == 0 {
		return b.String()
	}

	sort.Strings(parts)
	b.WriteByte('?')
	b.WriteString(strings.Join(parts, "&"))
	return b.String()
}
