// Package render turns comment markdown into sanitized HTML.
package render

import (
	"bytes"
	"html"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const defaultCacheSize = 1024

// Renderer converts markdown to HTML safe to embed in a page.
// Output for a given source never changes, so results are memoized.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[string, string]
}

// New builds a renderer with an LRU of cacheSize entries (<= 0 uses the default).
func New(cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}

	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		policy: policy,
		cache:  cache,
	}, nil
}

// HTML renders src. A nil renderer escapes the source instead.
func (r *Renderer) HTML(src string) string {
	if r == nil {
		return html.EscapeString(src)
	}
	if out, ok := r.cache.Get(src); ok {
		return out
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return html.EscapeString(src)
	}
	out := r.policy.Sanitize(buf.String())
	r.cache.Add(src, out)
	return out
}

// Len reports how many rendered entries are cached.
func (r *Renderer) Len() int {
	if r == nil {
		return 0
	}
	return r.cache.Len()
}
