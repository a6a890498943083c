// Package scrape turns recipe web pages into seed recipes.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"amciuday/internal/seed"
	"amciuday/internal/urlnorm"
)

var (
	ErrTooLarge      = errors.New("response_too_large")
	ErrTooManyRedir  = errors.New("too_many_redirects")
	ErrBadStatus     = errors.New("bad_status")
	ErrNoIngredients = errors.New("no_ingredients")
)

const (
	DefaultMaxBytes = 2 << 20
	excerptLimit    = 200
)

type Fetcher struct {
	Client    *http.Client
	MaxBytes  int64
	UserAgent string
}

func New(maxBytes int64) *Fetcher {
	client := &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return ErrTooManyRedir
			}
			return nil
		},
	}
	return &Fetcher{Client: client, MaxBytes: maxBytes, UserAgent: "amciuday/1.0"}
}

// Fetch downloads url and extracts a recipe from it. MealType is left for
// the caller to fill in.
func (f *Fetcher) Fetch(ctx context.Context, url string) (seed.Recipe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return seed.Recipe{}, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(err, ErrTooManyRedir) {
			return seed.Recipe{}, ErrTooManyRedir
		}
		return seed.Recipe{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return seed.Recipe{}, ErrBadStatus
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return seed.Recipe{}, err
	}
	if int64(len(buf)) > f.MaxBytes {
		return seed.Recipe{}, ErrTooLarge
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf))
	if err != nil {
		return seed.Recipe{}, err
	}
	return Extract(doc, url)
}

// Extract reads a recipe out of an already parsed page.
func Extract(doc *goquery.Document, pageURL string) (seed.Recipe, error) {
	ld := findLDRecipe(doc)

	r := seed.Recipe{
		Title:  firstNonEmpty(metaContent(doc, "og:title"), doc.Find("title").First().Text(), ld.Name),
		Source: urlnorm.Host(pageURL),
		URL:    pageURL,
		Tags:   []string{},
	}
	if img := metaContent(doc, "og:image"); img != "" {
		r.ImageURL = &img
	}
	if m, ok := parseISODuration(ld.TotalTime); ok {
		r.TimeMinutes = &m
	}
	r.StepsExcerpt = truncateUTF8(collapse(firstNonEmpty(metaContent(doc, "og:description"), metaContent(doc, "description"), ld.Description)), excerptLimit)

	var ingredients []string
	doc.Find(`[itemprop="recipeIngredient"]`).Each(func(_ int, s *goquery.Selection) {
		ingredients = appendText(ingredients, s.Text())
	})
	if len(ingredients) == 0 {
		for _, raw := range ld.Ingredients {
			ingredients = appendText(ingredients, raw)
		}
	}
	if len(ingredients) == 0 {
		doc.Find(".ingredients li").Each(func(_ int, s *goquery.Selection) {
			ingredients = appendText(ingredients, s.Text())
		})
	}
	if len(ingredients) == 0 {
		return seed.Recipe{}, ErrNoIngredients
	}
	r.Ingredients = ingredients
	return r, nil
}

type ldRecipe struct {
	Name        string
	Description string
	TotalTime   string
	Ingredients []string
}

// findLDRecipe returns the first schema.org Recipe found in the page's
// JSON-LD blocks, looking inside arrays and @graph containers.
func findLDRecipe(doc *goquery.Document) ldRecipe {
	var found ldRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return true
		}
		if obj, ok := searchRecipe(v); ok {
			found = ldRecipe{
				Name:        stringField(obj, "name"),
				Description: stringField(obj, "description"),
				TotalTime:   stringField(obj, "totalTime"),
				Ingredients: stringsField(obj, "recipeIngredient"),
			}
			return false
		}
		return true
	})
	return found
}

func searchRecipe(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if obj, ok := searchRecipe(item); ok {
				return obj, true
			}
		}
	case map[string]any:
		if isRecipeType(t["@type"]) {
			return t, true
		}
		if graph, ok := t["@graph"]; ok {
			return searchRecipe(graph)
		}
	}
	return nil, false
}

func isRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Recipe"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringsField(obj map[string]any, key string) []string {
	switch t := obj[key].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:\d+S)?)?$`)

// parseISODuration converts durations such as "PT1H30M" to whole minutes.
func parseISODuration(s string) (int, bool) {
	m := isoDuration.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || s == "P" || s == "PT" {
		return 0, false
	}
	total := 0
	for i, mult := range []int{0, 24 * 60, 60, 1} {
		if i == 0 || m[i] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i])
		if err != nil {
			return 0, false
		}
		total += n * mult
	}
	if total == 0 {
		return 0, false
	}
	return total, true
}

func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(`meta[property="` + name + `"]`)
	if sel.Length() == 0 {
		sel = doc.Find(`meta[name="` + name + `"]`)
	}
	v, _ := sel.First().Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func appendText(list []string, text string) []string {
	if text = collapse(text); text != "" {
		list = append(list, text)
	}
	return list
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateUTF8(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	b := []byte(s)
	if len(b) <= limit {
		return s
	}
	trunc := b[:limit]
	for len(trunc) > 0 && !utf8.Valid(trunc) {
		trunc = trunc[:len(trunc)-1]
	}
	return string(trunc)
}
