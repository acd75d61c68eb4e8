package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Article is text extracted from a web page.
type Article struct {
	Title string
	Text  string
}

// Extractor pulls readable article text out of web pages.
type Extractor struct {
	client  *http.Client
	maxBody int64
}

// NewExtractor creates an extractor with a bounded HTTP client.
func NewExtractor() *Extractor {
	return &Extractor{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxBody: MaxFileBytes,
	}
}

// FromURL fetches a page and extracts its readable article content. When
// readability cannot find a title, the document <title> (or first <h1>) is
// used instead.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (Article, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Article{}, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Article{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "lumi/1.0 (study text importer)")

	resp, err := e.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetching %s: unexpected status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody+1))
	if err != nil {
		return Article{}, fmt.Errorf("reading %s: %w", u, err)
	}
	if int64(len(body)) > e.maxBody {
		return Article{}, fmt.Errorf("%w: %s", ErrFileTooLarge, u)
	}

	return extract(body, u)
}

func extract(body []byte, u *url.URL) (Article, error) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return Article{}, fmt.Errorf("extracting article from %s: %w", u, err)
	}

	text, err := boundText(article.TextContent)
	if err != nil {
		return Article{}, fmt.Errorf("extracting article from %s: %w", u, err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = fallbackTitle(body)
	}
	if title == "" {
		title = u.Host
	}
	return Article{Title: title, Text: text}, nil
}

// fallbackTitle digs the document <title> or first <h1> out of the raw
// HTML when readability yields none.
func fallbackTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
