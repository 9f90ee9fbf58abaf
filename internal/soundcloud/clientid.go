package soundcloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"musicca/internal/httputil"
)

var clientIDPattern = regexp.MustCompile(`client_id\s*[:=]\s*["']([0-9a-zA-Z]{16,64})["']`)

var errNoClientID = errors.New("no client_id found in web player scripts")

// discoverClientID scrapes the web player for the client_id it embeds in
// one of its script bundles. Later bundles are checked first since that is
// where the app config usually lives.
func discoverClientID(ctx context.Context, client *http.Client, webURL string) (string, error) {
	page, err := httputil.GetBody(ctx, client, webURL, "text/html", nil)
	if err != nil {
		return "", err
	}
	scripts, err := scriptSources(page, webURL)
	if err != nil {
		return "", err
	}

	for i := len(scripts) - 1; i >= 0; i-- {
		js, err := httputil.GetBody(ctx, client, scripts[i], "*/*", nil)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if m := clientIDPattern.FindSubmatch(js); m != nil {
			return string(m[1]), nil
		}
	}
	return "", errNoClientID
}

// scriptSources lists the absolute https src of every script tag.
func scriptSources(page []byte, base string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing web player: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("malformed web URL: %w", err)
	}

	var srcs []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		ref, err := url.Parse(src)
		if err != nil {
			return
		}
		abs := baseURL.ResolveReference(ref)
		if abs.Scheme == "https" {
			srcs = append(srcs, abs.String())
		}
	})
	return srcs, nil
}
