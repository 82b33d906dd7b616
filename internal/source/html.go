package source

import (
	"bytes"
	"context"
	"net/http"

	"github.com/PuerkitoBio/goquery"
)

// FetchPage GET страницы (любой 2xx) и разбор в goquery-документ.
func (c *Client) FetchPage(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Do(ctx, http.MethodGet, url, nil, "", Status2xx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Source: c.name, URL: url, Reason: "parse html", Err: err}
	}
	return doc, nil
}
