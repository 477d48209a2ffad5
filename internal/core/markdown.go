package core

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// RenderMarkdown strips boilerplate from raw page HTML and converts the
// remaining article content to markdown. It returns the article title when
// readability can determine one; some pages leave it blank, in which case we
// fall back to parsing <title> from the raw HTML.
func RenderMarkdown(rawURL, html string) (markdown string, title string, err error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return "", "", err
	}
	converter := md.NewConverter(parsedURL.Host, true, nil)
	markdown, err = converter.ConvertString(article.Content)
	if err != nil {
		return "", "", err
	}
	// Readability reports unextractable pages as an empty article, not an
	// error. An empty note is useless, so treat it as a failure.
	if strings.TrimSpace(markdown) == "" {
		return "", "", fmt.Errorf("no readable content found")
	}

	title = strings.TrimSpace(article.Title)
	if title == "" && strings.TrimSpace(html) != "" {
		if doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html)); docErr == nil {
			title = strings.TrimSpace(doc.Find("title").First().Text())
		}
	}

	return markdown, title, nil
}
