package summarizer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// page is the readable part of a fetched document.
type page struct {
	Title string
	Body  string
}

// extract runs readability over html and flattens the distilled content to
// plain text blocks. Code blocks are kept only when withCode is set.
func extract(rawURL, html string, withCode bool) (page, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return page{}, err
	}

	content := html
	title := ""
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		content = article.Content
		title = normalizeText(article.Title)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return page{}, fmt.Errorf("parse page: %w", err)
	}
	if title == "" {
		title = normalizeText(doc.Find("title").First().Text())
	}

	body := renderBlocks(doc, withCode)
	if body == "" {
		return page{}, fmt.Errorf("page has no readable content")
	}

	return page{Title: title, Body: body}, nil
}

// renderBlocks renders the content-bearing elements of doc, in document
// order, as light markdown.
func renderBlocks(doc *goquery.Document, withCode bool) string {
	var blocks []string

	doc.Find("h1,h2,h3,h4,p,li,pre").Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)

		switch tag {
		case "pre":
			if !withCode {
				return
			}
			if code := extractCode(s); code != "" {
				blocks = append(blocks, code)
			}

		case "h1", "h2", "h3", "h4":
			if text := normalizeText(s.Text()); text != "" {
				level := int(tag[1] - '0')
				blocks = append(blocks, strings.Repeat("#", level)+" "+text)
			}

		case "li":
			if text := normalizeText(s.Text()); text != "" {
				blocks = append(blocks, "- "+text)
			}

		default:
			// Paragraphs inside a pre are already covered by the code block.
			if s.ParentsFiltered("pre").Length() > 0 {
				return
			}
			if text := normalizeText(s.Text()); text != "" {
				blocks = append(blocks, text)
			}
		}
	})

	return strings.Join(blocks, "\n\n")
}

func extractCode(s *goquery.Selection) string {
	codeSel := s.Find("code")
	text := s.Text()
	lang := ""
	if codeSel.Length() > 0 {
		text = codeSel.Text()
		class, _ := codeSel.Attr("class")
		for _, c := range strings.Fields(class) {
			if l, ok := strings.CutPrefix(c, "language-"); ok {
				lang = l
				break
			}
		}
	}

	text = strings.Trim(text, "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "```" + lang + "\n" + text + "\n```"
}

// normalizeText collapses every run of whitespace, newlines included, to a
// single space.
func normalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
