package extract

import (
	"errors"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const xmlDeclaration = "<?xml"

// locatePayload finds the XML document inside text that may carry a BOM,
// leading junk or a browser's HTML viewer wrapper.
func locatePayload(text string) (string, error) {
	decoded, _, err := transform.String(xunicode.BOMOverride(transform.Nop), text)
	if err != nil {
		return "", err
	}
	s := strings.TrimLeftFunc(decoded, unicode.IsSpace)

	if looksLikeHTML(s) {
		return unwrapHTML(s)
	}
	if strings.HasPrefix(s, "<") {
		return s, nil
	}
	if i := strings.Index(s, xmlDeclaration); i >= 0 {
		return s[i:], nil
	}
	if i := strings.Index(s, "<"); i >= 0 {
		return s[i:], nil
	}
	return s, nil
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}

// unwrapHTML recovers the XML text a browser's XML viewer placed in a pre element.
func unwrapHTML(s string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", err
	}

	pre := doc.Find("pre").First()
	if text := strings.TrimSpace(pre.Text()); pre.Length() > 0 && text != "" {
		return text, nil
	}

	return "", errors.New("HTML wrapper contains no pre element with XML text")
}
