package rewrite

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Reference describes a virtual resource reference found in panel HTML.
type Reference struct {
	Element   string `json:"element"`
	Attribute string `json:"attribute"`
	URI       string `json:"uri"`
	Scheme    string `json:"scheme"` // resolved scheme after rewrite
}

// attrPattern matches a whole attribute value; attributes are unquoted once
// parsed, so this variant has no quote anchors.
var attrPattern = regexp.MustCompile(
	`(?i)^(?:vscode-resource|vscode-webview-resource):(?://([^\s/'"]+))?([^\s'"]+)$`)

// Audit lists the virtual resource references in html without modifying it.
// Used for diagnostics and telemetry; the rewrite itself is regex-based so
// quoting survives byte-for-byte.
func Audit(html string) ([]Reference, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var refs []Reference
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		for _, attr := range node.Attr {
			parts := attrPattern.FindStringSubmatch(attr.Val)
			if parts == nil {
				continue
			}
			scheme := parts[1]
			if scheme == "" {
				scheme = FallbackScheme
			}
			refs = append(refs, Reference{
				Element:   node.Data,
				Attribute: attr.Key,
				URI:       attr.Val,
				Scheme:    scheme,
			})
		}
	})
	return refs, nil
}
