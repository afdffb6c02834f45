package panel

import (
	"net/url"
	"strings"
)

// QueryParam is one content-URL query parameter. Parameters keep the order
// they were declared in; hosts and subclasses extend the set additively.
type QueryParam struct {
	Key   string
	Value string
}

// encodeQuery renders params in order, percent-encoding each key and value
// individually.
func encodeQuery(params []QueryParam) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
