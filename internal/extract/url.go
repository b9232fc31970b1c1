package extract

import (
	"net/url"
	"sort"
	"strings"
)

// canonicalURL lowercases scheme and host, drops the fragment and the usual
// click-tracking parameters, and sorts what is left of the query.
func canonicalURL(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	c.RawFragment = ""

	q := c.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" || lk == "ref" {
			q.Del(k)
		}
	}
	for k := range q {
		sort.Strings(q[k])
	}
	c.RawQuery = q.Encode()
	return c.String()
}
