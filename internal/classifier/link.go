package classifier

import "regexp"

// Unsubscribe links are any scheme-prefixed non-whitespace run containing the
// word "unsubscribe". Deliberately loose: a full URL parser would reject the
// sentence fragments real marketing mail produces, and the link bonus is
// defined relative to this grammar.
var unsubscribeLinkRegex = regexp.MustCompile(`(?i)https?://\S*unsubscribe\S*`)

// ExtractUnsubscribeLink returns the first unsubscribe-looking URL in body,
// casing preserved, scanning left to right. The second return is false when
// no match exists.
func ExtractUnsubscribeLink(body string) (string, bool) {
	link := unsubscribeLinkRegex.FindString(body)
	if link == "" {
		return "", false
	}
	return link, true
}
