package classifier

import "strings"

// Scoring weights. These are a frozen contract: the labels, actions and
// reported scores are all defined relative to them.
const (
	keywordWeight     = 1
	senderBonusWeight = 2
	linkBonusWeight   = 3
)

// Scorer computes the marketing and important scores for one email. It owns
// an immutable copy of its pattern tables.
type Scorer struct {
	tables Tables
}

// NewScorer creates a Scorer over the given tables.
func NewScorer(tables Tables) *Scorer {
	return &Scorer{tables: tables}
}

// Score tallies both scores for an email and extracts the first unsubscribe
// link from the body, original casing preserved.
//
// Each table entry counts once when present in the subject or the body. The
// sender bonus applies at most once per table regardless of how many hints
// match. A found link adds the link bonus to the marketing score on top of
// any keyword hits the link text itself produced.
func (s *Scorer) Score(email EmailRecord) (marketingScore, importantScore int, link string) {
	subject := strings.ToLower(email.Subject)
	sender := strings.ToLower(email.From)
	body := strings.ToLower(email.Body)

	marketingScore = countKeywordHits(s.tables.Marketing, subject, body)
	if containsAny(sender, s.tables.MarketingSenders) {
		marketingScore += senderBonusWeight
	}

	importantScore = countKeywordHits(s.tables.Important, subject, body)
	if containsAny(sender, s.tables.ImportantSenders) {
		importantScore += senderBonusWeight
	}

	// Matching case-insensitively against the original body keeps the
	// reported link's casing intact.
	if found, ok := ExtractUnsubscribeLink(email.Body); ok {
		marketingScore += linkBonusWeight
		link = found
	}

	return marketingScore, importantScore, link
}

func countKeywordHits(keywords []string, subject, body string) int {
	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(subject, keyword) || strings.Contains(body, keyword) {
			hits += keywordWeight
		}
	}
	return hits
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
