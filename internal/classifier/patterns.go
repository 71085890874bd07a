package classifier

// Tables holds the keyword and sender patterns used by a Scorer. Each batch
// gets its own copy so alternate sets (e.g. localized keywords) can coexist
// without sharing mutable state.
type Tables struct {
	// Marketing phrases signal promotional intent. Matched case-insensitively
	// against subject and body.
	Marketing []string

	// Important phrases signal transactional or urgent intent.
	Important []string

	// Sender substrings worth a +2 bonus toward the respective score.
	MarketingSenders []string
	ImportantSenders []string
}

// Keyword literals must be lowercase; matching lowercases the email fields,
// never the tables.
var (
	marketingKeywords = []string{
		"unsubscribe", "promotional", "sale", "discount", "offer",
		"deal", "newsletter", "marketing", "advertisement", "promo",
		"limited time", "buy now", "shop now", "exclusive", "free shipping",
		"save now", "special offer", "subscribe", "notification", "update",
		"digest",
	}

	importantKeywords = []string{
		"invoice", "receipt", "payment", "account", "security",
		"alert", "verification", "confirm", "reset password", "bank",
		"statement", "bill", "transaction", "urgent", "action required",
		"contract", "meeting", "appointment", "deadline", "legal",
		"tax",
	}

	marketingSenderHints = []string{"noreply", "no-reply", "marketing"}
	importantSenderHints = []string{"admin", "support", "billing"}
)

// DefaultTables returns a fresh copy of the built-in pattern tables.
func DefaultTables() Tables {
	return Tables{
		Marketing:        append([]string(nil), marketingKeywords...),
		Important:        append([]string(nil), importantKeywords...),
		MarketingSenders: append([]string(nil), marketingSenderHints...),
		ImportantSenders: append([]string(nil), importantSenderHints...),
	}
}
