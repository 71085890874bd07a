package classifier

import "fmt"

// Label is the classification verdict for one email.
type Label string

const (
	LabelMarketing Label = "marketing"
	LabelImportant Label = "important"
)

// Action recommendation strings surfaced to the user.
const (
	ActionUnsubscribeAvailable = "Unsubscribe available"
	ActionMarkAsSpam           = "Mark as spam or delete"
	ActionKeep                 = "Keep and respond professionally if needed"
	ActionUnsubscribed         = "Successfully unsubscribed"
)

// EmailRecord is one fetched email as handed over by the ingestion layer.
// The engine never mutates it and assumes well-formed string fields; it is
// the caller's job to normalize missing values before classification.
type EmailRecord struct {
	ID      string            `json:"id" yaml:"id"`
	From    string            `json:"from" yaml:"from"`
	Subject string            `json:"subject" yaml:"subject"`
	Date    string            `json:"date" yaml:"date"`
	Body    string            `json:"body" yaml:"body"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Result is the verdict for one email. Identity fields are copied verbatim
// from the input record.
type Result struct {
	ID              string `json:"id"`
	From            string `json:"from"`
	Subject         string `json:"subject"`
	Date            string `json:"date"`
	Classification  Label  `json:"classification"`
	Action          string `json:"action"`
	Reason          string `json:"reason"`
	UnsubscribeLink string `json:"unsubscribeLink,omitempty"`
}

// Stats aggregates one batch. marketing + important == total always;
// unsubscribed counts marketing results with a link when auto-unsubscribe
// was requested, and is 0 otherwise.
type Stats struct {
	Total        int `json:"total"`
	Marketing    int `json:"marketing"`
	Important    int `json:"important"`
	Unsubscribed int `json:"unsubscribed"`
}

// BatchOutput is the serializable response for one classified batch.
type BatchOutput struct {
	Results []Result `json:"results"`
	Stats   Stats    `json:"stats"`
}

// Classifier labels emails using a fixed-weight keyword scorer. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	scorer *Scorer
}

// New creates a Classifier scoring against the given tables.
func New(tables Tables) *Classifier {
	return &Classifier{scorer: NewScorer(tables)}
}

// NewDefault creates a Classifier with the built-in pattern tables.
func NewDefault() *Classifier {
	return New(DefaultTables())
}

// Classify produces the verdict for a single email. Ties, including 0-0,
// resolve to important: potentially important mail is never discarded on an
// ambiguous score.
func (c *Classifier) Classify(email EmailRecord) Result {
	marketingScore, importantScore, link := c.scorer.Score(email)

	result := Result{
		ID:              email.ID,
		From:            email.From,
		Subject:         email.Subject,
		Date:            email.Date,
		UnsubscribeLink: link,
	}

	if marketingScore > importantScore {
		result.Classification = LabelMarketing
		result.Reason = fmt.Sprintf("Marketing email detected (score: %d). Contains promotional content.", marketingScore)
		if link != "" {
			result.Action = ActionUnsubscribeAvailable
		} else {
			result.Action = ActionMarkAsSpam
		}
	} else {
		result.Classification = LabelImportant
		result.Reason = fmt.Sprintf("Important email detected (score: %d). Requires attention.", importantScore)
		result.Action = ActionKeep
	}

	return result
}
