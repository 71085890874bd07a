package classifier

import (
	"reflect"
	"testing"
)

func TestClassifyPromotionalEmail(t *testing.T) {
	c := NewDefault()

	email := EmailRecord{
		ID:      "msg-001",
		From:    "newsletter@techcompany.com",
		Subject: "🎉 Exclusive 50% OFF Sale",
		Date:    "2026-08-12T09:30:00Z",
		Body:    "Don't miss out! Shop now and save big. https://mail.techcompany.com/unsubscribe?u=42",
	}

	result := c.Classify(email)

	if result.Classification != LabelMarketing {
		t.Errorf("got %s, want %s", result.Classification, LabelMarketing)
	}
	if result.Action != ActionUnsubscribeAvailable {
		t.Errorf("got action %q, want %q", result.Action, ActionUnsubscribeAvailable)
	}
	if result.UnsubscribeLink != "https://mail.techcompany.com/unsubscribe?u=42" {
		t.Errorf("got link %q, want the URL from the body", result.UnsubscribeLink)
	}
	// exclusive + sale + shop now + unsubscribe + link bonus
	if want := "Marketing email detected (score: 7). Contains promotional content."; result.Reason != want {
		t.Errorf("got reason %q, want %q", result.Reason, want)
	}
}

func TestClassifyTransactionalEmail(t *testing.T) {
	c := NewDefault()

	email := EmailRecord{
		ID:      "msg-002",
		From:    "billing@yourbank.com",
		Subject: "Your Monthly Statement is Ready",
		Date:    "2026-08-13T07:00:00Z",
		Body:    "Your account statement is ready. 12 transactions this month.",
	}

	result := c.Classify(email)

	if result.Classification != LabelImportant {
		t.Errorf("got %s, want %s", result.Classification, LabelImportant)
	}
	if result.Action != ActionKeep {
		t.Errorf("got action %q, want %q", result.Action, ActionKeep)
	}
	if result.UnsubscribeLink != "" {
		t.Errorf("got link %q, want none", result.UnsubscribeLink)
	}
	// statement + account + transaction + billing sender bonus
	if want := "Important email detected (score: 5). Requires attention."; result.Reason != want {
		t.Errorf("got reason %q, want %q", result.Reason, want)
	}
}

func TestClassifyEmptyEmailTieBreaksToImportant(t *testing.T) {
	c := NewDefault()

	result := c.Classify(EmailRecord{ID: "msg-003", From: "x@example.com"})

	if result.Classification != LabelImportant {
		t.Errorf("got %s, want %s on a 0-0 tie", result.Classification, LabelImportant)
	}
	if want := "Important email detected (score: 0). Requires attention."; result.Reason != want {
		t.Errorf("got reason %q, want %q", result.Reason, want)
	}
}

func TestClassifyNonZeroTieBreaksToImportant(t *testing.T) {
	c := NewDefault()

	// "sale" and "invoice" each score 1.
	result := c.Classify(EmailRecord{
		From:    "someone@example.com",
		Subject: "Summer sale",
		Body:    "Your invoice is attached.",
	})

	if result.Classification != LabelImportant {
		t.Errorf("got %s, want %s on an equal-score tie", result.Classification, LabelImportant)
	}
}

func TestClassifyPlainUnsubscribeWordWithoutURL(t *testing.T) {
	c := NewDefault()

	result := c.Classify(EmailRecord{
		From: "someone@example.com",
		Body: "To stop receiving these messages, reply with the word unsubscribe.",
	})

	if result.Classification != LabelMarketing {
		t.Errorf("got %s, want %s (keyword hit without link)", result.Classification, LabelMarketing)
	}
	if result.UnsubscribeLink != "" {
		t.Errorf("got link %q, want none for a plain-text mention", result.UnsubscribeLink)
	}
	if result.Action != ActionMarkAsSpam {
		t.Errorf("got action %q, want %q", result.Action, ActionMarkAsSpam)
	}
}

func TestSenderBonusAppliesOnce(t *testing.T) {
	c := NewDefault()

	// Sender matches both "noreply" and "marketing"; the bonus still counts once.
	result := c.Classify(EmailRecord{From: "noreply-marketing@shop.com"})

	if result.Classification != LabelMarketing {
		t.Errorf("got %s, want %s", result.Classification, LabelMarketing)
	}
	if want := "Marketing email detected (score: 2). Contains promotional content."; result.Reason != want {
		t.Errorf("got reason %q, want %q", result.Reason, want)
	}
}

func TestKeywordInSubjectAndBodyCountsOnce(t *testing.T) {
	s := NewScorer(DefaultTables())

	marketing, _, _ := s.Score(EmailRecord{
		From:    "someone@example.com",
		Subject: "Weekend sale",
		Body:    "Our biggest sale of the year.",
	})

	if marketing != 1 {
		t.Errorf("got marketing score %d, want 1 (per-entry, not per-field)", marketing)
	}
}

func TestLinkIsReportedEvenWhenImportantWins(t *testing.T) {
	c := NewDefault()

	result := c.Classify(EmailRecord{
		From:    "billing@corp.com",
		Subject: "Invoice overdue",
		Body:    "Your invoice and receipt for payment. Urgent: action required before the deadline. https://news.corp.com/UNSUBSCRIBE/now",
	})

	if result.Classification != LabelImportant {
		t.Errorf("got %s, want %s", result.Classification, LabelImportant)
	}
	if result.UnsubscribeLink != "https://news.corp.com/UNSUBSCRIBE/now" {
		t.Errorf("got link %q, want it passed through with original casing", result.UnsubscribeLink)
	}
	if result.Action != ActionKeep {
		t.Errorf("got action %q, want %q", result.Action, ActionKeep)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	c := NewDefault()

	email := EmailRecord{
		ID:      "msg-010",
		From:    "noreply@deals.example.com",
		Subject: "Special offer inside",
		Date:    "2026-08-14T16:45:00Z",
		Body:    "Limited time deal! https://deals.example.com/unsubscribe/abc",
	}

	first := c.Classify(email)
	second := c.Classify(email)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("classifying the same record twice diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCustomTables(t *testing.T) {
	c := New(Tables{
		Marketing:        []string{"rabatt"},
		Important:        []string{"rechnung"},
		MarketingSenders: []string{"noreply"},
		ImportantSenders: []string{"buchhaltung"},
	})

	result := c.Classify(EmailRecord{
		From:    "noreply@laden.de",
		Subject: "20% Rabatt nur heute",
	})

	if result.Classification != LabelMarketing {
		t.Errorf("got %s, want %s with localized tables", result.Classification, LabelMarketing)
	}
}
