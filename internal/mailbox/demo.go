package mailbox

import (
	"fmt"
	"time"

	"github.com/mailsift/mailsift/internal/classifier"
)

// Sample emails the demo inbox cycles through. Deterministic on purpose so
// demo runs are reproducible.
var demoSeeds = []classifier.EmailRecord{
	{
		From:    "newsletter@techdeals.example.com",
		Subject: "🎉 Exclusive 50% OFF Sale - Limited Time!",
		Body: "Huge savings this weekend only! Shop now before the deal expires.\n" +
			"Free shipping on all orders.\n" +
			"No longer interested? https://techdeals.example.com/unsubscribe?u=7731",
	},
	{
		From:    "billing@yourbank.example.com",
		Subject: "Your Monthly Statement is Ready",
		Body:    "Your account statement for this month is available. 12 transactions were posted.",
	},
	{
		From:    "noreply@fashionstore.example.com",
		Subject: "New arrivals just for you",
		Body: "Be the first to see our newsletter picks. Buy now and save 20%.\n" +
			"Unsubscribe: https://fashionstore.example.com/email/unsubscribe/9f2c",
	},
	{
		From:    "security@webmail.example.com",
		Subject: "Security alert: new sign-in on your account",
		Body:    "We detected a new sign-in. If this wasn't you, reset password immediately.",
	},
	{
		From:    "support@cloudhost.example.com",
		Subject: "Invoice #4821 - payment receipt",
		Body:    "Thank you for your payment. Your receipt and invoice are attached.",
	},
	{
		From:    "marketing@fitclub.example.com",
		Subject: "Special offer: 3 months free",
		Body: "This exclusive promo won't last. Save now on an annual membership!\n" +
			"To opt out visit https://fitclub.example.com/preferences/unsubscribe",
	},
	{
		From:    "hr@acme.example.com",
		Subject: "Reminder: contract signing appointment",
		Body:    "Your appointment is scheduled for Thursday. The deadline for the contract is Friday.",
	},
	{
		From:    "digest@devforum.example.com",
		Subject: "Your weekly digest",
		Body:    "Top discussions this week. Update your notification settings any time.",
	},
}

// DemoInbox generates count demo emails, cycling through the seed set with
// sequential ids and dates.
func DemoInbox(count int) []classifier.EmailRecord {
	if count <= 0 {
		count = len(demoSeeds)
	}

	base := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	emails := make([]classifier.EmailRecord, count)
	for i := 0; i < count; i++ {
		seed := demoSeeds[i%len(demoSeeds)]
		seed.ID = fmt.Sprintf("demo-%03d", i+1)
		seed.Date = base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
		emails[i] = seed
	}
	return emails
}
