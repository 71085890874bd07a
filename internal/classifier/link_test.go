package classifier

import "testing"

func TestExtractUnsubscribeLink(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLink string
		wantOK   bool
	}{
		{
			name:     "link with query string",
			body:     "If you no longer wish to receive this, visit https://example.com/unsubscribe?x=1 today.",
			wantLink: "https://example.com/unsubscribe?x=1",
			wantOK:   true,
		},
		{
			name:     "original casing preserved",
			body:     "Opt out: HTTPS://Mail.Example.COM/Unsubscribe/Token123",
			wantLink: "HTTPS://Mail.Example.COM/Unsubscribe/Token123",
			wantOK:   true,
		},
		{
			name:     "first of several links wins",
			body:     "https://a.example.com/unsubscribe then https://b.example.com/unsubscribe",
			wantLink: "https://a.example.com/unsubscribe",
			wantOK:   true,
		},
		{
			name:     "http scheme accepted",
			body:     "http://tracker.example.com/path/unsubscribe-now",
			wantLink: "http://tracker.example.com/path/unsubscribe-now",
			wantOK:   true,
		},
		{
			name:   "plain word without scheme",
			body:   "reply with the word unsubscribe to opt out",
			wantOK: false,
		},
		{
			name:   "bare domain without scheme",
			body:   "visit www.example.com/unsubscribe in your browser",
			wantOK: false,
		},
		{
			name:   "url without the word",
			body:   "https://example.com/optout?list=news",
			wantOK: false,
		},
		{
			name:   "empty body",
			body:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, ok := ExtractUnsubscribeLink(tt.body)
			if ok != tt.wantOK {
				t.Fatalf("got ok=%v, want %v", ok, tt.wantOK)
			}
			if link != tt.wantLink {
				t.Errorf("got %q, want %q", link, tt.wantLink)
			}
		})
	}
}
