package mailbox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message/mail"

	"github.com/mailsift/mailsift/internal/classifier"
)

// ParseEML reads one RFC 5322 message and flattens it into an EmailRecord.
// The first text/plain part becomes the body; if the message only carries
// HTML, the tag-stripped text is used instead.
func ParseEML(r io.Reader, id string) (classifier.EmailRecord, error) {
	record := classifier.EmailRecord{ID: id}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return record, fmt.Errorf("failed to parse message: %w", err)
	}

	header := mr.Header
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		record.From = from[0].Address
	} else {
		record.From = header.Get("From")
	}
	record.Subject, _ = header.Subject()
	if date, err := header.Date(); err == nil {
		record.Date = date.UTC().Format(time.RFC3339)
	} else {
		record.Date = header.Get("Date")
	}

	record.Headers = map[string]string{}
	for _, key := range []string{"Message-Id", "To", "Reply-To", "List-Unsubscribe"} {
		if v := header.Get(key); v != "" {
			record.Headers[key] = v
		}
	}
	if len(record.Headers) == 0 {
		record.Headers = nil
	}

	var htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := inline.ContentType()
		content, _ := io.ReadAll(part.Body)

		if strings.HasPrefix(contentType, "text/plain") && record.Body == "" {
			record.Body = string(content)
		} else if strings.HasPrefix(contentType, "text/html") && htmlBody == "" {
			htmlBody = string(content)
		}
	}

	if record.Body == "" && htmlBody != "" {
		record.Body = htmlToText(htmlBody)
	}

	return record, nil
}

// ParseEMLFile parses a single .eml file. The file's base name becomes the
// record id.
func ParseEMLFile(path string) (classifier.EmailRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return classifier.EmailRecord{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	record, err := ParseEML(f, id)
	if err != nil {
		return classifier.EmailRecord{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return record, nil
}

// LoadEMLDir parses every .eml file in a directory, in name order.
func LoadEMLDir(dir string) ([]classifier.EmailRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".eml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var emails []classifier.EmailRecord
	for _, name := range names {
		record, err := ParseEMLFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		emails = append(emails, record)
	}
	return emails, nil
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// htmlToText extracts the visible text of an HTML body. Anchor hrefs are kept
// inline so the link extractor still sees unsubscribe URLs that only exist as
// hyperlink targets.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style").Remove()

	var hrefs []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		if href, exists := s.Attr("href"); exists {
			hrefs = append(hrefs, href)
		}
	})

	text := strings.TrimSpace(whitespaceRegex.ReplaceAllString(doc.Text(), " "))
	for _, href := range hrefs {
		if !strings.Contains(text, href) {
			text += " " + href
		}
	}
	return text
}
