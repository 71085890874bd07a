package mailbox

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mailsift/mailsift/internal/classifier"
)

// Inbox is a YAML-serializable batch of emails, the on-disk exchange format
// between whatever fetched the mail and this tool.
type Inbox struct {
	Emails []classifier.EmailRecord `yaml:"emails"`
}

// LoadInboxFile reads an inbox YAML file and returns its normalized records.
func LoadInboxFile(path string) ([]classifier.EmailRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox file: %w", err)
	}

	var inbox Inbox
	if err := yaml.Unmarshal(data, &inbox); err != nil {
		return nil, fmt.Errorf("failed to parse inbox file: %w", err)
	}

	return Normalize(inbox.Emails), nil
}

// SaveInboxFile writes a batch back out as an inbox YAML file.
func SaveInboxFile(path string, emails []classifier.EmailRecord) error {
	data, err := yaml.Marshal(Inbox{Emails: emails})
	if err != nil {
		return fmt.Errorf("failed to serialize inbox: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
