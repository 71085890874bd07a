// Package unsub is the unsubscribe executor collaborator. The engine only
// recommends the action; actually following a link is side-effecting and
// lives here, behind an interface, so the batch rewrite can stay pure.
package unsub

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mailsift/mailsift/internal/classifier"
)

// Executor follows one unsubscribe link.
type Executor interface {
	Unsubscribe(ctx context.Context, link string) error
	Name() string
}

// Outcome reports one attempted unsubscribe.
type Outcome struct {
	EmailID string
	Link    string
	Err     error
}

// Simulator is the only executor shipped: it checks that the link at least
// looks like a fetchable URL and reports success without touching the
// network.
type Simulator struct{}

func (Simulator) Name() string { return "simulator" }

func (Simulator) Unsubscribe(ctx context.Context, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid unsubscribe link: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported scheme %q in unsubscribe link", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("unsubscribe link has no host")
	}
	return nil
}

// Run passes every marketing result carrying a link to the executor and
// collects one outcome per attempt, in result order.
func Run(ctx context.Context, exec Executor, results []classifier.Result) []Outcome {
	var outcomes []Outcome
	for _, r := range results {
		if r.Classification != classifier.LabelMarketing || r.UnsubscribeLink == "" {
			continue
		}
		outcomes = append(outcomes, Outcome{
			EmailID: r.ID,
			Link:    r.UnsubscribeLink,
			Err:     exec.Unsubscribe(ctx, r.UnsubscribeLink),
		})
	}
	return outcomes
}
