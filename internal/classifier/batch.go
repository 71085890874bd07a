package classifier

// ClassifyBatch classifies emails in order: result i corresponds to input i,
// with no cross-record influence. When autoUnsubscribe is set, every
// marketing result carrying an unsubscribe link has its action rewritten to
// reflect the simulated unsubscribe, and stats.Unsubscribed counts exactly
// those results.
func (c *Classifier) ClassifyBatch(emails []EmailRecord, autoUnsubscribe bool) ([]Result, Stats) {
	results := make([]Result, len(emails))
	for i, email := range emails {
		results[i] = c.Classify(email)
	}
	return finalizeBatch(results, autoUnsubscribe)
}

// ClassifyBatchConcurrent is ClassifyBatch fanned out over up to concurrency
// goroutines. Classification is pure per record, so the only synchronization
// needed is writing each result to its own slot; output order matches input
// order either way.
func (c *Classifier) ClassifyBatchConcurrent(emails []EmailRecord, autoUnsubscribe bool, concurrency int) ([]Result, Stats) {
	if concurrency < 1 {
		concurrency = 1
	}

	semaphore := make(chan struct{}, concurrency)
	results := make([]Result, len(emails))
	for i := range emails {
		semaphore <- struct{}{}
		go func(index int) {
			results[index] = c.Classify(emails[index])
			<-semaphore
		}(i)
	}
	for i := 0; i < concurrency; i++ {
		semaphore <- struct{}{}
	}

	return finalizeBatch(results, autoUnsubscribe)
}

// finalizeBatch tallies stats and applies the auto-unsubscribe rewrite. The
// unsubscribed count uses the same predicate as the rewrite, so the two can
// never disagree.
func finalizeBatch(results []Result, autoUnsubscribe bool) ([]Result, Stats) {
	stats := Stats{Total: len(results)}

	for i := range results {
		switch results[i].Classification {
		case LabelMarketing:
			stats.Marketing++
		case LabelImportant:
			stats.Important++
		}

		if autoUnsubscribe && results[i].Classification == LabelMarketing && results[i].UnsubscribeLink != "" {
			results[i].Action = ActionUnsubscribed
			stats.Unsubscribed++
		}
	}

	return results, stats
}
