package intercept

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one interception in a batch.
type Job struct {
	// Name labels the job in logs and results.
	Name string

	// PageURL is the page to load.
	PageURL string

	// Match selects the hidden API response on that page.
	Match URLMatcher

	// Options tunes this job's run. Zero value uses the defaults.
	Options Options
}

// Batch runs the jobs with at most parallel concurrent sessions and
// returns one envelope per job, in job order. A cancelled context turns
// the remaining jobs into failure envelopes rather than aborting the
// slice.
func (ic *Interceptor) Batch(ctx context.Context, jobs []Job, parallel int) []Result {
	if parallel <= 0 {
		parallel = 1
	}

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = failure(KindNavigation,
					fmt.Sprintf("batch cancelled before %s: %v", job.PageURL, err))
				return nil
			}
			results[i] = ic.InterceptJSON(ctx, job.PageURL, job.Match, job.Options)
			return nil
		})
	}
	// Job goroutines never return errors; failures live in the envelopes.
	_ = g.Wait()

	return results
}
