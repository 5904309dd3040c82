package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"simple-restclient/restclient"
)

type taskResult struct {
	URL     string
	Status  int
	Absent  bool
	Err     error
	Started time.Time
	Ended   time.Time
}

// fetchAll dispara um GET por URL a partir de um pool fixo de workers, todos
// compartilhando o mesmo Requester. Os resultados seguem a ordem de urls.
func fetchAll(ctx context.Context, rq restclient.Requester, urls []string, workers int, logger log.FieldLogger) []taskResult {
	results := make([]taskResult, len(urls))

	p := pool.New().WithMaxGoroutines(workers)
	for i, u := range urls {
		i, u := i, u
		p.Go(func() {
			res := taskResult{URL: u, Started: time.Now()}
			entry := logger.WithFields(log.Fields{"task": i, "url": u})
			entry.Debug("task started")

			resp, err := rq.Get(ctx, u, nil)
			res.Ended = time.Now()
			switch {
			case err != nil:
				res.Err = err
				entry.WithError(err).Warn("task failed")
			case resp == nil:
				res.Absent = true
				entry.Info("task cancelled before the request was sent")
			default:
				res.Status = resp.StatusCode()
				_ = resp.Close()
				entry.WithFields(log.Fields{
					"status":  res.Status,
					"elapsed": res.Ended.Sub(res.Started),
				}).Info("task ended")
			}
			results[i] = res
		})
	}
	p.Wait()
	return results
}
