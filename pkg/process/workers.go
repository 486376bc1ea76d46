package process

import (
	"sync"

	"github.com/OpenCosmics/sapphire/pkg/storage"
)

type workerJob struct {
	row   int
	event storage.Event
}

type workerResult struct {
	row   int
	times [storage.NDetectors]float64
	err   error
}

// reconstructParallel fans the per-event reconstruction out over
// NumWorkers goroutines. Every result carries its own row index, so the
// output does not depend on completion order.
func (p *Processor) reconstructParallel(events []storage.Event) ([][storage.NDetectors]float64, error) {
	jobs := make(chan workerJob, p.config.NumWorkers)
	results := make(chan workerResult, p.config.NumWorkers)

	var wg sync.WaitGroup
	for w := 0; w < p.config.NumWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				times, err := p.reconstructTimes(job.event)
				results <- workerResult{row: job.row, times: times, err: err}
			}
		}()
	}

	go func() {
		for i := range events {
			jobs <- workerJob{row: i, event: events[i]}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	reporter := p.reporter(len(events), "reconstructing timings")
	defer reporter.Finish()

	timings := make([][storage.NDetectors]float64, len(events))
	var firstErr error
	for result := range results {
		if result.err != nil && firstErr == nil {
			firstErr = result.err
		}
		timings[result.row] = result.times
		reporter.Step(1)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return timings, nil
}
