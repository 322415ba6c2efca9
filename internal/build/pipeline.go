package build

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/aellingwood/cardforge/internal/content"
)

// renderParallel processes pages concurrently using a worker pool.
// The fn callback is invoked with each page and its index. If any invocation
// returns an error, or ctx is cancelled, processing stops and the first
// error is returned.
func renderParallel(ctx context.Context, pages []*content.Page, workers int, fn func(int, *content.Page) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(pages) == 0 {
		return nil
	}
	// Don't create more workers than pages.
	if workers > len(pages) {
		workers = len(pages)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	errCh := make(chan error, 1) // buffered so the first error doesn't block
	var once sync.Once           // ensure we only send one error
	var wg sync.WaitGroup

	fail := func(err error) {
		once.Do(func() {
			errCh <- err
			cancel()
		})
	}

	// Start workers.
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := fn(i, pages[i]); err != nil {
					fail(fmt.Errorf("processing page %s: %w", pages[i].ID, err))
					return
				}
			}
		}()
	}

	// Send jobs.
send:
	for i := range pages {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)

	// Wait for workers to finish.
	wg.Wait()
	if err := ctx.Err(); err != nil {
		fail(err)
	}
	close(errCh)

	// Return the first error, if any.
	if err, ok := <-errCh; ok {
		return err
	}
	return nil
}
