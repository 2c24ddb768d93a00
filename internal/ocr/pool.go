package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/transcript"
)

type completion struct {
	task Task
	res  *Result
	err  error
}

// Run recognizes every task on a pool of r.threads workers. Completions are
// consumed in the order they finish; the transcript is ordered by sequence
// index. A failed task is logged and skipped. Cancelling ctx stops dispatch
// and consumption at once: tasks already in flight finish in the background
// and their results are dropped. On cancellation Run returns ctx.Err() and
// no transcript text.
func (r *implRecognizer) Run(ctx context.Context, state *RunState, tasks []Task) (Transcript, error) {
	if len(tasks) == 0 {
		return Transcript{}, ErrNoImages
	}
	state.reset(len(tasks))
	startTime := time.Now()

	r.logger.Info(ctx, "OCR run %s: %d images, %d workers", state.ID, len(tasks), r.threads)

	// Buffered for every task so late finishers never block after the
	// consumer has gone away.
	done := make(chan completion, len(tasks))
	sem := newSemaphore(r.threads)

	go func() {
		for _, task := range tasks {
			if err := sem.acquire(ctx); err != nil {
				return
			}
			go func(t Task) {
				defer sem.release()
				res, err := r.recognizeSafe(ctx, t)
				done <- completion{task: t, res: res, err: err}
			}(task)
		}
	}()

	out := Transcript{Total: len(tasks)}
	for received := 0; received < len(tasks); received++ {
		var c completion
		select {
		case <-ctx.Done():
			return r.stopped(ctx, state, out)
		case c = <-done:
		}
		if ctx.Err() != nil {
			return r.stopped(ctx, state, out)
		}

		if c.err != nil {
			r.logger.Error(ctx, "%s generated an exception: %v", c.task.Path, c.err)
			out.Skipped++
			continue
		}

		completed := state.complete(c.res)
		r.bus.Progress(state.ID, completed, len(tasks), fmt.Sprintf("OCR %d/%d", completed, len(tasks)))
	}

	out.Completed, _ = state.Progress()
	out.Entries = transcript.Assemble(state.Results())
	out.Text = transcript.Format(out.Entries)

	r.logger.Info(ctx, "OCR run %s finished: %d/%d images, %d entries, %d skipped in %s",
		state.ID, out.Completed, len(tasks), len(out.Entries), out.Skipped, time.Since(startTime).Round(time.Millisecond))
	return out, nil
}

func (r *implRecognizer) stopped(ctx context.Context, state *RunState, out Transcript) (Transcript, error) {
	out.Completed, _ = state.Progress()
	r.logger.Info(ctx, "OCR run %s stopped after %d/%d images", state.ID, out.Completed, out.Total)
	return out, ctx.Err()
}
