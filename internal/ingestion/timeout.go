package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/resume-parser/internal/types"
)

// OperationTextExtraction names the text extraction stage in timeout errors
const OperationTextExtraction = "text_extraction"

type extractResult struct {
	text string
	err  error
}

// RunWithTimeout runs x.Extract on its own goroutine and waits at most timeout.
// On expiry it returns a *types.TimeoutError without waiting for the worker;
// the worker's late result is dropped. If the caller's ctx ends first its error
// is returned. timeout <= 0 applies no deadline beyond ctx.
func RunWithTimeout(ctx context.Context, path string, timeout time.Duration, x TextExtractor) (string, error) {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	start := time.Now()
	done := make(chan extractResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- extractResult{err: &types.ParseError{Path: path, Message: "text extractor panicked", Cause: fmt.Errorf("%v", r)}}
			}
		}()
		text, err := x.Extract(runCtx, path)
		done <- extractResult{text: text, err: err}
	}()

	timedOut := func() error {
		return &types.TimeoutError{
			Operation: OperationTextExtraction,
			Path:      path,
			Timeout:   timeout,
			Elapsed:   time.Since(start),
		}
	}

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == nil && errors.Is(res.err, context.DeadlineExceeded) {
			return "", timedOut()
		}
		return res.text, res.err
	case <-runCtx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", timedOut()
	}
}
