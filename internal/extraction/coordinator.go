// Package extraction runs a set of field extractors concurrently over one
// document's text and assembles their outcomes into a record.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-parser/internal/fields"
	"github.com/jonathan/resume-parser/internal/logger"
	"github.com/jonathan/resume-parser/internal/types"
)

// DefaultConcurrency bounds simultaneous extractors when none is configured
const DefaultConcurrency = 4

// Coordinator fans extraction out over a bounded worker pool
type Coordinator struct {
	// Concurrency is the maximum number of extractors running at once
	Concurrency int
	// Logger receives one entry per failed field
	Logger zerolog.Logger
}

// NewCoordinator creates a Coordinator. concurrency <= 0 selects DefaultConcurrency.
func NewCoordinator(concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Coordinator{
		Concurrency: concurrency,
		Logger:      logger.For("extraction"),
	}
}

// ExtractAll runs every extractor in set and builds a record from the results.
// A failed field is logged and left absent. Blank text yields an empty record
// without invoking any extractor. The only error is record construction
// rejecting a value, reported as *types.ValidationError.
func (c *Coordinator) ExtractAll(ctx context.Context, text string, set fields.Set) (*types.Record, error) {
	if strings.TrimSpace(text) == "" {
		return types.NewRecord(types.Fields{})
	}
	return c.Assemble(c.Run(ctx, text, set))
}

// Run executes the extractors and returns one Result per field, ordered by
// field name regardless of completion order.
func (c *Coordinator) Run(ctx context.Context, text string, set fields.Set) Results {
	names := set.Names()
	results := make(Results, len(names))

	if strings.TrimSpace(text) == "" {
		for i, name := range names {
			results[i] = Result{Field: name, Status: StatusAbsent}
		}
		return results
	}

	limit := c.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Field: name, Status: StatusFailed, Err: err}
			continue
		}
		x := set[name]
		// Workers always return nil so one failure never cancels siblings
		g.Go(func() error {
			results[i] = c.runOne(ctx, name, x, text)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Status == StatusFailed {
			c.Logger.Warn().
				Str("field", r.Field).
				Err(r.Err).
				Dur("elapsed", r.Elapsed).
				Msg("field extraction failed, leaving field absent")
		}
	}
	return results
}

// Assemble applies successful results to a record in field-name order
func (c *Coordinator) Assemble(results Results) (*types.Record, error) {
	var f types.Fields
	for _, r := range results {
		if r.Status != StatusOK {
			continue
		}
		if err := f.Set(r.Field, r.Value); err != nil {
			c.Logger.Warn().Str("field", r.Field).Err(err).Msg("discarding extracted value")
		}
	}
	return types.NewRecord(f)
}

func (c *Coordinator) runOne(ctx context.Context, name string, x fields.Extractor, text string) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = failed(name, &types.ExtractionError{
				Field:   name,
				Message: "extractor panicked",
				Cause:   fmt.Errorf("%v", r),
			})
		}
		res.Elapsed = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		return failed(name, err)
	}

	if msg := x.ValidateInput(text); msg != "" {
		return failed(name, &types.ExtractionError{Field: name, Message: "invalid input: " + msg})
	}

	value, err := x.Extract(ctx, text)
	if err != nil {
		var extErr *types.ExtractionError
		if !errors.As(err, &extErr) && ctx.Err() == nil {
			err = &types.ExtractionError{Field: name, Message: "extractor failed", Cause: err}
		}
		return failed(name, err)
	}
	if value == nil {
		return Result{Field: name, Status: StatusAbsent}
	}

	value = x.PostProcess(value)
	if value == nil {
		return Result{Field: name, Status: StatusAbsent}
	}
	return Result{Field: name, Status: StatusOK, Value: value}
}

func failed(field string, err error) Result {
	return Result{Field: field, Status: StatusFailed, Err: err}
}
