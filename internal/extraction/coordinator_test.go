package extraction

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-parser/internal/fields"
	"github.com/jonathan/resume-parser/internal/types"
)

const resumeText = "Ann Lee\nann@lee.dev\n+1 (555) 123-4567\nhttps://github.com/annlee"

// funcExtractor adapts a function to fields.Extractor
type funcExtractor struct {
	fields.Base
	name string
	fn   func(ctx context.Context, text string) (any, error)
	post func(any) any
}

func (f *funcExtractor) FieldName() string { return f.name }

func (f *funcExtractor) Extract(ctx context.Context, text string) (any, error) {
	return f.fn(ctx, text)
}

func (f *funcExtractor) PostProcess(v any) any {
	if f.post != nil {
		return f.post(v)
	}
	return v
}

func constant(name string, v any) *funcExtractor {
	return &funcExtractor{name: name, fn: func(context.Context, string) (any, error) { return v, nil }}
}

func newTestCoordinator(concurrency int) (*Coordinator, *bytes.Buffer) {
	var buf bytes.Buffer
	c := NewCoordinator(concurrency)
	c.Logger = zerolog.New(&buf)
	return c, &buf
}

func TestExtractAll_LocalSet(t *testing.T) {
	c, _ := newTestCoordinator(2)

	record, err := c.ExtractAll(context.Background(), resumeText, fields.Local())
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", record.Name)
	assert.Equal(t, "ann@lee.dev", record.Email)
	assert.Equal(t, "+15551234567", record.Phone)
	assert.Equal(t, "https://github.com/annlee", record.GitHubURL)
	assert.Empty(t, record.LinkedInURL)
	assert.False(t, record.ParsedAt.IsZero())
}

func TestExtractAll_BlankTextInvokesNothing(t *testing.T) {
	var calls atomic.Int32
	x := &funcExtractor{name: types.FieldName, fn: func(context.Context, string) (any, error) {
		calls.Add(1)
		return "Ann Lee", nil
	}}

	c, _ := newTestCoordinator(1)
	record, err := c.ExtractAll(context.Background(), "  \n\t ", fields.NewSet(x))
	require.NoError(t, err)

	assert.True(t, record.IsEmpty())
	assert.Zero(t, calls.Load())
}

func TestExtractAll_FailureIsIsolated(t *testing.T) {
	set := fields.NewSet(
		constant(types.FieldName, "Ann Lee"),
		&funcExtractor{name: types.FieldSkills, fn: func(context.Context, string) (any, error) {
			return nil, &types.ExtractionError{Field: types.FieldSkills, Message: "model request failed"}
		}},
		&funcExtractor{name: types.FieldPhone, fn: func(context.Context, string) (any, error) {
			panic("nil map write")
		}},
		constant(types.FieldEmail, "ann@lee.dev"),
	)

	c, logs := newTestCoordinator(4)
	record, err := c.ExtractAll(context.Background(), resumeText, set)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", record.Name)
	assert.Equal(t, "ann@lee.dev", record.Email)
	assert.Empty(t, record.Skills)
	assert.Empty(t, record.Phone)

	assert.Contains(t, logs.String(), `"field":"skills"`)
	assert.Contains(t, logs.String(), `"field":"phone"`)
	assert.Contains(t, logs.String(), "nil map write")
}

func TestRun_TaggedResultsInFieldOrder(t *testing.T) {
	set := fields.NewSet(
		&funcExtractor{name: "zeta", fn: func(context.Context, string) (any, error) {
			time.Sleep(5 * time.Millisecond)
			return "z", nil
		}},
		constant("alpha", nil),
		&funcExtractor{name: "mid", fn: func(context.Context, string) (any, error) {
			return nil, errors.New("broken parser")
		}},
		&funcExtractor{name: "beta", fn: func(context.Context, string) (any, error) { return "b", nil },
			post: func(any) any { return nil }},
	)

	c, _ := newTestCoordinator(4)
	results := c.Run(context.Background(), resumeText, set)

	require.Len(t, results, 4)
	assert.Equal(t, []string{"alpha", "beta", "mid", "zeta"},
		[]string{results[0].Field, results[1].Field, results[2].Field, results[3].Field})

	assert.Equal(t, StatusAbsent, results[0].Status)
	assert.Equal(t, StatusAbsent, results[1].Status, "post-processing to nil means absent")
	assert.Equal(t, StatusFailed, results[2].Status)
	assert.Equal(t, StatusOK, results[3].Status)
	assert.Equal(t, "z", results[3].Value)

	var extErr *types.ExtractionError
	require.True(t, errors.As(results[2].Err, &extErr))
	assert.Equal(t, "mid", extErr.Field)
	assert.Contains(t, extErr.Error(), "broken parser")

	assert.Equal(t, map[Status]int{StatusOK: 1, StatusAbsent: 2, StatusFailed: 1}, results.Counts())
	r, ok := results.Get("zeta")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, r.Elapsed, 5*time.Millisecond)
}

func TestRun_ShortTextFailsValidation(t *testing.T) {
	c, _ := newTestCoordinator(2)
	results := c.Run(context.Background(), "Ann", fields.NewSet(fields.NewNameExtractor()))

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Err.Error(), "text too short")
}

func TestRun_RespectsConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	work := func(context.Context, string) (any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return "x", nil
	}

	set := fields.Set{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		set.Add(&funcExtractor{name: name, fn: work})
	}

	c, _ := newTestCoordinator(2)
	results := c.Run(context.Background(), resumeText, set)

	assert.Equal(t, 8, results.Counts()[StatusOK])
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_CancellationStopsNewWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int32
	var once sync.Once
	work := func(ctx context.Context, _ string) (any, error) {
		started.Add(1)
		once.Do(cancel)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	set := fields.Set{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		set.Add(&funcExtractor{name: name, fn: work})
	}

	c, _ := newTestCoordinator(1)
	results := c.Run(ctx, resumeText, set)

	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, 6, results.Counts()[StatusFailed])
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled, r.Field)
	}
}

func TestExtractAll_InvalidEmailFailsRecord(t *testing.T) {
	c, _ := newTestCoordinator(1)
	_, err := c.ExtractAll(context.Background(), resumeText, fields.NewSet(constant(types.FieldEmail, "not-an-email")))
	require.Error(t, err)

	var vErr *types.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, types.KindEmail, vErr.Kind)
}

func TestAssemble_DiscardsMismatchedValues(t *testing.T) {
	c, logs := newTestCoordinator(1)
	record, err := c.Assemble(Results{
		{Field: types.FieldName, Status: StatusOK, Value: 42},
		{Field: "hobbies", Status: StatusOK, Value: "chess"},
		{Field: types.FieldSkills, Status: StatusOK, Value: []string{"Go", "go"}},
		{Field: types.FieldEmail, Status: StatusFailed, Err: errors.New("x")},
	})
	require.NoError(t, err)

	assert.Empty(t, record.Name)
	assert.Equal(t, []string{"Go"}, record.Skills)
	assert.Contains(t, logs.String(), "discarding extracted value")
	assert.Contains(t, logs.String(), "hobbies")
}
