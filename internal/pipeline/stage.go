package pipeline

import (
	"context"
	"time"
)

// Stage is a step of the parse state machine
type Stage int

// Stages in execution order. StageFailed can follow any stage before StageDone.
const (
	StageValidating Stage = iota
	StageRouting
	StageParsingText
	StageExtractingFields
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageValidating:       "validating",
	StageRouting:          "routing",
	StageParsingText:      "parsing_text",
	StageExtractingFields: "extracting_fields",
	StageDone:             "done",
	StageFailed:           "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// ProgressEvent reports a stage transition for one document
type ProgressEvent struct {
	Stage   Stage
	Path    string
	Elapsed time.Duration // since the parse started
	Err     error         // set for StageFailed
}

// ProgressCallback is called synchronously on every stage transition
type ProgressCallback func(event ProgressEvent)

type progressKey struct{}

// ContextWithProgress attaches cb to ctx. Parses run with the returned
// context report to cb in addition to any pipeline-wide callback.
func ContextWithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}

func progressFrom(ctx context.Context) ProgressCallback {
	cb, _ := ctx.Value(progressKey{}).(ProgressCallback)
	return cb
}
