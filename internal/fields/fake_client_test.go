package fields

import (
	"context"
	"strings"
	"sync"

	"github.com/jonathan/resume-parser/internal/llm"
)

// fakeClient answers prompts by matching a marker phrase in the prompt
type fakeClient struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	prompts   []string
	tiers     []llm.ModelTier
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.tiers = append(f.tiers, tier)
	if f.err != nil {
		return "", f.err
	}
	for marker, resp := range f.responses {
		if strings.Contains(prompt, marker) {
			return resp, nil
		}
	}
	return "", nil
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	out, err := f.GenerateContent(ctx, prompt, tier)
	return llm.CleanJSONBlock(out), err
}

func (f *fakeClient) GetModel(tier llm.ModelTier) string { return "fake-" + string(tier) }

func (f *fakeClient) Close() error { return nil }

// blockingClient waits for the context to end
type blockingClient struct{ fakeClient }

func (b *blockingClient) GenerateJSON(ctx context.Context, _ string, _ llm.ModelTier) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

const (
	markerPhone      = "phone number of the candidate"
	markerSkills     = "Extract ALL professional skills"
	markerEducation  = "education entries"
	markerExperience = "work experience entries"
)
