package signal

import (
	"context"
	"time"

	"omnicore-dashboard/internal/ai/llm"
	"omnicore-dashboard/internal/logging"
)

// Generator is the LLM surface the pipeline stages need. *llm.Client
// satisfies it; tests substitute doubles.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Bundle maps each researched technique to its raw findings. It lives for
// one pipeline run only and is never persisted.
type Bundle map[Technique]string

// Runner issues one search-augmented research call per enabled technique.
type Runner struct {
	client  Generator
	timeout time.Duration
	logger  *logging.Logger
}

// NewRunner creates a research runner. timeout bounds each individual call;
// zero disables the per-call deadline.
func NewRunner(client Generator, timeout time.Duration) *Runner {
	return &Runner{
		client:  client,
		timeout: timeout,
		logger:  logging.Default().WithComponent("research"),
	}
}

// Run executes every enabled technique in order and collects the findings.
// An empty technique list is rejected before any call is made. Any single
// failure aborts the run with a ResearchError naming the failed technique.
func (r *Runner) Run(ctx context.Context, asset string, techniques []Technique) (Bundle, error) {
	if len(techniques) == 0 {
		return nil, ErrNoTechniqueSelected
	}

	bundle := make(Bundle, len(techniques))
	for i, t := range techniques {
		log := r.logger.WithField("asset", asset).WithField("technique", string(t))
		start := time.Now()
		findings, err := r.research(ctx, asset, t)
		if err != nil {
			log.WithError(err).Error("research call failed")
			return nil, &ResearchError{Technique: t, Step: i + 1, Err: err}
		}
		log.WithDuration(time.Since(start)).Debug("research call complete")
		bundle[t] = findings
	}
	return bundle, nil
}

func (r *Runner) research(ctx context.Context, asset string, t Technique) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	prompt := PromptFor(t, asset)
	return r.client.Generate(ctx, llm.Request{
		System:        prompt.System,
		Content:       prompt.Content,
		SearchEnabled: true,
	})
}
