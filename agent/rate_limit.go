package agent

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

const (
	// DefaultMaxRetries bounds rate-limit retries when a policy omits it.
	DefaultMaxRetries = 5
	// DefaultInitialDelay seeds the exponential backoff.
	DefaultInitialDelay = 1 * time.Second
	// DefaultMaxElapsedTime caps the total time spent retrying one dispatch.
	DefaultMaxElapsedTime = 5 * time.Minute
)

// RetryPolicy retries rate-limited dispatches with exponential backoff. Only
// rate-limit errors are retried; every other dispatcher error stays fatal,
// and the dispatcher itself never retries.
type RetryPolicy struct {
	MaxRetries     uint64
	InitialDelay   time.Duration
	MaxElapsedTime time.Duration
}

func (p *RetryPolicy) normalized() RetryPolicy {
	out := *p
	if out.MaxRetries == 0 {
		out.MaxRetries = DefaultMaxRetries
	}
	if out.InitialDelay <= 0 {
		out.InitialDelay = DefaultInitialDelay
	}
	if out.MaxElapsedTime <= 0 {
		out.MaxElapsedTime = DefaultMaxElapsedTime
	}
	return out
}

// dispatch issues one chat call, applying the retry policy when configured.
func (a *Agent) dispatch(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if a.opts.Retry == nil {
		return a.dispatcher.Chat(ctx, req)
	}
	policy := a.opts.Retry.normalized()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.InitialDelay
	expo.MaxElapsedTime = policy.MaxElapsedTime

	var resp *llm.Response
	operation := func() error {
		var err error
		resp, err = a.dispatcher.Chat(ctx, req)
		if err == nil {
			return nil
		}
		if !llm.IsRateLimited(err) {
			return backoff.Permanent(err)
		}
		if hint := llm.RetryAfterHint(err); hint != nil {
			a.logger.Info().Dur("retry_after", *hint).Msg("Rate limited, honoring backend hint")
			select {
			case <-time.After(*hint):
			case <-ctx.Done():
				return backoff.Permanent(llm.NewAborted(ctx.Err()))
			}
		}
		return err
	}

	policyBackoff := backoff.WithContext(
		backoff.WithMaxRetries(expo, policy.MaxRetries), ctx)
	if err := backoff.Retry(operation, policyBackoff); err != nil {
		return nil, err
	}
	return resp, nil
}
