package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// ToolCallRecord is one executed tool call within a run.
type ToolCallRecord struct {
	Tool   string
	Args   map[string]any
	Result string
}

// RunResult is the outcome of one run. Created fresh per invocation.
type RunResult struct {
	// Output is the final (or, at the iteration cap, last produced) content.
	Output string
	// Structured holds the parsed value from RunStructured.
	Structured any
	// Iterations counts dispatcher calls made, always at least 1.
	Iterations int
	ToolCalls  []ToolCallRecord
	Usage      llm.Usage
}

// Run executes the loop for one user input. Dispatcher errors are fatal to
// the run; tool failures are fed back to the model as result strings.
// Reaching the iteration cap returns the best-effort result, not an error.
func (a *Agent) Run(ctx context.Context, input string) (*RunResult, error) {
	var history []llm.Message
	if a.system != "" {
		history = append(history, llm.NewTextMessage(llm.RoleSystem, a.system))
	}
	history = append(history, llm.NewTextMessage(llm.RoleUser, input))

	result := &RunResult{}
	for iteration := 1; iteration <= a.opts.MaxIterations; iteration++ {
		// Cooperative cancellation, checked before each dispatch so a
		// pre-cancelled context fails before any network call.
		if err := ctx.Err(); err != nil {
			return nil, llm.NewAborted(err)
		}

		resp, err := a.dispatch(ctx, a.newRequest(history))
		if err != nil {
			return nil, err
		}
		result.Iterations = iteration
		result.Usage = result.Usage.Add(resp.Usage)
		if resp.Content != "" {
			result.Output = resp.Content
		}

		if len(resp.ToolCalls) == 0 {
			a.logger.Debug().Int("iterations", iteration).Msg("Run completed with final answer")
			result.Output = resp.Content
			return result, nil
		}

		history = append(history, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, exec := range a.executeToolCalls(ctx, resp.ToolCalls) {
			history = append(history, llm.NewToolResultMessage(exec.callID, exec.tool, exec.result))
			result.ToolCalls = append(result.ToolCalls, ToolCallRecord{
				Tool:   exec.tool,
				Args:   exec.args,
				Result: exec.result,
			})
			if a.opts.Observer != nil {
				a.opts.Observer(exec.tool, exec.args, exec.result)
			}
		}
	}

	a.logger.Warn().Int("iterations", result.Iterations).Msg("Run hit iteration cap")
	return result, nil
}

// toolExecution is one completed tool call, success or synthetic failure.
type toolExecution struct {
	callID string
	tool   string
	args   map[string]any
	result string
}

// executeToolCalls runs every requested call. Calls run concurrently but
// results are reassembled in the order the backend issued them, so the
// conversation reconstructs deterministically.
func (a *Agent) executeToolCalls(ctx context.Context, calls []llm.ToolCall) []toolExecution {
	results := make([]toolExecution, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			results[i] = a.executeOne(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// executeOne never returns an error: lookup failures, argument validation
// failures, and tool errors all become result strings the model can see.
func (a *Agent) executeOne(ctx context.Context, call llm.ToolCall) toolExecution {
	exec := toolExecution{callID: call.ID, tool: call.Name}

	tool, ok := a.registry.Lookup(call.Name)
	if !ok {
		a.logger.Warn().Str("tool", call.Name).Msg("Unknown tool requested")
		exec.result = fmt.Sprintf("Error: tool %q not found", call.Name)
		return exec
	}

	args, err := tool.ParseArguments(call.RawArguments)
	if err != nil {
		a.logger.Warn().Str("tool", call.Name).Err(err).Msg("Tool argument validation failed")
		exec.result = fmt.Sprintf("Error: invalid arguments for tool %q: %v", call.Name, err)
		return exec
	}
	exec.args = args

	out, err := tool.Execute(ctx, args, a.toolContext(call.ID))
	if err != nil {
		a.logger.Warn().Str("tool", call.Name).Err(err).Msg("Tool execution failed")
		exec.result = fmt.Sprintf("Error: tool %q failed: %v", call.Name, err)
		return exec
	}
	exec.result = renderResult(out)
	a.logger.Debug().Str("tool", call.Name).Msg("Tool executed")
	return exec
}

// renderResult serializes a tool's return value for the conversation.
// Strings pass through; everything else is JSON-encoded.
func renderResult(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
