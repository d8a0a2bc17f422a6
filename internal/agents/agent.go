// Package agents holds the role-specialised conversational agents that sit
// on top of the oracle gateway.
package agents

import (
	"context"
	"fmt"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/types"
)

// Conversant is the capability shared by every agent role.
type Conversant interface {
	Respond(ctx context.Context, prompt string) string
	Reset(ctx context.Context)
	Memory() []types.Turn
}

// Agent is a system prompt plus the running conversation with the oracle.
type Agent struct {
	role   string
	system string
	oracle interfaces.Oracle
	memory []types.Turn
}

func newAgent(role, system string, oracle interfaces.Oracle) *Agent {
	return &Agent{
		role:   role,
		system: system,
		oracle: oracle,
		memory: []types.Turn{{Role: types.RoleSystem, Content: system}},
	}
}

// Respond sends prompt with the full history and records both turns.
func (a *Agent) Respond(ctx context.Context, prompt string) string {
	user := types.Turn{Role: types.RoleUser, Content: prompt}
	turns := make([]types.Turn, 0, len(a.memory)+1)
	turns = append(turns, a.memory...)
	turns = append(turns, user)

	reply := a.oracle.Converse(ctx, turns)
	a.memory = append(a.memory, user, types.Turn{Role: types.RoleAssistant, Content: reply})
	return reply
}

// Ask sends a one-off prompt that does not touch memory.
func (a *Agent) Ask(ctx context.Context, prompt string) string {
	return a.oracle.Converse(ctx, []types.Turn{
		{Role: types.RoleSystem, Content: a.system},
		{Role: types.RoleUser, Content: prompt},
	})
}

const closingPrompt = "Your context is about to be cleared. Summarise what you have learned so far in a few sentences so you can continue the work."

// Reset asks for a closing summary, then restarts memory from the system
// prompt carrying that summary forward.
func (a *Agent) Reset(ctx context.Context) {
	summary := a.Respond(ctx, closingPrompt)
	a.memory = []types.Turn{
		{Role: types.RoleSystem, Content: a.system},
		{Role: types.RoleSystem, Content: fmt.Sprintf("Summary of your previous session: %s", summary)},
	}
	logger.Info(ctx, "Agent memory reset", "role", a.role)
}

// Memory returns a copy of the conversation log.
func (a *Agent) Memory() []types.Turn {
	out := make([]types.Turn, len(a.memory))
	copy(out, a.memory)
	return out
}

// Compact resets the agent once its memory holds more than maxTurns turns.
func (a *Agent) Compact(ctx context.Context, maxTurns int) {
	if maxTurns > 0 && len(a.memory) > maxTurns {
		a.Reset(ctx)
	}
}
