// Package seed installs the built-in configuration into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/confvault/internal/manager"
	"github.com/alfredjeanlab/confvault/internal/model"
)

// Description is recorded on every version written by Bootstrap.
const Description = "Initial bootstrap"

// Bootstrap saves Defaults into a fresh store. It reports whether anything
// was written.
func Bootstrap(ctx context.Context, m *manager.Manager) (bool, error) {
	return Apply(ctx, m, Defaults())
}

// Apply saves set when the store holds no agents and none of set's agents
// has ledger history. A store whose agents were all deleted is not fresh.
func Apply(ctx context.Context, m *manager.Manager, set Set) (bool, error) {
	agents, err := m.List(ctx, model.KindAgent)
	if err != nil {
		return false, fmt.Errorf("bootstrap: list agents: %w", err)
	}
	if len(agents) > 0 {
		return false, nil
	}
	for _, a := range set.Agents {
		hist, err := m.History(ctx, model.KindAgent, a.ID)
		if err != nil {
			return false, fmt.Errorf("bootstrap: history of agent %q: %w", a.ID, err)
		}
		if len(hist) > 0 {
			slog.Debug("skipping bootstrap, agent has history", "agent", a.ID)
			return false, nil
		}
	}

	entities := set.Entities()
	for _, e := range entities {
		if _, err := m.Save(ctx, e, Description); err != nil {
			return false, fmt.Errorf("bootstrap %s %q: %w", e.EntityKind(), e.Base().ID, err)
		}
	}
	slog.Info("bootstrapped default configuration", "entities", len(entities))
	return true, nil
}
