// Package migrate runs the schema setup of the configured datastore.
package migrate

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/config"
)

// Migrator creates or upgrades the collections, tables and indexes one
// datastore needs.
type Migrator interface {
	Name() string
	Migrate(ctx context.Context) error
}

// Plugin is a registered migrator. Store restricts it to one datastore type;
// an empty Store runs for every datastore.
type Plugin struct {
	Store    string
	Order    int
	Migrator Migrator
}

var plugins []Plugin

// Register adds a migrator. Store packages call it from init.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Pending returns the migrators RunAll would execute for datastore, in order.
func Pending(datastore string) []Migrator {
	var selected []Plugin
	for _, p := range plugins {
		if p.Store == "" || p.Store == datastore {
			selected = append(selected, p)
		}
	}
	slices.SortStableFunc(selected, func(a, b Plugin) int { return cmp.Compare(a.Order, b.Order) })
	out := make([]Migrator, len(selected))
	for i, p := range selected {
		out[i] = p.Migrator
	}
	return out
}

// RunAll executes the migrators of the datastore configured in ctx and stops
// at the first failure.
func RunAll(ctx context.Context) error {
	datastore := ""
	if cfg := config.FromContext(ctx); cfg != nil {
		datastore = cfg.DatastoreType
	}
	for _, m := range Pending(datastore) {
		start := time.Now()
		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Name(), err)
		}
		log.Debug("Migration finished", "name", m.Name(), "duration", time.Since(start))
	}
	return nil
}
