package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider is returned by Select for provider names that are not
// recognised.
var ErrUnknownProvider = errors.New("unknown provider")

// Set holds the providers selected for a server.
type Set struct {
	Spawners Spawners
	Stackers []Stackers
}

// Select resolves the spawner provider and stacked block provider names from
// the configuration. It is called once at startup. The built-in registry and
// database passed are used for the "builtin" and "sqlite" names respectively;
// db may be nil if "sqlite" is not selected. The built-in registry is always
// consulted for stacked blocks, as it holds the stacks placed on the server
// itself.
func Select(spawners string, stackers []string, builtin *Stacks, db *StackDB) (Set, error) {
	var set Set
	switch strings.ToLower(strings.TrimSpace(spawners)) {
	case "", "default", "none":
		set.Spawners = DefaultSpawners{}
	case "sqlite":
		if db == nil {
			return set, fmt.Errorf("spawner provider sqlite: no stack database configured")
		}
		set.Spawners = db
	default:
		return set, fmt.Errorf("spawner provider %q: %w", spawners, ErrUnknownProvider)
	}

	if builtin != nil {
		set.Stackers = append(set.Stackers, builtin)
	}
	for _, name := range stackers {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "", "none", "builtin":
			// The built-in registry is already included.
		case "sqlite":
			if db == nil {
				return set, fmt.Errorf("stacked block provider sqlite: no stack database configured")
			}
			set.Stackers = append(set.Stackers, db)
		default:
			return set, fmt.Errorf("stacked block provider %q: %w", name, ErrUnknownProvider)
		}
	}
	return set, nil
}
