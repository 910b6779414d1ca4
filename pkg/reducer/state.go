// Package reducer implements the mutation engine: a pure transition function
// from (State, Action) to a new State. Inputs are never mutated; a rejected
// action returns the input state together with a validation or not-found
// error.
package reducer

import (
	"sort"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
)

// State is the owner-keyed collection of learning paths plus the active
// owner pointer. Treat it as immutable: transitions return a new State that
// shares untouched paths with the old one.
type State struct {
	Paths        map[string]*graph.LearningPath
	CurrentOwner string
}

// NewState returns an empty state
func NewState() State {
	return State{Paths: make(map[string]*graph.LearningPath)}
}

// Path returns the path of ownerID, or nil
func (s State) Path(ownerID string) *graph.LearningPath {
	return s.Paths[ownerID]
}

// Current returns the active owner's path, or nil
func (s State) Current() *graph.LearningPath {
	if s.CurrentOwner == "" {
		return nil
	}
	return s.Paths[s.CurrentOwner]
}

// Owners returns every owner id in sorted order
func (s State) Owners() []string {
	owners := make([]string, 0, len(s.Paths))
	for id := range s.Paths {
		owners = append(owners, id)
	}
	sort.Strings(owners)
	return owners
}

// withPath returns a copy of s where ownerID maps to p. The owner map is
// copied; the paths themselves are shared.
func (s State) withPath(ownerID string, p *graph.LearningPath) State {
	paths := make(map[string]*graph.LearningPath, len(s.Paths)+1)
	for id, existing := range s.Paths {
		paths[id] = existing
	}
	paths[ownerID] = p
	return State{Paths: paths, CurrentOwner: s.CurrentOwner}
}

// withoutPath returns a copy of s with ownerID removed
func (s State) withoutPath(ownerID string) State {
	paths := make(map[string]*graph.LearningPath, len(s.Paths))
	for id, existing := range s.Paths {
		if id != ownerID {
			paths[id] = existing
		}
	}
	current := s.CurrentOwner
	if current == ownerID {
		current = ""
	}
	return State{Paths: paths, CurrentOwner: current}
}
