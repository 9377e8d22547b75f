package core

import (
	"fmt"
	"slices"
	"sync"

	"github.com/salvationministries/console/internal/session"
)

// groupOrder is the sidebar order of resource groups. Unlisted groups sort
// after these, alphabetically.
var groupOrder = []string{
	session.GroupFinance,
	session.GroupPeople,
	session.GroupContent,
	session.GroupMedia,
	session.GroupStore,
}

var (
	registry   = make(map[string]ResourceDefinition)
	registered []string // keys in registration order
	registryMu sync.RWMutex
)

// Register adds a resource definition to the registry.
// Panics if a resource with the same key is already registered or the
// definition has no list endpoint.
func Register(def ResourceDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("resource already registered: %s", def.Info.Key))
	}
	if def.Endpoints.List.Path == "" {
		panic(fmt.Sprintf("resource %s has no list endpoint", def.Info.Key))
	}

	// Fill labels so columns and exports always have a header.
	fields := make([]FieldSpec, len(def.Fields))
	for i, f := range def.Fields {
		f.Label = f.label()
		fields[i] = f
	}
	def.Fields = fields

	if def.Info.Subject == "" {
		def.Info.Subject = def.Info.Label
	}

	registry[def.Info.Key] = def
	registered = append(registered, def.Info.Key)
}

// Get returns a resource definition by key.
func Get(key string) (ResourceDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns every registered resource, grouped in sidebar order and in
// registration order within a group.
func All() []ResourceDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ResourceDefinition, 0, len(registered))
	for _, key := range registered {
		result = append(result, registry[key])
	}
	slices.SortStableFunc(result, func(a, b ResourceDefinition) int {
		return compareGroups(a.Info.Group, b.Info.Group)
	})
	return result
}

// ByGroup returns the resources of one group in registration order.
func ByGroup(group string) []ResourceDefinition {
	var result []ResourceDefinition
	for _, def := range All() {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}
	return result
}

// Groups returns the groups that have at least one resource, in sidebar order.
func Groups() []string {
	var groups []string
	for _, def := range All() {
		if !slices.Contains(groups, def.Info.Group) {
			groups = append(groups, def.Info.Group)
		}
	}
	return groups
}

func compareGroups(a, b string) int {
	ra, rb := groupRank(a), groupRank(b)
	if ra != rb {
		return ra - rb
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func groupRank(group string) int {
	if i := slices.Index(groupOrder, group); i >= 0 {
		return i
	}
	return len(groupOrder)
}

// Count returns the number of registered resources.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered resources. Used by tests.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]ResourceDefinition)
	registered = nil
}
