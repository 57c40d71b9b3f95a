package rules

import (
	"fmt"
	"hash/crc32"
	"sort"
	"sync"

	"github.com/codewithboateng/champlint/internal/ir"
)

var (
	mu        sync.RWMutex
	registry  []Rule
	ruleIndex = map[string]int{} // lower(ruleID) -> index
)

// Register adds a rule, replacing any earlier rule with the same id.
func Register(r Rule) {
	mu.Lock()
	defer mu.Unlock()
	key := normID(r.ID)
	if i, ok := ruleIndex[key]; ok {
		registry[i] = r
		return
	}
	registry = append(registry, r)
	ruleIndex[key] = len(registry) - 1
}

// List returns the rules enabled by s, sorted by id.
func List(s Settings) []Rule {
	mu.RLock()
	defer mu.RUnlock()
	s = s.withDefaults()
	out := make([]Rule, 0, len(registry))
	for _, r := range registry {
		if !s.enabled(r.ID) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns every registered rule, sorted by id.
func All() []Rule {
	return List(Settings{})
}

// Get returns a rule by id if registered.
func Get(id string) (Rule, bool) {
	mu.RLock()
	defer mu.RUnlock()
	idx, ok := ruleIndex[normID(id)]
	if !ok || idx < 0 || idx >= len(registry) {
		return Rule{}, false
	}
	return registry[idx], true
}

func makeID(ruleID string, loc ir.Location, test, evidence string) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%s|%s", ruleID, loc.File, loc.Line, loc.Column, test, evidence)
	sum := crc32.ChecksumIEEE([]byte(data))
	return fmt.Sprintf("%s-%08x", ruleID, sum)
}
