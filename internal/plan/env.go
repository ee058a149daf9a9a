package plan

import (
	"fmt"
	"os"
	"sort"

	"github.com/ujichase/orbit/internal/ipgraph"
)

// Environment is the ORBIT_* variable set exported to targets during
// build and test runs.
type Environment map[string]string

// BuildEnvironment assembles the variables a target process receives.
func BuildEnvironment(local *ipgraph.Ip, catalogRoot, targetDir, target, blueprintPath string) Environment {
	env := Environment{
		"ORBIT_HOME":         catalogRoot,
		"ORBIT_TARGET_DIR":   targetDir,
		"ORBIT_TARGET":       target,
		"ORBIT_IP_NAME":      local.Name.String(),
		"ORBIT_IP_VERSION":   local.Version.String(),
		"ORBIT_IP_LIBRARY":   local.Library(),
		"ORBIT_BLUEPRINT":    blueprintPath,
		"ORBIT_MANIFEST_DIR": local.Root,
	}
	return env
}

// WithUnit attaches a unit's JSON description under the given role
// (TOP, DUT, TB).
func (e Environment) WithUnit(role, unitJson string) Environment {
	if unitJson != "" {
		e["ORBIT_"+role+"_JSON"] = unitJson
	}
	return e
}

// Apply sets the variables on the current process (inherited by
// spawned targets).
func (e Environment) Apply() error {
	for key, value := range e {
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}

// Sorted returns "KEY=value" lines in key order for display.
func (e Environment) Sorted() []string {
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, key := range keys {
		lines[i] = key + "=" + e[key]
	}
	return lines
}
