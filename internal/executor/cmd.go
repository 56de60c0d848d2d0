package executor

import (
	"encoding/json"
	"fmt"

	"github.com/google/shlex"
	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

// Cmd is the argv a local or agent task body resolves to. It accepts
// either a single shell-style command line (split with shlex, the same
// approach the wider Go ecosystem reaches for — it sits in the
// kedacore-keda pack's dependency graph) or an explicit argument list,
// mirroring original_source/src/executors/local_executor.rs's
// `Cmd::Split`/`Cmd::generate`.
type Cmd []string

// UnmarshalJSON accepts a JSON string or a JSON array of strings.
func (c *Cmd) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parts, err := shlex.Split(s)
		if err != nil {
			return fmt.Errorf("split command %q: %w", s, err)
		}
		*c = parts
		return nil
	}
	var argv []string
	if err := json.Unmarshal(data, &argv); err != nil {
		return fmt.Errorf("command must be a string or array of strings: %w", err)
	}
	*c = argv
	return nil
}

// MarshalJSON renders the argument list back to a JSON array.
func (c Cmd) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(c))
}

// Expand applies vm's substitutions to every argument, the Go analogue of
// original_source's Cmd::generate.
func (c Cmd) Expand(vm domain.VarMap) []string {
	out := make([]string, len(c))
	for i, arg := range c {
		out[i] = vm.ApplyTo(arg)
	}
	return out
}
