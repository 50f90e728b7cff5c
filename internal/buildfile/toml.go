package buildfile

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// tomlDocument mirrors the structured grammar described in §4.5:
// [image].base, and a [config] block holding [[config.run]],
// [[config.copy]], workdir, expose, env, and an optional [config.cmd]
// table whose command key holds the argv array.
type tomlDocument struct {
	Image struct {
		Base string `toml:"base"`
	} `toml:"image"`

	Config struct {
		Run []struct {
			Command string `toml:"command"`
		} `toml:"run"`

		Copy []struct {
			Src  string `toml:"src"`
			Dest string `toml:"dest"`
		} `toml:"copy"`

		Env     map[string]string `toml:"env"`
		Workdir string             `toml:"workdir"`
		Expose  []string           `toml:"expose"`

		Cmd struct {
			Command []string `toml:"command"`
		} `toml:"cmd"`
	} `toml:"config"`
}

// ParseTOML parses the structured table-document build-file grammar.
//
// Execution order within the structured grammar is fixed (since TOML's
// separate arrays do not preserve cross-array declaration order the way
// interleaved text-grammar lines do): all [[config.run]] steps in file
// order, then all [[config.copy]] steps in file order, then the
// config-only steps (env, workdir, expose, cmd) derived from the rest
// of the [config] block.
func ParseTOML(data []byte) (*Plan, error) {
	var doc tomlDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}
	if doc.Image.Base == "" {
		return nil, fmt.Errorf("%w: [image].base is required", ErrMissingFrom)
	}

	plan := &Plan{Base: doc.Image.Base}

	for _, r := range doc.Config.Run {
		if r.Command == "" {
			return nil, fmt.Errorf("%w: [[config.run]] entry missing command", ErrParse)
		}
		plan.Steps = append(plan.Steps, Step{Kind: StepRun, Command: r.Command})
	}

	for _, c := range doc.Config.Copy {
		if c.Src == "" || c.Dest == "" {
			return nil, fmt.Errorf("%w: [[config.copy]] entry requires src and dest", ErrParse)
		}
		plan.Steps = append(plan.Steps, Step{Kind: StepCopy, Src: c.Src, Dest: c.Dest})
	}

	keys := make([]string, 0, len(doc.Config.Env))
	for k := range doc.Config.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		plan.Steps = append(plan.Steps, Step{Kind: StepEnv, Key: k, Value: doc.Config.Env[k]})
	}

	if doc.Config.Workdir != "" {
		plan.Steps = append(plan.Steps, Step{Kind: StepWorkdir, Path: doc.Config.Workdir})
	}
	for _, p := range doc.Config.Expose {
		plan.Steps = append(plan.Steps, Step{Kind: StepExpose, Port: p})
	}
	if len(doc.Config.Cmd.Command) > 0 {
		plan.Steps = append(plan.Steps, Step{Kind: StepCmd, Cmd: doc.Config.Cmd.Command})
	}

	return plan, nil
}
