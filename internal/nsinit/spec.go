package nsinit

import "encoding/json"

// Volume is a single bind mount request.
type Volume struct {
	Host      string `json:"host"`
	Container string `json:"container"`
	ReadOnly  bool   `json:"readOnly"`
}

// Spec describes the child process to create. It is round-tripped through
// environment variables across the self re-exec, since the child has no
// other channel to the parent's Go state at this point.
type Spec struct {
	Rootfs   string   `json:"rootfs"`
	Workdir  string   `json:"workdir"`
	Hostname string   `json:"hostname"`
	Env      []string `json:"env"`
	Cmd      []string `json:"cmd"`
	Volumes  []Volume `json:"volumes"`
	Stdin    bool     `json:"stdin"` // true: inherit stdin; false: /dev/null
}

const envSpec = "CUBO_NSINIT_SPEC"

// Marshal encodes s for passing via the environment.
func (s Spec) Marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func specFromEnviron(raw string) (Spec, error) {
	var s Spec
	err := json.Unmarshal([]byte(raw), &s)
	return s, err
}
