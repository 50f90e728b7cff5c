package containerstore

import "time"

// Status is one of the container lifecycle states.
type Status string

const (
	StatusCreating Status = "creating"
	StatusCreated  Status = "created"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusPaused   Status = "paused"
	StatusUnknown  Status = "unknown"
)

// Volume is a single bind mount request attached to a container.
type Volume struct {
	HostPath      string `json:"hostPath"`
	ContainerPath string `json:"containerPath"`
	ReadOnly      bool   `json:"readOnly"`
}

// Port is a single published port mapping.
type Port struct {
	HostPort      int    `json:"hostPort"`
	ContainerPort int    `json:"containerPort"`
	Protocol      string `json:"protocol"` // "tcp" or "udp"
}

// Config is the persisted, immutable-after-create description of a
// container: config.json in its bundle directory.
type Config struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Image       string            `json:"image"`
	Command     []string          `json:"command"`
	Env         map[string]string `json:"env,omitempty"`
	Workdir     string            `json:"workdir,omitempty"`
	Volumes     []Volume          `json:"volumes,omitempty"`
	Ports       []Port            `json:"ports,omitempty"`
	Interactive bool              `json:"interactive"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// State is the persisted OCI-shaped runtime state: state.json in the
// bundle directory. Its fields carry the same JSON names as the OCI
// runtime-spec State (ociVersion/id/status/pid/bundle/annotations), and it
// adds the timestamps and exit code the data model also requires.
type State struct {
	Version     string            `json:"ociVersion"`
	ID          string            `json:"id"`
	Status      Status            `json:"status"`
	Pid         int               `json:"pid,omitempty"`
	Bundle      string            `json:"bundle"`
	Annotations map[string]string `json:"annotations,omitempty"`

	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExitCode   *int       `json:"exitCode,omitempty"`
}

// Entry bundles a container's config and current state together, as
// returned by List.
type Entry struct {
	Config Config
	State  State
}
