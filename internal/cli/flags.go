package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cubohq/cubo/internal/containerstore"
)

// parseVolume parses "host_path:container_path[:ro]" into a Volume.
func parseVolume(s string) (containerstore.Volume, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return containerstore.Volume{}, fmt.Errorf("%w: malformed volume %q, expected host_path:container_path[:ro]", ErrUsage, s)
	}
	if parts[0] == "" || parts[1] == "" {
		return containerstore.Volume{}, fmt.Errorf("%w: malformed volume %q", ErrUsage, s)
	}

	v := containerstore.Volume{HostPath: parts[0], ContainerPath: parts[1]}
	if len(parts) == 3 {
		if parts[2] != "ro" {
			return containerstore.Volume{}, fmt.Errorf("%w: unknown volume modifier %q, expected \"ro\"", ErrUsage, parts[2])
		}
		v.ReadOnly = true
	}
	return v, nil
}

// parsePort parses "host:container[/tcp|/udp]" into a Port, defaulting
// to tcp when no protocol suffix is given.
func parsePort(s string) (containerstore.Port, error) {
	proto := "tcp"
	spec := s
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		proto = s[i+1:]
		spec = s[:i]
		if proto != "tcp" && proto != "udp" {
			return containerstore.Port{}, fmt.Errorf("%w: unknown port protocol %q, expected tcp or udp", ErrUsage, proto)
		}
	}

	host, container, ok := strings.Cut(spec, ":")
	if !ok {
		return containerstore.Port{}, fmt.Errorf("%w: malformed port %q, expected host:container[/tcp|/udp]", ErrUsage, s)
	}

	hostPort, err := strconv.Atoi(host)
	if err != nil {
		return containerstore.Port{}, fmt.Errorf("%w: malformed host port %q", ErrUsage, host)
	}
	containerPort, err := strconv.Atoi(container)
	if err != nil {
		return containerstore.Port{}, fmt.Errorf("%w: malformed container port %q", ErrUsage, container)
	}

	return containerstore.Port{HostPort: hostPort, ContainerPort: containerPort, Protocol: proto}, nil
}

// parseEnv parses "KEY=VALUE" into its key/value pair.
func parseEnv(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: malformed env %q, expected KEY=VALUE", ErrUsage, s)
	}
	return key, value, nil
}

func parseVolumes(specs []string) ([]containerstore.Volume, error) {
	out := make([]containerstore.Volume, 0, len(specs))
	for _, s := range specs {
		v, err := parseVolume(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parsePorts(specs []string) ([]containerstore.Port, error) {
	out := make([]containerstore.Port, 0, len(specs))
	for _, s := range specs {
		p, err := parsePort(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseEnvs(specs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, s := range specs {
		k, v, err := parseEnv(s)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
