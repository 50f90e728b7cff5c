package containerstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/paths"
)

// Store persists container bundles directly under root, one directory per
// container id, matching the ContainerBundle layout: <root>/<id>/{config.json,
// state.json, rootfs/, logs/}.
type Store struct {
	root string
}

// New returns a Store rooted at root, which must already exist (see
// paths.Root).
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) BundleDir(id string) string { return filepath.Join(s.root, id) }
func (s *Store) RootfsDir(id string) string { return filepath.Join(s.BundleDir(id), "rootfs") }
func (s *Store) LogsDir(id string) string   { return filepath.Join(s.BundleDir(id), "logs") }
func (s *Store) configPath(id string) string { return filepath.Join(s.BundleDir(id), "config.json") }
func (s *Store) statePath(id string) string  { return filepath.Join(s.BundleDir(id), "state.json") }

// Create makes the bundle directory (and its rootfs/logs subdirectories),
// writes config.json, and writes an initial state.json with status
// "created". The caller is responsible for populating rootfs/ before any
// start operation.
func (s *Store) Create(cfg Config) error {
	bundle := s.BundleDir(cfg.ID)
	for _, dir := range []string{bundle, s.RootfsDir(cfg.ID), s.LogsDir(cfg.ID)} {
		if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
			return errkit.Wrapf(ErrCorrupt, err, "creating bundle directory for %s", cfg.ID)
		}
	}

	if err := paths.WriteJSONAtomic(s.configPath(cfg.ID), cfg); err != nil {
		return errkit.Wrapf(ErrCorrupt, err, "writing config for %s", cfg.ID)
	}

	annotations := map[string]string{}
	if cfg.Name != "" {
		annotations["name"] = cfg.Name
	}

	st := State{
		Version:     specs.Version,
		ID:          cfg.ID,
		Status:      StatusCreated,
		Bundle:      bundle,
		Annotations: annotations,
	}
	return s.SaveState(cfg.ID, st)
}

// SaveState overwrites state.json atomically.
func (s *Store) SaveState(id string, st State) error {
	if err := paths.WriteJSONAtomic(s.statePath(id), st); err != nil {
		return errkit.Wrapf(ErrCorrupt, err, "writing state for %s", id)
	}
	return nil
}

// LoadState reads state.json.
func (s *Store) LoadState(id string) (State, error) {
	var st State
	if err := paths.ReadJSON(s.statePath(id), &st); err != nil {
		if os.IsNotExist(err) {
			return State{}, errkit.Wrap(ErrNotFound, err)
		}
		return State{}, errkit.Wrapf(ErrCorrupt, err, "reading state for %s", id)
	}
	return st, nil
}

// LoadConfig reads config.json.
func (s *Store) LoadConfig(id string) (Config, error) {
	var cfg Config
	if err := paths.ReadJSON(s.configPath(id), &cfg); err != nil {
		if os.IsNotExist(err) {
			return Config{}, errkit.Wrap(ErrNotFound, err)
		}
		return Config{}, errkit.Wrapf(ErrCorrupt, err, "reading config for %s", id)
	}
	return cfg, nil
}

// List returns every container bundle under root, optionally excluding
// those with status stopped. A bundle whose config or state cannot be
// parsed is skipped rather than failing the whole listing; startup
// reconciliation is what repairs such bundles.
func (s *Store) List(includeStopped bool) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		id := de.Name()

		cfg, err := s.LoadConfig(id)
		if err != nil {
			continue
		}
		st, err := s.LoadState(id)
		if err != nil {
			continue
		}
		if !includeStopped && st.Status == StatusStopped {
			continue
		}
		out = append(out, Entry{Config: cfg, State: st})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Config.CreatedAt.Before(out[j].Config.CreatedAt)
	})
	return out, nil
}

// Delete removes a container's bundle directory entirely.
func (s *Store) Delete(id string) error {
	if err := os.RemoveAll(s.BundleDir(id)); err != nil {
		return errkit.Wrapf(ErrCorrupt, err, "removing bundle for %s", id)
	}
	return nil
}

// Resolve maps an id-or-name argument to a full container id: an exact id
// match wins outright, then an unambiguous id prefix, then an exact name
// match against each bundle's config.
func (s *Store) Resolve(idOrName string) (string, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}

	var prefixMatches []string
	var nameMatch string

	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		id := de.Name()
		if id == idOrName {
			return id, nil
		}
		if strings.HasPrefix(id, idOrName) {
			prefixMatches = append(prefixMatches, id)
		}

		cfg, err := s.LoadConfig(id)
		if err == nil && cfg.Name == idOrName {
			nameMatch = id
		}
	}

	switch len(prefixMatches) {
	case 0:
		if nameMatch != "" {
			return nameMatch, nil
		}
		return "", ErrNotFound
	case 1:
		return prefixMatches[0], nil
	default:
		return "", ErrAmbiguousID
	}
}
