package rootfs

import (
	"debug/elf"
	"os"
	"path/filepath"
)

// sharedLibraryClosure parses binPath's ELF dynamic section and resolves
// every DT_NEEDED entry to an absolute path by searching the standard
// library directories, recursively, until no new libraries are found.
//
// No dependency in the example corpus parses ELF files; this uses the
// standard library's debug/elf, which is the only option available (see
// DESIGN.md).
func sharedLibraryClosure(binPath string) ([]string, error) {
	seen := map[string]bool{}
	var closure []string

	var visit func(path string) error
	visit = func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true

		f, err := elf.Open(path)
		if err != nil {
			// Not an ELF binary (e.g. a shell script); nothing to resolve.
			return nil
		}
		defer f.Close()

		needed, err := f.DynString(elf.DT_NEEDED)
		if err != nil {
			// No PT_DYNAMIC section: statically linked, closure is empty.
			return nil
		}

		interp, _ := dynInterp(f)
		if interp != "" && !seen[interp] {
			closure = append(closure, interp)
			seen[interp] = true
		}

		for _, name := range needed {
			resolved := resolveLibrary(name)
			if resolved == "" || seen[resolved] {
				continue
			}
			closure = append(closure, resolved)
			if err := visit(resolved); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(binPath); err != nil {
		return nil, err
	}
	return closure, nil
}

func dynInterp(f *elf.File) (string, error) {
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_INTERP {
			data := make([]byte, prog.Filesz)
			if _, err := prog.ReadAt(data, 0); err != nil {
				return "", err
			}
			// PT_INTERP is a NUL-terminated string.
			for i, b := range data {
				if b == 0 {
					return string(data[:i]), nil
				}
			}
			return string(data), nil
		}
	}
	return "", nil
}

var libSearchDirs = []string{
	"/lib", "/lib64", "/usr/lib", "/usr/lib64",
	"/lib/x86_64-linux-gnu", "/usr/lib/x86_64-linux-gnu",
	"/lib/aarch64-linux-gnu", "/usr/lib/aarch64-linux-gnu",
}

func resolveLibrary(name string) string {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name
		}
		return ""
	}
	for _, dir := range libSearchDirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
