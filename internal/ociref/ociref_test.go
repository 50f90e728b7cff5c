package ociref

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in         string
		registry   string
		repository string
		tag        string
	}{
		{"alpine:latest", DefaultRegistryHost, "library/alpine", "latest"},
		{"alpine", DefaultRegistryHost, "library/alpine", "latest"},
		{"ghcr.io/owner/image:v1", "ghcr.io", "owner/image", "v1"},
		{"localhost:5000/foo:bar", "localhost:5000", "foo", "bar"},
		{"quay.io/org/repo", "quay.io", "org/repo", "latest"},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			ref, err := Parse(c.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", c.in, err)
			}
			if ref.Registry != c.registry {
				t.Errorf("registry: got %q want %q", ref.Registry, c.registry)
			}
			if ref.Repository != c.repository {
				t.Errorf("repository: got %q want %q", ref.Repository, c.repository)
			}
			if ref.Tag != c.tag {
				t.Errorf("tag: got %q want %q", ref.Tag, c.tag)
			}
		})
	}
}

func TestSanitized(t *testing.T) {
	ref, err := Parse("alpine:latest")
	if err != nil {
		t.Fatal(err)
	}
	got := ref.Sanitized()
	if got == "" {
		t.Fatal("empty sanitized name")
	}
	for _, c := range []byte{'/', ':'} {
		for i := 0; i < len(got); i++ {
			if got[i] == c {
				t.Fatalf("sanitized name %q still contains %q", got, string(c))
			}
		}
	}
}
