package runtime

import (
	"reflect"
	"sort"
	"testing"

	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cubohq/cubo/internal/imagestore"
)

func testImage(env []string, entrypoint, cmd []string, workdir string) *imagestore.Image {
	return &imagestore.Image{
		Config: &v1.Image{
			Config: v1.ImageConfig{
				Env:        env,
				Entrypoint: entrypoint,
				Cmd:        cmd,
				WorkingDir: workdir,
			},
		},
	}
}

func TestMergeImageEnvUserWins(t *testing.T) {
	img := testImage([]string{"FOO=image", "BAR=baz"}, nil, nil, "")
	merged := mergeImageEnv(img, map[string]string{"FOO": "override"})

	if merged["FOO"] != "override" || merged["BAR"] != "baz" {
		t.Fatalf("merge: %+v", merged)
	}
}

func TestResolveCommandPrefersOverride(t *testing.T) {
	img := testImage(nil, []string{"/entry"}, []string{"arg"}, "")

	if got := resolveCommand(img, []string{"/bin/sh"}); !reflect.DeepEqual(got, []string{"/bin/sh"}) {
		t.Fatalf("override: %v", got)
	}
	if got := resolveCommand(img, nil); !reflect.DeepEqual(got, []string{"/entry", "arg"}) {
		t.Fatalf("fallback: %v", got)
	}
}

func TestResolveWorkdirFallsBackToImage(t *testing.T) {
	img := testImage(nil, nil, nil, "/srv")
	if got := resolveWorkdir(img, ""); got != "/srv" {
		t.Fatalf("workdir: %q", got)
	}
	if got := resolveWorkdir(img, "/app"); got != "/app" {
		t.Fatalf("override workdir: %q", got)
	}
}

func TestEnvSliceRoundTrip(t *testing.T) {
	s := envSlice(map[string]string{"A": "1", "B": "2"})
	sort.Strings(s)
	if !reflect.DeepEqual(s, []string{"A=1", "B=2"}) {
		t.Fatalf("envSlice: %v", s)
	}
}
