package registry

import "testing"

func TestParseChallenge(t *testing.T) {
	header := `Bearer realm="https://auth.docker.io/token",service="registry.docker.io",scope="repository:library/alpine:pull"`
	ch, ok := parseChallenge(header)
	if !ok {
		t.Fatal("expected challenge to parse")
	}
	if ch.realm != "https://auth.docker.io/token" {
		t.Errorf("realm: got %q", ch.realm)
	}
	if ch.service != "registry.docker.io" {
		t.Errorf("service: got %q", ch.service)
	}
	if ch.scope != "repository:library/alpine:pull" {
		t.Errorf("scope: got %q", ch.scope)
	}
}

func TestParseChallengeNotBearer(t *testing.T) {
	if _, ok := parseChallenge(`Basic realm="x"`); ok {
		t.Fatal("expected Basic challenge to be rejected")
	}
}

func TestIsIndex(t *testing.T) {
	listBody := []byte(`{"mediaType":"application/vnd.docker.distribution.manifest.list.v2+json","manifests":[{"digest":"sha256:abc"}]}`)
	if !isIndex("", listBody) {
		t.Fatal("expected body-sniffed index detection")
	}

	manifestBody := []byte(`{"mediaType":"application/vnd.oci.image.manifest.v1+json","layers":[]}`)
	if isIndex("", manifestBody) {
		t.Fatal("plain manifest misdetected as index")
	}
}
