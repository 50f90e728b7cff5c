package buildfile

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseTextBasic(t *testing.T) {
	src := "FROM alpine:latest\nRUN echo hi > /x\nCMD [\"/bin/cat\",\"/x\"]\n"
	plan, err := ParseText(src)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Base != "alpine:latest" {
		t.Fatalf("base: %q", plan.Base)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("steps: %+v", plan.Steps)
	}
	if plan.Steps[0].Kind != StepRun || plan.Steps[0].Command != "echo hi > /x" {
		t.Fatalf("step0: %+v", plan.Steps[0])
	}
	if plan.Steps[1].Kind != StepCmd || !reflect.DeepEqual(plan.Steps[1].Cmd, []string{"/bin/cat", "/x"}) {
		t.Fatalf("step1: %+v", plan.Steps[1])
	}
}

func TestParseTextEnvBothForms(t *testing.T) {
	src := "FROM alpine\nENV FOO=bar\nENV BAZ qux\n"
	plan, err := ParseText(src)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Steps[0].Key != "FOO" || plan.Steps[0].Value != "bar" {
		t.Fatalf("step0: %+v", plan.Steps[0])
	}
	if plan.Steps[1].Key != "BAZ" || plan.Steps[1].Value != "qux" {
		t.Fatalf("step1: %+v", plan.Steps[1])
	}
}

func TestParseTextContinuation(t *testing.T) {
	src := "FROM alpine\nRUN echo one && \\\n    echo two\n"
	plan, err := ParseText(src)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Steps[0].Command != "echo one &&     echo two" {
		t.Fatalf("continuation merge: %q", plan.Steps[0].Command)
	}
}

func TestParseTextCaseInsensitive(t *testing.T) {
	src := "from alpine\nrun echo hi\n"
	plan, err := ParseText(src)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Base != "alpine" || plan.Steps[0].Kind != StepRun {
		t.Fatalf("plan: %+v", plan)
	}
}

func TestParseTextMissingFrom(t *testing.T) {
	_, err := ParseText("RUN echo hi\n")
	if !errors.Is(err, ErrMissingFrom) {
		t.Fatalf("expected ErrMissingFrom, got %v", err)
	}
}

func TestParseTextUnknownInstruction(t *testing.T) {
	_, err := ParseText("FROM alpine\nBOGUS foo\n")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseTextMalformedEnv(t *testing.T) {
	_, err := ParseText("FROM alpine\nENV NOVALUE\n")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestTextAndTOMLRoundTripEquivalence(t *testing.T) {
	text := "FROM alpine:latest\nRUN echo hi\nCOPY app /srv/app\nENV FOO=bar\nWORKDIR /srv\nEXPOSE 8080/tcp\nCMD [\"/bin/sh\",\"-c\",\"run\"]\n"
	textPlan, err := ParseText(text)
	if err != nil {
		t.Fatal(err)
	}

	doc := `
[image]
base = "alpine:latest"

[[config.run]]
command = "echo hi"

[[config.copy]]
src = "app"
dest = "/srv/app"

[config]
workdir = "/srv"
expose = ["8080/tcp"]

[config.cmd]
command = ["/bin/sh", "-c", "run"]

[config.env]
FOO = "bar"
`
	tomlPlan, err := ParseTOML([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(textPlan, tomlPlan) {
		t.Fatalf("plans differ:\ntext=%+v\ntoml=%+v", textPlan, tomlPlan)
	}
}
