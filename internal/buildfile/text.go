package buildfile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseText parses the line-based build-file grammar: one logical line
// per instruction, `\` continuation, `#` comments, case-insensitive
// keywords, FROM/BASE required before any other instruction.
func ParseText(content string) (*Plan, error) {
	lines := joinContinuations(content)

	plan := &Plan{}
	haveBase := false

	for n, line := range lines {
		lineNo := n + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		keyword, rest := splitKeyword(trimmed)
		upper := strings.ToUpper(keyword)

		if upper != "FROM" && upper != "BASE" && !haveBase {
			return nil, fmt.Errorf("%w: line %d: instruction %q before FROM", ErrMissingFrom, lineNo, keyword)
		}

		switch upper {
		case "FROM", "BASE":
			if rest == "" {
				return nil, fmt.Errorf("%w: line %d: FROM requires an image reference", ErrParse, lineNo)
			}
			plan.Base = rest
			haveBase = true

		case "RUN":
			if rest == "" {
				return nil, fmt.Errorf("%w: line %d: RUN requires a command", ErrParse, lineNo)
			}
			plan.Steps = append(plan.Steps, Step{Kind: StepRun, Command: rest})

		case "COPY":
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				return nil, fmt.Errorf("%w: line %d: COPY requires exactly <src> <dest>", ErrParse, lineNo)
			}
			plan.Steps = append(plan.Steps, Step{Kind: StepCopy, Src: fields[0], Dest: fields[1]})

		case "ENV":
			key, value, err := parseEnv(rest)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", ErrParse, lineNo, err)
			}
			plan.Steps = append(plan.Steps, Step{Kind: StepEnv, Key: key, Value: value})

		case "WORKDIR":
			if rest == "" {
				return nil, fmt.Errorf("%w: line %d: WORKDIR requires a path", ErrParse, lineNo)
			}
			plan.Steps = append(plan.Steps, Step{Kind: StepWorkdir, Path: rest})

		case "EXPOSE":
			if rest == "" {
				return nil, fmt.Errorf("%w: line %d: EXPOSE requires a port", ErrParse, lineNo)
			}
			plan.Steps = append(plan.Steps, Step{Kind: StepExpose, Port: rest})

		case "CMD":
			cmd, err := parseCmd(rest)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", ErrParse, lineNo, err)
			}
			plan.Steps = append(plan.Steps, Step{Kind: StepCmd, Cmd: cmd})

		default:
			return nil, fmt.Errorf("%w: line %d: unknown instruction %q", ErrParse, lineNo, keyword)
		}
	}

	if !haveBase {
		return nil, fmt.Errorf("%w: missing FROM/BASE instruction", ErrMissingFrom)
	}

	return plan, nil
}

// joinContinuations splits content into physical lines and merges any
// line ending in "\" with the line that follows it. The backslash is
// dropped and the two lines are joined as-is, with no separator added.
func joinContinuations(content string) []string {
	raw := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var lines []string
	var pending strings.Builder

	for _, line := range raw {
		trimmedRight := strings.TrimRight(line, " \t")
		if strings.HasSuffix(trimmedRight, "\\") {
			pending.WriteString(strings.TrimSuffix(trimmedRight, "\\"))
			continue
		}
		pending.WriteString(line)
		lines = append(lines, pending.String())
		pending.Reset()
	}
	if pending.Len() > 0 {
		lines = append(lines, pending.String())
	}
	return lines
}

func splitKeyword(line string) (keyword, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// parseEnv accepts both "KEY VALUE" and "KEY=VALUE" forms.
func parseEnv(rest string) (key, value string, err error) {
	if rest == "" {
		return "", "", fmt.Errorf("ENV requires a key")
	}
	if i := strings.IndexByte(rest, '='); i > 0 {
		return rest[:i], rest[i+1:], nil
	}
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) != 2 || fields[0] == "" {
		return "", "", fmt.Errorf("malformed ENV %q: expected KEY VALUE or KEY=VALUE", rest)
	}
	return fields[0], strings.TrimSpace(fields[1]), nil
}

// parseCmd accepts a JSON array of strings or a raw shell string, which is
// wrapped as ["/bin/sh", "-c", rest].
func parseCmd(rest string) ([]string, error) {
	trimmed := strings.TrimSpace(rest)
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			return nil, fmt.Errorf("malformed CMD JSON array: %s", err)
		}
		return arr, nil
	}
	if trimmed == "" {
		return nil, fmt.Errorf("CMD requires a command")
	}
	return []string{"/bin/sh", "-c", trimmed}, nil
}
