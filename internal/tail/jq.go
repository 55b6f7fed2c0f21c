package tail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// JQRunner pipes a payload through a jq filter and returns the filtered
// output. Implementations report exec.ErrNotFound when the binary is not
// installed.
type JQRunner func(filter, payload string) (string, error)

// DefaultJQRunner shells out to the jq binary on PATH.
func DefaultJQRunner(filter, payload string) (string, error) {
	cmd := exec.Command("jq", filter)
	cmd.Stdin = strings.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", exec.ErrNotFound
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("jq: %s", msg)
	}
	return stdout.String(), nil
}

// PrintWithJQ writes the payload through the jq filter, falling back to
// the unfiltered payload when jq is missing or the filter fails. The
// fallback is deliberate: a bad filter should not swallow query results.
func PrintWithJQ(w io.Writer, errw io.Writer, run JQRunner, filter, payload string) {
	if run == nil {
		run = DefaultJQRunner
	}

	filtered, err := run(filter, payload)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			fmt.Fprintln(errw, "jq is not installed, printing unfiltered output")
		} else {
			fmt.Fprintf(errw, "%v, printing unfiltered output\n", err)
		}
		writeLine(w, payload)
		return
	}
	writeLine(w, filtered)
}

func writeLine(w io.Writer, s string) {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	io.WriteString(w, s)
}
