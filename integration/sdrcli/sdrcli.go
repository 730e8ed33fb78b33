// Package sdrcli runs the sdr binary installed in the PATH.
package sdrcli

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

const binary = "sdr"

type Runner struct {
	command string
	args    []string
	env     []string
	stdin   string
	timeout time.Duration
}

// Result of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func Command(command string, args ...string) *Runner {
	return &Runner{command: command, args: args, timeout: time.Minute}
}

func (b *Runner) WithEnv(env ...string) *Runner {
	b.env = append(b.env, env...)
	return b
}

func (b *Runner) WithStdin(stdin string) *Runner {
	b.stdin = stdin
	return b
}

// Run runs the command. A non-zero exit code is not an error, it is reported
// in the result.
func (b *Runner) Run(t *testing.T) (*Result, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := b.exec(ctx, &stdout, &stderr)

	start := time.Now()
	err := cmd.Run()
	t.Logf("%s %s ran in %s", binary, b.command, time.Since(start))

	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", binary, b.command)
	}
	return res, nil
}

func (b *Runner) RunOrFail(t *testing.T) *Result {
	t.Helper()
	res, err := b.Run(t)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func (b *Runner) exec(ctx context.Context, stdout, stderr io.Writer) *exec.Cmd {
	args := append([]string{b.command}, b.args...)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(removeAppEnvs(os.Environ()), b.env...)
	cmd.Stdin = strings.NewReader(b.stdin)

	// Buffers are wrapped so a command killed by the timeout does not
	// keep go test waiting for its descriptors.
	// See https://github.com/golang/go/issues/23019
	cmd.Stdout = struct{ io.Writer }{stdout}
	cmd.Stderr = struct{ io.Writer }{stderr}

	return cmd
}

func removeAppEnvs(env []string) []string {
	var clean []string

	for _, value := range env {
		if !strings.HasPrefix(value, "SDR_CLIENT_") {
			clean = append(clean, value)
		}
	}

	return clean
}
