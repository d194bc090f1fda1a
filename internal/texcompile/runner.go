package texcompile

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/alnah/go-html2tex/internal/process"
)

// waitDelay bounds how long Run waits for output pipes after a kill.
const waitDelay = 5 * time.Second

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	// Run executes name in dir with extra environment entries appended to the
	// current environment, and returns combined stdout and stderr.
	Run(ctx context.Context, dir string, env []string, name string, args ...string) (output string, err error)
}

var _ CommandRunner = (*ExecRunner)(nil)

// ExecRunner implements CommandRunner using os/exec. The child runs in its
// own process group, which is killed when ctx is done.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	return out.String(), err
}
