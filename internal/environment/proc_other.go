//go:build !unix

package environment

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func terminateProcessGroup(cmd *exec.Cmd) error {
	return cmd.Process.Signal(os.Interrupt)
}

func killProcessGroup(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
