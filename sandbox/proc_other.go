//go:build !unix

package sandbox

import "os/exec"

func setProcAttr(cmd *exec.Cmd) {}

func killTree(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
