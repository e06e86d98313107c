//go:build unix

package sandbox

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttr places the child in its own process group so a timeout kill
// reaches the whole tree, not just the direct child (go run, ts-node and
// shell scripts all fork).
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := unix.Getpgid(cmd.Process.Pid)
	if err == nil {
		_ = unix.Kill(-pgid, unix.SIGKILL)
		return
	}
	_ = cmd.Process.Kill()
}
