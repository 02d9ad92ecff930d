//go:build unix

package launcher

import "syscall"

// The agent gets its own session so it outlives the terminal that started it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
