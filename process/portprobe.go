// ABOUTME: TCP bind-and-close port probing, used both to pre-check a Start() port and by the Port Allocator.
// ABOUTME: cleanup_port shells out to the host's native utility (lsof) to find and kill whatever holds a port.
package process

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// PortFree reports whether port is currently free to bind on 127.0.0.1.
func PortFree(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// killProcessOnPort shells out to lsof to find the PID bound to port and
// sends it SIGTERM. Best-effort: absence of lsof, or no bound process, is
// not an error.
func killProcessOnPort(ctx context.Context, port int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "lsof", "-t", "-i", fmt.Sprintf(":%d", port)).Output()
	if err != nil {
		// lsof exits non-zero when nothing matches; that's not a failure.
		return nil
	}

	for _, line := range strings.Fields(string(out)) {
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		_ = exec.CommandContext(ctx, "kill", "-TERM", strconv.Itoa(pid)).Run()
	}
	return nil
}
