// ABOUTME: Process-local Port Allocator: finds and reserves free TCP ports for a run's services.
// ABOUTME: Grounded on orchestrator.py's module-level find_free_port/_allocated_ports/reset_allocated_ports.
package orchestrator

import (
	"sync"

	"github.com/BillChan226/multiagent-gen/core"
	"github.com/BillChan226/multiagent-gen/process"
)

// PortAllocator hands out free TCP ports for a single run, guarding against
// two concurrent allocations in the same process racing onto the same port
// before either caller actually binds it.
type PortAllocator struct {
	mu        sync.Mutex
	allocated map[int]bool
}

// NewPortAllocator creates an empty PortAllocator.
func NewPortAllocator() *PortAllocator {
	return &PortAllocator{allocated: make(map[int]bool)}
}

// FindFreePort tries each of preferred in order, then scans
// [rangeStart, rangeEnd), returning the first port that is both free on the
// host and not already allocated by this PortAllocator.
func (p *PortAllocator) FindFreePort(preferred []int, rangeStart, rangeEnd int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, port := range preferred {
		if p.tryReserve(port) {
			return port, nil
		}
	}
	for port := rangeStart; port < rangeEnd; port++ {
		if p.tryReserve(port) {
			return port, nil
		}
	}
	return 0, core.NewFatalError("orchestrator.FindFreePort",
		"no free port found in the requested range", nil)
}

// tryReserve reserves port if it is not already allocated and is currently
// free to bind. Caller must hold p.mu.
func (p *PortAllocator) tryReserve(port int) bool {
	if p.allocated[port] {
		return false
	}
	if !process.PortFree(port) {
		return false
	}
	p.allocated[port] = true
	return true
}

// ResetAllocatedPorts clears every reservation, used between runs in the
// same process (primarily in tests).
func (p *PortAllocator) ResetAllocatedPorts() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allocated = make(map[int]bool)
}
