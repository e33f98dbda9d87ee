package scenario

import (
	"fmt"
	"strings"

	"github.com/ritzau/critpath/pkg/execgraph"
)

// ProcessStatus is the scheduler state of a thread over an interval
type ProcessStatus string

const (
	StatusNotAlive    ProcessStatus = "NOT_ALIVE"
	StatusUnknown     ProcessStatus = "UNKNOWN"
	StatusWaitBlocked ProcessStatus = "WAIT_BLOCKED"
	StatusRun         ProcessStatus = "RUN"
	StatusRunSyscall  ProcessStatus = "RUN_SYSCALL"
	StatusInterrupted ProcessStatus = "INTERRUPTED"
	StatusWaitFork    ProcessStatus = "WAIT_FORK"
	StatusWaitCPU     ProcessStatus = "WAIT_CPU"
	StatusWaitUnknown ProcessStatus = "WAIT_UNKNOWN"
	StatusExit        ProcessStatus = "EXIT"
	StatusZombie      ProcessStatus = "ZOMBIE"
)

// ResolveStatus maps the state a thread was in over an interval to the type
// of the edge covering it. Nothing is known about a thread that is not alive.
func ResolveStatus(s ProcessStatus) (execgraph.EdgeType, error) {
	switch ProcessStatus(strings.ToUpper(string(s))) {
	case StatusRun, StatusRunSyscall, StatusInterrupted, StatusExit:
		return execgraph.EdgeRunning, nil
	case StatusWaitBlocked:
		return execgraph.EdgeBlocked, nil
	case StatusWaitCPU, StatusWaitFork, StatusWaitUnknown:
		return execgraph.EdgePreempted, nil
	case StatusUnknown, StatusZombie, StatusNotAlive:
		return execgraph.EdgeUnknown, nil
	}
	return "", fmt.Errorf("%w: unknown process status %q", ErrInvalidStep, s)
}

// Linux interrupt vectors relevant to wake-up attribution
const (
	IRQTimer = 0

	SoftirqHI          = 0
	SoftirqTimer       = 1
	SoftirqNetTX       = 2
	SoftirqNetRX       = 3
	SoftirqBlock       = 4
	SoftirqBlockIOPoll = 5
	SoftirqTasklet     = 6
	SoftirqSched       = 7
	SoftirqHRTimer     = 8
	SoftirqRCU         = 9
)

// ResolveIRQ types a wake-up that came from a hardware interrupt
func ResolveIRQ(vec int) execgraph.EdgeType {
	if vec == IRQTimer {
		return execgraph.EdgeInterrupted
	}
	return execgraph.EdgeUnknown
}

// ResolveSoftirq types a wake-up that came from a soft interrupt
func ResolveSoftirq(vec int) execgraph.EdgeType {
	switch vec {
	case SoftirqHRTimer, SoftirqTimer:
		return execgraph.EdgeTimer
	case SoftirqBlock, SoftirqBlockIOPoll:
		return execgraph.EdgeBlockDevice
	case SoftirqNetRX, SoftirqNetTX:
		return execgraph.EdgeNetwork
	case SoftirqSched:
		return execgraph.EdgeInterrupted
	}
	return execgraph.EdgeUnknown
}
