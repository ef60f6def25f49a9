package sched

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/codewandler/actr-go/internal/spin"
)

// YieldStrategy selects how idle workers wait for work.
type YieldStrategy uint8

const (
	// YieldPolite spins briefly, then parks on the ready queue's condition
	// until the next push. The default.
	YieldPolite YieldStrategy = iota
	// YieldStrong spins and periodically yields the processor, but never
	// sleeps. Lower wake latency at the cost of busy CPUs.
	YieldStrong
	// YieldAggressive spins flat out, pausing only for the sibling
	// hyperthread. Lowest latency; burns a core per idle worker.
	YieldAggressive
)

func (y YieldStrategy) String() string {
	switch y {
	case YieldPolite:
		return "polite"
	case YieldStrong:
		return "strong"
	case YieldAggressive:
		return "aggressive"
	}
	return fmt.Sprintf("yield(%d)", uint8(y))
}

// ParseYieldStrategy parses a strategy name as it appears in config files.
func ParseYieldStrategy(s string) (YieldStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "polite":
		return YieldPolite, nil
	case "strong":
		return YieldStrong, nil
	case "aggressive":
		return YieldAggressive, nil
	}
	return YieldPolite, fmt.Errorf("sched: unknown yield strategy %q", s)
}

// idle performs one round of the strategy's wait. counter accumulates across
// consecutive idle rounds and is reset by the caller on progress. Returns
// true if the worker went to the ready queue's Sleep, which returns at once
// when work is already queued.
func (p *Pool) idle(counter *uint32) bool {
	*counter++
	switch p.yield {
	case YieldStrong:
		switch {
		case *counter < 10:
			spin.Pause(1)
		case *counter < 20:
			spin.Pause(50)
		default:
			runtime.Gosched()
		}
	case YieldAggressive:
		switch {
		case *counter < 10:
			spin.Pause(1)
		case *counter < 20:
			spin.Pause(50)
		default:
			spin.Pause(200)
		}
	default: // YieldPolite
		switch {
		case *counter < 10:
			spin.Pause(1)
		case *counter < 20:
			spin.Pause(50)
		case *counter < 24:
			runtime.Gosched()
		default:
			p.env.Queue.Sleep()
			return true
		}
	}
	return false
}
