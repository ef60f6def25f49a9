//go:build linux

package sched

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// maskBits is the width of the node and processor masks.
const maskBits = 32

// lockToProcessors pins the calling goroutine to an OS thread and restricts
// that thread to the processors selected by the node and per-node processor
// masks. Returns the undo function, or nil if the masks leave scheduling
// unrestricted or no selected processor exists.
func lockToProcessors(nodeMask, procMask uint32) func() {
	if nodeMask == 0x1 && procMask == ^uint32(0) && len(nodeCPUs(1)) == 0 {
		// Default masks on a single-node machine: nothing to restrict.
		return nil
	}

	var set unix.CPUSet
	for node := 0; node < maskBits; node++ {
		if nodeMask&(1<<node) == 0 {
			continue
		}
		for i, cpu := range nodeCPUs(node) {
			if i < maskBits && procMask&(1<<i) != 0 {
				set.Set(cpu)
			}
		}
	}
	if set.Count() == 0 {
		return nil
	}

	runtime.LockOSThread()
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return nil
	}
	return runtime.UnlockOSThread
}

// nodeCPUs returns the processors belonging to a NUMA node, in node-local
// order. A machine without the sysfs topology reports node 0 as holding
// every processor and all other nodes as empty.
func nodeCPUs(node int) []int {
	data, err := os.ReadFile("/sys/devices/system/node/node" + strconv.Itoa(node) + "/cpulist")
	if err != nil {
		if node == 0 {
			cpus := make([]int, runtime.NumCPU())
			for i := range cpus {
				cpus[i] = i
			}
			return cpus
		}
		return nil
	}
	return parseCPUList(strings.TrimSpace(string(data)))
}

// parseCPUList parses the kernel's "0-3,8,10-11" list format.
func parseCPUList(s string) []int {
	var cpus []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil {
				continue
			}
			for c := start; c <= end; c++ {
				cpus = append(cpus, c)
			}
		} else if c, err := strconv.Atoi(part); err == nil {
			cpus = append(cpus, c)
		}
	}
	return cpus
}
