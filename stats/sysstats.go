/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// SysStats collects process and Go runtime statistics of the daemon
type SysStats struct {
	started  time.Time
	proc     *process.Process
	memstats *runtime.MemStats
}

// NewSysStats returns SysStats with uptime counted from now
func NewSysStats() *SysStats {
	return &SysStats{started: time.Now()}
}

// setRate is a helper function to make a crude rate/diff
func setRate(name string, counts map[string]int64, cur, prev uint64, interval time.Duration) {
	secs := uint64(interval.Seconds())
	if prev > cur || secs == 0 {
		return
	}
	counts[fmt.Sprintf("%s.sum.%d", name, secs)] = int64(cur - prev)
	counts[fmt.Sprintf("%s.rate.%d", name, secs)] = int64((cur - prev) / secs)
}

func (s *SysStats) collectProcess(counts map[string]int64, interval time.Duration) error {
	if s.proc == nil {
		proc, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			return err
		}
		s.proc = proc
	}
	if val, err := s.proc.Percent(0); err == nil {
		counts[fmt.Sprintf("process.cpu_pct.avg.%d", int(interval.Seconds()))] = int64(val * 100)
	}
	if val, err := s.proc.MemoryInfo(); err == nil {
		counts["process.rss"] = int64(val.RSS)
		counts["process.vms"] = int64(val.VMS)
	}
	if val, err := s.proc.NumFDs(); err == nil {
		counts["process.num_fds"] = int64(val)
	}
	if val, err := s.proc.NumThreads(); err == nil {
		counts["process.num_threads"] = int64(val)
	}
	return nil
}

func (s *SysStats) collectRuntime(counts map[string]int64, interval time.Duration) {
	m := &runtime.MemStats{}
	runtime.ReadMemStats(m)
	counts["runtime.cpu.goroutines"] = int64(runtime.NumGoroutine())
	counts["runtime.mem.alloc"] = int64(m.Alloc)
	counts["runtime.mem.sys"] = int64(m.Sys)
	counts["runtime.mem.heap.inuse"] = int64(m.HeapInuse)
	counts["runtime.mem.heap.objects"] = int64(m.HeapObjects)
	counts["runtime.mem.gc.pause_total"] = int64(m.PauseTotalNs)
	counts["runtime.mem.gc.count"] = int64(m.NumGC)
	if prev := s.memstats; prev != nil {
		setRate("runtime.mem.mallocs", counts, m.Mallocs, prev.Mallocs, interval)
		setRate("runtime.gc.count", counts, uint64(m.NumGC), uint64(prev.NumGC), interval)
	}
	s.memstats = m
}

// CollectRuntimeStats gathers cpu, mem and gc statistics.
// Rates appear from the second call on.
func (s *SysStats) CollectRuntimeStats(interval time.Duration) (map[string]int64, error) {
	counts := map[string]int64{
		"process.uptime": int64(time.Since(s.started).Seconds()),
	}
	if err := s.collectProcess(counts, interval); err != nil {
		return nil, err
	}
	s.collectRuntime(counts, interval)
	return counts, nil
}
