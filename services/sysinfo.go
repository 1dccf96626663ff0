package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// SysInfoService samples live host metrics. Network rates are derived from
// interface counter deltas between consecutive snapshots, so the first
// snapshot after startup reports zero rates.
type SysInfoService struct {
	mu         sync.Mutex
	lastNetIn  uint64
	lastNetOut uint64
	lastNetAt  time.Time
}

// NewSysInfoService creates a new SysInfoService.
func NewSysInfoService() *SysInfoService {
	return &SysInfoService{}
}

// Snapshot samples the host and returns one metric snapshot. CPU usage is
// measured over a one second interval.
func (s *SysInfoService) Snapshot() (MetricSnapshot, error) {
	var snap MetricSnapshot

	cpuPercent, err := cpu.Percent(time.Second, false)
	if err != nil || len(cpuPercent) == 0 {
		return snap, fmt.Errorf("failed to read CPU usage: %w", err)
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return snap, fmt.Errorf("failed to read memory usage: %w", err)
	}

	diskInfo, err := disk.Usage("/")
	if err != nil {
		return snap, fmt.Errorf("failed to read disk usage: %w", err)
	}

	incoming, outgoing := s.netRates()

	snap.CPU = cpuPercent[0]
	snap.Memory = memInfo.UsedPercent
	snap.Disk = diskInfo.UsedPercent
	snap.Network = NetworkMetrics{Incoming: incoming, Outgoing: outgoing}

	return snap, nil
}

// netRates returns receive/transmit rates in KB/s since the last call.
func (s *SysInfoService) netRates() (float64, float64) {
	counters, err := net.IOCounters(false)
	if err != nil || len(counters) == 0 {
		return 0, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	in, out := counters[0].BytesRecv, counters[0].BytesSent

	var incoming, outgoing float64
	if !s.lastNetAt.IsZero() {
		elapsed := now.Sub(s.lastNetAt).Seconds()
		if elapsed > 0 && in >= s.lastNetIn && out >= s.lastNetOut {
			incoming = float64(in-s.lastNetIn) / elapsed / 1024
			outgoing = float64(out-s.lastNetOut) / elapsed / 1024
		}
	}

	s.lastNetIn, s.lastNetOut, s.lastNetAt = in, out, now

	return incoming, outgoing
}
