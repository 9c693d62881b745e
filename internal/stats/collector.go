// Package stats samples process resource usage and stage timings while a pipeline
// runs and renders them as a plain text report.
package stats

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

type Report struct {
	StartTime    time.Time
	EndTime      time.Time
	TotalElapsed time.Duration
	Samples      []Sample
	Stages       []Stage
	Counters     []Counter
	Summary      Summary
}

type Sample struct {
	Elapsed         time.Duration
	HeapAlloc       uint64
	Sys             uint64
	NumGC           uint32
	ProcessRSSBytes uint64
	CPUPercent      float64
	SystemCPU       []float64
	NumGoroutine    int
}

// Stage is one timed pipeline step.
type Stage struct {
	Name     string
	Duration time.Duration
	// Heap allocated while the stage ran.
	Allocated uint64
}

type Counter struct {
	Name  string
	Value int64
}

type Summary struct {
	PeakHeapAlloc  uint64
	PeakSys        uint64
	PeakProcessRSS uint64
	PeakCPUPercent float64
	AvgCPUPercent  float64
	PeakGoroutines int
	TotalGCCycles  uint32
	SampleCount    int
	SampleInterval time.Duration
}

type Collector struct {
	mu        sync.Mutex
	report    Report
	startTime time.Time
	stopChan  chan struct{}
	doneChan  chan struct{}
	interval  time.Duration
	proc      *process.Process
}

func NewCollector(interval time.Duration) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}

	return &Collector{
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		proc:     proc,
	}, nil
}

func (c *Collector) Start() {
	c.startTime = time.Now()
	c.report.StartTime = c.startTime

	go c.collect()
}

func (c *Collector) collect() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-c.stopChan:
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	point := Sample{
		Elapsed:      time.Since(c.startTime),
		HeapAlloc:    memStats.HeapAlloc,
		Sys:          memStats.Sys,
		NumGC:        memStats.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}

	if memInfo, err := c.proc.MemoryInfo(); err == nil && memInfo != nil {
		point.ProcessRSSBytes = memInfo.RSS
	}
	if cpuPercent, err := c.proc.CPUPercent(); err == nil {
		point.CPUPercent = cpuPercent
	}
	if systemCPU, err := cpu.Percent(0, true); err == nil {
		point.SystemCPU = systemCPU
	}

	c.mu.Lock()
	c.report.Samples = append(c.report.Samples, point)
	c.mu.Unlock()
}

// StartStage returns a func that records the stage when called.
func (c *Collector) StartStage(name string) func() {
	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	return func() {
		var after runtime.MemStats
		runtime.ReadMemStats(&after)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.report.Stages = append(c.report.Stages, Stage{
			Name:      name,
			Duration:  time.Since(start),
			Allocated: after.TotalAlloc - before.TotalAlloc,
		})
	}
}

func (c *Collector) Count(name string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Counters = append(c.report.Counters, Counter{Name: name, Value: value})
}

// Stop ends sampling and returns the final report.
func (c *Collector) Stop() Report {
	close(c.stopChan)
	<-c.doneChan

	c.mu.Lock()
	defer c.mu.Unlock()

	c.report.EndTime = time.Now()
	c.report.TotalElapsed = c.report.EndTime.Sub(c.report.StartTime)
	c.report.Summary = summarize(c.report.Samples, c.interval)

	return c.report
}

func summarize(samples []Sample, interval time.Duration) Summary {
	s := Summary{
		SampleCount:    len(samples),
		SampleInterval: interval,
	}
	if len(samples) == 0 {
		return s
	}

	var totalCPU float64
	for _, p := range samples {
		s.PeakHeapAlloc = max(s.PeakHeapAlloc, p.HeapAlloc)
		s.PeakSys = max(s.PeakSys, p.Sys)
		s.PeakProcessRSS = max(s.PeakProcessRSS, p.ProcessRSSBytes)
		s.PeakCPUPercent = max(s.PeakCPUPercent, p.CPUPercent)
		s.PeakGoroutines = max(s.PeakGoroutines, p.NumGoroutine)
		s.TotalGCCycles = max(s.TotalGCCycles, p.NumGC)
		totalCPU += p.CPUPercent
	}
	s.AvgCPUPercent = totalCPU / float64(len(samples))
	return s
}
