// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect probes the host for GPU acceleration.
//
// Local inference speed hinges on whether the model server can see a GPU,
// so the doctor command reports what murmur's host offers. Detection shells
// out to the vendor tools when present:
//   - NVIDIA via nvidia-smi
//   - AMD via rocm-smi (Linux)
//   - Apple Silicon via sysctl machdep.cpu.brand_string (macOS)
//
// No tool found means CPU-only inference.
package detect

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// probeTimeout bounds each vendor tool invocation.
const probeTimeout = 5 * time.Second

// =============================================================================
// GPU TYPES
// =============================================================================

// Kind is the acceleration class a host offers.
type Kind int

const (
	// KindCPU means no dedicated GPU was found.
	KindCPU Kind = iota
	// KindNvidia is a CUDA-capable NVIDIA GPU.
	KindNvidia
	// KindAMD is a ROCm-capable AMD GPU.
	KindAMD
	// KindApple is Apple Silicon with its integrated GPU.
	KindApple
)

// String returns the vendor name.
func (k Kind) String() string {
	switch k {
	case KindNvidia:
		return "NVIDIA"
	case KindAMD:
		return "AMD"
	case KindApple:
		return "Apple Silicon"
	default:
		return "CPU"
	}
}

// GPU describes the detected accelerator.
type GPU struct {
	// Name of the device (e.g. "NVIDIA GeForce RTX 4090").
	Name string
	// VRAMGB is the device memory in gigabytes. Zero when unknown.
	VRAMGB int
	// Driver version when the vendor tool reports one.
	Driver string
	// Kind is the acceleration class.
	Kind Kind
}

// String renders the device for the doctor report.
func (g GPU) String() string {
	if g.Kind == KindCPU {
		return g.Name
	}
	s := g.Name
	if g.VRAMGB > 0 {
		s += fmt.Sprintf(" (%dGB VRAM)", g.VRAMGB)
	}
	if g.Driver != "" {
		s += fmt.Sprintf(" [driver %s]", g.Driver)
	}
	return s
}

// =============================================================================
// PROBE
// =============================================================================

// Probe detects the host's GPU. It never fails: a host without vendor
// tools reports CPU-only.
func Probe(ctx context.Context) GPU {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, probeTimeout)
		defer cancel()
	}

	if gpu, ok := probeNvidia(ctx); ok {
		return gpu
	}
	if runtime.GOOS == "linux" {
		if gpu, ok := probeAMD(ctx); ok {
			return gpu
		}
	}
	if runtime.GOOS == "darwin" {
		if gpu, ok := probeApple(ctx); ok {
			return gpu
		}
	}

	return GPU{
		Name: fmt.Sprintf("CPU only (%d cores)", runtime.NumCPU()),
		Kind: KindCPU,
	}
}

// =============================================================================
// NVIDIA
// =============================================================================

// probeNvidia queries nvidia-smi for the first GPU.
func probeNvidia(ctx context.Context) (GPU, bool) {
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total,driver_version",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		return GPU{}, false
	}
	return parseNvidiaCSV(string(out))
}

// parseNvidiaCSV reads the first line of nvidia-smi's CSV output:
// "NVIDIA GeForce RTX 4090, 24564, 550.54.14".
func parseNvidiaCSV(out string) (GPU, bool) {
	out = strings.TrimSpace(out)
	if out == "" {
		return GPU{}, false
	}
	line := strings.SplitN(out, "\n", 2)[0]

	parts := strings.Split(line, ", ")
	if len(parts) < 3 {
		return GPU{}, false
	}

	vramMiB, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GPU{}, false
	}

	name := strings.TrimSpace(parts[0])
	if !strings.HasPrefix(name, "NVIDIA") {
		name = "NVIDIA " + name
	}

	return GPU{
		Name:   name,
		VRAMGB: int(vramMiB/1024.0 + 0.5),
		Driver: strings.TrimSpace(parts[2]),
		Kind:   KindNvidia,
	}, true
}

// =============================================================================
// AMD
// =============================================================================

var amdNumberRe = regexp.MustCompile(`(\d+)`)

// probeAMD queries rocm-smi on Linux.
func probeAMD(ctx context.Context) (GPU, bool) {
	out, err := exec.CommandContext(ctx, "rocm-smi",
		"--showproductname", "--showmeminfo", "vram").Output()
	if err != nil {
		return GPU{}, false
	}
	return parseRocmOutput(string(out))
}

// parseRocmOutput pulls the card name and VRAM total out of rocm-smi's
// table output.
func parseRocmOutput(out string) (GPU, bool) {
	gpu := GPU{Name: "AMD GPU", Kind: KindAMD}
	found := false

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Card series:") {
			if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
				gpu.Name = "AMD " + strings.TrimSpace(parts[1])
				found = true
			}
			continue
		}
		if strings.Contains(line, "VRAM Total Memory") || strings.Contains(line, "Total Memory") {
			m := amdNumberRe.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			val, err := strconv.ParseUint(m[1], 10, 64)
			if err != nil {
				continue
			}
			// rocm-smi reports bytes on newer versions, MiB on older.
			switch {
			case val > 1_000_000_000:
				gpu.VRAMGB = int(val / 1_073_741_824)
			case val > 1_000:
				gpu.VRAMGB = int(val / 1024)
			default:
				gpu.VRAMGB = int(val)
			}
			found = true
		}
	}

	return gpu, found
}

// =============================================================================
// APPLE SILICON
// =============================================================================

// probeApple identifies Apple Silicon by the CPU brand string. Unified
// memory makes a VRAM figure misleading, so it stays zero.
func probeApple(ctx context.Context) (GPU, bool) {
	out, err := exec.CommandContext(ctx, "sysctl", "-n", "machdep.cpu.brand_string").Output()
	if err != nil {
		return GPU{}, false
	}

	brand := strings.TrimSpace(string(out))
	if !strings.HasPrefix(brand, "Apple") {
		return GPU{}, false
	}

	return GPU{Name: brand, Kind: KindApple}, true
}
