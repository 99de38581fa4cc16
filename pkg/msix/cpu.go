// SPDX-License-Identifier: MPL-2.0

package msix

import (
	"errors"
	"fmt"
)

const (
	// CPUARM64 targets 64-bit ARM.
	CPUARM64 CPU = "ARM64"
	// CPUIA64 targets Itanium.
	CPUIA64 CPU = "IA64"
	// CPUx64 targets x86-64.
	CPUx64 CPU = "x64"
	// CPUx86 targets 32-bit x86.
	CPUx86 CPU = "x86"
)

// ErrUnsupportedArchitecture is the sentinel error wrapped by UnsupportedArchitectureError.
var ErrUnsupportedArchitecture = errors.New("unsupported architecture")

type (
	// CPU is the target architecture token embedded in a package filename.
	// Only the architectures accepted by the Inno Setup compiler are valid.
	CPU string

	// UnsupportedArchitectureError is returned when a package filename carries
	// a CPU token outside the supported set.
	UnsupportedArchitectureError struct {
		Value CPU
	}
)

// SupportedCPUs returns the architectures a package may target, in a stable order.
func SupportedCPUs() []CPU {
	return []CPU{CPUARM64, CPUIA64, CPUx64, CPUx86}
}

// String returns the CPU token as it appears in filenames.
func (c CPU) String() string { return string(c) }

// IsValid returns whether the CPU is one of the supported architectures.
// Matching is case-sensitive, like the filename grammar.
func (c CPU) IsValid() (bool, []error) {
	switch c {
	case CPUARM64, CPUIA64, CPUx64, CPUx86:
		return true, nil
	default:
		return false, []error{&UnsupportedArchitectureError{Value: c}}
	}
}

// Error implements the error interface.
func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("unsupported target CPU %q (supported: %v)", e.Value, SupportedCPUs())
}

// Unwrap returns ErrUnsupportedArchitecture for errors.Is() compatibility.
func (e *UnsupportedArchitectureError) Unwrap() error { return ErrUnsupportedArchitecture }
