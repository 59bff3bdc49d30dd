// Package host reports the facts about the local machine that decide whether
// firewall rules can be managed at all, and through which tool.
package host

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnsupported is returned for facts that only exist on Windows.
var ErrUnsupported = errors.New("not supported on " + runtime.GOOS)

// Version is an operating system version as reported by the kernel.
type Version struct {
	Major uint32
	Minor uint32
	Build uint32
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor uint32) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// Facts abstracts the host queries so preflight and backend selection can be
// tested anywhere.
type Facts interface {
	// OS is the platform name, "windows" on supported hosts.
	OS() string
	// IsElevated reports whether the process holds an elevated token.
	IsElevated() (bool, error)
	// Version returns the kernel version, e.g. 10.0.19045 on Windows 10.
	Version() (Version, error)
	// ServiceRunning reports whether the named service is in the running state.
	ServiceRunning(name string) (bool, error)
}

// System returns the facts of the machine this process runs on.
func System() Facts {
	return systemFacts{}
}

type systemFacts struct{}

func (systemFacts) OS() string { return runtime.GOOS }

// Static is a fixed set of facts.
type Static struct {
	GOOS        string
	Elevated    bool
	ElevatedErr error
	Ver         Version
	VersionErr  error
	Services    map[string]bool
	ServiceErr  error
}

func (s Static) OS() string { return s.GOOS }

func (s Static) IsElevated() (bool, error) { return s.Elevated, s.ElevatedErr }

func (s Static) Version() (Version, error) { return s.Ver, s.VersionErr }

func (s Static) ServiceRunning(name string) (bool, error) {
	if s.ServiceErr != nil {
		return false, s.ServiceErr
	}
	return s.Services[name], nil
}
