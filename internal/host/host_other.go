//go:build !windows

package host

import "os"

func (systemFacts) IsElevated() (bool, error) {
	return os.Geteuid() == 0, nil
}

func (systemFacts) Version() (Version, error) {
	return Version{}, ErrUnsupported
}

func (systemFacts) ServiceRunning(name string) (bool, error) {
	return false, ErrUnsupported
}
