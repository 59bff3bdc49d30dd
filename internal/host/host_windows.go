//go:build windows

package host

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func (systemFacts) IsElevated() (bool, error) {
	return windows.GetCurrentProcessToken().IsElevated(), nil
}

// Version uses RtlGetVersion, which unlike GetVersionEx is not subject to
// manifest-based version lies.
func (systemFacts) Version() (Version, error) {
	info := windows.RtlGetVersion()
	if info == nil {
		return Version{}, fmt.Errorf("RtlGetVersion returned no data")
	}
	return Version{
		Major: info.MajorVersion,
		Minor: info.MinorVersion,
		Build: info.BuildNumber,
	}, nil
}

// ServiceRunning opens the service control manager with connect rights only,
// so the query works before elevation has been checked.
func (systemFacts) ServiceRunning(name string) (bool, error) {
	scm, err := windows.OpenSCManager(nil, nil, windows.SC_MANAGER_CONNECT)
	if err != nil {
		return false, fmt.Errorf("open service manager: %w", err)
	}
	defer windows.CloseServiceHandle(scm)

	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false, err
	}
	svc, err := windows.OpenService(scm, namePtr, windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return false, fmt.Errorf("open service %s: %w", name, err)
	}
	defer windows.CloseServiceHandle(svc)

	var status windows.SERVICE_STATUS
	if err := windows.QueryServiceStatus(svc, &status); err != nil {
		return false, fmt.Errorf("query service %s: %w", name, err)
	}
	return status.CurrentState == windows.SERVICE_RUNNING, nil
}
