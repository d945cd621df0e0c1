// Package platform reports host details relevant to running companion scripts.
package platform

import (
	"os"
	"os/exec"
	"runtime"
)

// Info contains platform-specific information
type Info struct {
	OS           string          `json:"os"`
	Architecture string          `json:"architecture"`
	Version      string          `json:"version"`
	Hostname     string          `json:"hostname"`
	Interpreters map[string]bool `json:"interpreters"`
	Capabilities Capabilities    `json:"capabilities"`
}

// Capabilities describes what this platform can do
type Capabilities struct {
	ProcessGroups bool `json:"process_groups"`
	PosixShell    bool `json:"posix_shell"`
}

// GetInfo returns platform information, probing PATH for each interpreter.
func GetInfo(interpreters ...string) *Info {
	hostname, _ := os.Hostname()

	found := make(map[string]bool, len(interpreters))
	for _, name := range interpreters {
		found[name] = hasCommand(name)
	}

	return &Info{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		Version:      runtime.Version(),
		Hostname:     hostname,
		Interpreters: found,
		Capabilities: Capabilities{
			ProcessGroups: IsUnix(),
			PosixShell:    IsUnix() && hasCommand("/bin/sh"),
		},
	}
}

// Missing returns the probed interpreters not found on PATH, in the order
// they were requested.
func (i *Info) Missing(interpreters ...string) []string {
	var missing []string
	for _, name := range interpreters {
		if !i.Interpreters[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func hasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// IsUnix returns true if running on a Unix-like system
func IsUnix() bool {
	switch runtime.GOOS {
	case "darwin", "linux", "freebsd", "openbsd", "netbsd", "solaris", "aix":
		return true
	default:
		return false
	}
}
