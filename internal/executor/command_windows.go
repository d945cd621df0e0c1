//go:build windows

package executor

import "os/exec"

// setPlatformAttrs sets platform-specific attributes for Windows. Process
// groups are not available, so cancellation falls back to killing the
// interpreter process only.
func setPlatformAttrs(cmd *exec.Cmd) {}
