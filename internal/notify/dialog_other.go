//go:build !windows && !darwin && !linux

package notify

// No dialog mechanism; callers fall back to console output.
func showDialog(title, message string, isError bool) bool {
	return false
}
