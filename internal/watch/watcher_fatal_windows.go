//go:build windows

package watch

func isFatalFsnotifyError(error) bool {
	return false
}
