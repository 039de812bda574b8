package notify

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// showDialog pops a native message box. MB_SETFOREGROUND keeps the dialog
// visible even though the updater runs detached from any console session.
func showDialog(title, message string, isError bool) bool {
	text, err := windows.UTF16PtrFromString(message)
	if err != nil {
		log.Warnf("failed to encode dialog text: %v", err)
		return false
	}
	caption, err := windows.UTF16PtrFromString(title)
	if err != nil {
		log.Warnf("failed to encode dialog caption: %v", err)
		return false
	}

	flags := uint32(windows.MB_OK | windows.MB_SETFOREGROUND)
	if isError {
		flags |= windows.MB_ICONERROR
	} else {
		flags |= windows.MB_ICONINFORMATION
	}

	if _, err := windows.MessageBox(0, text, caption, flags); err != nil {
		log.Warnf("failed to show message box: %v", err)
		return false
	}
	return true
}
