// Package browser opens URLs in the user's default browser. Downloads
// from the processing service happen in a separate browsing context, so
// the workflow never waits on them.
package browser

import (
	"os/exec"
	"runtime"
)

// Open launches the default browser for the given URL.
func Open(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
