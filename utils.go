package stabilizego

import (
	"log"
	"os"
	"sync"

	"golang.org/x/term"
)

// GetTerminalSize returns the terminal dimensions (columns, lines), trying
// stdin, stdout, then stderr in turn, falling back to the provided defaults
// if none report a size (e.g. output is redirected to a file).
func GetTerminalSize(defaultCols, defaultLines int) (cols, lines int) {
	if width, height, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		return width, height
	}
	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return width, height
	}
	if width, height, err := term.GetSize(int(os.Stderr.Fd())); err == nil {
		return width, height
	}
	return defaultCols, defaultLines
}

var warnedMessages sync.Map

// WarnOnce logs message at most once per process, regardless of how many
// times it's called with the same text. Used for non-fatal conditions that
// would otherwise spam a long-running stabilization (e.g. a keypoint method
// falling back to GFTT).
func WarnOnce(message string) {
	if _, loaded := warnedMessages.LoadOrStore(message, true); !loaded {
		log.Printf("WARNING: %s", message)
	}
}
