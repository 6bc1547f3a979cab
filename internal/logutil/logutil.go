// Package logutil sets up apex/log for the binaries in this module.
package logutil

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
)

// Init sets up apex with a line handler and a log level taken from the
// PHOTOCACHE_LOG env variable (default ERROR).
func Init() {
	level := strings.ToUpper(os.Getenv("PHOTOCACHE_LOG"))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(&lineHandler{})
	log.SetLevelFromString(level)
}

// lineHandler formats log messages as single lines on stderr.
type lineHandler struct{}

// HandleLog implements the log.Handler interface.
func (h *lineHandler) HandleLog(e *log.Entry) error {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	fmt.Fprintln(os.Stderr, b.String())
	return nil
}
