package monitoring

import (
	"fmt"
	"log"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// UseHCLog routes Logf through l. A leading "[component]" tag becomes the
// sub-logger name, and messages mentioning a failure are logged at error
// level.
func UseHCLog(l hclog.Logger) {
	if l == nil {
		SetLogger(nil)
		return
	}
	SetLogger(func(format string, v ...interface{}) {
		name, msg := splitTag(fmt.Sprintf(format, v...))
		target := l
		if name != "" {
			target = l.Named(name)
		}
		if isFailure(msg) {
			target.Error(msg)
			return
		}
		target.Info(msg)
	})
}

func splitTag(s string) (name, msg string) {
	if !strings.HasPrefix(s, "[") {
		return "", s
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", s
	}
	return s[1:end], strings.TrimSpace(s[end+1:])
}

func isFailure(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "failed") || strings.Contains(lower, "error")
}
