package disposable

import (
	_ "embed"
	"strings"
)

//go:embed list.txt
var rawList string

// builtin parses the embedded list once at startup.
func builtin() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(rawList, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			set[strings.ToLower(line)] = struct{}{}
		}
	}
	return set
}
