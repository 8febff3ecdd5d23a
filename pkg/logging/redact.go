package logging

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// RedactedValue replaces sensitive values in logged bodies.
const RedactedValue = "*****"

// SensitiveKeys are JSON object keys whose values are never logged,
// at any nesting depth.
var SensitiveKeys = []string{"password", "newPassword", "oldPassword"}

// Redact returns a copy of the JSON document data with the value of every
// SensitiveKeys member replaced by RedactedValue. Input that is not valid
// JSON is returned unchanged.
func Redact(data []byte) []byte {
	if !gjson.ValidBytes(data) {
		return data
	}

	var paths []string
	collectSensitive("", gjson.ParseBytes(data), &paths)
	if len(paths) == 0 {
		return data
	}

	out := append([]byte(nil), data...)
	for _, path := range paths {
		redacted, err := sjson.SetBytes(out, path, RedactedValue)
		if err != nil {
			continue
		}
		out = redacted
	}
	return out
}

func collectSensitive(prefix string, node gjson.Result, paths *[]string) {
	switch {
	case node.IsObject():
		node.ForEach(func(key, value gjson.Result) bool {
			path := joinPath(prefix, escapePath(key.String()))
			if isSensitive(key.String()) {
				*paths = append(*paths, path)
				return true
			}
			collectSensitive(path, value, paths)
			return true
		})
	case node.IsArray():
		i := 0
		node.ForEach(func(_, value gjson.Result) bool {
			collectSensitive(joinPath(prefix, strconv.Itoa(i)), value, paths)
			i++
			return true
		})
	}
}

func isSensitive(key string) bool {
	for _, k := range SensitiveKeys {
		if key == k {
			return true
		}
	}
	return false
}

func joinPath(prefix, component string) string {
	if prefix == "" {
		return component
	}
	return prefix + "." + component
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`!`, `\!`,
	`=`, `\=`,
	`<`, `\<`,
	`>`, `\>`,
	`%`, `\%`,
)

// escapePath escapes a key for use as a gjson/sjson path component.
func escapePath(key string) string {
	return pathEscaper.Replace(key)
}
