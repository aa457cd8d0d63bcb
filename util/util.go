// Package util provides a collection of domain-agnostic helpers.
package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anigrab/anigrab/filesystem"
)

var unsafeChars = regexp.MustCompile(`[\\/<>:"|?*\x00-\x1f]`)

// SafeFilename turns a display name into a file name valid on every platform.
// Spaces and punctuation that are legal everywhere are kept so the file stays recognizable.
func SafeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		return "_"
	}
	return name
}

// Quantify formats a count with the singular or plural noun.
func Quantify(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// Capitalize transforms the first rune of a string to its uppercase equivalent.
func Capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Delete recursively removes a file or directory using the virtualized filesystem API.
func Delete(path string) error {
	fs := filesystem.API()
	stat, err := fs.Stat(path)
	if err != nil {
		return err
	}

	if stat.IsDir() {
		return fs.RemoveAll(path)
	}
	return fs.Remove(path)
}
