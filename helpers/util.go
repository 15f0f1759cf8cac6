package helpers

import (
	"errors"
	"strings"
)

// GetSplitPart splits target by separate and returns the part at index.
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// CollapseWhitespace trims a string and folds internal whitespace runs
// into single spaces. Scraped text is full of layout whitespace.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
