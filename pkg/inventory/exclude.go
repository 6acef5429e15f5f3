package inventory

import "github.com/bmatcuk/doublestar/v4"

// IsExcluded reports whether a relative path matches any of the doublestar
// patterns.
func IsExcluded(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// ValidatePatterns rejects malformed patterns before any listing happens.
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return doublestar.ErrBadPattern
		}
	}
	return nil
}
