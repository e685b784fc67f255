package engine

import (
	"fmt"
	"strings"

	"github.com/aretw0/metta/pkg/domain"
	"golang.org/x/mod/semver"
)

// Canonical returns v with the "v" prefix semver expects.
func Canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// CheckVersion requires min <= version < max. An empty max leaves the range
// open. Failures wrap domain.ErrVersionMismatch.
func CheckVersion(version, min, max string) error {
	v := Canonical(version)
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: %q is not a semantic version", domain.ErrVersionMismatch, version)
	}
	if semver.Compare(v, Canonical(min)) < 0 {
		return fmt.Errorf("%w: %s is older than the minimum supported %s", domain.ErrVersionMismatch, v, Canonical(min))
	}
	if max != "" && semver.Compare(v, Canonical(max)) >= 0 {
		return fmt.Errorf("%w: %s is not older than %s", domain.ErrVersionMismatch, v, Canonical(max))
	}
	return nil
}
