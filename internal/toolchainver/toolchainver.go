// Package toolchainver exposes the toolchain's own version string and a
// semantic-version gate every CLI's --min-version flag checks against, so
// a build script or CI job can require "at least vX.Y.Z" without parsing
// version strings itself.
package toolchainver

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the toolchain's own release version. There is no release
// process yet, so this tracks the spec's external-interface surface
// rather than a tagged release.
const Version = "v0.1.0"

// CheckMinimum returns an error if Version is older than min under
// semantic-version ordering. min must be a valid semver string (a leading
// "v" is added if missing, matching how users commonly spell version
// flags without it).
func CheckMinimum(min string) error {
	if min == "" {
		return nil
	}
	if len(min) == 0 || min[0] != 'v' {
		min = "v" + min
	}
	if !semver.IsValid(min) {
		return fmt.Errorf("toolchainver: %q is not a valid semantic version", min)
	}
	if semver.Compare(Version, min) < 0 {
		return fmt.Errorf("toolchainver: this build is %s, which is older than the required minimum %s", Version, min)
	}
	return nil
}
