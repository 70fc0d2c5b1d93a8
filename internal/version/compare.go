package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckBridgeCompatibility checks that a terminal bridge reporting bridgeVersion
// can serve a client requiring at least minimumVersion.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - The bridge must be at or above the minimum minor.patch
//
// Examples:
//   - Minimum 1.2.0, Bridge 1.2.0 -> OK
//   - Minimum 1.2.0, Bridge 1.4.3 -> OK
//   - Minimum 1.2.0, Bridge 1.1.9 -> ERROR (too old)
//   - Minimum 1.2.0, Bridge 2.0.0 -> ERROR (major differs)
func CheckBridgeCompatibility(minimumVersion, bridgeVersion string) error {
	minimumVersion = strings.TrimPrefix(minimumVersion, "v")
	bridgeVersion = strings.TrimPrefix(bridgeVersion, "v")

	if minimumVersion == "main" || bridgeVersion == "main" {
		return nil
	}

	minimum, err := semver.NewVersion(minimumVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum version '%s': %w", minimumVersion, err)
	}

	bridge, err := semver.NewVersion(bridgeVersion)
	if err != nil {
		return fmt.Errorf("invalid bridge version '%s': %w", bridgeVersion, err)
	}

	if minimum.Major() != bridge.Major() {
		return fmt.Errorf("major version mismatch: client requires %d.x.x but bridge is %s",
			minimum.Major(), bridge.String())
	}

	if bridge.LessThan(minimum) {
		return fmt.Errorf("bridge version %s is older than required %s", bridge.String(), minimum.String())
	}

	return nil
}
