package analytics

import (
	"regexp"
	"strings"
)

const (
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

var (
	tabletPattern = regexp.MustCompile(`ipad|android 3.0|xoom|sch-i800|playbook|tablet|kindle`)
	mobilePattern = regexp.MustCompile(`iphone|ipod|android|blackberry|opera|mini|windows\sce|palm|smartphone|iemobile`)
)

// detectDevice classifies a user agent. Tablets are checked first since most
// tablet agents also match the mobile patterns.
func detectDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case tabletPattern.MatchString(ua):
		return DeviceTablet
	case mobilePattern.MatchString(ua):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}
