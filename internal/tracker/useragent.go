package tracker

import "strings"

// UAInfo is the best-effort result of parsing a User-Agent header.
// DeviceType always carries a value ("desktop" when nothing matches);
// Browser and OS stay nil when unknown.
type UAInfo struct {
	DeviceType string
	Browser    *string
	OS         *string
}

// UserAgentParser derives client metadata from a User-Agent header.
// Implementations never fail; unknown input degrades to defaults.
type UserAgentParser interface {
	Parse(userAgent string) UAInfo
}

// SubstringUAParser classifies user agents by substring matching. Good
// enough for engagement analytics; a full parser can be plugged in
// behind the same interface.
type SubstringUAParser struct{}

func (SubstringUAParser) Parse(userAgent string) UAInfo {
	ua := strings.ToLower(userAgent)

	info := UAInfo{DeviceType: "desktop"}
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		info.DeviceType = "tablet"
	} else if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") {
		info.DeviceType = "mobile"
	}

	// Order matters: Edge and Opera embed "chrome", Chrome embeds "safari".
	switch {
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge"):
		info.Browser = strptr("Edge")
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		info.Browser = strptr("Opera")
	case strings.Contains(ua, "firefox"):
		info.Browser = strptr("Firefox")
	case strings.Contains(ua, "chrome"):
		info.Browser = strptr("Chrome")
	case strings.Contains(ua, "safari"):
		info.Browser = strptr("Safari")
	}

	switch {
	case strings.Contains(ua, "windows"):
		info.OS = strptr("Windows")
	case strings.Contains(ua, "android"):
		info.OS = strptr("Android")
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		info.OS = strptr("iOS")
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		info.OS = strptr("macOS")
	case strings.Contains(ua, "linux"):
		info.OS = strptr("Linux")
	}

	return info
}

func strptr(s string) *string { return &s }
