package device

import (
	"regexp"

	"github.com/medforce/activity-agent/internal/model"
)

// Device type labels.
const (
	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
	TypeDesktop = "desktop"

	// Unknown is the fallback for every classification dimension.
	Unknown = "Unknown"
)

type signature struct {
	Name    string
	Pattern *regexp.Regexp
}

// Ordered most-specific-first; the first match wins. Keeping the ordering in
// data rather than in control flow makes the specificity auditable.
var osSignatures = []signature{
	{"Windows 11", regexp.MustCompile(`Windows NT 11\.0`)},
	{"Windows 10", regexp.MustCompile(`Windows NT 10\.0`)},
	{"Windows 8.1", regexp.MustCompile(`Windows NT 6\.3`)},
	{"Windows 8", regexp.MustCompile(`Windows NT 6\.2`)},
	{"Windows 7", regexp.MustCompile(`Windows NT 6\.1`)},
	{"iOS", regexp.MustCompile(`iPhone OS|iPad; CPU OS|iPod touch`)},
	{"macOS", regexp.MustCompile(`Mac OS X`)},
	{"Android", regexp.MustCompile(`Android`)},
	{"ChromeOS", regexp.MustCompile(`CrOS`)},
	{"Linux", regexp.MustCompile(`Linux`)},
}

var browserSignatures = []signature{
	{"Edge", regexp.MustCompile(`Edg(?:e|A|iOS)?/`)},
	{"Opera", regexp.MustCompile(`OPR/|Opera`)},
	{"Samsung Internet", regexp.MustCompile(`SamsungBrowser/`)},
	{"Firefox", regexp.MustCompile(`Firefox/|FxiOS/`)},
	{"Chrome", regexp.MustCompile(`Chrome/|CriOS/`)},
	{"Safari", regexp.MustCompile(`Safari/`)},
	{"Internet Explorer", regexp.MustCompile(`MSIE |Trident/`)},
}

// Tablet patterns run before the generic mobile ones so tablet-looking
// Android strings are not classified as plain mobile. Android tablets omit
// the "Mobile" token, which Go's RE2 cannot express as a lookahead, so that
// case is handled explicitly in classifyDeviceType.
var tabletPattern = regexp.MustCompile(`(?i)ipad|tablet|kindle|playbook|silk`)
var mobilePattern = regexp.MustCompile(`(?i)mobile|iphone|ipod|blackberry|opera mini|iemobile|android`)

var androidPattern = regexp.MustCompile(`Android`)
var androidMobilePattern = regexp.MustCompile(`Android.*Mobile`)

var versionPattern = regexp.MustCompile(`(?:EdgA?|Edge?|OPR|SamsungBrowser|Firefox|FxiOS|CriOS|Chrome|Version|MSIE)[/ ](\d+(?:\.\d+)*)`)

// Classification is the user-agent derived part of a DeviceSnapshot.
type Classification struct {
	DeviceType      string
	OperatingSystem string
	Browser         string
	BrowserVersion  string
}

// Detect classifies a user-agent string. It is a pure function: the same
// input always yields the same output, and spoofed or unusual agents are
// classified best-effort with Unknown fallbacks.
func Detect(userAgent string) Classification {
	return Classification{
		DeviceType:      classifyDeviceType(userAgent),
		OperatingSystem: firstMatch(osSignatures, userAgent),
		Browser:         firstMatch(browserSignatures, userAgent),
		BrowserVersion:  browserVersion(userAgent),
	}
}

// Snapshot combines the user-agent classification with client-reported
// hints into the full wire shape.
func Snapshot(userAgent string, hints model.ClientHints) model.DeviceSnapshot {
	c := Detect(userAgent)
	online := true
	if hints.Online != nil {
		online = *hints.Online
	}
	return model.DeviceSnapshot{
		DeviceType:       c.DeviceType,
		OperatingSystem:  c.OperatingSystem,
		Browser:          c.Browser,
		BrowserVersion:   c.BrowserVersion,
		UserAgent:        userAgent,
		ScreenResolution: hints.ScreenResolution,
		ViewportSize:     hints.ViewportSize,
		Timezone:         hints.Timezone,
		Language:         hints.Language,
		Online:           online,
	}
}

func classifyDeviceType(ua string) string {
	if tabletPattern.MatchString(ua) {
		return TypeTablet
	}
	if androidPattern.MatchString(ua) && !androidMobilePattern.MatchString(ua) {
		return TypeTablet
	}
	if mobilePattern.MatchString(ua) {
		return TypeMobile
	}
	return TypeDesktop
}

func firstMatch(signatures []signature, ua string) string {
	for _, sig := range signatures {
		if sig.Pattern.MatchString(ua) {
			return sig.Name
		}
	}
	return Unknown
}

func browserVersion(ua string) string {
	m := versionPattern.FindStringSubmatch(ua)
	if m == nil {
		return Unknown
	}
	return m[1]
}
