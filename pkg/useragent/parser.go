package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

const unknown = "Unknown"

// Parser wraps the ua-parser regex engine with device/browser/OS
// normalization. It never fails on input: missing data degrades to "Unknown".
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// ClientInfo is the normalized result of parsing a User-Agent string.
type ClientInfo struct {
	Device       string // "{vendor} {type} {model}" or "Desktop ({osName})"
	DeviceType   string // mobile, tablet, desktop, bot, Unknown
	DeviceVendor string
	DeviceModel  string

	Browser        string // "{name} {version}"
	BrowserName    string
	BrowserVersion string

	OS        string // "{name} {version}"
	OSName    string
	OSVersion string

	Raw string
}

// New creates a parser from a uap-core regexes file. An empty or missing path
// falls back to the regex set compiled into the library, so the service and
// its tests run without any asset file.
func New(regexesPath string, log *zap.Logger) (*Parser, error) {
	if regexesPath != "" {
		if _, err := os.Stat(regexesPath); err == nil {
			parser, err := uaparser.New(regexesPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load regexes from %s: %w", regexesPath, err)
			}
			log.Info("user-agent parser initialized", zap.String("regexes_file", regexesPath))
			return &Parser{parser: parser, log: log}, nil
		}
		log.Warn("regexes file not found, using built-in regex set", zap.String("path", regexesPath))
	}

	return &Parser{parser: uaparser.NewFromSaved(), log: log}, nil
}

// Parse normalizes a raw User-Agent string.
func (p *Parser) Parse(userAgent string) *ClientInfo {
	info := &ClientInfo{
		Device:         unknown,
		DeviceType:     unknown,
		DeviceVendor:   unknown,
		DeviceModel:    unknown,
		Browser:        unknown,
		BrowserName:    unknown,
		BrowserVersion: unknown,
		OS:             unknown,
		OSName:         unknown,
		OSVersion:      unknown,
		Raw:            userAgent,
	}
	if userAgent == "" {
		return info
	}

	client := p.parser.Parse(userAgent)

	info.BrowserName = normalizeFamily(client.UserAgent.Family)
	info.BrowserVersion = joinVersion(client.UserAgent.Major, client.UserAgent.Minor, client.UserAgent.Patch)
	info.Browser = describe(info.BrowserName, info.BrowserVersion)

	info.OSName = normalizeFamily(client.Os.Family)
	info.OSVersion = joinVersion(client.Os.Major, client.Os.Minor, client.Os.Patch)
	info.OS = describe(info.OSName, info.OSVersion)

	info.DeviceType = deviceType(client, userAgent)

	deviceFamily := client.Device.Family
	if deviceFamily != "" && deviceFamily != "Other" {
		if client.Device.Brand != "" {
			info.DeviceVendor = client.Device.Brand
		}
		if client.Device.Model != "" {
			info.DeviceModel = client.Device.Model
		}
		info.Device = fmt.Sprintf("%s %s %s", info.DeviceVendor, info.DeviceType, info.DeviceModel)
	} else {
		info.Device = fmt.Sprintf("Desktop (%s)", info.OSName)
	}

	return info
}

// deviceType classifies the client as bot, tablet, mobile or desktop.
func deviceType(client *uaparser.Client, userAgent string) string {
	if isBot(client.UserAgent.Family, userAgent) {
		return "bot"
	}

	osFamily := client.Os.Family
	deviceFamily := client.Device.Family

	if deviceFamily != "" && deviceFamily != "Other" {
		if containsAny(deviceFamily, "iPad", "Tablet", "Kindle", "Surface") {
			return "tablet"
		}
		if containsAny(deviceFamily, "iPhone", "Android", "BlackBerry", "Windows Phone", "Mobile", "Phone") {
			return "mobile"
		}
	}

	if containsAny(osFamily, "iOS", "Android", "Windows Phone", "BlackBerry OS", "Firefox OS") {
		if isTablet(osFamily, userAgent) {
			return "tablet"
		}
		return "mobile"
	}

	if containsAny(osFamily, "Windows", "Mac OS X", "macOS", "Linux", "Ubuntu", "Chrome OS", "FreeBSD", "OpenBSD", "NetBSD") {
		return "desktop"
	}

	return unknown
}

func isBot(uaFamily, userAgent string) bool {
	return containsAny(uaFamily,
		"Googlebot", "Bingbot", "Slurp", "DuckDuckBot", "Baiduspider", "YandexBot",
		"facebookexternalhit", "Twitterbot", "LinkedInBot", "WhatsApp", "Telegram",
		"bot", "crawler", "spider", "scraper") ||
		containsAny(userAgent, "bot", "crawler", "spider", "scraper")
}

func isTablet(osFamily, userAgent string) bool {
	// iPads identify as iOS; Android tablets drop "Mobile" from the UA.
	if containsAny(osFamily, "iOS") {
		return containsAny(userAgent, "iPad")
	}
	if containsAny(osFamily, "Android") {
		return !containsAny(userAgent, "Mobile")
	}
	return false
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, substr := range substrs {
		if strings.Contains(lower, strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

func normalizeFamily(family string) string {
	if family == "" || family == "Other" {
		return unknown
	}
	return family
}

// joinVersion composes "major.minor.patch", dropping trailing empty parts.
func joinVersion(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part == "" {
			break
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return unknown
	}
	return strings.Join(kept, ".")
}

func describe(name, version string) string {
	if name == unknown {
		return unknown
	}
	if version == unknown {
		return name
	}
	return name + " " + version
}
