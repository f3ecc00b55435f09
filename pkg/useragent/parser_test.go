package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iphoneSafariUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	googlebotUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	parser, err := New("", zap.NewNop())
	require.NoError(t, err)
	return parser
}

func TestParse_DesktopBrowser(t *testing.T) {
	info := newParser(t).Parse(chromeWindowsUA)

	assert.Equal(t, "Chrome", info.BrowserName)
	assert.Equal(t, "120.0.0", info.BrowserVersion)
	assert.Equal(t, "Chrome 120.0.0", info.Browser)
	assert.Equal(t, "Windows", info.OSName)
	assert.Equal(t, "desktop", info.DeviceType)
	assert.Equal(t, "Desktop (Windows)", info.Device)
	assert.Equal(t, chromeWindowsUA, info.Raw)
}

func TestParse_Mobile(t *testing.T) {
	info := newParser(t).Parse(iphoneSafariUA)

	assert.Equal(t, "Mobile Safari", info.BrowserName)
	assert.Equal(t, "iOS", info.OSName)
	assert.Equal(t, "mobile", info.DeviceType)
	assert.Equal(t, "Apple", info.DeviceVendor)
	assert.Equal(t, "iPhone", info.DeviceModel)
}

func TestParse_Bot(t *testing.T) {
	info := newParser(t).Parse(googlebotUA)

	assert.Equal(t, "bot", info.DeviceType)
}

func TestParse_Empty(t *testing.T) {
	info := newParser(t).Parse("")

	assert.Equal(t, "Unknown", info.Browser)
	assert.Equal(t, "Unknown", info.OS)
	assert.Equal(t, "Unknown", info.Device)
	assert.Equal(t, "Unknown", info.DeviceType)
}

func TestJoinVersion(t *testing.T) {
	assert.Equal(t, "17.1", joinVersion("17", "1", ""))
	assert.Equal(t, "120.0.0", joinVersion("120", "0", "0"))
	assert.Equal(t, "Unknown", joinVersion("", "", ""))
}
