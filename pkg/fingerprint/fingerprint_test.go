package fingerprint_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deployable-tech/deployable-knowledge-web/pkg/fingerprint"
)

func createTestRequest(headers map[string]string, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header = http.Header{}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.RemoteAddr = remoteAddr
	return req
}

func TestDevice(t *testing.T) {
	t.Parallel()

	browser := map[string]string{
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		"Accept-Language": "en-US,en;q=0.9",
		"Accept-Encoding": "gzip, deflate, br",
	}
	with := func(overrides map[string]string) *http.Request {
		h := make(map[string]string, len(browser))
		for k, v := range browser {
			h[k] = v
		}
		for k, v := range overrides {
			h[k] = v
		}
		return createTestRequest(h, "192.0.2.1:1")
	}

	page := with(map[string]string{"Accept": "text/html", "Sec-Fetch-Dest": "document", "Upgrade-Insecure-Requests": "1"})
	fetch := with(map[string]string{"Accept": "*/*", "Sec-Fetch-Dest": "empty"})
	assert.Regexp(t, "^v1:[a-f0-9]{32}$", fingerprint.Device(page))
	assert.Equal(t, fingerprint.Device(page), fingerprint.Device(fetch), "navigation and fetch share a device")

	moved := with(nil)
	moved.RemoteAddr = "198.51.100.7:1"
	assert.Equal(t, fingerprint.Device(page), fingerprint.Device(moved), "ip is not part of the device")

	for name, h := range map[string]map[string]string{
		"user agent": {"User-Agent": "curl/8.5.0"},
		"language":   {"Accept-Language": "de-DE"},
		"encoding":   {"Accept-Encoding": "identity"},
	} {
		assert.NotEqual(t, fingerprint.Device(page), fingerprint.Device(with(h)), name)
	}
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	a := createTestRequest(map[string]string{"User-Agent": "Firefox/130.0", "Accept": "a"}, "192.0.2.1:1")
	b := createTestRequest(map[string]string{"User-Agent": "Firefox/130.0", "Accept": "b"}, "198.51.100.1:1")
	c := createTestRequest(map[string]string{"User-Agent": "Chrome/128.0"}, "192.0.2.1:1")

	assert.Equal(t, fingerprint.UserAgent(a), fingerprint.UserAgent(b), "only the user agent counts")
	assert.NotEqual(t, fingerprint.UserAgent(a), fingerprint.UserAgent(c))
	assert.True(t, fingerprint.IsValid(fingerprint.UserAgent(a)))
}

func TestNetwork(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b      string
		bits      int
		wantEqual bool
	}{
		{name: "same /24", a: "192.0.2.10", b: "192.0.2.200", bits: 24, wantEqual: true},
		{name: "different /24", a: "192.0.2.10", b: "192.0.3.10", bits: 24, wantEqual: false},
		{name: "same /16", a: "192.0.2.10", b: "192.0.99.10", bits: 16, wantEqual: true},
		{name: "full address", a: "192.0.2.10", b: "192.0.2.11", bits: 32, wantEqual: false},
		{name: "bits above 32 clamp", a: "192.0.2.10", b: "192.0.2.10", bits: 48, wantEqual: true},
		{name: "ipv6 same /64", a: "2001:db8::1", b: "2001:db8::ffff", bits: 24, wantEqual: true},
		{name: "ipv6 different /64", a: "2001:db8::1", b: "2001:db8:0:1::1", bits: 24, wantEqual: false},
		{name: "mapped equals plain", a: "::ffff:192.0.2.10", b: "192.0.2.10", bits: 24, wantEqual: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fa := fingerprint.Network(tt.a, tt.bits)
			fb := fingerprint.Network(tt.b, tt.bits)
			assert.NotEmpty(t, fa)
			assert.Equal(t, tt.wantEqual, fa == fb)
		})
	}

	t.Run("disabled or unparsable", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, fingerprint.Network("192.0.2.10", 0))
		assert.Empty(t, fingerprint.Network("nope", 24))
	})
}

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, fingerprint.Equal("v1:abc", "v1:abc"))
	assert.False(t, fingerprint.Equal("v1:abc", "v1:abd"))
	assert.False(t, fingerprint.Equal("v1:abc", "v1:abcd"))
	assert.False(t, fingerprint.Equal("", "v1:abc"))
	assert.True(t, fingerprint.Equal("", ""))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	req := createTestRequest(map[string]string{"User-Agent": "Mozilla/5.0", "Accept-Language": "en"}, "192.0.2.1:1")
	stored := fingerprint.Device(req)

	t.Run("match", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, fingerprint.Validate(req, stored))
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()
		other := createTestRequest(map[string]string{"User-Agent": "Mozilla/5.0", "Accept-Language": "fr"}, "192.0.2.1:1")
		assert.ErrorIs(t, fingerprint.Validate(other, stored), fingerprint.ErrMismatch)
	})

	t.Run("invalid stored value", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"", "v1:short", "v2:" + stored[3:], "v1:" + "zz" + stored[5:]} {
			assert.ErrorIs(t, fingerprint.Validate(req, s), fingerprint.ErrInvalidFingerprint, s)
		}
	})
}
