package fingerprint

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"net/netip"
	"strings"
)

const (
	version = "v1:"
	// hashLen keeps 128 of the 256 SHA-256 bits.
	hashLen = 16
	// totalLen is len(version) + hex of hashLen bytes.
	totalLen = len(version) + 2*hashLen

	// ipv6NetworkBits is used for any IPv6 client when network binding is on.
	ipv6NetworkBits = 64
)

var (
	// ErrInvalidFingerprint is returned for a stored value without the "v1:" + hex shape.
	ErrInvalidFingerprint = errors.New("invalid fingerprint format")
	// ErrMismatch is returned when the request no longer matches the stored fingerprint.
	ErrMismatch = errors.New("fingerprint mismatch")
)

// UserAgent fingerprints only the User-Agent header.
func UserAgent(r *http.Request) string {
	return hash("ua|" + r.UserAgent())
}

// Device fingerprints the browser traits that stay fixed across every request
// a page makes: User-Agent, Accept-Language and Accept-Encoding. Accept and the
// Sec-Fetch-* family differ between navigations and fetch calls, so they are
// left out.
func Device(r *http.Request) string {
	parts := []string{
		"device",
		r.UserAgent(),
		r.Header.Get("Accept-Language"),
		r.Header.Get("Accept-Encoding"),
	}
	// the delimiter keeps ["ab", "c"] and ["a", "bc"] distinct
	return hash(strings.Join(parts, "|"))
}

// Network fingerprints a client network: ip masked to bits for IPv4, or to
// /64 for IPv6. Returns "" when bits is not positive or ip cannot be parsed.
func Network(ip string, bits int) string {
	if bits <= 0 {
		return ""
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	addr = addr.Unmap()

	if addr.Is4() {
		bits = min(bits, 32)
	} else {
		bits = ipv6NetworkBits
	}

	prefix, err := addr.Prefix(bits)
	if err != nil {
		return ""
	}
	return hash("net|" + prefix.String())
}

// Equal compares two fingerprints in constant time.
// Both sides are hashed first so timing does not depend on their lengths either.
func Equal(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}

// Validate checks r against a stored Device fingerprint.
func Validate(r *http.Request, stored string) error {
	if !IsValid(stored) {
		return ErrInvalidFingerprint
	}
	if !Equal(Device(r), stored) {
		return ErrMismatch
	}
	return nil
}

// IsValid reports whether s has the "v1:" + 32 hex digit shape.
func IsValid(s string) bool {
	if len(s) != totalLen || !strings.HasPrefix(s, version) {
		return false
	}
	_, err := hex.DecodeString(s[len(version):])
	return err == nil
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return version + hex.EncodeToString(sum[:hashLen])
}
