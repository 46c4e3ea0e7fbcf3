// Package fingerprint derives client fingerprints from HTTP requests for
// session binding.
//
//	ua := fingerprint.UserAgent(r)                      // User-Agent only
//	dev := fingerprint.Device(r)                        // User-Agent + Accept-Language + Accept-Encoding
//	nw := fingerprint.Network(clientip.RemoteIP(r), 24) // client /24 (IPv6: /64)
//
// All fingerprints have the form "v1:" followed by 32 hex digits. Compare
// them with Equal or Validate, which run in constant time; never with ==.
//
// Fingerprints change legitimately: browsers update their User-Agent and
// mobile clients roam between networks. A mismatch should end the session,
// not lock the user out.
package fingerprint
