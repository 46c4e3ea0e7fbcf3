// Package clientip extracts the client address of an HTTP request.
//
// GetIP honors proxy headers in this order, falling back to RemoteAddr:
//
//	CF-Connecting-IP, DO-Connecting-IP, X-Forwarded-For (leftmost), X-Real-IP
//
// Unparsable and unspecified (0.0.0.0, ::) values are skipped, and
// IPv4-mapped IPv6 addresses are returned in IPv4 form.
//
// # Trust
//
// Any client can send these headers. GetIP is only safe behind a proxy that
// overwrites them; use RemoteIP, which reads only the connected peer, for
// anything security relevant unless that is guaranteed. Session IP binding
// uses RemoteIP unless SESSION_TRUST_PROXY_HEADERS is set, while request
// logging uses GetIP:
//
//	ip := clientip.RemoteIP(r)
//	if trustProxy {
//		ip = clientip.GetIP(r)
//	}
package clientip
