// Package origin normalizes browser Origin headers and checks them against
// the relay's allow-list. The relay fronts a browser frontend (the pet-owner
// and vet web apps), so both the WebSocket upgrade and the HTTP endpoints
// consult this policy.
package origin

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Normalize validates a browser Origin header and returns it in canonical
// scheme://host[:port] form plus the host[:port] part for same-host
// comparisons. Default ports are stripped. The special value "null" is
// allowed and returned as-is.
func Normalize(originHeader string) (normalized string, host string, ok bool) {
	trimmed := strings.TrimSpace(originHeader)
	if trimmed == "" {
		return "", "", false
	}
	if trimmed == "null" {
		return "null", "", true
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" || u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return "", "", false
	}
	if u.Path != "" && u.Path != "/" {
		return "", "", false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", false
	}

	host, ok = canonicalHostPort(u.Host, scheme)
	if !ok {
		return "", "", false
	}
	return scheme + "://" + host, host, true
}

// IsAllowed reports whether a normalized origin may access the relay.
//
// A non-empty allow-list grants exactly its entries, where "*" matches
// anything. With an empty allow-list the policy is same-host only: the
// origin's host[:port] must equal the request's Host header. Scheme is
// deliberately not compared because the relay commonly sits behind a
// TLS-terminating proxy and sees plain HTTP.
func IsAllowed(normalized, originHost, requestHost string, allowedOrigins []string) bool {
	if len(allowedOrigins) > 0 {
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == normalized {
				return true
			}
		}
		return false
	}

	scheme := ""
	switch {
	case strings.HasPrefix(normalized, "http://"):
		scheme = "http"
	case strings.HasPrefix(normalized, "https://"):
		scheme = "https"
	default:
		// "null" can never match a host-based request.
		return false
	}

	reqHost, ok := canonicalHostPort(strings.TrimSpace(requestHost), scheme)
	if !ok {
		return false
	}
	return originHost == reqHost
}

// canonicalHostPort lower-cases the hostname, validates the port, and strips
// it when it is the scheme default. IPv6 literals keep their brackets.
func canonicalHostPort(rawHost, scheme string) (string, bool) {
	hostname, rawPort, ok := splitAuthority(strings.ToLower(rawHost))
	if !ok || hostname == "" {
		return "", false
	}

	var port uint64
	if rawPort != "" {
		n, err := strconv.ParseUint(rawPort, 10, 16)
		if err != nil || n == 0 {
			return "", false
		}
		port = n
	}
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		port = 0
	}

	host := hostname
	if strings.Contains(hostname, ":") {
		host = "[" + hostname + "]"
	}
	if port != 0 {
		host += ":" + strconv.FormatUint(port, 10)
	}
	return host, true
}

func splitAuthority(rawHost string) (hostname, port string, ok bool) {
	if rawHost == "" {
		return "", "", false
	}
	if strings.HasPrefix(rawHost, "[") || strings.Count(rawHost, ":") == 1 {
		h, p, err := net.SplitHostPort(rawHost)
		if err == nil {
			if p == "" {
				return "", "", false
			}
			return h, p, true
		}
		if strings.HasPrefix(rawHost, "[") {
			// Bracketed literal without a port.
			if strings.HasSuffix(rawHost, "]") {
				return rawHost[1 : len(rawHost)-1], "", true
			}
			return "", "", false
		}
		return "", "", false
	}
	if strings.Contains(rawHost, ":") {
		// Unbracketed IPv6 literals are not valid authority components.
		return "", "", false
	}
	return rawHost, "", true
}
