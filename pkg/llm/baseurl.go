package llm

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// BaseURLPolicy says which model endpoints are acceptable.
type BaseURLPolicy struct {
	// AllowHTTP permits plain HTTP. HTTPS is always allowed.
	AllowHTTP bool
	// AllowLocalNetworks permits loopback, private and link-local targets.
	// Self-hosted model servers usually live there.
	AllowLocalNetworks bool
}

// DefaultBaseURLPolicy accepts self-hosted endpoints.
var DefaultBaseURLPolicy = BaseURLPolicy{AllowHTTP: true, AllowLocalNetworks: true}

// ValidateBaseURL checks a model endpoint before any request is sent to it.
// IP literals are checked without DNS lookups.
func ValidateBaseURL(rawURL string, policy BaseURLPolicy) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid base url")
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !policy.AllowHTTP {
			return errors.New("http base urls are not allowed")
		}
	default:
		return errors.Errorf("unsupported base url scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errors.New("base url has no host")
	}
	if !policy.AllowLocalNetworks && (host == "localhost" || strings.HasSuffix(host, ".localhost")) {
		return errors.Errorf("local host %q is not allowed", host)
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	addr = addr.Unmap()
	if addr.IsUnspecified() || addr.IsMulticast() {
		return errors.Errorf("base url points at %s", host)
	}
	if !policy.AllowLocalNetworks && (addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()) {
		return errors.Errorf("local network address %q is not allowed", host)
	}
	return nil
}
