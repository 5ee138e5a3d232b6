package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// DefaultScheme is prefixed to raw targets that do not carry a scheme.
const DefaultScheme = "https"

// Target validation errors.
var (
	// ErrEmptyTarget is returned for blank input lines or cells.
	ErrEmptyTarget = errors.New("empty target")

	// ErrInvalidTarget is returned when a raw value cannot be turned into an
	// http(s) URL with a host, even after prefixing DefaultScheme.
	ErrInvalidTarget = errors.New("invalid target URL")
)

// errNotAbsolute marks a parse that succeeded but produced no scheme or host.
var errNotAbsolute = errors.New("url has no scheme or host")

// hostProfile converts internationalized host names to their ASCII form.
// STD3 rules are relaxed so hosts containing underscores still pass.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(false),
)

// Target is a validated, scheme-qualified URL to be audited.
// The string form is the row key in the store, so two targets are the same
// row only when their strings are byte-for-byte equal.
type Target string

// String returns the URL.
func (t Target) String() string {
	return string(t)
}

// NormalizeTarget validates raw and returns the corresponding Target.
//
// Values that already parse as absolute http(s) URLs are kept; anything else
// without an explicit "://" is retried with DefaultScheme prefixed
// ("example.com" becomes "https://example.com"). Host names are lowercased
// and converted to ASCII.
func NormalizeTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyTarget
	}

	u, err := parseAbsolute(raw)
	if err != nil && !strings.Contains(raw, "://") {
		u, err = parseAbsolute(DefaultScheme + "://" + raw)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}

	return Target(u.String()), nil
}

// parseAbsolute parses s and requires an http or https scheme plus a host.
func parseAbsolute(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errNotAbsolute
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, errNotAbsolute
	}
	if net.ParseIP(host) != nil {
		return u, nil
	}

	ascii, err := hostProfile.ToASCII(host)
	if err != nil {
		return nil, err
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(ascii, port)
	} else {
		u.Host = ascii
	}
	return u, nil
}
