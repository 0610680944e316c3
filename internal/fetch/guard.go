package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"syscall"
	"time"
)

// ErrBlockedAddress is returned when a fetch would reach a loopback, private,
// link-local or unspecified address.
var ErrBlockedAddress = errors.New("destination address is not allowed")

// IsBlockedIP reports whether ip must not be fetched on behalf of a caller.
func IsBlockedIP(ip netip.Addr) bool {
	ip = ip.Unmap()
	return !ip.IsValid() ||
		ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsUnspecified()
}

// guardDial is a net.Dialer Control hook. It runs after DNS resolution for
// every connection, redirects included.
func guardDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || IsBlockedIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

func newDialer(allowPrivate bool) *net.Dialer {
	d := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if !allowPrivate {
		d.Control = guardDial
	}
	return d
}

// CheckDestination resolves the host of rawURL and rejects it when any of its
// addresses is blocked. Used before handing a URL to the headless browser,
// which does its own dialing.
func CheckDestination(ctx context.Context, rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	parsed, _ := url.Parse(rawURL)
	host := parsed.Hostname()

	if ip, err := netip.ParseAddr(host); err == nil {
		if IsBlockedIP(ip) {
			return &Error{URL: rawURL, Message: "blocked destination", Cause: ErrBlockedAddress}
		}
		return nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return &Error{URL: rawURL, Message: "failed to resolve host", Cause: err}
	}
	for _, addr := range addrs {
		if IsBlockedIP(addr) {
			return &Error{URL: rawURL, Message: "blocked destination", Cause: ErrBlockedAddress}
		}
	}
	return nil
}
