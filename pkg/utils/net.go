package utils

import (
	"fmt"
	"net"
	"time"

	"github.com/beevik/ntp"
)

const linkPollDelay = 500 * time.Millisecond

// WaitForLink polls until the host has a non-loopback IPv4 address or the
// timeout passes. Headless boards come up before DHCP finishes; serving
// before the link exists just burns the retry budget of every client.
func WaitForLink(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if ip := localIPv4(); ip != "" {
			return ip, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("no network link after %s", timeout)
		}
		time.Sleep(linkPollDelay)
	}
}

func localIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

// SyncClock queries the given NTP host and returns the local clock offset.
// The caller decides whether a failure matters; boards without an RTC boot
// with a bogus clock and timestamped clip names inherit it.
func SyncClock(host string) (time.Duration, error) {
	rsp, err := ntp.Query(host)
	if err != nil {
		return 0, err
	}
	if err := rsp.Validate(); err != nil {
		return 0, err
	}
	return rsp.ClockOffset, nil
}
