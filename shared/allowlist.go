package shared

import (
	"net"
	"strings"
)

// AllowList holds the set of trusted client IPs exempt from rate and DDoS
// checks. Allow-listing never bypasses authentication.
type AllowList struct {
	ips  map[string]struct{}
	nets []*net.IPNet
}

// ParseAllowList builds an AllowList from a comma-separated list of IPs
// and CIDR ranges. Unparseable entries are ignored.
func ParseAllowList(raw string) *AllowList {
	al := &AllowList{ips: make(map[string]struct{})}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			if _, ipNet, err := net.ParseCIDR(entry); err == nil {
				al.nets = append(al.nets, ipNet)
			}
			continue
		}

		if ip := net.ParseIP(entry); ip != nil {
			al.ips[ip.String()] = struct{}{}
		}
	}

	return al
}

func (al *AllowList) Contains(ip string) bool {
	if al == nil {
		return false
	}

	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}

	if _, ok := al.ips[parsed.String()]; ok {
		return true
	}

	for _, ipNet := range al.nets {
		if ipNet.Contains(parsed) {
			return true
		}
	}

	return false
}

func (al *AllowList) Size() int {
	if al == nil {
		return 0
	}
	return len(al.ips) + len(al.nets)
}
