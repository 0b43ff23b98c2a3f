package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// FullMaskV4 is the all-ones mask for an IPv4 address.
func FullMaskV4() net.IP {
	return net.IP(net.CIDRMask(32, 32))
}

// FullMaskV6 is the all-ones mask for an IPv6 address.
func FullMaskV6() net.IP {
	return net.IP(net.CIDRMask(128, 128))
}

// IsFullMask reports whether mask is the all-ones mask for its own
// address family (IPv4 or IPv6).
func IsFullMask(mask net.IP) bool {
	if v4 := mask.To4(); v4 != nil {
		return v4.Equal(net.IP(net.CIDRMask(32, 32)).To4())
	}
	return mask.Equal(FullMaskV6())
}

// IsV4 reports whether ip is an IPv4 address.
func IsV4(ip net.IP) bool {
	return ip.To4() != nil
}

// CanonicalIP normalizes an IP to its shortest form so that map keys built
// from it compare consistently (a v4-mapped v6 address equals its v4 form).
func CanonicalIP(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}

// ParseIPWithMask parses an IP address with CIDR notation
// Returns the IP, mask length, and any error
func ParseIPWithMask(cidr string) (net.IP, int, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid CIDR notation: %s", cidr)
	}
	ones, _ := ipNet.Mask.Size()
	return ip, ones, nil
}

// SplitIPMask splits a CIDR notation into IP and mask length
// Returns the IP (without mask) and mask length
func SplitIPMask(cidr string) (string, int) {
	parts := strings.Split(cidr, "/")
	if len(parts) != 2 {
		return cidr, 0 // Return as-is if no mask
	}
	maskLen, err := strconv.Atoi(parts[1])
	if err != nil {
		return parts[0], 0
	}
	return parts[0], maskLen
}

// MaskFromLen builds a mask address of the given prefix length for the
// address family implied by v6.
func MaskFromLen(maskLen int, v6 bool) net.IP {
	if v6 {
		return net.IP(net.CIDRMask(maskLen, 128))
	}
	return net.IP(net.CIDRMask(maskLen, 32))
}

// MaskLen returns the prefix length of a mask address, or -1 if the mask
// is not contiguous.
func MaskLen(mask net.IP) int {
	m := net.IPMask(mask)
	if v4 := mask.To4(); v4 != nil {
		m = net.IPMask(v4)
	}
	ones, bits := m.Size()
	if ones == 0 && bits == 0 {
		return -1
	}
	return ones
}
