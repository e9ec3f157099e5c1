package scan

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"
)

// parseCIDR splits "A.B.C.D/P" into a base address and prefix length. It is
// deliberately strict: exactly four octets in [0,255] and a prefix in [0,32].
// Anything else reports ok=false.
func parseCIDR(cidr string) (base uint32, prefix int, ok bool) {
	addr, prefixStr, found := strings.Cut(strings.TrimSpace(cidr), "/")
	if !found {
		return 0, 0, false
	}

	prefix, err := strconv.Atoi(prefixStr)
	if err != nil || prefix < 0 || prefix > 32 {
		return 0, 0, false
	}

	octets := strings.Split(addr, ".")
	if len(octets) != 4 {
		return 0, 0, false
	}
	for _, octet := range octets {
		v, err := strconv.Atoi(octet)
		if err != nil || v < 0 || v > 255 {
			return 0, 0, false
		}
		base = base<<8 | uint32(v)
	}
	return base, prefix, true
}

// hostRange computes the first and last scan target of a block. The network
// and broadcast addresses are excluded for prefixes up to /30; /31 and /32
// are degenerate ranges scanned in full.
func hostRange(base uint32, prefix int) (first, last uint32) {
	var mask uint32
	if prefix > 0 {
		mask = ^uint32(0) << (32 - prefix)
	}
	network := base & mask
	broadcast := network | ^mask

	if prefix <= 30 {
		return network + 1, broadcast - 1
	}
	return network, broadcast
}

// targetCount reports how many addresses expandCIDR would produce without
// materialising them. Malformed input counts as zero.
func targetCount(cidr string) int {
	base, prefix, ok := parseCIDR(cidr)
	if !ok {
		return 0
	}
	first, last := hostRange(base, prefix)
	return int(uint64(last) - uint64(first) + 1)
}

// expandCIDR returns every scan target of the block in ascending order.
// Malformed input expands to nothing rather than an error; callers treat an
// empty result as "nothing to scan".
func expandCIDR(cidr string) []string {
	base, prefix, ok := parseCIDR(cidr)
	if !ok {
		return nil
	}

	first, last := hostRange(base, prefix)
	targets := make([]string, 0, uint64(last)-uint64(first)+1)
	for addr := uint64(first); addr <= uint64(last); addr++ {
		targets = append(targets, formatIPv4(uint32(addr)))
	}
	return targets
}

func formatIPv4(v uint32) string {
	addr := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(addr, v)
	return addr.String()
}
