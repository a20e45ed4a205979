package xnetip

import (
	"net"
	"net/netip"
)

// IPNet converts the prefix into the net.IPNet form expected by netlink,
// keeping the host part of the address.
//
// An invalid prefix yields nil.
func IPNet(prefix netip.Prefix) *net.IPNet {
	if !prefix.IsValid() {
		return nil
	}

	addr := prefix.Addr().Unmap()
	bits := 32
	if addr.Is6() {
		bits = 128
	}

	return &net.IPNet{
		IP:   IP(addr),
		Mask: net.CIDRMask(prefix.Bits(), bits),
	}
}

// IP converts the address into net.IP. An invalid address yields nil.
func IP(addr netip.Addr) net.IP {
	if !addr.IsValid() {
		return nil
	}
	return net.IP(addr.Unmap().AsSlice())
}
