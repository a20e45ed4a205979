package xnetip

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPNet(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{
			name:     "IPv4 host in /24",
			prefix:   "172.16.1.2/24",
			expected: "172.16.1.2/24",
		},
		{
			name:     "IPv4 /32",
			prefix:   "10.0.0.1/32",
			expected: "10.0.0.1/32",
		},
		{
			name:     "IPv6 /64",
			prefix:   "2001:db8::2/64",
			expected: "2001:db8::2/64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ipNet := IPNet(netip.MustParsePrefix(tt.prefix))
			require.NotNil(t, ipNet)
			require.Equal(t, tt.expected, ipNet.String())
		})
	}
}

func TestIPNetInvalid(t *testing.T) {
	require.Nil(t, IPNet(netip.Prefix{}))
	require.Nil(t, IP(netip.Addr{}))
}

func TestIPUnmapsIPv4(t *testing.T) {
	ip := IP(netip.MustParseAddr("::ffff:192.168.1.1"))
	require.Equal(t, net.IPv4len, len(ip))
	require.True(t, ip.Equal(net.ParseIP("192.168.1.1")))
}
