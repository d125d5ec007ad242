package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAllowList(t *testing.T) {
	al := ParseAllowList("192.168.1.10, 10.0.0.0/8, garbage, 2001:db8::1")

	require.Equal(t, 3, al.Size())
	require.True(t, al.Contains("192.168.1.10"))
	require.True(t, al.Contains("10.1.2.3"))
	require.True(t, al.Contains("2001:db8::1"))
	require.False(t, al.Contains("192.168.1.11"))
	require.False(t, al.Contains("11.0.0.1"))
	require.False(t, al.Contains("garbage"))
	require.False(t, al.Contains(""))
}

func TestAllowListEmpty(t *testing.T) {
	al := ParseAllowList("")

	require.Equal(t, 0, al.Size())
	require.False(t, al.Contains("127.0.0.1"))
}

func TestAllowListNil(t *testing.T) {
	var al *AllowList

	require.Equal(t, 0, al.Size())
	require.False(t, al.Contains("127.0.0.1"))
}
