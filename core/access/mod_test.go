package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevel_String(t *testing.T) {
	require.Equal(t, "none", None.String())
	require.Equal(t, "user", User.String())
	require.Equal(t, "operator", Operator.String())
	require.Equal(t, "admin", Admin.String())
	require.Equal(t, "level[42]", Level(42).String())
}

func TestParseLevel(t *testing.T) {
	for _, expected := range []Level{None, User, Operator, Admin} {
		lvl, err := ParseLevel(expected.String())
		require.NoError(t, err)
		require.Equal(t, expected, lvl)
	}

	lvl, err := ParseLevel("3")
	require.NoError(t, err)
	require.Equal(t, Admin, lvl)

	_, err = ParseLevel("root")
	require.EqualError(t, err, "unknown level 'root'")
}
