package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeIdentifier(t *testing.T) {
	cases := map[string]string{
		"a@b.com":               "a_b.com",
		"  Jane.Doe@Example.io": "jane.doe_example.io",
		"x+tag@b.com":           "x_tag_b.com",
		"../../etc/passwd":      "etc_passwd",
		"":                      "anonymous",
		"@":                     "anonymous",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeIdentifier(in), "input %q", in)
	}
}

func TestReportIDUniquePerCall(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := ReportID("a@b.com")
		require.True(t, strings.HasPrefix(id, "UX_Report_a_b.com_"), id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestSafeIdentifierCapsLength(t *testing.T) {
	long := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 180) + ".com"

	got := SafeIdentifier(long)
	assert.Len(t, got, MaxIdentifierLen)
	assert.Equal(t, strings.Repeat("a", 64), got)

	assert.Equal(t, strings.Repeat("x", 63), SafeIdentifier(strings.Repeat("x", 63)+"."+strings.Repeat("y", 10)))

	id := ReportID(long)
	assert.LessOrEqual(t, len(id+".pdf"), 255)
	assert.True(t, strings.HasPrefix(id, "UX_Report_"+got+"_"), id)
}
