package aptos

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	v := Version()
	assert.NotEmpty(t, v)
	// "dev" from source, a "v"-prefixed tag from ldflags
	assert.True(t, v == "dev" || strings.HasPrefix(v, "v"), "unexpected version %q", v)
}

func TestCommit(t *testing.T) {
	c := Commit()
	if c == "unknown" {
		return
	}
	assert.GreaterOrEqual(t, len(c), 7, "commit %q is too short for a git hash", c)
	assert.Equal(t, -1, strings.IndexFunc(c, func(r rune) bool {
		return !strings.ContainsRune("0123456789abcdef", r)
	}), "commit %q is not hex", c)
}

func TestBuildTime(t *testing.T) {
	if bt := BuildTime(); bt != "unknown" {
		assert.Contains(t, bt, "T", "build time %q is not RFC 3339", bt)
	}
}

func TestGoVersion(t *testing.T) {
	assert.Equal(t, runtime.Version(), GoVersion())
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	assert.Equal(t, "aptos/"+Version(), ua)
	assert.False(t, strings.ContainsAny(ua, " \t\r\n\x00"), "user agent %q is not a valid header token", ua)
}

func TestBuildInfo(t *testing.T) {
	info := BuildInfo()
	for _, want := range []string{
		"Version: " + Version(),
		"Commit: " + Commit(),
		"Build Time: " + BuildTime(),
		"Go Version: " + GoVersion(),
	} {
		assert.Contains(t, info, want)
	}
	assert.Len(t, strings.Split(info, "\n"), 4)
}
