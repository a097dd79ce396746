// ytparser/ytdlp/ytdlp_test.go
package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCLI(extra ...string) *CLI {
	return &CLI{bin: "yt-dlp", extraArgs: extra, log: zap.NewNop()}
}

func TestBuildArgs_Defaults(t *testing.T) {
	args := testCLI().buildArgs("https://youtu.be/abc", Options{}, false)
	assert.Equal(t, []string{
		"--no-warnings", "--skip-download", "-J", "--no-playlist",
		"https://youtu.be/abc",
	}, args)
}

func TestBuildArgs_ProxyAndToken(t *testing.T) {
	opts := Options{
		Proxy:          "socks5://127.0.0.1:1080",
		POToken:        "tok123",
		ContentBinding: "visitor456",
	}
	args := testCLI().buildArgs("https://youtu.be/abc", opts, false)
	assert.Contains(t, args, "--proxy")
	assert.Contains(t, args, "socks5://127.0.0.1:1080")
	assert.Contains(t, args, "--extractor-args")
	assert.Contains(t, args, "youtube:po_token=web+tok123;visitor_data=visitor456")
}

func TestBuildArgs_TokenWithoutBinding(t *testing.T) {
	args := testCLI().buildArgs("u", Options{POToken: "tok"}, false)
	assert.Contains(t, args, "youtube:po_token=web+tok")
}

func TestBuildArgs_StreamingMode(t *testing.T) {
	args := testCLI().buildArgs("https://youtube.com/playlist?list=x", Options{}, true)
	assert.Contains(t, args, "-j")
	assert.Contains(t, args, "--ignore-errors")
	assert.NotContains(t, args, "-J")
	assert.NotContains(t, args, "--no-playlist")
}

func TestBuildArgs_ExtraArgsBeforeURL(t *testing.T) {
	args := testCLI("--socket-timeout", "10").buildArgs("https://youtu.be/abc", Options{}, false)
	require.GreaterOrEqual(t, len(args), 3)
	assert.Equal(t, "https://youtu.be/abc", args[len(args)-1])
	assert.Equal(t, "10", args[len(args)-2])
	assert.Equal(t, "--socket-timeout", args[len(args)-3])
}

func TestSplitExtraArgs(t *testing.T) {
	got, err := splitExtraArgs(`--socket-timeout 10 --add-header "User-Agent: x y"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"--socket-timeout", "10", "--add-header", "User-Agent: x y"}, got)

	got, err = splitExtraArgs("   ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseProgress(t *testing.T) {
	pct, ok := parseProgress("[download]  42.3% of 10.00MiB at 1.00MiB/s")
	require.True(t, ok)
	assert.Equal(t, 42.3, pct)

	pct, ok = parseProgress("[download] 100% of 10.00MiB")
	require.True(t, ok)
	assert.Equal(t, 100.0, pct)

	_, ok = parseProgress("[youtube] abc: Downloading webpage")
	assert.False(t, ok)

	_, ok = parseProgress("")
	assert.False(t, ok)
}
