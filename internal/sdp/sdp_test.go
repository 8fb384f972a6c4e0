package sdp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleMulticastSDP(t *testing.T) {
	text := "v=0\r\n" +
		"o=- 1 1 IN IP4 192.168.0.1\r\n" +
		"s=Example\r\n" +
		"t=0 0\r\n" +
		"m=video 5004 RTP/AVP 96\r\n" +
		"c=IN IP4 232.10.10.10/32\r\n"

	sources, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, 5004, sources[0].Port)
	require.Equal(t, "232.10.10.10", sources[0].Dest)
	require.Empty(t, sources[0].Source)
}

func TestParseSourceSpecificMulticastAddsSourceFilter(t *testing.T) {
	text := "v=0\r\n" +
		"o=- 1 1 IN IP4 192.168.0.1\r\n" +
		"s=Example\r\n" +
		"t=0 0\r\n" +
		"m=video 5004 RTP/AVP 96\r\n" +
		"c=IN IP4 232.10.10.10/32\r\n" +
		"a=source-filter: incl IN IP4 232.10.10.10 192.168.1.50\r\n"

	sources, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, "232.10.10.10", sources[0].Dest)
	require.Equal(t, "192.168.1.50", sources[0].Source)
}

func TestParseMultipleMediaLinesYieldsOneSourcePerBlock(t *testing.T) {
	text := "v=0\r\n" +
		"o=- 1 1 IN IP4 192.168.0.1\r\n" +
		"s=Example\r\n" +
		"t=0 0\r\n" +
		"m=video 5004 RTP/AVP 96\r\n" +
		"c=IN IP4 232.10.10.10/32\r\n" +
		"m=audio 5006 RTP/AVP 97\r\n" +
		"c=IN IP4 232.10.10.11/32\r\n"

	sources, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	require.Equal(t, 5004, sources[0].Port)
	require.Equal(t, 5006, sources[1].Port)
}

func TestParseRejectsConnectionLineWithoutMediaLine(t *testing.T) {
	text := "v=0\r\nc=IN IP4 232.10.10.10/32\r\n"
	_, err := Parse(text)
	require.Error(t, err)
}

func TestParseRejectsEmptyFile(t *testing.T) {
	_, err := Parse("v=0\r\ns=Example\r\n")
	require.Error(t, err)
}
