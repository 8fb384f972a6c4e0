// Package sdp parses the session description a receiver's transport
// file carries into an ordered list of media sources: one media
// description's connection address, port, and (when present) the
// source-specific multicast filter's originating address (RFC 4570).
//
// The generic RFC 4566 envelope (v=/o=/s=/t=/m=/c= and friends) is
// parsed by pion/sdp/v3, the same library the pack's WebRTC/RTSP
// stacks depend on for this exact concern; only the NMOS-specific
// a=source-filter extraction, which pion/sdp models as an opaque
// attribute, is hand-rolled here.
package sdp

import (
	"fmt"
	"regexp"

	pionsdp "github.com/pion/sdp/v3"
)

// MediaSource is one m= block's worth of parsed transport information:
// the destination (connection) address, the port from the m= line, and
// the originating source address when a source-filter attribute names
// one.
type MediaSource struct {
	Dest   string
	Port   int
	Source string
}

// ParseError reports the parse failure pion/sdp surfaced (or, for an
// otherwise well-formed file with no media blocks, a synthesized
// reason), so callers can surface a useful 400 response.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sdp: could not parse transport file: %s", e.Reason)
}

// sourceFilter matches the value half of an "a=source-filter:" attribute
// (pion/sdp splits the key from the value at the colon, handing us
// "incl IN IP4 <dest> <source>" or the IP6 equivalent with whatever
// leading whitespace followed the colon).
var sourceFilter = regexp.MustCompile(`^\s*incl\s+IN\s+IP[46]\s+\S+\s+(\S+)`)

// Parse extracts a MediaSource for each m= line found in sdpText, in
// file order, taking each block's c= connection address as Dest and
// any a=source-filter attribute's second address as Source.
func Parse(sdpText string) ([]MediaSource, error) {
	var desc pionsdp.SessionDescription
	if err := desc.Unmarshal([]byte(sdpText)); err != nil {
		return nil, &ParseError{Line: sdpText, Reason: err.Error()}
	}
	if len(desc.MediaDescriptions) == 0 {
		return nil, &ParseError{Line: sdpText, Reason: "no media sources found in transport file"}
	}

	sources := make([]MediaSource, len(desc.MediaDescriptions))
	for i, md := range desc.MediaDescriptions {
		src := MediaSource{Port: md.MediaName.Port.Value}

		switch {
		case md.ConnectionInformation != nil && md.ConnectionInformation.Address != nil:
			src.Dest = md.ConnectionInformation.Address.Address
		case desc.ConnectionInformation != nil && desc.ConnectionInformation.Address != nil:
			// RFC 4566 permits a single session-level c= line to apply
			// to every media block that doesn't carry its own.
			src.Dest = desc.ConnectionInformation.Address.Address
		}

		for _, attr := range md.Attributes {
			if attr.Key != "source-filter" {
				continue
			}
			if m := sourceFilter.FindStringSubmatch(attr.Value); m != nil {
				src.Source = m[1]
			}
		}

		sources[i] = src
	}
	return sources, nil
}
