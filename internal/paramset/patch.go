package paramset

import "fmt"

// SenderFECFields and SenderRTCPFields name the keys stripped from a
// sender leg's exported view when FEC or RTCP support is disabled for
// the owning transceiver.
var SenderFECFields = []string{
	"fec_enabled", "fec_destination_ip", "fec_mode", "fec_type",
	"fec_block_width", "fec_block_height", "fec1D_destination_port",
	"fec1D_source_port", "fec2D_destination_port", "fec2D_source_port",
}

var SenderRTCPFields = []string{
	"rtcp_enabled", "rtcp_destination_ip", "rtcp_destination_port", "rtcp_source_port",
}

// ReceiverFECFields and ReceiverRTCPFields are the receiver-leg
// equivalents; receivers have a smaller FEC field set (no type/block
// geometry or independent source ports, per the original device).
var ReceiverFECFields = []string{
	"fec_enabled", "fec_destination_ip", "fec_mode",
	"fec1D_destination_port", "fec2D_destination_port",
}

var ReceiverRTCPFields = []string{
	"rtcp_enabled", "rtcp_destination_ip", "rtcp_destination_port",
}

// UnknownFieldError reports a patch key that isn't present on the leg.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown transport parameter %q", e.Field)
}

// ApplySenderPatch returns a copy of leg with the fields named in
// updates overwritten. Unknown keys fail the whole patch, matching the
// "rejects any key not already present in the staged leg" rule.
func ApplySenderPatch(leg SenderLeg, updates map[string]interface{}) (SenderLeg, error) {
	out := leg.Clone()
	for key, raw := range updates {
		var err error
		switch key {
		case "source_ip":
			out.SourceIP, err = FromAny[string](raw)
		case "destination_ip":
			out.DestinationIP, err = FromAny[string](raw)
		case "source_port":
			out.SourcePort, err = FromAny[int](raw)
		case "destination_port":
			out.DestinationPort, err = FromAny[int](raw)
		case "rtp_enabled":
			out.RTPEnabled, err = asBool(raw)
		case "fec_enabled":
			out.FECEnabled, err = asBool(raw)
		case "fec_destination_ip":
			out.FECDestinationIP, err = FromAny[string](raw)
		case "fec_mode":
			out.FECMode, err = asString(raw)
		case "fec_type":
			out.FECType, err = asString(raw)
		case "fec_block_width":
			out.FECBlockWidth, err = asInt(raw)
		case "fec_block_height":
			out.FECBlockHeight, err = asInt(raw)
		case "fec1D_source_port":
			out.FEC1DSourcePort, err = FromAny[int](raw)
		case "fec1D_destination_port":
			out.FEC1DDestinationPort, err = FromAny[int](raw)
		case "fec2D_source_port":
			out.FEC2DSourcePort, err = FromAny[int](raw)
		case "fec2D_destination_port":
			out.FEC2DDestinationPort, err = FromAny[int](raw)
		case "rtcp_enabled":
			out.RTCPEnabled, err = asBool(raw)
		case "rtcp_destination_ip":
			out.RTCPDestinationIP, err = FromAny[string](raw)
		case "rtcp_source_port":
			out.RTCPSourcePort, err = FromAny[int](raw)
		case "rtcp_destination_port":
			out.RTCPDestinationPort, err = FromAny[int](raw)
		default:
			return SenderLeg{}, &UnknownFieldError{Field: key}
		}
		if err != nil {
			return SenderLeg{}, fmt.Errorf("field %q: %w", key, err)
		}
	}
	return out, nil
}

// ApplyReceiverPatch returns a copy of leg with the fields named in
// updates overwritten.
func ApplyReceiverPatch(leg ReceiverLeg, updates map[string]interface{}) (ReceiverLeg, error) {
	out := leg.Clone()
	for key, raw := range updates {
		var err error
		switch key {
		case "source_ip":
			out.SourceIP, err = asStringPtr(raw)
		case "interface_ip":
			out.InterfaceIP, err = FromAny[string](raw)
		case "multicast_ip":
			out.MulticastIP, err = asStringPtr(raw)
		case "destination_port":
			out.DestinationPort, err = FromAny[int](raw)
		case "rtp_enabled":
			out.RTPEnabled, err = asBool(raw)
		case "fec_enabled":
			out.FECEnabled, err = asBool(raw)
		case "fec_destination_ip":
			out.FECDestinationIP, err = FromAny[string](raw)
		case "fec_mode":
			out.FECMode, err = asString(raw)
		case "fec1D_destination_port":
			out.FEC1DDestinationPort, err = FromAny[int](raw)
		case "fec2D_destination_port":
			out.FEC2DDestinationPort, err = FromAny[int](raw)
		case "rtcp_enabled":
			out.RTCPEnabled, err = asBool(raw)
		case "rtcp_destination_ip":
			out.RTCPDestinationIP, err = FromAny[string](raw)
		case "rtcp_destination_port":
			out.RTCPDestinationPort, err = FromAny[int](raw)
		default:
			return ReceiverLeg{}, &UnknownFieldError{Field: key}
		}
		if err != nil {
			return ReceiverLeg{}, fmt.Errorf("field %q: %w", key, err)
		}
	}
	return out, nil
}

func asBool(raw interface{}) (bool, error) {
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean, got %T", raw)
	}
	return b, nil
}

func asString(raw interface{}) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", raw)
	}
	return s, nil
}

func asInt(raw interface{}) (int, error) {
	f, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
	return int(f), nil
}

func asStringPtr(raw interface{}) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected string or null, got %T", raw)
	}
	return &s, nil
}
