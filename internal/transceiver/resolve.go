package transceiver

import (
	"github.com/rs/zerolog"

	"github.com/nmos-cm/connection-core/internal/paramset"
)

// SenderResolvers holds the driver-supplied selector hooks used during
// sender parameter resolution. A driver overrides these via
// WithSourceSelector/WithDestinationSelector; absent an override the
// built-in defaults are used, exactly as rtpSender.py falls back to
// defaultSourceSelector/defaultDestinationSelector.
type SenderResolvers struct {
	SourceIP      func(leg paramset.SenderLeg, constraints paramset.LegConstraints, legIndex int) string
	DestinationIP func(leg paramset.SenderLeg, constraints paramset.LegConstraints, legIndex int) string
}

// ReceiverResolvers holds the driver-supplied selector hook used during
// receiver parameter resolution.
type ReceiverResolvers struct {
	InterfaceIP func(leg paramset.ReceiverLeg, constraints paramset.LegConstraints, legIndex int) string
}

func defaultSenderResolvers(log zerolog.Logger) SenderResolvers {
	return SenderResolvers{
		SourceIP: func(_ paramset.SenderLeg, constraints paramset.LegConstraints, _ int) string {
			return firstConcreteEnumEntry(log, constraints, "source_ip", "driver has not supplied a source for the sender")
		},
		DestinationIP: func(_ paramset.SenderLeg, _ paramset.LegConstraints, _ int) string {
			log.Warn().Msg("no destination selector has been provided by the driver; falling back to loopback, which must not be used in production")
			return "127.0.0.1"
		},
	}
}

func defaultReceiverResolvers(log zerolog.Logger) ReceiverResolvers {
	return ReceiverResolvers{
		InterfaceIP: func(_ paramset.ReceiverLeg, constraints paramset.LegConstraints, _ int) string {
			return firstConcreteEnumEntry(log, constraints, "interface_ip", "driver has not supplied an interface for the receiver")
		},
	}
}

func firstConcreteEnumEntry(log zerolog.Logger, constraints paramset.LegConstraints, field, missingMsg string) string {
	c, ok := constraints[field]
	if ok {
		for _, entry := range c.Enum {
			if entry != "auto" {
				return entry
			}
		}
	}
	log.Warn().Msg(missingMsg + "; falling back to loopback")
	return "127.0.0.1"
}

// senderResolveOrder is the fixed key order from the spec's resolution
// algorithm: later keys may depend on earlier, already-resolved keys.
var senderResolveOrder = []string{
	"source_ip", "destination_ip", "source_port", "destination_port",
	"fec_destination_ip", "fec1D_destination_port", "fec2D_destination_port",
	"fec1D_source_port", "fec2D_source_port",
	"rtcp_source_port", "rtcp_destination_ip", "rtcp_destination_port",
}

var receiverResolveOrder = []string{
	"interface_ip", "destination_port",
	"fec_destination_ip", "fec1D_destination_port", "fec2D_destination_port",
	"rtcp_destination_ip", "rtcp_destination_port",
}

// resolveSenderLeg expands every "auto" field in leg to a concrete value,
// in the fixed order the spec requires so later defaults may reference
// earlier resolutions.
func resolveSenderLeg(leg paramset.SenderLeg, constraints paramset.LegConstraints, legIndex int, r SenderResolvers) paramset.SenderLeg {
	out := leg.Clone()
	for _, key := range senderResolveOrder {
		switch key {
		case "source_ip":
			if out.SourceIP.IsAuto {
				out.SourceIP = paramset.Concrete(r.SourceIP(out, constraints, legIndex))
			}
		case "destination_ip":
			if out.DestinationIP.IsAuto {
				out.DestinationIP = paramset.Concrete(r.DestinationIP(out, constraints, legIndex))
			}
		case "source_port":
			if out.SourcePort.IsAuto {
				out.SourcePort = paramset.Concrete(5004)
			}
		case "destination_port":
			if out.DestinationPort.IsAuto {
				out.DestinationPort = paramset.Concrete(5004)
			}
		case "fec_destination_ip":
			if out.FECDestinationIP.IsAuto {
				out.FECDestinationIP = out.DestinationIP
			}
		case "fec1D_destination_port":
			if out.FEC1DDestinationPort.IsAuto {
				out.FEC1DDestinationPort = paramset.Concrete(out.DestinationPort.Val + 2)
			}
		case "fec2D_destination_port":
			if out.FEC2DDestinationPort.IsAuto {
				out.FEC2DDestinationPort = paramset.Concrete(out.DestinationPort.Val + 4)
			}
		case "fec1D_source_port":
			if out.FEC1DSourcePort.IsAuto {
				out.FEC1DSourcePort = paramset.Concrete(out.SourcePort.Val + 2)
			}
		case "fec2D_source_port":
			if out.FEC2DSourcePort.IsAuto {
				out.FEC2DSourcePort = paramset.Concrete(out.SourcePort.Val + 4)
			}
		case "rtcp_source_port":
			if out.RTCPSourcePort.IsAuto {
				out.RTCPSourcePort = paramset.Concrete(out.SourcePort.Val + 1)
			}
		case "rtcp_destination_ip":
			if out.RTCPDestinationIP.IsAuto {
				out.RTCPDestinationIP = out.DestinationIP
			}
		case "rtcp_destination_port":
			if out.RTCPDestinationPort.IsAuto {
				out.RTCPDestinationPort = paramset.Concrete(out.DestinationPort.Val + 1)
			}
		}
	}
	return out
}

// resolveReceiverLeg expands every "auto" field in leg to a concrete
// value using the receiver's fixed resolution order.
func resolveReceiverLeg(leg paramset.ReceiverLeg, constraints paramset.LegConstraints, legIndex int, r ReceiverResolvers) paramset.ReceiverLeg {
	out := leg.Clone()
	for _, key := range receiverResolveOrder {
		switch key {
		case "interface_ip":
			if out.InterfaceIP.IsAuto {
				out.InterfaceIP = paramset.Concrete(r.InterfaceIP(out, constraints, legIndex))
			}
		case "destination_port":
			if out.DestinationPort.IsAuto {
				out.DestinationPort = paramset.Concrete(5004)
			}
		case "fec_destination_ip":
			if out.FECDestinationIP.IsAuto {
				out.FECDestinationIP = paramset.Concrete(receiverFECRTCPDefaultIP(out))
			}
		case "fec1D_destination_port":
			if out.FEC1DDestinationPort.IsAuto {
				out.FEC1DDestinationPort = paramset.Concrete(out.DestinationPort.Val + 2)
			}
		case "fec2D_destination_port":
			if out.FEC2DDestinationPort.IsAuto {
				out.FEC2DDestinationPort = paramset.Concrete(out.DestinationPort.Val + 4)
			}
		case "rtcp_destination_ip":
			if out.RTCPDestinationIP.IsAuto {
				out.RTCPDestinationIP = paramset.Concrete(receiverFECRTCPDefaultIP(out))
			}
		case "rtcp_destination_port":
			if out.RTCPDestinationPort.IsAuto {
				out.RTCPDestinationPort = paramset.Concrete(out.DestinationPort.Val + 1)
			}
		}
	}
	return out
}

// receiverFECRTCPDefaultIP implements "default to multicast_ip if
// non-null else interface_ip" for the receiver's fec_destination_ip and
// rtcp_destination_ip resolvers.
func receiverFECRTCPDefaultIP(leg paramset.ReceiverLeg) string {
	if leg.MulticastIP != nil {
		return *leg.MulticastIP
	}
	return leg.InterfaceIP.Val
}
