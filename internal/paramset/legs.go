package paramset

// SenderLeg is one redundant path of a sender's transport parameters.
type SenderLeg struct {
	SourceIP      Value[string] `json:"source_ip"`
	DestinationIP Value[string] `json:"destination_ip"`
	SourcePort    Value[int]    `json:"source_port"`
	DestinationPort Value[int]  `json:"destination_port"`
	RTPEnabled    bool          `json:"rtp_enabled"`

	FECEnabled           bool          `json:"fec_enabled"`
	FECDestinationIP     Value[string] `json:"fec_destination_ip"`
	FECMode              string        `json:"fec_mode"`
	FECType              string        `json:"fec_type"`
	FECBlockWidth        int           `json:"fec_block_width"`
	FECBlockHeight       int           `json:"fec_block_height"`
	FEC1DSourcePort      Value[int]    `json:"fec1D_source_port"`
	FEC1DDestinationPort Value[int]    `json:"fec1D_destination_port"`
	FEC2DSourcePort      Value[int]    `json:"fec2D_source_port"`
	FEC2DDestinationPort Value[int]    `json:"fec2D_destination_port"`

	RTCPEnabled         bool          `json:"rtcp_enabled"`
	RTCPDestinationIP   Value[string] `json:"rtcp_destination_ip"`
	RTCPSourcePort      Value[int]    `json:"rtcp_source_port"`
	RTCPDestinationPort Value[int]    `json:"rtcp_destination_port"`
}

// DefaultSenderLeg returns a leg with the staged defaults described in
// the original rtpSender device: addresses and non-port-5004 ports start
// at "auto", FEC/RTCP start disabled, rtp is enabled.
func DefaultSenderLeg() SenderLeg {
	return SenderLeg{
		SourceIP:        Auto[string](),
		DestinationIP:   Auto[string](),
		SourcePort:      Auto[int](),
		DestinationPort: Concrete(5004),
		RTPEnabled:      true,

		FECEnabled:           false,
		FECDestinationIP:     Auto[string](),
		FECMode:              "1D",
		FECType:              "XOR",
		FECBlockWidth:        4,
		FECBlockHeight:       4,
		FEC1DSourcePort:      Auto[int](),
		FEC1DDestinationPort: Auto[int](),
		FEC2DSourcePort:      Auto[int](),
		FEC2DDestinationPort: Auto[int](),

		RTCPEnabled:         false,
		RTCPDestinationIP:   Auto[string](),
		RTCPSourcePort:      Auto[int](),
		RTCPDestinationPort: Auto[int](),
	}
}

// ReceiverLeg is one redundant path of a receiver's transport parameters.
type ReceiverLeg struct {
	SourceIP        *string       `json:"source_ip"`
	InterfaceIP     Value[string] `json:"interface_ip"`
	MulticastIP     *string       `json:"multicast_ip"`
	DestinationPort Value[int]    `json:"destination_port"`
	RTPEnabled      bool          `json:"rtp_enabled"`

	FECEnabled           bool          `json:"fec_enabled"`
	FECDestinationIP     Value[string] `json:"fec_destination_ip"`
	FECMode              string        `json:"fec_mode"`
	FEC1DDestinationPort Value[int]    `json:"fec1D_destination_port"`
	FEC2DDestinationPort Value[int]    `json:"fec2D_destination_port"`

	RTCPEnabled         bool          `json:"rtcp_enabled"`
	RTCPDestinationIP   Value[string] `json:"rtcp_destination_ip"`
	RTCPDestinationPort Value[int]    `json:"rtcp_destination_port"`
}

// DefaultReceiverLeg returns a leg with the staged defaults described in
// the original rtpReceiver device.
func DefaultReceiverLeg() ReceiverLeg {
	return ReceiverLeg{
		SourceIP:        nil,
		InterfaceIP:     Auto[string](),
		MulticastIP:     nil,
		DestinationPort: Concrete(5004),
		RTPEnabled:      true,

		FECEnabled:           false,
		FECDestinationIP:     Auto[string](),
		FECMode:              "1D",
		FEC1DDestinationPort: Auto[int](),
		FEC2DDestinationPort: Auto[int](),

		RTCPEnabled:         false,
		RTCPDestinationIP:   Auto[string](),
		RTCPDestinationPort: Auto[int](),
	}
}

// Clone returns a deep copy; every field of a sender leg is a value type,
// so a plain copy suffices.
func (l SenderLeg) Clone() SenderLeg {
	return l
}

// Clone returns a deep copy of the receiver leg, copying the pointer
// fields so mutating the clone never touches the original.
func (l ReceiverLeg) Clone() ReceiverLeg {
	clone := l
	if l.SourceIP != nil {
		v := *l.SourceIP
		clone.SourceIP = &v
	}
	if l.MulticastIP != nil {
		v := *l.MulticastIP
		clone.MulticastIP = &v
	}
	return clone
}
