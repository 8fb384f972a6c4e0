package transceiver

import "fmt"

// SDPFactory generates the SDP transport-file text a sender reports at
// its transportfile/ endpoint, derived from the sender's active
// transport parameters. Real implementations are driver-supplied; no
// generic default exists because the session description depends on
// payload/format details this package doesn't model.
type SDPFactory interface {
	GenerateSDP(active map[string]interface{}) (string, error)
}

// WithSDPFactory installs the driver's SDP generator for a sender's
// transportfile/ endpoint.
func WithSDPFactory(f SDPFactory) Option {
	return func(s *State) { s.sdpFactory = f }
}

// GenerateTransportFile renders the sender's current active parameters
// through its driver-supplied SDPFactory.
func (s *State) GenerateTransportFile() (string, error) {
	s.mu.Lock()
	factory := s.sdpFactory
	s.mu.Unlock()
	if factory == nil {
		return "", fmt.Errorf("transceiver: no SDP factory configured for this sender")
	}
	active, err := s.GetActive()
	if err != nil {
		return "", err
	}
	return factory.GenerateSDP(active)
}
