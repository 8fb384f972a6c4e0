// Package transportfile manages a receiver's SDP transport file: the
// staged/active raw text and parsed media sources, with its own lock
// independent of the owning receiver's parameter lock, and the side
// effect of pushing parsed multicast/port/source fields onto the
// receiver's staged transport parameters.
package transportfile

import (
	"errors"
	"fmt"

	"github.com/nmos-cm/connection-core/internal/sdp"
)

// ErrLocked is returned by Update while the transport file manager is
// locked pending activation.
var ErrLocked = errors.New("transportfile: staged transport file is locked pending activation")

// ErrUnsupportedType is returned when a request names any type other than
// application/sdp; this implementation handles no other transport file
// format.
var ErrUnsupportedType = errors.New("transportfile: only application/sdp transport files are supported")

// Request is the raw shape of a staged PATCH body's transport_file
// field: a MIME type tag and the file's text content.
type Request struct {
	Type string `json:"type" mapstructure:"type"`
	Data string `json:"data" mapstructure:"data"`
}

// ParamSetter receives the fields a parsed SDP implies for leg 0 of a
// receiver's staged transport parameters. A receiver's
// transceiver.State satisfies this through its ApplySDPDerivedParams.
type ParamSetter interface {
	ApplySDPDerivedParams(dest string, port int, source string) error
}

// Manager holds a receiver's staged/active transport file state,
// independent of the receiver's own parameter staging lock.
type Manager struct {
	staged       Request
	active       Request
	stagedSource []sdp.MediaSource
	activeSource []sdp.MediaSource
	locked       bool

	setter ParamSetter
}

// New constructs a Manager with an empty staged/active transport file
// and a default application/sdp type, matching SdpManager's
// constructor.
func New(setter ParamSetter) *Manager {
	empty := Request{Type: "application/sdp", Data: ""}
	return &Manager{staged: empty, active: empty, setter: setter}
}

// StagedRequest returns the last transport file request accepted into
// staged.
func (m *Manager) StagedRequest() Request { return m.staged }

// ActiveRequest returns the transport file request committed by the
// most recent activation.
func (m *Manager) ActiveRequest() Request { return m.active }

// StagedSources returns the media sources parsed from the staged file.
func (m *Manager) StagedSources() []sdp.MediaSource { return m.stagedSource }

// ActiveSources returns the media sources committed by the most recent
// activation.
func (m *Manager) ActiveSources() []sdp.MediaSource { return m.activeSource }

// Lock prevents further Update calls until Unlock.
func (m *Manager) Lock() { m.locked = true }

// Unlock allows Update calls again.
func (m *Manager) Unlock() { m.locked = false }

// Update parses req's SDP body into the staged slot and immediately
// pushes the resulting multicast_ip/destination_port/source_ip onto the
// owning receiver's staged transport parameters, matching
// SdpManager.update/applyParamsToInterface.
func (m *Manager) Update(req Request) error {
	if m.locked {
		return ErrLocked
	}
	if req.Type != "application/sdp" {
		return ErrUnsupportedType
	}
	sources, err := sdp.Parse(req.Data)
	if err != nil {
		return fmt.Errorf("transportfile: %w", err)
	}

	prevRequest, prevSources := m.staged, m.stagedSource
	m.staged = req
	m.stagedSource = sources

	first := sources[0]
	if err := m.setter.ApplySDPDerivedParams(first.Dest, first.Port, first.Source); err != nil {
		// Step 7 failed: roll back step 6 so the manager's own staged
		// state stays consistent with the receiver's untouched staged
		// parameters.
		m.staged, m.stagedSource = prevRequest, prevSources
		return fmt.Errorf("transportfile: applying parsed SDP to transport parameters: %w", err)
	}
	return nil
}

// Activate commits staged into active and unlocks, matching
// SdpManager.activateStaged. It never fails; the return type exists so
// Manager satisfies the activator's Target interface alongside
// TransceiverState.
func (m *Manager) Activate() error {
	m.active = m.staged
	m.activeSource = m.stagedSource
	m.locked = false
	return nil
}
