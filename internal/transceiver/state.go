// Package transceiver implements the per-transceiver two-slot (staged /
// active) parameter store described by the connection management core:
// patching, constraint-checked validation, "auto" resolution, locking,
// and callback-driven activation with rollback.
package transceiver

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nmos-cm/connection-core/internal/paramset"
)

// Kind distinguishes a sender from a receiver transceiver.
type Kind int

const (
	KindSender Kind = iota
	KindReceiver
)

func (k Kind) String() string {
	if k == KindSender {
		return "sender"
	}
	return "receiver"
}

// Transport names the underlying transport a transceiver uses. Only rtp
// carries per-leg transport parameters in this implementation; mqtt and
// websocket transceivers exist purely for API-version gating.
type Transport string

const (
	TransportRTP       Transport = "rtp"
	TransportMQTT      Transport = "mqtt"
	TransportWebSocket Transport = "websocket"
)

// Option configures a State at construction time.
type Option func(*State)

// WithFEC toggles FEC field visibility (enabled by default).
func WithFEC(enabled bool) Option {
	return func(s *State) { s.enableFEC = enabled }
}

// WithRTCP toggles RTCP field visibility (enabled by default).
func WithRTCP(enabled bool) Option {
	return func(s *State) { s.enableRTCP = enabled }
}

// WithLogger overrides the zerolog logger used for resolution warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *State) { s.log = l }
}

// WithSenderSelectors overrides the source/destination IP resolvers a
// sender uses during "auto" resolution.
func WithSenderSelectors(r SenderResolvers) Option {
	return func(s *State) {
		if r.SourceIP != nil {
			s.senderResolvers.SourceIP = r.SourceIP
		}
		if r.DestinationIP != nil {
			s.senderResolvers.DestinationIP = r.DestinationIP
		}
	}
}

// WithReceiverSelectors overrides the interface IP resolver a receiver
// uses during "auto" resolution.
func WithReceiverSelectors(r ReceiverResolvers) Option {
	return func(s *State) {
		if r.InterfaceIP != nil {
			s.receiverResolvers.InterfaceIP = r.InterfaceIP
		}
	}
}

// WithActivateCallback installs the driver hook invoked after a
// successful commit of staged into active. A callback error rolls the
// active slot back to its pre-activation value.
func WithActivateCallback(cb func() error) Option {
	return func(s *State) { s.activateCallback = cb }
}

// params holds the fields common to both senders' and receivers' staged
// and active slots.
type params struct {
	senderLegs   []paramset.SenderLeg
	receiverLegs []paramset.ReceiverLeg
	masterEnable bool
	senderID     *string
	receiverID   *string
}

func (p params) clone() params {
	out := p
	if p.senderLegs != nil {
		out.senderLegs = append([]paramset.SenderLeg(nil), p.senderLegs...)
	}
	if p.receiverLegs != nil {
		out.receiverLegs = make([]paramset.ReceiverLeg, len(p.receiverLegs))
		for i, l := range p.receiverLegs {
			out.receiverLegs[i] = l.Clone()
		}
	}
	if p.senderID != nil {
		v := *p.senderID
		out.senderID = &v
	}
	if p.receiverID != nil {
		v := *p.receiverID
		out.receiverID = &v
	}
	return out
}

// State is the per-transceiver two-slot parameter store.
type State struct {
	mu sync.Mutex

	kind      Kind
	transport Transport
	legs      int

	staged params
	active params

	constraints []paramset.LegConstraints

	stageLocked bool

	enableFEC  bool
	enableRTCP bool

	senderResolvers   SenderResolvers
	receiverResolvers ReceiverResolvers

	activateCallback func() error
	sdpFactory       SDPFactory

	log zerolog.Logger
}

// NewSender constructs a sender State with legs redundant paths (1 or 2),
// default staged parameters, and an implicit first activation so active
// starts resolved and consistent with staged.
func NewSender(legs int, transport Transport, opts ...Option) (*State, error) {
	if legs != 1 && legs != 2 {
		return nil, fmt.Errorf("transceiver: sender may only support 1 or 2 legs, got %d", legs)
	}
	s := newBaseState(KindSender, transport, legs, opts...)
	s.staged.senderLegs = make([]paramset.SenderLeg, legs)
	for i := range s.staged.senderLegs {
		s.staged.senderLegs[i] = paramset.DefaultSenderLeg()
	}
	s.constraints = make([]paramset.LegConstraints, legs)
	for i := range s.constraints {
		s.constraints[i] = paramset.LegConstraints{
			"source_ip": {Enum: []string{"auto"}},
		}
	}
	if err := s.activateLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewReceiver constructs a receiver State with legs redundant paths.
func NewReceiver(legs int, transport Transport, opts ...Option) (*State, error) {
	if legs != 1 && legs != 2 {
		return nil, fmt.Errorf("transceiver: receiver may only support 1 or 2 legs, got %d", legs)
	}
	s := newBaseState(KindReceiver, transport, legs, opts...)
	s.staged.receiverLegs = make([]paramset.ReceiverLeg, legs)
	for i := range s.staged.receiverLegs {
		s.staged.receiverLegs[i] = paramset.DefaultReceiverLeg()
	}
	s.constraints = make([]paramset.LegConstraints, legs)
	for i := range s.constraints {
		s.constraints[i] = paramset.LegConstraints{
			"interface_ip": {Enum: []string{"auto"}},
		}
	}
	if err := s.activateLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func newBaseState(kind Kind, transport Transport, legs int, opts ...Option) *State {
	s := &State{
		kind:       kind,
		transport:  transport,
		legs:       legs,
		enableFEC:  true,
		enableRTCP: true,
		log:        log.Logger.With().Str("component", "transceiver").Str("kind", kind.String()).Logger(),
	}
	s.senderResolvers = defaultSenderResolvers(s.log)
	s.receiverResolvers = defaultReceiverResolvers(s.log)
	for _, o := range opts {
		o(s)
	}
	return s
}

// Kind reports whether this is a sender or receiver.
func (s *State) Kind() Kind { return s.kind }

// Legs reports the number of redundant paths (1 or 2).
func (s *State) Legs() int { return s.legs }

// TransportType reports the configured transport, used for API-version
// gating by the registry.
func (s *State) TransportType() Transport { return s.transport }

// AddSourceInterface registers a concrete address a driver permits as a
// sender's source_ip selection.
func (s *State) AddSourceInterface(leg int, addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.constraints[leg]["source_ip"]
	c.Enum = append(c.Enum, addr)
	s.constraints[leg]["source_ip"] = c
}

// AddReceiveInterface registers a concrete address a driver permits as a
// receiver's interface_ip selection.
func (s *State) AddReceiveInterface(leg int, addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.constraints[leg]["interface_ip"]
	c.Enum = append(c.Enum, addr)
	s.constraints[leg]["interface_ip"] = c
}

// SetPortRangeConstraint declares the numeric range a driver permits
// for a port-valued field (e.g. "destination_port"), the numeric half
// of the constraint model alongside AddSourceInterface/
// AddReceiveInterface's enum half. A nil bound leaves that side of the
// range unconstrained. Enforced by checkLegConstraints on patch and
// merged into the field's schema entry by GetParamsSchema.
func (s *State) SetPortRangeConstraint(leg int, field string, min, max *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.constraints[leg][field]
	c.Minimum = min
	c.Maximum = max
	s.constraints[leg][field] = c
}

// GetStaged returns a JSON-ready document for the staged slot: per-leg
// transport params (FEC/RTCP stripped per enablement; rtp transceivers
// only), master_enable, and the sender_id/receiver_id field appropriate
// to this kind.
func (s *State) GetStaged() (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assemble(s.staged)
}

// GetActive is GetStaged's counterpart for the active slot.
func (s *State) GetActive() (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assemble(s.active)
}

func (s *State) assemble(p params) (map[string]interface{}, error) {
	out := map[string]interface{}{
		"master_enable": p.masterEnable,
	}
	switch s.kind {
	case KindSender:
		out["receiver_id"] = p.receiverID
		if s.transport != TransportRTP {
			break
		}
		legs, err := s.stripLegs(p.senderLegs, paramset.SenderFECFields, paramset.SenderRTCPFields)
		if err != nil {
			return nil, err
		}
		out["transport_params"] = legs
	case KindReceiver:
		out["sender_id"] = p.senderID
		if s.transport != TransportRTP {
			break
		}
		legs, err := s.stripLegs(p.receiverLegs, paramset.ReceiverFECFields, paramset.ReceiverRTCPFields)
		if err != nil {
			return nil, err
		}
		out["transport_params"] = legs
	}
	return out, nil
}

// stripLegs marshals legs to generic maps and removes FEC/RTCP keys per
// the transceiver's enablement flags, matching the original's
// _assembleJsonDescription.
func (s *State) stripLegs(legs interface{}, fecFields, rtcpFields []string) ([]map[string]interface{}, error) {
	data, err := json.Marshal(legs)
	if err != nil {
		return nil, err
	}
	var out []map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for _, leg := range out {
		if !s.enableFEC {
			for _, f := range fecFields {
				delete(leg, f)
			}
		}
		if !s.enableRTCP {
			for _, f := range rtcpFields {
				delete(leg, f)
			}
		}
	}
	return out, nil
}

// GetConstraints returns a deep copy of the per-leg constraints, with
// FEC/RTCP keys stripped per enablement and the internal-only "auto"
// enum entry removed from any interface/source IP constraint.
func (s *State) GetConstraints() ([]paramset.LegConstraints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]paramset.LegConstraints, len(s.constraints))
	fecFields, rtcpFields := paramset.SenderFECFields, paramset.SenderRTCPFields
	if s.kind == KindReceiver {
		fecFields, rtcpFields = paramset.ReceiverFECFields, paramset.ReceiverRTCPFields
	}
	for i, leg := range s.constraints {
		clone := leg.Clone()
		if !s.enableFEC {
			for _, f := range fecFields {
				delete(clone, f)
			}
		}
		if !s.enableRTCP {
			for _, f := range rtcpFields {
				delete(clone, f)
			}
		}
		for field, c := range clone {
			clone[field] = paramset.StripAutoEnum(c)
		}
		out[i] = clone
	}
	return out, nil
}

// Patch applies one partial parameter fragment per leg to the staged
// slot. It fails closed: if stageLocked, if the fragment count doesn't
// match legs, if any fragment fails the leg's constraint-merged JSON
// schema (see GetParamsSchema), if it names an unknown key, or if any
// resulting value violates its constraint, no part of the patch is
// applied.
func (s *State) Patch(updates []map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stageLocked {
		return ErrStagedLocked
	}
	if len(updates) != s.legs {
		return ErrLegCount
	}
	for i, u := range updates {
		if err := s.validateAgainstParamsSchema(i, u); err != nil {
			return err
		}
	}
	switch s.kind {
	case KindSender:
		newLegs := make([]paramset.SenderLeg, s.legs)
		for i, u := range updates {
			leg, err := paramset.ApplySenderPatch(s.staged.senderLegs[i], u)
			if err != nil {
				return err
			}
			if err := s.checkLegConstraints(i, leg); err != nil {
				return err
			}
			newLegs[i] = leg
		}
		s.staged.senderLegs = newLegs
	case KindReceiver:
		newLegs := make([]paramset.ReceiverLeg, s.legs)
		for i, u := range updates {
			leg, err := paramset.ApplyReceiverPatch(s.staged.receiverLegs[i], u)
			if err != nil {
				return err
			}
			if err := s.checkLegConstraints(i, leg); err != nil {
				return err
			}
			newLegs[i] = leg
		}
		s.staged.receiverLegs = newLegs
	}
	return nil
}

// checkLegConstraints walks every driver-declared constraint for leg
// and checks the resulting (post-patch) leg value against it: an enum
// constraint against a string field via Constraint.AllowsString, a
// numeric range constraint against a numeric field via
// Constraint.AllowsNumber. Unlike the schema check in Patch, this runs
// against the fully-merged leg so it catches violations introduced by
// defaults the patch fragment didn't touch. The "auto" sentinel always
// satisfies any constraint; it is expanded by resolution, not here.
func (s *State) checkLegConstraints(leg int, p interface{}) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for field, c := range s.constraints[leg] {
		val, ok := fields[field]
		if !ok || val == nil {
			continue
		}
		switch v := val.(type) {
		case string:
			if v == "auto" {
				continue
			}
			if !c.AllowsString(v) {
				return &ErrConstraintViolation{Leg: leg, Field: field}
			}
		case float64:
			if !c.AllowsNumber(v) {
				return &ErrConstraintViolation{Leg: leg, Field: field}
			}
		}
	}
	return nil
}

// ApplySDPDerivedParams pushes the fields a parsed SDP transport file
// implies onto leg 0 of a receiver's staged transport parameters:
// multicast_ip, destination_port, rtp_enabled, and source_ip when the
// SDP carried a source-specific multicast filter. Like every other
// staged mutation it fails with ErrStagedLocked while stageLocked is
// set; it skips the schema and constraint checks of a routed patch().
func (s *State) ApplySDPDerivedParams(dest string, port int, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stageLocked {
		return ErrStagedLocked
	}
	if s.kind != KindReceiver {
		return fmt.Errorf("transceiver: SDP-derived parameters only apply to receivers")
	}
	if len(s.staged.receiverLegs) == 0 {
		return fmt.Errorf("transceiver: receiver has no legs")
	}
	leg := s.staged.receiverLegs[0]
	leg.MulticastIP = &dest
	leg.DestinationPort = paramset.Concrete(port)
	leg.RTPEnabled = true
	if source != "" {
		leg.SourceIP = &source
	}
	s.staged.receiverLegs[0] = leg
	return nil
}

// SetMasterEnable stages master_enable, subject to the usual lock.
func (s *State) SetMasterEnable(enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stageLocked {
		return ErrStagedLocked
	}
	s.staged.masterEnable = enable
	return nil
}

// SetSubscriptionID stages the sender_id (on a receiver) or receiver_id
// (on a sender), validating the canonical UUID pattern when non-nil.
func (s *State) SetSubscriptionID(id *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stageLocked {
		return ErrStagedLocked
	}
	if id != nil && !ValidUUID(*id) {
		return ErrInvalidUUID
	}
	switch s.kind {
	case KindSender:
		s.staged.receiverID = id
	case KindReceiver:
		s.staged.senderID = id
	}
	return nil
}

// Lock sets stageLocked; idempotent.
func (s *State) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageLocked = true
}

// Unlock clears stageLocked; idempotent.
func (s *State) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageLocked = false
}

// Activate resolves the current staged slot and commits it to active,
// then invokes the driver's activateCallback (if any). A callback error
// rolls active back to its pre-activation value and is returned to the
// caller; this is the engine's sole source of rollback.
func (s *State) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activateLocked()
}

func (s *State) activateLocked() error {
	old := s.active.clone()
	resolved := s.staged.clone()
	switch s.kind {
	case KindSender:
		for i, leg := range resolved.senderLegs {
			resolved.senderLegs[i] = resolveSenderLeg(leg, s.constraints[i], i, s.senderResolvers)
		}
	case KindReceiver:
		for i, leg := range resolved.receiverLegs {
			resolved.receiverLegs[i] = resolveReceiverLeg(leg, s.constraints[i], i, s.receiverResolvers)
		}
	}
	s.active = resolved
	s.stageLocked = false
	if s.activateCallback == nil {
		return nil
	}
	if err := s.activateCallback(); err != nil {
		s.log.Warn().Err(err).Msg("activation callback failed, rolling back active parameters")
		s.active = old
		return err
	}
	s.log.Debug().Msg("activation succeeded")
	return nil
}
