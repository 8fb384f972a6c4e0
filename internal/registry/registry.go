// Package registry maintains the process-wide tables of registered
// senders and receivers, their Activators, and (for receivers) their
// TransportFileManagers, and enforces API-version transport gating.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nmos-cm/connection-core/internal/activator"
	"github.com/nmos-cm/connection-core/internal/apierr"
	"github.com/nmos-cm/connection-core/internal/clock"
	"github.com/nmos-cm/connection-core/internal/transceiver"
	"github.com/nmos-cm/connection-core/internal/transportfile"
)

// APIVersion names one of the supported connection API date stamps.
type APIVersion string

const (
	V1_0 APIVersion = "v1.0"
	V1_1 APIVersion = "v1.1"
)

// allVersions is the ascending list of versions this registry serves,
// used to compute the "highest supporting version" redirect target.
var allVersions = []APIVersion{V1_0, V1_1}

// permittedTransports maps each API version to the transceiver
// transports it exposes, per spec: v1.0 is rtp-only, v1.1 adds mqtt and
// websocket.
var permittedTransports = map[APIVersion]map[transceiver.Transport]bool{
	V1_0: {transceiver.TransportRTP: true},
	V1_1: {
		transceiver.TransportRTP:       true,
		transceiver.TransportMQTT:      true,
		transceiver.TransportWebSocket: true,
	},
}

// Entry bundles the three pieces of state a single registered
// transceiver owns, plus the mutex that serializes PATCH pipelines
// against it: spec requires that no two PATCHes against the same id
// progress concurrently.
type Entry struct {
	State     *transceiver.State
	Activator *activator.Activator
	// TransportFile is non-nil for receivers only.
	TransportFile *transportfile.Manager

	patchMu sync.Mutex
}

// Registry holds the live sender/receiver tables.
type Registry struct {
	mu        sync.RWMutex
	senders   map[string]*Entry
	receivers map[string]*Entry
	clock     clock.Clock
	pub       Publisher
}

// New constructs an empty Registry. c is the clock every Activator
// built by AddSender/AddReceiver will use; pub receives registration
// lifecycle notifications.
func New(c clock.Clock, pub Publisher) *Registry {
	if pub == nil {
		pub = NullPublisher{}
	}
	return &Registry{
		senders:   make(map[string]*Entry),
		receivers: make(map[string]*Entry),
		clock:     c,
		pub:       pub,
	}
}

// ErrDuplicateRegistration is returned by AddSender/AddReceiver for an
// id already present in the corresponding table. It is a driver-facing
// error, never surfaced through the HTTP API directly.
type ErrDuplicateRegistration struct {
	Kind string
	ID   string
}

func (e *ErrDuplicateRegistration) Error() string {
	return fmt.Sprintf("registry: %s %q is already registered", e.Kind, e.ID)
}

// AddSender registers a sender's TransceiverState and constructs its
// Activator, whose target list is just the sender state itself.
func (r *Registry) AddSender(id string, state *transceiver.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.senders[id]; exists {
		return &ErrDuplicateRegistration{Kind: "sender", ID: id}
	}
	entry := &Entry{
		State:     state,
		Activator: activator.New([]activator.Target{state}, r.clock),
	}
	r.senders[id] = entry
	r.pub.SenderRegistered(id)
	return nil
}

// AddReceiver registers a receiver's TransceiverState, its
// TransportFileManager, and constructs an Activator whose target list
// is [TransportFileManager, TransceiverState] so SDP-derived values
// commit before the receiver's active parameters are exposed.
func (r *Registry) AddReceiver(id string, state *transceiver.State) (*transportfile.Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.receivers[id]; exists {
		return nil, &ErrDuplicateRegistration{Kind: "receiver", ID: id}
	}
	tf := transportfile.New(state)
	entry := &Entry{
		State:         state,
		Activator:     activator.New([]activator.Target{tf, state}, r.clock),
		TransportFile: tf,
	}
	r.receivers[id] = entry
	r.pub.ReceiverRegistered(id)
	return tf, nil
}

// RemoveSender atomically deregisters a sender.
func (r *Registry) RemoveSender(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.senders[id]; !exists {
		return
	}
	delete(r.senders, id)
	r.pub.SenderUnregistered(id)
}

// RemoveReceiver atomically deregisters a receiver.
func (r *Registry) RemoveReceiver(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.receivers[id]; !exists {
		return
	}
	delete(r.receivers, id)
	r.pub.ReceiverUnregistered(id)
}

// ListSenderIDs returns all registered sender ids in sorted order.
func (r *Registry) ListSenderIDs() []string { return r.listIDs(r.senders) }

// ListReceiverIDs returns all registered receiver ids in sorted order.
func (r *Registry) ListReceiverIDs() []string { return r.listIDs(r.receivers) }

func (r *Registry) listIDs(table map[string]*Entry) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetTransceiver looks up a sender or receiver by type and id for the
// given API version, applying transport-type version gating. On a
// transport not permitted for version, it returns a 409
// not-supported-for-version error naming the highest version that does
// permit it.
func (r *Registry) GetTransceiver(version APIVersion, kind string, id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var table map[string]*Entry
	switch kind {
	case "senders":
		table = r.senders
	case "receivers":
		table = r.receivers
	default:
		return nil, apierr.New(apierr.KindNotFound, "unknown transceiver kind "+kind)
	}

	entry, ok := table[id]
	if !ok {
		return nil, apierr.New(apierr.KindNotFound, fmt.Sprintf("unknown %s %q", kind, id))
	}

	if permittedTransports[version][entry.State.TransportType()] {
		return entry, nil
	}

	best := highestSupportingVersion(entry.State.TransportType())
	if best == "" {
		return nil, apierr.New(apierr.KindNotFound, "no API version supports this transceiver's transport")
	}
	location := fmt.Sprintf("/x-nmos/connection/%s/single/%s/%s/", best, kind, id)
	return nil, apierr.NotSupportedForVersion(
		fmt.Sprintf("transport %q is not exposed under %s", entry.State.TransportType(), version),
		location,
	)
}

func highestSupportingVersion(t transceiver.Transport) APIVersion {
	for i := len(allVersions) - 1; i >= 0; i-- {
		if permittedTransports[allVersions[i]][t] {
			return allVersions[i]
		}
	}
	return ""
}
