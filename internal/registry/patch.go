package registry

import (
	"github.com/nmos-cm/connection-core/internal/activator"
	"github.com/nmos-cm/connection-core/internal/apierr"
	"github.com/nmos-cm/connection-core/internal/transportfile"
)

// ActivationBody is the wire shape of the "activation" fragment of a
// staged PATCH body.
type ActivationBody struct {
	Mode          *string `json:"mode" mapstructure:"mode"`
	RequestedTime *string `json:"requested_time" mapstructure:"requested_time"`
}

// StagedPatchBody is the wire shape PATCH .../staged accepts, combining
// every field the seven-step pipeline may act on. Any field left nil is
// skipped. Handlers decode the raw request map into this struct with
// mapstructure after schema validation.
type StagedPatchBody struct {
	TransportParams []map[string]interface{} `json:"transport_params" mapstructure:"transport_params"`
	MasterEnable    *bool                     `json:"master_enable" mapstructure:"master_enable"`
	SenderID        *string                   `json:"sender_id" mapstructure:"sender_id"`
	ReceiverID      *string                   `json:"receiver_id" mapstructure:"receiver_id"`
	TransportFile   *transportfile.Request    `json:"transport_file" mapstructure:"transport_file"`
	Activation      *ActivationBody           `json:"activation" mapstructure:"activation"`
}

// PatchResult is what a successful (or partially successful, per the
// pipeline's fail-fast contract) PATCH reports back to the transport
// layer.
type PatchResult struct {
	Status int
	Record *activator.Record
}

// PatchTransceiver runs the seven-step PATCH pipeline against the named
// sender or receiver, in the fixed order the design mandates: each
// step's failure is returned immediately, leaving all earlier mutations
// in the staged slot (the controller is expected to retry with a
// corrected fragment).
func (r *Registry) PatchTransceiver(version APIVersion, kind, id string, body StagedPatchBody) (*PatchResult, error) {
	entry, err := r.GetTransceiver(version, kind, id)
	if err != nil {
		return nil, err
	}

	// Serialize the whole seven-step pipeline per transceiver: two
	// PATCHes against the same id must never interleave their steps.
	entry.patchMu.Lock()
	defer entry.patchMu.Unlock()

	if kind == "receivers" && body.TransportFile != nil {
		if err := entry.TransportFile.Update(*body.TransportFile); err != nil {
			return nil, translateTransportFileError(err)
		}
	}

	if body.TransportParams != nil {
		if err := entry.State.Patch(body.TransportParams); err != nil {
			return nil, translateStateError(err)
		}
	}

	if kind == "senders" && body.ReceiverID != nil {
		if err := entry.State.SetSubscriptionID(body.ReceiverID); err != nil {
			return nil, translateStateError(err)
		}
	}
	if kind == "receivers" && body.SenderID != nil {
		if err := entry.State.SetSubscriptionID(body.SenderID); err != nil {
			return nil, translateStateError(err)
		}
	}

	if body.MasterEnable != nil {
		if err := entry.State.SetMasterEnable(*body.MasterEnable); err != nil {
			return nil, translateStateError(err)
		}
	}

	result := &PatchResult{Status: 200}
	if body.Activation != nil {
		req := activator.ActivationRequest{Mode: activator.ModeNone}
		if body.Activation.Mode != nil {
			req.Mode = activator.Mode(*body.Activation.Mode)
		}
		if body.Activation.RequestedTime != nil {
			req.RequestedTime = *body.Activation.RequestedTime
		}
		status, record, err := entry.Activator.Parse(req)
		if err != nil {
			return nil, translateActivatorError(err)
		}
		result.Status = status
		result.Record = &record
	}
	return result, nil
}

func translateTransportFileError(err error) error {
	switch err {
	case transportfile.ErrLocked:
		return apierr.New(apierr.KindStagedLocked, err.Error())
	case transportfile.ErrUnsupportedType:
		return apierr.New(apierr.KindValidation, err.Error())
	default:
		return apierr.New(apierr.KindValidation, err.Error())
	}
}

func translateActivatorError(err error) error {
	switch err {
	case activator.ErrConflict:
		// Re-arming while already armed is a write against a staged
		// activation that is locked, same family as any other
		// staged-locked rejection.
		return apierr.New(apierr.KindStagedLocked, err.Error())
	case activator.ErrInvalidMode, activator.ErrInvalidTimeString:
		return apierr.New(apierr.KindValidation, err.Error())
	default:
		return apierr.New(apierr.KindCallbackFailure, err.Error())
	}
}
