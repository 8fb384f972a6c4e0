package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nmos-cm/connection-core/internal/apierr"
	"github.com/nmos-cm/connection-core/internal/clock"
	"github.com/nmos-cm/connection-core/internal/transceiver"
)

func newTestSenderState(t *testing.T) *transceiver.State {
	t.Helper()
	s, err := transceiver.NewSender(1, transceiver.TransportRTP)
	require.NoError(t, err)
	return s
}

func TestAddSenderRejectsDuplicate(t *testing.T) {
	r := New(clock.NewManualClock(clock.TAITime{}), nil)
	require.NoError(t, r.AddSender("s-1", newTestSenderState(t)))
	err := r.AddSender("s-1", newTestSenderState(t))
	require.Error(t, err)
	var dup *ErrDuplicateRegistration
	require.ErrorAs(t, err, &dup)
}

func TestGetTransceiverNotFound(t *testing.T) {
	r := New(clock.NewManualClock(clock.TAITime{}), nil)
	_, err := r.GetTransceiver(V1_0, "senders", "missing")
	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierr.KindNotFound, apiErr.Kind)
}

func TestGetTransceiverGatesTransportByVersion(t *testing.T) {
	r := New(clock.NewManualClock(clock.TAITime{}), nil)
	mqttState, err := transceiver.NewSender(1, transceiver.TransportMQTT)
	require.NoError(t, err)
	require.NoError(t, r.AddSender("s-mqtt", mqttState))

	_, err = r.GetTransceiver(V1_0, "senders", "s-mqtt")
	require.Error(t, err)
	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierr.KindNotSupportedForVersion, apiErr.Kind)
	require.Contains(t, apiErr.Location, "v1.1")

	entry, err := r.GetTransceiver(V1_1, "senders", "s-mqtt")
	require.NoError(t, err)
	require.NotNil(t, entry)
}

func TestRemoveSenderThenLookupIsNotFound(t *testing.T) {
	r := New(clock.NewManualClock(clock.TAITime{}), nil)
	require.NoError(t, r.AddSender("s-1", newTestSenderState(t)))
	r.RemoveSender("s-1")
	_, err := r.GetTransceiver(V1_0, "senders", "s-1")
	require.Error(t, err)
}

func TestPatchTransceiverImmediateActivation(t *testing.T) {
	r := New(clock.NewManualClock(clock.TAITime{Secs: 100}), nil)
	require.NoError(t, r.AddSender("s-1", newTestSenderState(t)))

	port := 5100.0
	mode := "activate_immediate"
	res, err := r.PatchTransceiver(V1_0, "senders", "s-1", StagedPatchBody{
		TransportParams: []map[string]interface{}{{"destination_port": port}},
		Activation:      &ActivationBody{Mode: &mode},
	})
	require.NoError(t, err)
	require.Equal(t, 200, res.Status)
}

func TestDispatchReportsPerIDStatus(t *testing.T) {
	r := New(clock.NewManualClock(clock.TAITime{Secs: 100}), nil)
	require.NoError(t, r.AddSender("s-1", newTestSenderState(t)))

	results := r.Dispatch(V1_0, "senders", []BulkEntry{
		{ID: "s-1", Params: StagedPatchBody{MasterEnable: boolPtr(true)}},
		{ID: "missing", Params: StagedPatchBody{}},
	})
	require.Len(t, results, 2)
	require.Equal(t, 200, results[0].Code)
	require.Equal(t, 404, results[1].Code)
}

func boolPtr(b bool) *bool { return &b }
