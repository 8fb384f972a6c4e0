package transceiver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nmos-cm/connection-core/internal/paramset"
)

func newTestSender(t *testing.T) *State {
	t.Helper()
	s, err := NewSender(1, TransportRTP, WithSenderSelectors(SenderResolvers{
		SourceIP:      func(paramset.SenderLeg, paramset.LegConstraints, int) string { return "10.0.0.1" },
		DestinationIP: func(paramset.SenderLeg, paramset.LegConstraints, int) string { return "230.1.1.1" },
	}))
	require.NoError(t, err)
	return s
}

func newTestReceiver(t *testing.T) *State {
	t.Helper()
	s, err := NewReceiver(1, TransportRTP, WithReceiverSelectors(ReceiverResolvers{
		InterfaceIP: func(paramset.ReceiverLeg, paramset.LegConstraints, int) string { return "10.0.0.2" },
	}))
	require.NoError(t, err)
	return s
}

func TestNewSenderActivatesDefaultsOnConstruction(t *testing.T) {
	s := newTestSender(t)
	active, err := s.GetActive()
	require.NoError(t, err)
	legs := active["transport_params"].([]map[string]interface{})
	require.Len(t, legs, 1)
	require.Equal(t, "10.0.0.1", legs[0]["source_ip"])
	require.Equal(t, "230.1.1.1", legs[0]["destination_ip"])
	require.Equal(t, float64(5004), legs[0]["destination_port"])
}

func TestPatchRejectsUnknownField(t *testing.T) {
	s := newTestSender(t)
	err := s.Patch([]map[string]interface{}{{"not_a_field": 1}})
	require.Error(t, err)
	var ufe *paramset.UnknownFieldError
	require.ErrorAs(t, err, &ufe)
}

func TestPatchRejectsWrongLegCount(t *testing.T) {
	s := newTestSender(t)
	err := s.Patch([]map[string]interface{}{{}, {}})
	require.ErrorIs(t, err, ErrLegCount)
}

func TestLockBlocksPatchAndSubscription(t *testing.T) {
	s := newTestSender(t)
	s.Lock()
	err := s.Patch([]map[string]interface{}{{"destination_port": float64(6000)}})
	require.ErrorIs(t, err, ErrStagedLocked)

	id := "f81d4fae-7dec-11d0-a765-00a0c91e6bf6"
	err = s.SetSubscriptionID(&id)
	require.ErrorIs(t, err, ErrStagedLocked)

	s.Unlock()
	require.NoError(t, s.Patch([]map[string]interface{}{{"destination_port": float64(6000)}}))
}

func TestSetSubscriptionIDValidatesUUID(t *testing.T) {
	s := newTestSender(t)
	bogus := "not-a-uuid"
	err := s.SetSubscriptionID(&bogus)
	require.ErrorIs(t, err, ErrInvalidUUID)

	good := "f81d4fae-7dec-11d0-a765-00a0c91e6bf6"
	require.NoError(t, s.SetSubscriptionID(&good))
}

func TestActivateResolvesAutoFieldsFromStaged(t *testing.T) {
	s := newTestSender(t)
	require.NoError(t, s.Patch([]map[string]interface{}{{"destination_port": float64(6000)}}))
	require.NoError(t, s.Activate())

	active, err := s.GetActive()
	require.NoError(t, err)
	legs := active["transport_params"].([]map[string]interface{})
	require.Equal(t, float64(6000), legs[0]["destination_port"])
	// rtcp_destination_port depends on the now-resolved destination_port
	require.Equal(t, float64(6001), legs[0]["rtcp_destination_port"])
}

func TestActivateRollsBackOnCallbackFailure(t *testing.T) {
	s := newTestSender(t)
	before, err := s.GetActive()
	require.NoError(t, err)

	fail := errors.New("driver rejected activation")
	s.activateCallback = func() error { return fail }

	require.NoError(t, s.Patch([]map[string]interface{}{{"destination_port": float64(7000)}}))
	err = s.Activate()
	require.ErrorIs(t, err, fail)

	after, err := s.GetActive()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestGetConstraintsStripsAutoSentinel(t *testing.T) {
	s := newTestSender(t)
	s.AddSourceInterface(0, "10.0.0.1")
	constraints, err := s.GetConstraints()
	require.NoError(t, err)
	require.NotContains(t, constraints[0]["source_ip"].Enum, "auto")
	require.Contains(t, constraints[0]["source_ip"].Enum, "10.0.0.1")
}

func TestConstraintViolationRejectsDisallowedSourceIP(t *testing.T) {
	s := newTestSender(t)
	s.AddSourceInterface(0, "10.0.0.1")
	err := s.Patch([]map[string]interface{}{{"source_ip": "10.0.0.99"}})
	require.Error(t, err)
	var sv *ErrSchemaViolation
	require.ErrorAs(t, err, &sv)
}

func TestGetParamsSchemaMergesConstraintsAndStripsFECRTCPWhenDisabled(t *testing.T) {
	s, err := NewSender(1, TransportRTP, WithFEC(false), WithRTCP(false), WithSenderSelectors(SenderResolvers{
		SourceIP:      func(paramset.SenderLeg, paramset.LegConstraints, int) string { return "10.0.0.1" },
		DestinationIP: func(paramset.SenderLeg, paramset.LegConstraints, int) string { return "230.1.1.1" },
	}))
	require.NoError(t, err)
	s.AddSourceInterface(0, "10.0.0.1")

	schema, err := s.GetParamsSchema(0)
	require.NoError(t, err)
	props := schema["properties"].(map[string]interface{})

	require.NotContains(t, props, "fec_enabled")
	require.NotContains(t, props, "rtcp_enabled")

	sourceIP := props["source_ip"].(map[string]interface{})
	require.ElementsMatch(t, []interface{}{"auto", "10.0.0.1"}, sourceIP["enum"])
}

func TestSetPortRangeConstraintRejectsOutOfRangePort(t *testing.T) {
	s := newTestSender(t)
	min, max := 1024.0, 65535.0
	s.SetPortRangeConstraint(0, "destination_port", &min, &max)

	err := s.Patch([]map[string]interface{}{{"destination_port": float64(80)}})
	require.Error(t, err)

	require.NoError(t, s.Patch([]map[string]interface{}{{"destination_port": float64(6000)}}))
}

func TestReceiverFECDestinationDefaultsToMulticastIP(t *testing.T) {
	r := newTestReceiver(t)
	require.NoError(t, r.Patch([]map[string]interface{}{{"multicast_ip": "232.0.0.10"}}))
	require.NoError(t, r.Activate())

	active, err := r.GetActive()
	require.NoError(t, err)
	legs := active["transport_params"].([]map[string]interface{})
	require.Equal(t, "232.0.0.10", legs[0]["fec_destination_ip"])
	require.Equal(t, "232.0.0.10", legs[0]["rtcp_destination_ip"])
}
