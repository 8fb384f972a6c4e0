package paramset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueMarshalAuto(t *testing.T) {
	v := Auto[int]()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `"auto"`, string(data))
}

func TestValueMarshalConcrete(t *testing.T) {
	v := Concrete(5004)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `5004`, string(data))
}

func TestValueUnmarshalRoundTrip(t *testing.T) {
	var v Value[string]
	require.NoError(t, json.Unmarshal([]byte(`"auto"`), &v))
	require.True(t, v.IsAuto)

	var v2 Value[string]
	require.NoError(t, json.Unmarshal([]byte(`"10.0.0.1"`), &v2))
	require.False(t, v2.IsAuto)
	require.Equal(t, "10.0.0.1", v2.Val)
}

func TestApplySenderPatchUnknownField(t *testing.T) {
	leg := DefaultSenderLeg()
	_, err := ApplySenderPatch(leg, map[string]interface{}{"bogus": 1})
	require.Error(t, err)
	var ufe *UnknownFieldError
	require.ErrorAs(t, err, &ufe)
}

func TestApplySenderPatchOverwritesDestinationPort(t *testing.T) {
	leg := DefaultSenderLeg()
	out, err := ApplySenderPatch(leg, map[string]interface{}{"destination_port": float64(5100)})
	require.NoError(t, err)
	require.False(t, out.DestinationPort.IsAuto)
	require.Equal(t, 5100, out.DestinationPort.Val)
	// original untouched
	require.Equal(t, 5004, leg.DestinationPort.Val)
}

func TestApplyReceiverPatchMulticastIP(t *testing.T) {
	leg := DefaultReceiverLeg()
	out, err := ApplyReceiverPatch(leg, map[string]interface{}{"multicast_ip": "232.0.0.5"})
	require.NoError(t, err)
	require.NotNil(t, out.MulticastIP)
	require.Equal(t, "232.0.0.5", *out.MulticastIP)
	require.Nil(t, leg.MulticastIP)
}

func TestStripAutoEnum(t *testing.T) {
	c := Constraint{Enum: []string{"auto", "10.0.0.1", "10.0.0.2"}}
	stripped := StripAutoEnum(c)
	require.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, stripped.Enum)
}
