package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nmos-cm/connection-core/internal/clock"
	"github.com/nmos-cm/connection-core/internal/registry"
	"github.com/nmos-cm/connection-core/internal/transceiver"
)

func newTestServer(t *testing.T) (*Server, *registry.Registry, *clock.ManualClock) {
	t.Helper()
	mc := clock.NewManualClock(clock.TAITime{Secs: 1000})
	reg := registry.New(mc, nil)
	srv, err := NewServer(reg, zerolog.Nop())
	require.NoError(t, err)
	return srv, reg, mc
}

func TestIndexRoutesReturnListings(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/x-nmos/connection/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"v1.0/", "v1.1/"}, body)
}

func TestGetStagedForRegisteredSender(t *testing.T) {
	srv, reg, _ := newTestServer(t)
	state, err := transceiver.NewSender(1, transceiver.TransportRTP)
	require.NoError(t, err)
	require.NoError(t, reg.AddSender("s-1", state))

	router := srv.Router()
	req := httptest.NewRequest(http.MethodGet, "/x-nmos/connection/v1.0/single/senders/s-1/staged/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Contains(t, doc, "transport_params")
	require.Contains(t, doc, "activation")
}

func TestPatchStagedImmediateActivationEndToEnd(t *testing.T) {
	srv, reg, _ := newTestServer(t)
	state, err := transceiver.NewSender(1, transceiver.TransportRTP)
	require.NoError(t, err)
	require.NoError(t, reg.AddSender("s-1", state))

	router := srv.Router()
	body := `{"transport_params":[{"destination_port":5100}],"activation":{"mode":"activate_immediate"}}`
	req := httptest.NewRequest(http.MethodPatch, "/x-nmos/connection/v1.0/single/senders/s-1/staged", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/x-nmos/connection/v1.0/single/senders/s-1/active/", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusOK, rec2.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &doc))
	legs := doc["transport_params"].([]interface{})
	leg0 := legs[0].(map[string]interface{})
	require.Equal(t, float64(5100), leg0["destination_port"])
}

func TestGetTransceiverUnderWrongVersionReturnsConflictWithLocation(t *testing.T) {
	srv, reg, _ := newTestServer(t)
	state, err := transceiver.NewSender(1, transceiver.TransportMQTT)
	require.NoError(t, err)
	require.NoError(t, reg.AddSender("s-mqtt", state))

	router := srv.Router()
	req := httptest.NewRequest(http.MethodGet, "/x-nmos/connection/v1.0/single/senders/s-mqtt/staged/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "v1.1")
}

func TestBulkDispatchReportsPerIDStatus(t *testing.T) {
	srv, reg, _ := newTestServer(t)
	state, err := transceiver.NewSender(1, transceiver.TransportRTP)
	require.NoError(t, err)
	require.NoError(t, reg.AddSender("s-1", state))

	router := srv.Router()
	body := `[{"id":"s-1","params":{"master_enable":true}},{"id":"missing","params":{}}]`
	req := httptest.NewRequest(http.MethodPost, "/x-nmos/connection/v1.0/bulk/senders", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	require.Equal(t, "s-1", results[0]["id"])
	require.Equal(t, float64(200), results[0]["code"])
	require.Equal(t, float64(404), results[1]["code"])
}
