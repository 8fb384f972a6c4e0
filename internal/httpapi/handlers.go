package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mitchellh/mapstructure"

	"github.com/nmos-cm/connection-core/internal/apierr"
	"github.com/nmos-cm/connection-core/internal/registry"
)

func (s *Server) handleIndex(children []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, children)
	}
}

func (s *Server) handleListIDs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var ids []string
	switch vars["kind"] {
	case "senders":
		ids = s.reg.ListSenderIDs()
	case "receivers":
		ids = s.reg.ListReceiverIDs()
	default:
		writeError(w, apierr.New(apierr.KindNotFound, "unknown transceiver kind "+vars["kind"]))
		return
	}
	listing := make([]string, len(ids))
	for i, id := range ids {
		listing[i] = id + "/"
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleResourceIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version := registry.APIVersion(vars["version"])
	entry, err := s.reg.GetTransceiver(version, vars["kind"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	children := []string{"constraints/", "staged/", "active/"}
	if vars["kind"] == "senders" {
		children = append(children, "transportfile/")
	}
	if entry.TransportFile != nil {
		children = append(children, "active/sdp/")
	}
	if version == registry.V1_1 {
		children = append(children, "transporttype/")
	}
	writeJSON(w, http.StatusOK, children)
}

func (s *Server) handleGetConstraints(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := s.reg.GetTransceiver(registry.APIVersion(vars["version"]), vars["kind"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	constraints, err := entry.State.GetConstraints()
	if err != nil {
		writeError(w, apierr.New(apierr.KindInternal, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, constraints)
}

func (s *Server) handleGetStaged(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := s.reg.GetTransceiver(registry.APIVersion(vars["version"]), vars["kind"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := entry.State.GetStaged()
	if err != nil {
		writeError(w, apierr.New(apierr.KindInternal, err.Error()))
		return
	}
	doc["activation"] = entry.Activator.GetLastRequest()
	if entry.TransportFile != nil {
		doc["transport_file"] = entry.TransportFile.StagedRequest()
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := s.reg.GetTransceiver(registry.APIVersion(vars["version"]), vars["kind"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := entry.State.GetActive()
	if err != nil {
		writeError(w, apierr.New(apierr.KindInternal, err.Error()))
		return
	}
	doc["activation"] = entry.Activator.GetActiveRequest()
	if entry.TransportFile != nil {
		doc["transport_file"] = entry.TransportFile.ActiveRequest()
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetSenderTransportFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := s.reg.GetTransceiver(registry.APIVersion(vars["version"]), "senders", vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	sdpText, err := entry.State.GenerateTransportFile()
	if err != nil {
		writeError(w, apierr.New(apierr.KindNotFound, err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/sdp")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sdpText))
}

func (s *Server) handleGetReceiverActiveSDP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := s.reg.GetTransceiver(registry.APIVersion(vars["version"]), "receivers", vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if entry.TransportFile == nil {
		writeError(w, apierr.New(apierr.KindNotFound, "receiver has no transport file"))
		return
	}
	req := entry.TransportFile.ActiveRequest()
	w.Header().Set("Content-Type", "application/sdp")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(req.Data))
}

func (s *Server) handleGetTransportType(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version := registry.APIVersion(vars["version"])
	if version != registry.V1_1 {
		writeError(w, apierr.New(apierr.KindNotFound, "transporttype is only exposed under v1.1+"))
		return
	}
	entry, err := s.reg.GetTransceiver(version, vars["kind"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("urn:x-nmos:transport:%s", entry.State.TransportType()))
}

func (s *Server) handlePatchStaged(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version := registry.APIVersion(vars["version"])
	kind := vars["kind"]

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, apierr.New(apierr.KindValidation, "malformed JSON body: "+err.Error()))
		return
	}

	stageSchema := s.schemas.senderStage
	if kind == "receivers" {
		stageSchema = s.schemas.receiverStage
	}
	if err := stageSchema.validate(raw); err != nil {
		writeError(w, apierr.New(apierr.KindValidation, err.Error()))
		return
	}
	if activation, ok := raw["activation"]; ok && activation != nil {
		if err := s.schemas.activate.validate(activation); err != nil {
			writeError(w, apierr.New(apierr.KindValidation, err.Error()))
			return
		}
	}

	var body registry.StagedPatchBody
	if err := mapstructure.Decode(raw, &body); err != nil {
		writeError(w, apierr.New(apierr.KindValidation, "could not decode request body: "+err.Error()))
		return
	}

	result, err := s.reg.PatchTransceiver(version, kind, vars["id"], body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result.Status, result)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	version := registry.APIVersion(vars["version"])
	kind := vars["kind"]

	var raw []map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, apierr.New(apierr.KindValidation, "malformed JSON array body: "+err.Error()))
		return
	}

	entries := make([]registry.BulkEntry, len(raw))
	for i, item := range raw {
		var entry registry.BulkEntry
		if err := mapstructure.Decode(item, &entry); err != nil {
			writeError(w, apierr.New(apierr.KindValidation, "malformed bulk entry: "+err.Error()))
			return
		}
		entries[i] = entry
	}

	results := s.reg.Dispatch(version, kind, entries)
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*apierr.APIError); ok {
		if apiErr.Location != "" {
			w.Header().Set("Location", apiErr.Location)
		}
		writeJSON(w, apierr.CodeOf(apiErr.Kind), map[string]string{"error": apiErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
