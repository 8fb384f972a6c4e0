// Package httpapi exposes the connection management registry over the
// IS-05-shaped HTTP surface: the namespace/version index routes, the
// per-transceiver constraints/staged/active/transportfile endpoints,
// and the bulk PATCH fan-out.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nmos-cm/connection-core/internal/registry"
)

// Server wires a Registry and compiled schema set to a gorilla/mux
// router implementing the full connection API surface.
type Server struct {
	reg     *registry.Registry
	schemas *schemaSet
	log     zerolog.Logger
}

// NewServer builds a Server. It fails only if the embedded schemas
// cannot be compiled, which would indicate a packaging bug rather than
// any runtime condition.
func NewServer(reg *registry.Registry, log zerolog.Logger) (*Server, error) {
	schemas, err := newSchemaSet()
	if err != nil {
		return nil, err
	}
	return &Server{reg: reg, schemas: schemas, log: log}, nil
}

// Router builds the route table described by the external interfaces
// section: version indices, single/<kind>/<id> sub-resources, the
// sender transport file, the v1.1+ transport-type endpoint, and the bulk
// POST.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter().StrictSlash(false)

	r.HandleFunc("/", s.handleIndex([]string{"x-nmos/"})).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/", s.handleIndex([]string{"connection/"})).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/", s.handleIndex([]string{"v1.0/", "v1.1/"})).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/", s.handleIndex([]string{"single/", "bulk/"})).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/single/", s.handleIndex([]string{"senders/", "receivers/"})).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/single/{kind}/", s.handleListIDs).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/single/{kind}/{id}/", s.handleResourceIndex).Methods(http.MethodGet)

	r.HandleFunc("/x-nmos/connection/{version}/single/{kind}/{id}/constraints/", s.handleGetConstraints).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/single/{kind}/{id}/staged/", s.handleGetStaged).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/single/{kind}/{id}/staged", s.handlePatchStaged).Methods(http.MethodPatch)
	r.HandleFunc("/x-nmos/connection/{version}/single/{kind}/{id}/active/", s.handleGetActive).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/single/senders/{id}/transportfile/", s.handleGetSenderTransportFile).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/single/receivers/{id}/active/sdp/", s.handleGetReceiverActiveSDP).Methods(http.MethodGet)
	r.HandleFunc("/x-nmos/connection/{version}/single/{kind}/{id}/transporttype/", s.handleGetTransportType).Methods(http.MethodGet)

	r.HandleFunc("/x-nmos/connection/{version}/bulk/{kind}", s.handleBulk).Methods(http.MethodPost)

	return r
}
