package transceiver

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/nmos-cm/connection-core/internal/paramset"
)

//go:embed schemas/*.json
var paramsSchemaFS embed.FS

var (
	senderParamsSchema   = mustLoadParamsSchema("v1.0-sender-transport-params-rtp.json")
	receiverParamsSchema = mustLoadParamsSchema("v1.0-receiver-transport-params-rtp.json")
)

func mustLoadParamsSchema(name string) []byte {
	data, err := paramsSchemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("transceiver: embedded schema %s missing: %v", name, err))
	}
	return data
}

// GetParamsSchema returns a JSON-schema fragment describing leg's
// transport params: the base per-field type schema with FEC/RTCP
// properties stripped per enablement, and this transceiver's
// driver-declared constraints (enum/minimum/maximum) merged into each
// property's definition, matching rtpSender.py/rtpReceiver.py's
// getParamsSchema one-for-one.
func (s *State) GetParamsSchema(leg int) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paramsSchemaLocked(leg)
}

func (s *State) paramsSchemaLocked(leg int) (map[string]interface{}, error) {
	if leg < 0 || leg >= s.legs {
		return nil, fmt.Errorf("transceiver: leg %d out of range", leg)
	}

	var base []byte
	var fecFields, rtcpFields []string
	switch s.kind {
	case KindSender:
		base = senderParamsSchema
		fecFields, rtcpFields = paramset.SenderFECFields, paramset.SenderRTCPFields
	case KindReceiver:
		base = receiverParamsSchema
		fecFields, rtcpFields = paramset.ReceiverFECFields, paramset.ReceiverRTCPFields
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(base, &schema); err != nil {
		return nil, fmt.Errorf("transceiver: parsing embedded params schema: %w", err)
	}
	properties, _ := schema["properties"].(map[string]interface{})

	if !s.enableFEC {
		for _, f := range fecFields {
			delete(properties, f)
		}
	}
	if !s.enableRTCP {
		for _, f := range rtcpFields {
			delete(properties, f)
		}
	}

	for field, c := range s.constraints[leg] {
		entry, ok := properties[field].(map[string]interface{})
		if !ok {
			continue
		}
		if len(c.Enum) > 0 {
			enum := make([]interface{}, len(c.Enum))
			for i, e := range c.Enum {
				enum[i] = e
			}
			entry["enum"] = enum
		}
		if c.Minimum != nil {
			entry["minimum"] = *c.Minimum
		}
		if c.Maximum != nil {
			entry["maximum"] = *c.Maximum
		}
		properties[field] = entry
	}
	schema["properties"] = properties
	return schema, nil
}

// ErrSchemaViolation reports a patch fragment that fails the leg's
// constraint-merged JSON schema.
type ErrSchemaViolation struct {
	Leg    int
	Reason string
}

func (e *ErrSchemaViolation) Error() string {
	return fmt.Sprintf("transceiver: leg %d patch fragment failed schema validation: %s", e.Leg, e.Reason)
}

// validateAgainstParamsSchema checks a leg's raw patch fragment against
// its constraint-merged schema before any field is applied, the same
// validate(...) call abstractDevice.py's patch() makes ahead of
// _updateTransportParamerters.
func (s *State) validateAgainstParamsSchema(leg int, fragment map[string]interface{}) error {
	schema, err := s.paramsSchemaLocked(leg)
	if err != nil {
		return err
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(fragment))
	if err != nil {
		return fmt.Errorf("transceiver: schema validation failed to run: %w", err)
	}
	if result.Valid() {
		return nil
	}
	reason := ""
	for i, e := range result.Errors() {
		if i > 0 {
			reason += "; "
		}
		reason += e.String()
	}
	return &ErrSchemaViolation{Leg: leg, Reason: reason}
}
