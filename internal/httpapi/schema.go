package httpapi

import (
	"embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaValidator wraps a compiled gojsonschema.Schema for one of the
// stage/activate request bodies.
type schemaValidator struct {
	schema *gojsonschema.Schema
}

func loadSchema(name string) (*schemaValidator, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("httpapi: reading embedded schema %s: %w", name, err)
	}
	loader := gojsonschema.NewBytesLoader(data)
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("httpapi: compiling schema %s: %w", name, err)
	}
	return &schemaValidator{schema: schema}, nil
}

// validate runs doc (any JSON-marshalable value) against the schema and
// returns a human-readable error naming every violation found.
func (v *schemaValidator) validate(doc interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("httpapi: schema validation failed to run: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msg := "request body failed schema validation:"
	for _, e := range result.Errors() {
		msg += " " + e.String() + ";"
	}
	return fmt.Errorf("%s", msg)
}

// schemaSet holds every compiled schema the router validates PATCH
// bodies against.
type schemaSet struct {
	senderStage   *schemaValidator
	receiverStage *schemaValidator
	activate      *schemaValidator
}

func newSchemaSet() (*schemaSet, error) {
	senderStage, err := loadSchema("v1.0-sender-stage-schema.json")
	if err != nil {
		return nil, err
	}
	receiverStage, err := loadSchema("v1.0-receiver-stage-schema.json")
	if err != nil {
		return nil, err
	}
	activate, err := loadSchema("v1.0-activate-schema.json")
	if err != nil {
		return nil, err
	}
	return &schemaSet{senderStage: senderStage, receiverStage: receiverStage, activate: activate}, nil
}
