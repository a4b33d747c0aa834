package store

import (
	_ "embed"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed "schemas/history.json"
var historySchema []byte

//go:embed "schemas/persona.json"
var personaSchema []byte

// DefaultSchemas returns the JSON schemas of the documents the relay writes.
func DefaultSchemas() map[Kind][]byte {
	return map[Kind][]byte{
		KindHistory: historySchema,
		KindPersona: personaSchema,
	}
}

func validateDocument(schema []byte, doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return errors.Wrap(err, "could not validate document")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.Errorf("document does not match schema: %s", strings.Join(msgs, "; "))
}
