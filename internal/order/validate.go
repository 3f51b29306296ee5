package order

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"schwab/internal/apierr"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/order.json
var orderSchema []byte

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("order.json", bytes.NewReader(orderSchema)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("order.json")
	})
	return schemaCompiled, schemaErr
}

// Validate checks the wire form of d against the embedded order schema.
func Validate(d Document) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile order schema: %w", err)
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal order: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		msg := err.Error()
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			msg = leafMessage(ve)
		}
		return &apierr.ValidationError{Kind: apierr.InvalidParameter, Field: "order", Msg: msg}
	}
	return nil
}

// leafMessage reports the deepest cause, which names the offending field.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}
