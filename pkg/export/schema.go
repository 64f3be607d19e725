package export

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"polygraph/pkg/chart"
)

// Schemas returns the JSON Schemas of the interchange documents, keyed by
// document name. Consumers use them to validate snapshots produced by other
// tooling.
func Schemas() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"node":         schemaOf(NodeRecord{}),
		"edge":         schemaOf(EdgeRecord{}),
		"family_chart": schemaOf(chart.Document{}),
		"legend":       schemaOf(LegendDoc{}),
	}
}

func schemaOf(value any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	t := reflect.TypeOf(value)
	return reflector.Reflect(reflect.New(t).Interface())
}
