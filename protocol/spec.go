package protocol

import (
	"reflect"
	"strings"

	"github.com/datazip-inc/tap-toast/types"
	"github.com/spf13/cobra"
)

// specCmd prints the JSON schema of the connector config
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "spec command",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeMessage(cmd.OutOrStdout(), types.SpecRow{
			Type: types.SpecMessage,
			Spec: reflectSchema(reflect.TypeOf(connector.Spec())),
		})
	},
}

// reflectSchema describes a config struct from its json, validate,
// description, default and format tags.
func reflectSchema(typ reflect.Type) map[string]any {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	properties := map[string]any{}
	required := []string{}
	for idx := 0; idx < typ.NumField(); idx++ {
		field := typ.Field(idx)
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if !field.IsExported() || name == "" || name == "-" {
			continue
		}

		property := fieldSchema(field.Type)
		for _, tag := range []string{"description", "default", "format"} {
			if value := field.Tag.Get(tag); value != "" {
				property[tag] = value
			}
		}
		if validate := field.Tag.Get("validate"); strings.Contains(validate, "required") {
			required = append(required, name)
		}
		if oneOf := oneOfValues(field.Tag.Get("validate")); len(oneOf) > 0 {
			property["enum"] = oneOf
		}
		properties[name] = property
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func fieldSchema(typ reflect.Type) map[string]any {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	switch typ.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": fieldSchema(typ.Elem())}
	case reflect.Struct:
		return reflectSchema(typ)
	default:
		return map[string]any{"type": "object"}
	}
}

func oneOfValues(validate string) []string {
	for _, rule := range strings.Split(validate, ",") {
		if values, found := strings.CutPrefix(rule, "oneof="); found {
			return strings.Fields(values)
		}
	}
	return nil
}
