package tool

import (
	"go.uber.org/zap"

	"ollama-go/pkg/value"
)

// BuildSchema renders the canonical function tool definition sent in the
// tools array of a chat request.
func BuildSchema(name, description string, properties map[string]value.Value, required []string) value.Value {
	return value.Object(map[string]value.Value{
		"type": value.String("function"),
		"function": value.Object(map[string]value.Value{
			"name":        value.String(name),
			"description": value.String(description),
			"parameters":  parametersSchema(properties, required),
		}),
	})
}

// BuildLegacySchema accepts a complete JSON Schema object for the
// parameters and produces the same definition BuildSchema would.
//
// Deprecated: pass the properties map to BuildSchema instead.
func BuildLegacySchema(name, description string, parameters value.Value, required []string) value.Value {
	warnLegacy(name)
	properties, required := unwrapParameters(parameters, required)
	return BuildSchema(name, description, properties, required)
}

func parametersSchema(properties map[string]value.Value, required []string) value.Value {
	if properties == nil {
		properties = map[string]value.Value{}
	}
	return value.Object(map[string]value.Value{
		"type":       value.String("object"),
		"properties": value.Object(properties),
		"required":   value.Strings(required...),
	})
}

// unwrapParameters pulls properties and required out of a full
// {"type":"object","properties":...,"required":[...]} schema. An explicit
// non-empty required list always wins over the embedded one.
func unwrapParameters(parameters value.Value, required []string) (map[string]value.Value, []string) {
	fields, ok := parameters.AsObject()
	if !ok {
		return map[string]value.Value{}, required
	}

	kind, _ := fields["type"].AsString(true)
	properties, hasProperties := fields["properties"].AsObject()
	if kind != "object" || !hasProperties {
		return fields, required
	}

	if len(required) > 0 {
		return properties, required
	}
	embedded, _ := fields["required"].AsArray()
	names := make([]string, 0, len(embedded))
	for _, item := range embedded {
		if s, ok := item.AsString(true); ok {
			names = append(names, s)
		}
	}
	return properties, names
}

func warnLegacy(name string) {
	zap.L().Warn("full parameter schemas are deprecated, pass the properties map instead", zap.String("tool", name))
}
