package contract

import (
	"sort"
	"strconv"
	"strings"
)

// maxResolveDepth bounds reference/composition chasing so resolution always
// terminates, even on self-referential schemas.
const maxResolveDepth = 16

const schemaRefPrefix = "#/components/schemas/"

// resolveRootKeys resolves the first successful-range JSON response body of
// an operation to its set of top-level property names. Returns
// resolved=false when the shape cannot be determined: no 2xx JSON body,
// union schemas (oneOf/anyOf), or an unreachable reference. An unresolved
// shape is never treated as an empty key set.
func resolveRootKeys(doc *Document, opRaw map[string]any) ([]string, bool) {
	responses, ok := opRaw["responses"].(map[string]any)
	if !ok {
		return nil, false
	}

	schema, ok := successResponseSchema(responses)
	if !ok {
		return nil, false
	}

	keySet, resolved := resolveSchema(doc, schema, 0)
	if !resolved {
		return nil, false
	}

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, true
}

// successResponseSchema picks the first 2xx response (lowest status code
// first) carrying an application/json schema.
func successResponseSchema(responses map[string]any) (map[string]any, bool) {
	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if !successCode(code) {
			continue
		}
		response, ok := responses[code].(map[string]any)
		if !ok {
			continue
		}
		content, ok := response["content"].(map[string]any)
		if !ok {
			continue
		}
		media, ok := content["application/json"].(map[string]any)
		if !ok {
			continue
		}
		if schema, ok := media["schema"].(map[string]any); ok {
			return schema, true
		}
	}
	return nil, false
}

// successCode accepts numeric 2xx codes and the "2XX" range form.
func successCode(code string) bool {
	if strings.EqualFold(code, "2xx") {
		return true
	}
	n, err := strconv.Atoi(code)
	return err == nil && n >= 200 && n <= 299
}

// resolveSchema resolves a schema node to its top-level property name set.
//
//   - a $ref resolves through the named-schema table in the same document
//   - allOf yields the union of its resolvable members
//   - oneOf/anyOf are permanently unresolved: partial resolution could
//     falsely claim a key is missing, so resolution stays conservative
//   - depth is capped to guarantee termination
func resolveSchema(doc *Document, schema map[string]any, depth int) (map[string]bool, bool) {
	if depth > maxResolveDepth {
		return nil, false
	}

	if ref, ok := schema["$ref"].(string); ok {
		name, ok := strings.CutPrefix(ref, schemaRefPrefix)
		if !ok {
			return nil, false
		}
		target, ok := doc.Schemas[name].(map[string]any)
		if !ok {
			return nil, false
		}
		return resolveSchema(doc, target, depth+1)
	}

	if _, ok := schema["oneOf"]; ok {
		return nil, false
	}
	if _, ok := schema["anyOf"]; ok {
		return nil, false
	}

	if allOf, ok := schema["allOf"].([]any); ok {
		union := make(map[string]bool)
		anyResolved := false
		for _, member := range allOf {
			memberSchema, ok := member.(map[string]any)
			if !ok {
				continue
			}
			keys, resolved := resolveSchema(doc, memberSchema, depth+1)
			if !resolved {
				continue
			}
			anyResolved = true
			for key := range keys {
				union[key] = true
			}
		}
		return union, anyResolved
	}

	if properties, ok := schema["properties"].(map[string]any); ok {
		keys := make(map[string]bool, len(properties))
		for key := range properties {
			keys[key] = true
		}
		return keys, true
	}

	return nil, false
}
