package spec

import "fmt"

// DetectLayer reads the layer declaration from a raw document.
func DetectLayer(path string, raw map[string]any) (Layer, error) {
	layerStr, err := requireString(path, raw, "layer")
	if err != nil {
		return "", err
	}
	layer := Layer(layerStr)
	if !ValidLayers[layer] {
		return "", &DecodeError{Path: path, Field: "layer", Message: fmt.Sprintf("unknown layer %q", layerStr)}
	}
	return layer, nil
}

// DecodeNavigation decodes a navigation-layer document. A document declares
// either a screen (with optional transitions) or a guard set.
func DecodeNavigation(path, group string, raw map[string]any) (*NavigationDoc, error) {
	doc := &NavigationDoc{Path: path, Group: group}

	if guardsVal, ok := raw["guards"]; ok {
		guards, err := stringList(path, "guards", guardsVal)
		if err != nil {
			return nil, err
		}
		doc.Guards = guards
		return doc, nil
	}

	screenRaw, err := requireMap(path, raw, "screen")
	if err != nil {
		return nil, err
	}

	decl := &ScreenDecl{}
	decl.Key, err = decodeScreenKey(path, "screen", screenRaw)
	if err != nil {
		return nil, err
	}
	decl.Name = optionalString(screenRaw, "name")
	decl.Entry = optionalBool(screenRaw, "entry")
	decl.Exit = optionalBool(screenRaw, "exit")

	kind := optionalString(screenRaw, "kind")
	switch NodeKind(kind) {
	case KindScreen, KindChoice:
		decl.Kind = NodeKind(kind)
	case "":
		decl.Kind = KindScreen
	default:
		return nil, &DecodeError{Path: path, Field: "screen.kind", Message: fmt.Sprintf("unknown kind %q", kind)}
	}

	if transVal, ok := raw["transitions"]; ok {
		items, err := mapList(path, "transitions", transVal)
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			field := fmt.Sprintf("transitions[%d]", i)
			trans, err := decodeTransition(path, field, item)
			if err != nil {
				return nil, err
			}
			decl.Transitions = append(decl.Transitions, trans)
		}
	}

	doc.Screen = decl
	return doc, nil
}

func decodeTransition(path, field string, raw map[string]any) (TransitionDecl, error) {
	var trans TransitionDecl
	var err error

	if trans.ID, err = requireString(path, raw, field+".id"); err != nil {
		return trans, err
	}
	if trans.Target, err = requireString(path, raw, field+".target"); err != nil {
		return trans, err
	}
	trans.TargetContext = optionalString(raw, "targetContext")
	trans.Guard = optionalString(raw, "guard")
	trans.Else = optionalBool(raw, "else")

	trigger := optionalString(raw, "trigger")
	switch Trigger(trigger) {
	case TriggerTap, TriggerAuto:
		trans.Trigger = Trigger(trigger)
	case "":
		trans.Trigger = TriggerTap
	default:
		return trans, &DecodeError{Path: path, Field: field + ".trigger", Message: fmt.Sprintf("unknown trigger %q", trigger)}
	}

	return trans, nil
}

// DecodeUI decodes a UI-layer document, normalizing the element tree so
// every node exposes children directly even when the source nests them under
// a "layout" sub-object.
func DecodeUI(path string, raw map[string]any) (*UIDoc, error) {
	doc := &UIDoc{Path: path}

	screenRaw, err := requireMap(path, raw, "screen")
	if err != nil {
		return nil, err
	}
	doc.Screen, err = decodeScreenKey(path, "screen", screenRaw)
	if err != nil {
		return nil, err
	}

	if elsVal, ok := raw["elements"]; ok {
		doc.Elements, err = decodeElements(path, "elements", elsVal)
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func decodeElements(path, field string, raw any) ([]Element, error) {
	items, err := mapList(path, field, raw)
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(items))
	for i, item := range items {
		elField := fmt.Sprintf("%s[%d]", field, i)

		el := Element{}
		if el.ID, err = requireString(path, item, elField+".id"); err != nil {
			return nil, err
		}
		el.Name = optionalString(item, "name")
		el.Text = optionalString(item, "text")
		el.Action = optionalString(item, "action")

		// Children may sit directly on the node or under layout.children.
		childrenRaw, ok := item["children"]
		if !ok {
			if layoutVal, hasLayout := item["layout"]; hasLayout {
				layout, lerr := asMap(path, elField+".layout", layoutVal)
				if lerr != nil {
					return nil, lerr
				}
				childrenRaw = layout["children"]
			}
		}
		if childrenRaw != nil {
			el.Children, err = decodeElements(path, elField+".children", childrenRaw)
			if err != nil {
				return nil, err
			}
		}

		elements = append(elements, el)
	}

	return elements, nil
}

// DecodeState decodes a state-layer document.
func DecodeState(path string, raw map[string]any) (*StateDoc, error) {
	doc := &StateDoc{Path: path, Events: map[string]Event{}}

	screenRaw, err := requireMap(path, raw, "screen")
	if err != nil {
		return nil, err
	}
	doc.Screen, err = decodeScreenKey(path, "screen", screenRaw)
	if err != nil {
		return nil, err
	}

	if doc.Queries, err = decodeDataRefs(path, "queries", raw); err != nil {
		return nil, err
	}
	if doc.Mutations, err = decodeDataRefs(path, "mutations", raw); err != nil {
		return nil, err
	}

	if eventsVal, ok := raw["events"]; ok {
		events, err := asMap(path, "events", eventsVal)
		if err != nil {
			return nil, err
		}
		for key, val := range events {
			field := "events." + key
			eventRaw, err := asMap(path, field, val)
			if err != nil {
				return nil, err
			}
			event, err := decodeEvent(path, field, eventRaw)
			if err != nil {
				return nil, err
			}
			doc.Events[key] = event
		}
	}

	return doc, nil
}

func decodeDataRefs(path, field string, raw map[string]any) ([]DataRef, error) {
	val, ok := raw[field]
	if !ok {
		return nil, nil
	}
	items, err := mapList(path, field, val)
	if err != nil {
		return nil, err
	}

	refs := make([]DataRef, 0, len(items))
	for i, item := range items {
		refField := fmt.Sprintf("%s[%d]", field, i)

		ref := DataRef{}
		if ref.Name, err = requireString(path, item, refField+".name"); err != nil {
			return nil, err
		}
		if ref.OperationID, err = requireString(path, item, refField+".operationId"); err != nil {
			return nil, err
		}
		ref.SelectRoot = optionalString(item, "selectRoot")
		refs = append(refs, ref)
	}

	return refs, nil
}

func decodeEvent(path, field string, raw map[string]any) (Event, error) {
	var event Event

	typeStr, err := requireString(path, raw, field+".type")
	if err != nil {
		return event, err
	}

	switch EventType(typeStr) {
	case EventNavigate, EventCustom:
		event.Type = EventType(typeStr)
	case EventCallQuery:
		event.Type = EventCallQuery
		if event.Query, err = requireString(path, raw, field+".query"); err != nil {
			return event, err
		}
	case EventCallMutation:
		event.Type = EventCallMutation
		if event.Mutation, err = requireString(path, raw, field+".mutation"); err != nil {
			return event, err
		}
	default:
		return event, &DecodeError{Path: path, Field: field + ".type", Message: fmt.Sprintf("unknown event type %q", typeStr)}
	}

	return event, nil
}

// DecodeI18n decodes a translation document.
func DecodeI18n(path string, raw map[string]any) (*I18nDoc, error) {
	doc := &I18nDoc{Path: path, Keys: map[string]string{}}

	keysVal, err := requireMap(path, raw, "keys")
	if err != nil {
		return nil, err
	}
	for key, val := range keysVal {
		text, ok := val.(string)
		if !ok {
			return nil, &DecodeError{Path: path, Field: "keys." + key, Message: "translation text must be a string"}
		}
		doc.Keys[key] = text
	}

	return doc, nil
}

func decodeScreenKey(path, field string, raw map[string]any) (ScreenKey, error) {
	id, err := requireString(path, raw, field+".id")
	if err != nil {
		return ScreenKey{}, err
	}
	return ScreenKey{ID: id, Context: optionalString(raw, "context")}, nil
}

// requireString looks up a required string field. The field argument may be
// a dotted path; the lookup key is its last segment.
func requireString(path string, raw map[string]any, field string) (string, error) {
	key := lastSegment(field)
	val, ok := raw[key]
	if !ok {
		return "", &DecodeError{Path: path, Field: field, Message: "required field is missing"}
	}
	str, ok := val.(string)
	if !ok || str == "" {
		return "", &DecodeError{Path: path, Field: field, Message: "must be a non-empty string"}
	}
	return str, nil
}

func requireMap(path string, raw map[string]any, field string) (map[string]any, error) {
	val, ok := raw[lastSegment(field)]
	if !ok {
		return nil, &DecodeError{Path: path, Field: field, Message: "required field is missing"}
	}
	return asMap(path, field, val)
}

func asMap(path, field string, val any) (map[string]any, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, &DecodeError{Path: path, Field: field, Message: "must be a mapping"}
	}
	return m, nil
}

func mapList(path, field string, val any) ([]map[string]any, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, &DecodeError{Path: path, Field: field, Message: "must be a list"}
	}
	items := make([]map[string]any, 0, len(list))
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, &DecodeError{Path: path, Field: fmt.Sprintf("%s[%d]", field, i), Message: "must be a mapping"}
		}
		items = append(items, m)
	}
	return items, nil
}

func stringList(path, field string, val any) ([]string, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, &DecodeError{Path: path, Field: field, Message: "must be a list"}
	}
	items := make([]string, 0, len(list))
	for i, entry := range list {
		str, ok := entry.(string)
		if !ok {
			return nil, &DecodeError{Path: path, Field: fmt.Sprintf("%s[%d]", field, i), Message: "must be a string"}
		}
		items = append(items, str)
	}
	return items, nil
}

func optionalString(raw map[string]any, key string) string {
	if val, ok := raw[key].(string); ok {
		return val
	}
	return ""
}

func optionalBool(raw map[string]any, key string) bool {
	if val, ok := raw[key].(bool); ok {
		return val
	}
	return false
}

func lastSegment(field string) string {
	for i := len(field) - 1; i >= 0; i-- {
		if field[i] == '.' {
			return field[i+1:]
		}
	}
	return field
}
