package store

import (
	"encoding/json"
	"fmt"
)

// Documents are held as decoded JSON trees (map[string]any, []any, scalars).
// Writing nil removes a value and empty objects are pruned, matching how the
// realtime store treats null.

// ToTree converts an arbitrary value into its JSON tree form.
func ToTree(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if raw, ok := value.(json.RawMessage); ok {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode raw value: %w", err)
		}
		return v, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

// GetPath returns the value at segs beneath root.
func GetPath(root any, segs []string) (any, bool) {
	cur := root
	for _, seg := range segs {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, ok := arrayIndex(seg, len(node))
			if !ok {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// SetPath stores value at segs beneath root and returns the new root. A nil
// value deletes.
func SetPath(root any, segs []string, value any) any {
	if len(segs) == 0 {
		return prune(value)
	}
	if value == nil {
		return DeletePath(root, segs)
	}

	switch node := root.(type) {
	case map[string]any:
		child := SetPath(node[segs[0]], segs[1:], value)
		if child == nil {
			delete(node, segs[0])
		} else {
			node[segs[0]] = child
		}
		return node
	case []any:
		if i, ok := arrayIndex(segs[0], len(node)); ok {
			node[i] = SetPath(node[i], segs[1:], value)
			return node
		}
	}

	// Anything that is not a container is replaced by an object.
	node := map[string]any{}
	if child := SetPath(nil, segs[1:], value); child != nil {
		node[segs[0]] = child
	}
	return node
}

// DeletePath removes the value at segs and returns the new root.
func DeletePath(root any, segs []string) any {
	if len(segs) == 0 {
		return nil
	}
	switch node := root.(type) {
	case map[string]any:
		child, ok := node[segs[0]]
		if !ok {
			return node
		}
		if rest := DeletePath(child, segs[1:]); rest == nil || isEmptyObject(rest) {
			delete(node, segs[0])
		} else {
			node[segs[0]] = rest
		}
		if len(node) == 0 {
			return nil
		}
		return node
	case []any:
		if i, ok := arrayIndex(segs[0], len(node)); ok {
			node[i] = DeletePath(node[i], segs[1:])
		}
		return node
	default:
		return root
	}
}

func prune(value any) any {
	if isEmptyObject(value) {
		return nil
	}
	return value
}

func isEmptyObject(v any) bool {
	m, ok := v.(map[string]any)
	return ok && len(m) == 0
}

// Encode renders a tree value as raw JSON.
func Encode(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
