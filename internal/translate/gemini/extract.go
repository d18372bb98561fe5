package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The reply format of the generation endpoint is not a fixed contract:
// depending on model and proxy, the image payload shows up at different
// depths. We therefore search the decoded body instead of indexing a known
// path. The search needs object members in document order, which
// map[string]any cannot give us, so the body is parsed with a token decoder
// into an order-preserving node first.

// minInlineLen filters out short "data" strings that cannot be image payloads.
const minInlineLen = 100

const defaultImageMIME = "image/png"

type jsonValue struct {
	object []jsonMember // non-nil iff kind is object
	array  []jsonValue  // non-nil iff kind is array
	str    string
	isObj  bool
	isArr  bool
	isStr  bool
}

type jsonMember struct {
	key string
	val jsonValue
}

// stringMember returns the string value of the named member, if present.
func (v jsonValue) stringMember(key string) (string, bool) {
	for _, m := range v.object {
		if m.key == key && m.val.isStr {
			return m.val.str, true
		}
	}
	return "", false
}

// member returns the value of the named member, if present.
func (v jsonValue) member(key string) (jsonValue, bool) {
	for _, m := range v.object {
		if m.key == key {
			return m.val, true
		}
	}
	return jsonValue{}, false
}

// parseTree decodes data into an order-preserving JSON tree.
func parseTree(data []byte) (jsonValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return jsonValue{}, err
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return jsonValue{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			v := jsonValue{isObj: true, object: []jsonMember{}}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return jsonValue{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return jsonValue{}, fmt.Errorf("object key is not a string: %v", kt)
				}
				mv, err := parseValue(dec)
				if err != nil {
					return jsonValue{}, err
				}
				v.object = append(v.object, jsonMember{key: key, val: mv})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return jsonValue{}, err
			}
			return v, nil
		case '[':
			v := jsonValue{isArr: true, array: []jsonValue{}}
			for dec.More() {
				ev, err := parseValue(dec)
				if err != nil {
					return jsonValue{}, err
				}
				v.array = append(v.array, ev)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return jsonValue{}, err
			}
			return v, nil
		}
		return jsonValue{}, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return jsonValue{isStr: true, str: t}, nil
	default:
		// Numbers, booleans and null never match an image payload shape;
		// keep them as opaque scalars.
		return jsonValue{}, nil
	}
}

// findInlineImage walks the tree depth-first, pre-order, and returns the
// first embedded image payload: either an "inline_data" object holding a
// string "data" member, or a long string "data" member with an optional
// sibling "mime_type". The mime type defaults to image/png when absent.
func findInlineImage(v jsonValue) (mimeType, data string, found bool) {
	if v.isObj {
		if inline, ok := v.member("inline_data"); ok && inline.isObj {
			if d, ok := inline.stringMember("data"); ok {
				mt := defaultImageMIME
				if s, ok := inline.stringMember("mime_type"); ok {
					mt = s
				}
				return mt, d, true
			}
		}
		if d, ok := v.stringMember("data"); ok && len(d) > minInlineLen {
			mt := defaultImageMIME
			if s, ok := v.stringMember("mime_type"); ok {
				mt = s
			}
			return mt, d, true
		}
		for _, m := range v.object {
			if mt, d, ok := findInlineImage(m.val); ok {
				return mt, d, true
			}
		}
		return "", "", false
	}
	if v.isArr {
		for _, e := range v.array {
			if mt, d, ok := findInlineImage(e); ok {
				return mt, d, true
			}
		}
	}
	return "", "", false
}
