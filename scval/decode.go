package scval

import (
	"strings"
	"unicode/utf8"
)

// Discriminator symbols of the option encoding convention: an option-shaped
// field is either void, or a vector whose first element tags the variant.
const (
	optionSome = "some"
	optionNone = "none"
)

// DecodeOption unwraps an option-shaped value. It returns the payload and
// true when a value is present, or a zero Val and false for void, "none", or
// a "some" with no payload. A value that is not option-shaped is treated as
// present as-is.
func DecodeOption(v Val) (Val, bool) {
	if v.IsVoid() {
		return Val{}, false
	}
	if v.Type != TypeVec || len(v.Vec) == 0 {
		return v, true
	}
	switch tag, ok := DecodeText(v.Vec[0]); {
	case ok && strings.EqualFold(tag, optionNone):
		return Val{}, false
	case ok && strings.EqualFold(tag, optionSome):
		if len(v.Vec) < 2 {
			return Val{}, false
		}
		return v.Vec[1], true
	}
	return v, true
}

// DecodeText extracts display text from a value, trying string, symbol, and
// UTF-8 bytes in that order before falling back to the default string form.
// The result is trimmed; an empty result is reported as absent, never as an
// empty string.
func DecodeText(v Val) (string, bool) {
	var s string
	switch v.Type {
	case TypeString, TypeSymbol:
		s = v.Str
	case TypeBytes:
		if utf8.Valid(v.Bytes) {
			s = string(v.Bytes)
		} else {
			s = v.String()
		}
	default:
		s = v.String()
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// DecodeOptionalText combines the option and text conventions for fields
// like title and description.
func DecodeOptionalText(v Val) (string, bool) {
	inner, ok := DecodeOption(v)
	if !ok {
		return "", false
	}
	return DecodeText(inner)
}

// DecodeAddress flattens an address-shaped value to its string form. It
// recurses through one-element vectors and accepts structured addresses,
// plain strings, and symbols; anything else yields an empty string.
func DecodeAddress(v Val) string {
	switch v.Type {
	case TypeAddress, TypeString, TypeSymbol:
		return strings.TrimSpace(v.Str)
	case TypeVec:
		if len(v.Vec) == 1 {
			return DecodeAddress(v.Vec[0])
		}
	}
	return ""
}

// Fields builds a name-to-value lookup from a map value. Only symbol-typed
// keys participate; other keys are ignored.
func Fields(v Val) (map[string]Val, error) {
	if v.Type != TypeMap {
		return nil, &DecodeError{Tag: v.Type, Reason: "expected a map"}
	}
	fields := make(map[string]Val, len(v.Map))
	for _, entry := range v.Map {
		if entry.Key.Type != TypeSymbol {
			continue
		}
		fields[entry.Key.Str] = entry.Val
	}
	return fields, nil
}

// DecodeAddressVec decodes a vector of address-shaped values, skipping
// entries that do not flatten to a non-empty address.
func DecodeAddressVec(v Val) []string {
	if v.Type != TypeVec {
		return nil
	}
	out := make([]string, 0, len(v.Vec))
	for _, item := range v.Vec {
		if addr := DecodeAddress(item); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// DecodeUint64Vec decodes a vector of ids, dropping malformed entries.
func DecodeUint64Vec(v Val) []uint64 {
	if v.Type != TypeVec {
		return nil
	}
	out := make([]uint64, 0, len(v.Vec))
	for _, item := range v.Vec {
		if id, err := item.Uint64(); err == nil {
			out = append(out, id)
		}
	}
	return out
}
