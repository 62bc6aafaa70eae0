package domain

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntityID is the canonical key of an entity. Every cache key, set membership
// check and URL path segment that refers to an entity is an EntityID produced
// by Normalize. The zero value is the null identifier.
type EntityID string

func (id EntityID) String() string { return string(id) }

func (id EntityID) IsZero() bool { return id == "" }

// UnmarshalJSON accepts any identifier shape the backend emits (plain string,
// {"$oid": ...}, nested {"_id": ...}, numbers) and stores its canonical form.
func (id *EntityID) UnmarshalJSON(b []byte) error {
	*id = Normalize(json.RawMessage(b))
	return nil
}

// lookup order for object-shaped identifiers
var idKeys = [...]string{"$oid", "_id", "id", "$id"}

const maxIDDepth = 8

// Normalize converts any supported identifier representation into its
// canonical EntityID. Unsupported or empty values yield the null id.
// Normalize never panics and is idempotent.
func Normalize(v any) (id EntityID) {
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	return normalize(v, 0)
}

// SameID reports whether a and b name the same non-null entity.
func SameID(a, b any) bool {
	x := Normalize(a)
	return !x.IsZero() && x == Normalize(b)
}

func normalize(v any, depth int) EntityID {
	if depth > maxIDDepth {
		return ""
	}
	switch x := v.(type) {
	case nil:
		return ""
	case EntityID:
		return x
	case string:
		return EntityID(x)
	case *string:
		if x == nil {
			return ""
		}
		return EntityID(*x)
	case bool:
		if !x {
			return ""
		}
		return "true"
	case primitive.ObjectID:
		if x.IsZero() {
			return ""
		}
		return EntityID(x.Hex())
	case *primitive.ObjectID:
		if x == nil {
			return ""
		}
		return normalize(*x, depth+1)
	case json.Number:
		return EntityID(x.String())
	case int:
		return EntityID(strconv.Itoa(x))
	case int32:
		return EntityID(strconv.FormatInt(int64(x), 10))
	case int64:
		return EntityID(strconv.FormatInt(x, 10))
	case uint:
		return EntityID(strconv.FormatUint(uint64(x), 10))
	case uint32:
		return EntityID(strconv.FormatUint(uint64(x), 10))
	case uint64:
		return EntityID(strconv.FormatUint(x, 10))
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case json.RawMessage:
		return normalizeJSON(x, depth)
	case []byte:
		if json.Valid(x) {
			return normalizeJSON(x, depth)
		}
		return EntityID(x)
	case primitive.M:
		return normalizeMap(x, depth)
	case map[string]any:
		return normalizeMap(x, depth)
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, s := range x {
			m[k] = s
		}
		return normalizeMap(m, depth)
	case primitive.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = e.Value
		}
		return normalizeMap(m, depth)
	case fmt.Stringer:
		return EntityID(x.String())
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return ""
		}
		return EntityID(b)
	}
	return ""
}

func normalizeFloat(f float64) EntityID {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return EntityID(strconv.FormatFloat(f, 'f', -1, 64))
}

func normalizeMap(m map[string]any, depth int) EntityID {
	for _, key := range idKeys {
		raw, ok := m[key]
		if !ok {
			continue
		}
		if id := normalize(raw, depth+1); !id.IsZero() {
			return id
		}
	}
	return ""
}

func normalizeJSON(b []byte, depth int) EntityID {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	return normalize(v, depth+1)
}

// firstID returns the first non-null id.
func firstID(ids ...EntityID) EntityID {
	for _, id := range ids {
		if !id.IsZero() {
			return id
		}
	}
	return ""
}
