// Package jsonsafe converts arbitrary Go values into trees that encode to JSON
// without loss or failure.
//
// Normalize applies a fixed cascade of rules, first match wins:
//
//  1. nil values (including nil pointers, maps, slices and funcs) stay nil
//  2. strings, booleans, numbers and json.Number pass through; named
//     integers with a String method (enums) become that name
//  3. big.Int, big.Float and big.Rat, values or pointers, become exact
//     decimal strings
//  4. byte slices and arrays become base64 strings
//  5. time.Time becomes an ISO-8601 UTC string with milliseconds
//  6. slices and arrays become []any
//  7. other composites are checked against the current path for cycles
//     ("[Circular]") and then converted through json.Marshaler, Plainer,
//     Iterable or error when available, or else field by field into an *Object
//  8. anything else becomes its fmt representation
//
// Hook failures (errors or panics) are not fatal: the value falls through to
// the next rule.
package jsonsafe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/venturelab/adsgw/internal/logger"
)

// Circular replaces any value that already appears on the path from the root.
const Circular = "[Circular]"

// isoMillis is the layout used for time values.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var logNormalize = logger.New("jsonsafe:normalize")

// Plainer is implemented by values that can describe themselves as a plain
// tree of maps, slices and scalars.
type Plainer interface {
	Plain() (any, error)
}

// Iterable is implemented by collections that are not maps but can be walked
// in order.
type Iterable interface {
	All() iter.Seq[any]
}

// Normalize returns the JSON-safe projection of v. It never fails and
// terminates on cyclic graphs.
func Normalize(v any) any {
	n := &normalizer{path: make(map[identity]struct{})}
	return n.value(v)
}

// identity names a reference-like value on the current path.
// Slices carry their length so a sub-slice is not mistaken for its parent.
type identity struct {
	typ reflect.Type
	ptr uintptr
	len int
}

type normalizer struct {
	path map[identity]struct{}
}

func (n *normalizer) value(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr:
		return t
	case float64:
		return finite(t)
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return nil
		}
		return t
	case *big.Int:
		if t == nil {
			return nil
		}
		return t.String()
	case big.Int:
		return t.String()
	case *big.Float:
		if t == nil {
			return nil
		}
		return t.Text('f', -1)
	case big.Float:
		return t.Text('f', -1)
	case *big.Rat:
		if t == nil {
			return nil
		}
		return t.RatString()
	case big.Rat:
		return t.RatString()
	case json.RawMessage:
		if t == nil {
			return nil
		}
		decoded, err := FromJSON(t)
		if err != nil {
			return string(t)
		}
		return n.value(decoded)
	case []byte:
		if t == nil {
			return nil
		}
		return base64.StdEncoding.EncodeToString(t)
	case time.Time:
		return formatTime(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return formatTime(*t)
	case *Object:
		if t == nil {
			return nil
		}
		return n.enter(identity{typ: reflect.TypeOf(t), ptr: reflect.ValueOf(t).Pointer()}, func() any {
			return n.object(t)
		})
	case iter.Seq[any]:
		if t == nil {
			return nil
		}
		return n.seq(t)
	}
	return n.reflectValue(reflect.ValueOf(v))
}

func (n *normalizer) reflectValue(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return n.elem(rv.Elem())
	case reflect.Bool:
		if out, ok := n.scalarHook(rv); ok {
			return out
		}
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if out, ok := n.scalarHook(rv); ok {
			return out
		}
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if out, ok := n.scalarHook(rv); ok {
			return out
		}
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		if out, ok := n.scalarHook(rv); ok {
			return out
		}
		return finite(rv.Float())
	case reflect.String:
		if out, ok := n.scalarHook(rv); ok {
			return out
		}
		return rv.String()
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(rv.Bytes())
		}
		if rv.Len() == 0 {
			return []any{}
		}
		id := identity{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}
		return n.enter(id, func() any { return n.list(rv) })
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(buf), rv)
			return base64.StdEncoding.EncodeToString(buf)
		}
		return n.list(rv)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		id := identity{typ: rv.Type(), ptr: rv.Pointer()}
		return n.enter(id, func() any {
			if out, ok := n.hooks(rv); ok {
				return out
			}
			elem := rv.Elem()
			if elem.Kind() == reflect.Struct {
				return n.structValue(elem)
			}
			return n.elem(elem)
		})
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		id := identity{typ: rv.Type(), ptr: rv.Pointer()}
		return n.enter(id, func() any {
			if out, ok := n.hooks(rv); ok {
				return out
			}
			return n.mapValue(rv)
		})
	case reflect.Struct:
		if out, ok := n.hooks(rv); ok {
			return out
		}
		return n.structValue(rv)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return nil
		}
	}
	return fallback(rv)
}

// elem normalizes a value reached through an interface or pointer.
func (n *normalizer) elem(rv reflect.Value) any {
	if !rv.CanInterface() {
		return n.reflectValue(rv)
	}
	return n.value(rv.Interface())
}

// enter runs fn with id marked as part of the current path.
func (n *normalizer) enter(id identity, fn func() any) any {
	if _, seen := n.path[id]; seen {
		return Circular
	}
	n.path[id] = struct{}{}
	defer delete(n.path, id)
	return fn()
}

// hooks tries the custom conversion capabilities of a composite value in
// order. ok is false when none applies or every applicable one failed.
func (n *normalizer) hooks(rv reflect.Value) (any, bool) {
	if !rv.CanInterface() {
		return nil, false
	}
	v := rv.Interface()

	if m, ok := v.(json.Marshaler); ok {
		out, err := marshalHook(m)
		if err == nil {
			return n.value(out), true
		}
		logNormalize.Printf("MarshalJSON failed for %T: %v", v, err)
	}
	if p, ok := v.(Plainer); ok {
		out, err := plainHook(p)
		if err == nil && !returnsSelf(out, rv) {
			return n.value(out), true
		}
		if err != nil {
			logNormalize.Printf("Plain failed for %T: %v", v, err)
		}
	}
	if it, ok := v.(Iterable); ok {
		if seq, err := iterHook(it); err == nil && seq != nil {
			return n.seq(seq), true
		}
	}
	if e, ok := v.(error); ok {
		if msg, err := errorHook(e); err == nil {
			return msg, true
		}
	}
	return nil, false
}

// scalarHook lets named scalar types render through their MarshalJSON
// method. Named integers without one (protobuf enums and the like) render
// through String.
func (n *normalizer) scalarHook(rv reflect.Value) (any, bool) {
	if rv.Type().PkgPath() == "" || !rv.CanInterface() {
		return nil, false
	}
	v := rv.Interface()
	if m, ok := v.(json.Marshaler); ok {
		out, err := marshalHook(m)
		if err == nil {
			return n.value(out), true
		}
		logNormalize.Printf("MarshalJSON failed for %s: %v", rv.Type(), err)
	}
	if !isInteger(rv.Kind()) {
		return nil, false
	}
	s, ok := v.(fmt.Stringer)
	if !ok {
		return nil, false
	}
	name, err := stringHook(s)
	if err != nil {
		logNormalize.Printf("String failed for %s: %v", rv.Type(), err)
		return nil, false
	}
	return name, true
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func (n *normalizer) list(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = n.elem(rv.Index(i))
	}
	return out
}

func (n *normalizer) seq(seq iter.Seq[any]) (out []any) {
	out = []any{}
	defer func() {
		if r := recover(); r != nil {
			logNormalize.Printf("iteration stopped by panic: %v", r)
		}
	}()
	for item := range seq {
		out = append(out, n.value(item))
	}
	return out
}

func (n *normalizer) object(src *Object) *Object {
	out := NewObject()
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, n.value(pair.Value))
	}
	return out
}

// mapValue converts a Go map. Go maps have no insertion order, so keys are
// emitted sorted to keep the output stable.
func (n *normalizer) mapValue(rv reflect.Value) *Object {
	type entry struct {
		key   string
		value reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		entries = append(entries, entry{key: mapKey(it.Key()), value: it.Value()})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	out := NewObject()
	for _, e := range entries {
		out.Set(e.key, n.elem(e.value))
	}
	return out
}

func (n *normalizer) structValue(rv reflect.Value) *Object {
	out := NewObject()
	n.structFields(out, rv)
	return out
}

// structFields copies exported fields in declaration order, following the
// encoding/json tag conventions. Embedded structs without a tag name are
// flattened into the parent.
func (n *normalizer) structFields(out *Object, rv reflect.Value) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, omitEmpty, skip := parseTag(field.Tag.Get("json"))
		if skip {
			continue
		}
		fv := rv.Field(i)

		if field.Anonymous && name == "" {
			embedded := fv
			if embedded.Kind() == reflect.Pointer {
				if embedded.IsNil() {
					continue
				}
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				n.structFields(out, embedded)
				continue
			}
		}
		if !field.IsExported() || !fv.CanInterface() {
			continue
		}
		if omitEmpty && isEmptyValue(fv) {
			continue
		}
		if name == "" {
			name = field.Name
		}
		out.Set(name, n.value(fv.Interface()))
	}
}

func parseTag(tag string) (name string, omitEmpty bool, skip bool) {
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return k.String()
}

func marshalHook(m json.Marshaler) (out any, err error) {
	defer recoverInto(&err)
	data, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}

func plainHook(p Plainer) (out any, err error) {
	defer recoverInto(&err)
	return p.Plain()
}

func iterHook(it Iterable) (seq iter.Seq[any], err error) {
	defer recoverInto(&err)
	return it.All(), nil
}

func stringHook(s fmt.Stringer) (name string, err error) {
	defer recoverInto(&err)
	return s.String(), nil
}

func errorHook(e error) (msg string, err error) {
	defer recoverInto(&err)
	return e.Error(), nil
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}

// returnsSelf reports whether a hook handed back a value of the very type it
// was called on. Struct values have no identity to mark as visited, so this
// is how a self-returning hook is stopped.
func returnsSelf(out any, rv reflect.Value) bool {
	if out == nil {
		return false
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return false
	}
	return reflect.TypeOf(out) == rv.Type()
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

func fallback(rv reflect.Value) string {
	if rv.CanInterface() {
		return fmt.Sprint(rv.Interface())
	}
	return rv.String()
}
