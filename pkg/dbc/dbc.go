// Package dbc packs typed message records into CAN frames using signal
// definitions in the DBC format.
//
// A record is a struct whose fields carry a `dbc:"SignalName"` tag:
//
//	type CLU11 struct {
//		CruiseSwState int     `dbc:"CF_Clu_CruiseSwState"`
//		Vanz          float64 `dbc:"CF_Clu_Vanz"`
//	}
//
// Fields without a tag are ignored. Every tagged name must exist in the
// message definition, a mismatch is a programming error and panics.
package dbc

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/descriptor"
)

// Record is a typed signal record for one message.
type Record interface {
	MessageName() string
}

var ErrWrongMessage = errors.New("frame does not belong to message")

type message struct {
	*descriptor.Message
	signals map[string]*descriptor.Signal
}

// DB holds message definitions and packs records against them.
type DB struct {
	byName map[string]*message

	fieldCache sync.Map // reflect.Type -> []field
}

type field struct {
	index int
	sig   *descriptor.Signal
}

func New(msgs ...*descriptor.Message) *DB {
	db := &DB{
		byName: make(map[string]*message, len(msgs)),
	}
	for _, m := range msgs {
		mm := &message{Message: m, signals: make(map[string]*descriptor.Signal, len(m.Signals))}
		for _, s := range m.Signals {
			mm.signals[s.Name] = s
		}
		db.byName[m.Name] = mm
	}
	return db
}

// Pack encodes rec into a frame for bus. Signals are scaled, rounded and
// masked to their width the same way for every message.
func (db *DB) Pack(bus int, rec Record) Frame {
	m := db.mustMessage(rec.MessageName())
	v := reflect.Indirect(reflect.ValueOf(rec))

	var data can.Data
	for _, f := range db.fields(v.Type(), m) {
		setSignal(&data, f.sig, toFloat(v.Field(f.index)))
	}

	out := Frame{Bus: bus}
	out.ID = m.ID
	out.Length = m.Length
	out.IsExtended = m.IsExtended
	out.Data = data
	return out
}

// Unpack decodes f into rec, rec must be a pointer to a record struct.
func (db *DB) Unpack(f Frame, rec Record) error {
	m := db.mustMessage(rec.MessageName())
	if f.ID != m.ID {
		return fmt.Errorf("%w: 0x%03X is not %s (0x%03X)", ErrWrongMessage, f.ID, m.Name, m.ID)
	}
	rv := reflect.ValueOf(rec)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("unpack %s: record must be a non-nil pointer", m.Name)
	}
	v := rv.Elem()
	for _, fl := range db.fields(v.Type(), m) {
		setField(v.Field(fl.index), getSignal(f.Data, fl.sig))
	}
	return nil
}

func (db *DB) mustMessage(name string) *message {
	m, ok := db.byName[name]
	if !ok {
		panic("dbc: unknown message " + name)
	}
	return m
}

func (db *DB) fields(t reflect.Type, m *message) []field {
	if cached, ok := db.fieldCache.Load(t); ok {
		return cached.([]field)
	}
	var out []field
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("dbc")
		if name == "" || name == "-" {
			continue
		}
		sig, ok := m.signals[name]
		if !ok {
			panic(fmt.Sprintf("dbc: %s has no signal %s (field %s.%s)", m.Name, name, t.Name(), t.Field(i).Name))
		}
		out = append(out, field{index: i, sig: sig})
	}
	db.fieldCache.Store(t, out)
	return out
}

func setSignal(d *can.Data, s *descriptor.Signal, value float64) {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	raw := uint64(int64(math.Round((value-s.Offset)/scale))) & mask(s.Length)
	if s.IsBigEndian {
		d.SetUnsignedBitsBigEndian(s.Start, s.Length, raw)
		return
	}
	d.SetUnsignedBitsLittleEndian(s.Start, s.Length, raw)
}

func getSignal(d can.Data, s *descriptor.Signal) float64 {
	var raw uint64
	if s.IsBigEndian {
		raw = d.UnsignedBitsBigEndian(s.Start, s.Length)
	} else {
		raw = d.UnsignedBitsLittleEndian(s.Start, s.Length)
	}
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	if s.IsSigned && s.Length < 64 && raw&(1<<(s.Length-1)) != 0 {
		return float64(int64(raw)-int64(1)<<s.Length)*scale + s.Offset
	}
	return float64(raw)*scale + s.Offset
}

func mask(length uint8) uint64 {
	if length >= 64 {
		return math.MaxUint64
	}
	return 1<<length - 1
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	panic("dbc: unsupported field kind " + v.Kind().String())
}

func setField(v reflect.Value, value float64) {
	switch v.Kind() {
	case reflect.Bool:
		v.SetBool(value != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(math.Round(value)))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(math.Round(value)))
	case reflect.Float32, reflect.Float64:
		v.SetFloat(value)
	default:
		panic("dbc: unsupported field kind " + v.Kind().String())
	}
}
