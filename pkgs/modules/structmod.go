package modules

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// buildStruct provides a narrow slice of Python's struct module: packing
// and unpacking single big-endian numeric values, represented here as
// hex strings rather than a bytes type (this interpreter has no native
// bytes value). "e" (half precision) is backed by x448/float16, the only
// Go library in this stack that knows IEEE 754 binary16.
func buildStruct(ctx *pycontext.Context) value.Module {
	m := value.NewModule("struct")

	m.Set("pack_f16_hex", value.Builtin{Name: "pack_f16_hex", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		f, ok := toF(argOrZero(args, 0))
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "pack_f16_hex() expects a number")
		}
		h := float16.Fromfloat32(float32(f))
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(h))
		return value.Str(hexBytes(buf)), nil
	}})

	m.Set("unpack_f16_hex", value.Builtin{Name: "unpack_f16_hex", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "unpack_f16_hex() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "unpack_f16_hex() expects a str")
		}
		buf, err := bytesFromHex(string(s))
		if err != nil || len(buf) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "expected a 2-byte hex string")
		}
		h := float16.Float16(binary.BigEndian.Uint16(buf))
		return value.Float(float64(h.Float32())), nil
	}})

	m.Set("pack_f32_hex", value.Builtin{Name: "pack_f32_hex", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		f, ok := toF(argOrZero(args, 0))
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "pack_f32_hex() expects a number")
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, math.Float32bits(float32(f)))
		return value.Str(hexBytes(buf)), nil
	}})

	m.Set("unpack_f32_hex", value.Builtin{Name: "unpack_f32_hex", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "unpack_f32_hex() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "unpack_f32_hex() expects a str")
		}
		buf, err := bytesFromHex(string(s))
		if err != nil || len(buf) != 4 {
			return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "expected a 4-byte hex string")
		}
		return value.Float(float64(math.Float32frombits(binary.BigEndian.Uint32(buf)))), nil
	}})

	return m
}

func argOrZero(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.NewInt(0)
}

const hexDigits = "0123456789abcdef"

func hexBytes(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}

func bytesFromHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi := hexVal(s[i*2])
		lo := hexVal(s[i*2+1])
		if hi < 0 || lo < 0 {
			return nil, perrors.New(perrors.KindRuntime, perrors.ValueError, "invalid hex digit")
		}
		out[i] = byte(hi<<4 | lo)
	}
	return out, nil
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
