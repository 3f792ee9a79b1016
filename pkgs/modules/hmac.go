package modules

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func buildHmac(ctx *pycontext.Context) value.Module {
	m := value.NewModule("hmac")
	m.Set("new_sha256_hexdigest", value.Builtin{Name: "new_sha256_hexdigest", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "new_sha256_hexdigest() takes exactly two arguments")
		}
		key, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "key must be a str")
		}
		msg, ok := args[1].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "message must be a str")
		}
		mac := hmac.New(sha256.New, []byte(key))
		mac.Write([]byte(msg))
		return value.Str(hex.EncodeToString(mac.Sum(nil))), nil
	}})
	m.Set("compare_digest", value.Builtin{Name: "compare_digest", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "compare_digest() takes exactly two arguments")
		}
		a, ok1 := args[0].(value.Str)
		b, ok2 := args[1].(value.Str)
		if !ok1 || !ok2 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "compare_digest() expects two str arguments")
		}
		return value.Bool(hmac.Equal([]byte(a), []byte(b))), nil
	}})
	return m
}
