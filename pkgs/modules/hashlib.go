package modules

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// digestFunc hashes s and returns its hex digest; blake2b is wired here
// specifically to give the dependency a caller, alongside the three
// stdlib algorithms Python's hashlib exposes by the same names.
type digestFunc func(s string) (string, error)

func sha256Digest(s string) (string, error) {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:]), nil
}

func sha1Digest(s string) (string, error) {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:]), nil
}

func md5Digest(s string) (string, error) {
	h := md5.Sum([]byte(s))
	return hex.EncodeToString(h[:]), nil
}

func blake2bDigest(s string) (string, error) {
	h := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(h[:]), nil
}

func hasherBuiltin(name string, fn digestFunc) value.Value {
	return value.Builtin{Name: name, Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, name+"() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, name+"() expects a str")
		}
		digest, err := fn(string(s))
		if err != nil {
			return nil, err
		}
		return value.Str(digest), nil
	}}
}

func buildHashlib(ctx *pycontext.Context) value.Module {
	m := value.NewModule("hashlib")
	m.Set("sha256_hexdigest", hasherBuiltin("sha256_hexdigest", sha256Digest))
	m.Set("sha1_hexdigest", hasherBuiltin("sha1_hexdigest", sha1Digest))
	m.Set("md5_hexdigest", hasherBuiltin("md5_hexdigest", md5Digest))
	m.Set("blake2b_hexdigest", hasherBuiltin("blake2b_hexdigest", blake2bDigest))
	return m
}
