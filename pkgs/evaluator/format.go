package evaluator

import (
	"strconv"
	"strings"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

// formatSpecParts is a parsed Python format-spec-mini-language string, the
// part after ':' in an f-string interpolation or the second argument to
// the format() builtin: [[fill]align][sign][#][0][width][,_][.precision][type]
type formatSpecParts struct {
	fill      rune
	align     rune
	sign      rune
	zeroPad   bool
	width     int
	grouping  rune
	precision int
	typ       rune
}

func isAlignChar(r rune) bool {
	return r == '<' || r == '>' || r == '^' || r == '='
}

func parseFormatSpec(spec string) (formatSpecParts, error) {
	fs := formatSpecParts{precision: -1}
	r := []rune(spec)
	i := 0

	if len(r) >= 2 && isAlignChar(r[1]) {
		fs.fill, fs.align = r[0], r[1]
		i = 2
	} else if len(r) >= 1 && isAlignChar(r[0]) {
		fs.align = r[0]
		i = 1
	}
	if i < len(r) && (r[i] == '+' || r[i] == '-' || r[i] == ' ') {
		fs.sign = r[i]
		i++
	}
	if i < len(r) && r[i] == '#' {
		i++ // alternate form accepted but not rendered differently
	}
	if i < len(r) && r[i] == '0' {
		fs.zeroPad = true
		i++
	}
	start := i
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	if i > start {
		n, err := strconv.Atoi(string(r[start:i]))
		if err != nil {
			return fs, perrors.New(perrors.KindRuntime, perrors.ValueError, "invalid format spec '"+spec+"'")
		}
		fs.width = n
	}
	if i < len(r) && (r[i] == ',' || r[i] == '_') {
		fs.grouping = r[i]
		i++
	}
	if i < len(r) && r[i] == '.' {
		i++
		start = i
		for i < len(r) && r[i] >= '0' && r[i] <= '9' {
			i++
		}
		n, err := strconv.Atoi(string(r[start:i]))
		if err != nil {
			return fs, perrors.New(perrors.KindRuntime, perrors.ValueError, "invalid format spec '"+spec+"'")
		}
		fs.precision = n
	}
	if i < len(r) {
		fs.typ = r[i]
		i++
	}
	if i != len(r) {
		return fs, perrors.New(perrors.KindRuntime, perrors.ValueError, "invalid format spec '"+spec+"'")
	}
	return fs, nil
}

func toInt64(v value.Value) (int64, bool) {
	switch x := v.(type) {
	case value.Int:
		return x.V.Int64(), true
	case value.Bool:
		if bool(x) {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func absI(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func groupDigits(s string, sep rune) string {
	n := len(s)
	var out strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			out.WriteRune(sep)
		}
		out.WriteByte(s[i])
	}
	return out.String()
}

func padded(s string, fs formatSpecParts) string {
	if fs.width <= len(s) {
		return s
	}
	fill := fs.fill
	if fill == 0 {
		fill = ' '
	}
	pad := fs.width - len(s)
	switch fs.align {
	case '>':
		return strings.Repeat(string(fill), pad) + s
	case '^':
		left := pad / 2
		return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), pad-left)
	default:
		return s + strings.Repeat(string(fill), pad)
	}
}

// formatValue renders v per spec, the shared implementation behind
// f-string interpolation (ast.FStringPart.Spec) and the format() builtin.
// An empty spec is str(v), matching Python's "no format spec" behavior.
func formatValue(v value.Value, spec string) (string, error) {
	if spec == "" {
		return value.ToStr(v), nil
	}
	fs, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}

	var body string
	negative := false
	switch fs.typ {
	case 'f', 'F', 'e', 'E', 'g', 'G', '%':
		f, ok := toFloat(v)
		if !ok {
			return "", perrors.New(perrors.KindRuntime, perrors.TypeError, "unsupported format type for float conversion")
		}
		negative = f < 0
		f = absF(f)
		prec := 6
		if fs.precision >= 0 {
			prec = fs.precision
		}
		switch fs.typ {
		case 'f', 'F':
			body = strconv.FormatFloat(f, 'f', prec, 64)
		case 'e', 'E':
			body = strconv.FormatFloat(f, byte(fs.typ), prec, 64)
		case 'g', 'G':
			gp := -1
			if fs.precision >= 0 {
				gp = fs.precision
			}
			body = strconv.FormatFloat(f, byte(fs.typ), gp, 64)
		case '%':
			body = strconv.FormatFloat(f*100, 'f', prec, 64) + "%"
		}
	case 'd', 'x', 'X', 'o', 'b':
		n, ok := toInt64(v)
		if !ok {
			return "", perrors.New(perrors.KindRuntime, perrors.TypeError, "unsupported format type for int conversion")
		}
		negative = n < 0
		n = absI(n)
		switch fs.typ {
		case 'd':
			body = strconv.FormatInt(n, 10)
		case 'x':
			body = strconv.FormatInt(n, 16)
		case 'X':
			body = strings.ToUpper(strconv.FormatInt(n, 16))
		case 'o':
			body = strconv.FormatInt(n, 8)
		case 'b':
			body = strconv.FormatInt(n, 2)
		}
	case 's', 0:
		s := value.ToStr(v)
		if fs.precision >= 0 && len(s) > fs.precision {
			s = s[:fs.precision]
		}
		return padded(s, fs), nil
	default:
		return "", perrors.New(perrors.KindRuntime, perrors.ValueError, "unknown format code '"+string(fs.typ)+"'")
	}

	if fs.grouping != 0 {
		body = groupDigits(body, fs.grouping)
	}

	sign := ""
	switch {
	case negative:
		sign = "-"
	case fs.sign == '+':
		sign = "+"
	case fs.sign == ' ':
		sign = " "
	}

	if fs.zeroPad && fs.align == 0 && fs.width > len(sign)+len(body) {
		return sign + strings.Repeat("0", fs.width-len(sign)-len(body)) + body, nil
	}
	// Numbers right-align by default; only strings (handled above) left-align.
	if fs.align == 0 {
		fs.align = '>'
	}
	return padded(sign+body, fs), nil
}
