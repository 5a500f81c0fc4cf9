package format

import (
	"bytes"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/verte-zerg/dsc2asc/internal/model"
)

const (
	textNaN    = "NaN"
	textPosInf = "Infinity"
	textNegInf = "-Infinity"
)

// Serialize renders one "X<delimiter>Y\n" record per pair. X uses the profile's X precision,
// Y its Y precision, and the '.' of each number is replaced by the profile's decimal separator.
// When xs and ys differ in length the extra values of the longer one are dropped.
func Serialize(xs []float64, ys []float32, p model.FormatProfile) string {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	var b strings.Builder
	b.Grow(n * (p.XPrecision + p.YPrecision + len(p.Delimiter) + 12))
	scratch := make([]byte, 0, 32)
	for i := 0; i < n; i++ {
		scratch = appendNumber(scratch[:0], xs[i], p.XPrecision, p.DecimalSeparator)
		scratch = append(scratch, p.Delimiter...)
		scratch = appendNumber(scratch, float64(ys[i]), p.YPrecision, p.DecimalSeparator)
		scratch = append(scratch, '\n')
		b.Write(scratch)
	}
	return b.String()
}

// appendNumber rounds half away from zero on the exact binary value, so 123.25 becomes 123.3
// while 0.35 (stored as 0.34999...) stays 0.3. Negative zero prints without a sign.
func appendNumber(dst []byte, v float64, prec int, decimal string) []byte {
	switch {
	case math.IsNaN(v):
		return append(dst, textNaN...)
	case math.IsInf(v, 1):
		return append(dst, textPosInf...)
	case math.IsInf(v, -1):
		return append(dst, textNegInf...)
	}
	start := len(dst)
	if v < 0 {
		dst = append(dst, '-')
	}
	abs := math.Abs(v)
	if isTie(abs, prec) {
		abs = math.Nextafter(abs, math.Inf(1))
	}
	dst = strconv.AppendFloat(dst, abs, 'f', prec, 64)
	if decimal == "." {
		return dst
	}
	dot := bytes.IndexByte(dst[start:], '.')
	if dot < 0 {
		return dst
	}
	dot += start
	tail := append([]byte(nil), dst[dot+1:]...)
	dst = append(dst[:dot], decimal...)
	return append(dst, tail...)
}

// isTie reports whether abs lies exactly halfway between two values of the given precision.
func isTie(abs float64, prec int) bool {
	short := strconv.AppendFloat(make([]byte, 0, 32), abs, 'f', -1, 64)
	dot := bytes.IndexByte(short, '.')
	if dot < 0 || len(short)-dot-1 != prec+1 || short[len(short)-1] != '5' {
		return false
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(prec+1)), nil)
	exact := new(big.Rat).SetFloat64(abs)
	return exact.Mul(exact, new(big.Rat).SetInt(scale)).IsInt()
}
