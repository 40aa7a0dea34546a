// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"fmt"
	"math"
	"strconv"
)

// A Scaler formats values of one metric with a common prefix and
// precision, so that a column of numbers lines up.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Unscaled value of 1 Prefix (e.g., 1 k => 1000)
	Prefix string  // Unit prefix ("k", "M", etc)
}

// Format formats val and appends the unit prefix. Non-finite values
// are formatted as "NaN", "+Inf" or "-Inf".
func (s Scaler) Format(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'g', -1, 64)
	}
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, val/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Prefix...)
	return string(buf)
}

type factor struct {
	factor float64
	prefix string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

// Only whole-unit and larger prefixes are used: "0.5m ms" is not a
// helpful way to print half a microsecond.
var siFactors = mkSIFactors()

func mkSIFactors() []factor {
	// Thresholds are parsed from their printed form so they agree
	// exactly with how Format rounds.
	var factors []factor
	exp := 12
	for _, p := range []string{"T", "G", "M", "k", ""} {
		t100, _ := strconv.ParseFloat(fmt.Sprintf("99.995e%d", exp), 64)
		t10, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		t1, _ := strconv.ParseFloat(fmt.Sprintf(".99995e%d", exp), 64)
		factors = append(factors, factor{math.Pow(10, float64(exp)), p, t100, t10, t1})
		exp -= 3
	}
	return factors
}

// CommonScale returns a Scaler that shows at least three significant
// digits for every finite value in vals. Rate metrics get SI
// prefixes; latencies keep their unit and only vary precision.
func CommonScale(vals []float64, m Metric) Scaler {
	// The common scale is determined by the non-zero value
	// closest to zero.
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v != 0 && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{3, 1, ""}
	}

	factors := siFactors
	if m.Valid() && m.Info().Unit == "ms" {
		factors = siFactors[len(siFactors)-1:]
	}
	for _, f := range factors {
		switch {
		case min >= f.t100:
			return Scaler{1, f.factor, f.prefix}
		case min >= f.t10:
			return Scaler{2, f.factor, f.prefix}
		case min >= f.t1:
			return Scaler{3, f.factor, f.prefix}
		}
	}

	// Below 1: add digits after the decimal point until three
	// significant digits show, up to a limit.
	for prec := 3; prec < 10; prec++ {
		if min >= 0.99995*math.Pow(10, float64(2-prec)) {
			return Scaler{prec, 1, ""}
		}
	}
	return Scaler{10, 1, ""}
}
