package ast

import (
	"math"
	"strconv"
)

// FormatNumber prints integral values without a decimal point so that
// `node 1` and `node "1"` name the same node.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
