package values

import (
	"math"

	"github.com/brandygo/brandy/errs"
)

// MinInt32Val and MaxInt32Val bound the RANGE check of spec.md §4.3's
// coercion table and §8.1's coercion-range-check invariant.
const (
	MinInt32Val = math.MinInt32
	MaxInt32Val = math.MaxInt32
)

// ToInt rounds a float64 to an int64 using round-half-away-from-zero, the
// source dialect's TOINT/TOINT64 semantics (spec.md §4.3).
func ToInt(f float64) int64 {
	if f >= 0 {
		return int64(math.Floor(f + 0.5))
	}
	return int64(math.Ceil(f - 0.5))
}

// AnyNum32 widens or narrows any numeric stack value to an int32, applying
// the coercion table of spec.md §4.3:
//
//	FLOAT -> integer:   round-half-away-from-zero
//	INT64 -> INT32:     RANGE if outside signed-32 bounds
//	UINT8 -> INT32:     zero-extend
func AnyNum32(v StackValue, line int) (int32, error) {
	switch v.Kind {
	case KindInt32:
		return v.Int32, nil
	case KindUint8:
		return int32(v.Uint8), nil
	case KindInt64:
		if v.Int64 < MinInt32Val || v.Int64 > MaxInt32Val {
			return 0, errs.Raise(errs.Range, line, v.Int64)
		}
		return int32(v.Int64), nil
	case KindFloat:
		r := ToInt(v.Float)
		if r < MinInt32Val || r > MaxInt32Val {
			return 0, errs.Raise(errs.Range, line, v.Float)
		}
		return int32(r), nil
	default:
		return 0, errs.Raise(errs.TypeNum, line)
	}
}

// AnyNum64 widens any numeric stack value to an int64.
func AnyNum64(v StackValue, line int) (int64, error) {
	switch v.Kind {
	case KindInt32:
		return int64(v.Int32), nil
	case KindUint8:
		return int64(v.Uint8), nil
	case KindInt64:
		return v.Int64, nil
	case KindFloat:
		return ToInt(v.Float), nil
	default:
		return 0, errs.Raise(errs.TypeNum, line)
	}
}

// AnyNumFP widens any numeric stack value to a float64. Integer -> float is
// always exact per spec.md §4.3's table.
func AnyNumFP(v StackValue, line int) (float64, error) {
	switch v.Kind {
	case KindInt32:
		return float64(v.Int32), nil
	case KindUint8:
		return float64(v.Uint8), nil
	case KindInt64:
		return float64(v.Int64), nil
	case KindFloat:
		return v.Float, nil
	default:
		return 0, errs.Raise(errs.TypeNum, line)
	}
}
