package codegen

import (
	"fmt"
	"strings"

	"github.com/tinyrange/jsc/internal/jsast"
)

// The operator emitter builds C++ expressions of type Local<Value> from two
// operand identifiers. Operands must already be materialized: every
// template below references each of them more than once.

// typeFamily is one row of the equality/relational coercion tables.
type typeFamily struct {
	predicate string
	// equal renders the comparison of both operands coerced to the family.
	equal func(l, r string) string
}

// equalityFamilies is the priority order for (in)equality. Null, undefined
// and objects are deliberately absent.
var equalityFamilies = []typeFamily{
	{
		predicate: "IsString",
		equal: func(l, r string) string {
			return fmt.Sprintf("jsc::StringEquals(isolate, %s, %s)", l, r)
		},
	},
	{
		predicate: "IsNumber",
		equal: func(l, r string) string {
			return fmt.Sprintf("(jsc::ToNumber(isolate, %s) == jsc::ToNumber(isolate, %s))", l, r)
		},
	},
	{
		predicate: "IsBoolean",
		equal: func(l, r string) string {
			return fmt.Sprintf("(jsc::ToBoolean(%s) == jsc::ToBoolean(%s))", l, r)
		},
	},
}

var numericOps = map[jsast.BinaryOp]string{
	jsast.OpSub:    "jsc::ToNumber(isolate, %[1]s) - jsc::ToNumber(isolate, %[2]s)",
	jsast.OpMul:    "jsc::ToNumber(isolate, %[1]s) * jsc::ToNumber(isolate, %[2]s)",
	jsast.OpDiv:    "jsc::ToNumber(isolate, %[1]s) / jsc::ToNumber(isolate, %[2]s)",
	jsast.OpRem:    "std::fmod(jsc::ToNumber(isolate, %[1]s), jsc::ToNumber(isolate, %[2]s))",
	jsast.OpExp:    "std::pow(jsc::ToNumber(isolate, %[1]s), jsc::ToNumber(isolate, %[2]s))",
	jsast.OpBitAnd: "static_cast<double>(jsc::ToInt32(isolate, %[1]s) & jsc::ToInt32(isolate, %[2]s))",
	jsast.OpBitOr:  "static_cast<double>(jsc::ToInt32(isolate, %[1]s) | jsc::ToInt32(isolate, %[2]s))",
	jsast.OpBitXor: "static_cast<double>(jsc::ToInt32(isolate, %[1]s) ^ jsc::ToInt32(isolate, %[2]s))",
	jsast.OpShl:    "static_cast<double>(static_cast<int32_t>(jsc::ToUint32(isolate, %[1]s) << (jsc::ToUint32(isolate, %[2]s) & 31)))",
	jsast.OpShr:    "static_cast<double>(jsc::ToInt32(isolate, %[1]s) >> (jsc::ToUint32(isolate, %[2]s) & 31))",
	jsast.OpUshr:   "static_cast<double>(jsc::ToUint32(isolate, %[1]s) >> (jsc::ToUint32(isolate, %[2]s) & 31))",
}

var relationalOps = map[jsast.BinaryOp]string{
	jsast.OpLt: "<",
	jsast.OpLe: "<=",
	jsast.OpGt: ">",
	jsast.OpGe: ">=",
}

// binaryOp renders op applied to l and r. It reports false for operators
// that are not pure value computations (assignment and the short-circuit
// logical operators).
func binaryOp(op jsast.BinaryOp, l, r string) (string, bool) {
	switch op {
	case jsast.OpAdd:
		return additive(l, r), true
	case jsast.OpSub, jsast.OpMul, jsast.OpDiv, jsast.OpRem, jsast.OpExp,
		jsast.OpBitAnd, jsast.OpBitOr, jsast.OpBitXor,
		jsast.OpShl, jsast.OpShr, jsast.OpUshr:
		return arithmetic(fmt.Sprintf(numericOps[op], l, r), l, r), true
	case jsast.OpEq:
		return boolValue(equality(l, r, "||", false)), true
	case jsast.OpNe:
		return boolValue(equality(l, r, "||", true)), true
	case jsast.OpStrictEq:
		return boolValue(equality(l, r, "&&", false)), true
	case jsast.OpStrictNe:
		return boolValue(equality(l, r, "&&", true)), true
	case jsast.OpLt, jsast.OpLe, jsast.OpGt, jsast.OpGe:
		return boolValue(relational(relationalOps[op], l, r)), true
	case jsast.OpAssign, jsast.OpLogicalAnd, jsast.OpLogicalOr:
		return "", false
	default:
		return "", false
	}
}

func additive(l, r string) string {
	return fmt.Sprintf("((%[1]s->IsString() || %[2]s->IsString()) ? "+
		"Local<Value>(String::Concat(isolate, jsc::ToString(isolate, %[1]s), jsc::ToString(isolate, %[2]s))) : "+
		"Local<Value>(Number::New(isolate, jsc::ToNumber(isolate, %[1]s) + jsc::ToNumber(isolate, %[2]s))))", l, r)
}

func arithmetic(numeric, l, r string) string {
	return fmt.Sprintf("((%s->IsNumber() || %s->IsNumber()) ? "+
		"Local<Value>(Number::New(isolate, %s)) : "+
		"Local<Value>(Number::New(isolate, std::nan(\"\"))))", l, r, numeric)
}

// equality nests one guarded comparison per type family. join is "||" for
// loose equality (either operand of the family) and "&&" for strict
// equality (both operands already of the family).
func equality(l, r, join string, negate bool) string {
	fallback := "false"
	if negate {
		fallback = "true"
	}
	expr := fallback
	for i := len(equalityFamilies) - 1; i >= 0; i-- {
		fam := equalityFamilies[i]
		cmp := fam.equal(l, r)
		if negate {
			cmp = "!" + cmp
		}
		expr = fmt.Sprintf("((%s->%s() %s %s->%s()) ? %s : %s)",
			l, fam.predicate, join, r, fam.predicate, cmp, expr)
	}
	return expr
}

func relational(cmp, l, r string) string {
	return fmt.Sprintf("((%[1]s->IsString() && %[2]s->IsString()) ? "+
		"(jsc::CompareStrings(isolate, %[1]s, %[2]s) %[3]s 0) : "+
		"((%[1]s->IsNumber() || %[2]s->IsNumber()) ? "+
		"(jsc::ToNumber(isolate, %[1]s) %[3]s jsc::ToNumber(isolate, %[2]s)) : false))", l, r, cmp)
}

func boolValue(cond string) string {
	cond = strings.TrimSpace(cond)
	return fmt.Sprintf("Local<Value>(Boolean::New(isolate, %s))", cond)
}
