package codegen

import (
	"strings"
	"testing"

	"github.com/tinyrange/jsc/internal/jsast"
)

func TestBinaryOpCoverage(t *testing.T) {
	for op := jsast.OpAdd; op <= jsast.OpGe; op++ {
		code, ok := binaryOp(op, "l", "r")
		if !ok {
			t.Errorf("%s: not handled", op)
			continue
		}
		if !strings.HasPrefix(code, "(") && !strings.HasPrefix(code, "Local<Value>(") {
			t.Errorf("%s: unexpected expression %q", op, code)
		}
	}
	for _, op := range []jsast.BinaryOp{jsast.OpAssign, jsast.OpLogicalAnd, jsast.OpLogicalOr} {
		if _, ok := binaryOp(op, "l", "r"); ok {
			t.Errorf("%s: should not be a value operator", op)
		}
	}
}

func TestAdditiveGuardsOnString(t *testing.T) {
	code, _ := binaryOp(jsast.OpAdd, "a", "b")
	want := "((a->IsString() || b->IsString()) ? " +
		"Local<Value>(String::Concat(isolate, jsc::ToString(isolate, a), jsc::ToString(isolate, b))) : " +
		"Local<Value>(Number::New(isolate, jsc::ToNumber(isolate, a) + jsc::ToNumber(isolate, b))))"
	if code != want {
		t.Fatalf("unexpected code\n got: %s\nwant: %s", code, want)
	}
}

func TestArithmeticOperators(t *testing.T) {
	for _, tt := range []struct {
		op   jsast.BinaryOp
		want string
	}{
		{jsast.OpSub, "jsc::ToNumber(isolate, a) - jsc::ToNumber(isolate, b)"},
		{jsast.OpRem, "std::fmod(jsc::ToNumber(isolate, a), jsc::ToNumber(isolate, b))"},
		{jsast.OpExp, "std::pow("},
		{jsast.OpUshr, "jsc::ToUint32(isolate, a) >> (jsc::ToUint32(isolate, b) & 31)"},
	} {
		code, _ := binaryOp(tt.op, "a", "b")
		if !strings.Contains(code, tt.want) {
			t.Errorf("%s: %q does not contain %q", tt.op, code, tt.want)
		}
		if !strings.HasPrefix(code, "((a->IsNumber() || b->IsNumber()) ? ") {
			t.Errorf("%s: missing number guard in %q", tt.op, code)
		}
		if !strings.HasSuffix(code, `Local<Value>(Number::New(isolate, std::nan(""))))`) {
			t.Errorf("%s: missing NaN fallback in %q", tt.op, code)
		}
	}
}

func TestEqualityPriority(t *testing.T) {
	code, _ := binaryOp(jsast.OpEq, "a", "b")
	str := strings.Index(code, "(a->IsString() || b->IsString())")
	num := strings.Index(code, "(a->IsNumber() || b->IsNumber())")
	boo := strings.Index(code, "(a->IsBoolean() || b->IsBoolean())")
	if str < 0 || num < 0 || boo < 0 {
		t.Fatalf("missing type guard in %s", code)
	}
	if !(str < num && num < boo) {
		t.Fatalf("guards out of order (string %d, number %d, boolean %d)", str, num, boo)
	}
	if !strings.HasSuffix(code, ": false)))))") {
		t.Fatalf("== must default to false: %s", code)
	}
}

func TestStrictEqualityRequiresBothOperands(t *testing.T) {
	code, _ := binaryOp(jsast.OpStrictEq, "a", "b")
	for _, guard := range []string{
		"(a->IsString() && b->IsString())",
		"(a->IsNumber() && b->IsNumber())",
		"(a->IsBoolean() && b->IsBoolean())",
	} {
		if !strings.Contains(code, guard) {
			t.Fatalf("missing guard %q in %s", guard, code)
		}
	}
	// A string and a number match no guard and reach the default.
	if strings.Contains(code, "||") {
		t.Fatalf("strict equality has a loose guard: %s", code)
	}
	if !strings.HasSuffix(code, ": false)))))") {
		t.Fatalf("=== must default to false: %s", code)
	}
}

func TestInequalityDefaultsTrue(t *testing.T) {
	for _, op := range []jsast.BinaryOp{jsast.OpNe, jsast.OpStrictNe} {
		code, _ := binaryOp(op, "a", "b")
		if !strings.HasSuffix(code, ": true)))))") {
			t.Errorf("%s must default to true: %s", op, code)
		}
		if !strings.Contains(code, "!jsc::StringEquals(isolate, a, b)") {
			t.Errorf("%s does not negate the comparison: %s", op, code)
		}
	}
}

func TestRelational(t *testing.T) {
	code, _ := binaryOp(jsast.OpLe, "a", "b")
	want := "Local<Value>(Boolean::New(isolate, ((a->IsString() && b->IsString()) ? " +
		"(jsc::CompareStrings(isolate, a, b) <= 0) : " +
		"((a->IsNumber() || b->IsNumber()) ? " +
		"(jsc::ToNumber(isolate, a) <= jsc::ToNumber(isolate, b)) : false))))"
	if code != want {
		t.Fatalf("unexpected code\n got: %s\nwant: %s", code, want)
	}
}
