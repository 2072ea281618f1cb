package framing

import (
	"errors"
	"testing"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		result Result
		n      int
	}{
		{"empty", ``, Incomplete, 0},
		{"whitespace only", " \r\n\t", Incomplete, 0},
		{"open brace", `{`, Incomplete, 0},
		{"empty object", `{}`, Complete, 2},
		{"leading whitespace", "\n  {}", Complete, 5},
		{"trailing bytes", `{"a":"b"}{"c"`, Complete, 9},
		{"brace in string", `{"a":"}"}`, Complete, 9},
		{"escaped quote", `{"a":"\"}"}`, Complete, 11},
		{"escaped backslash", `{"a":"\\"}`, Complete, 10},
		{"unterminated string", `{"a":"}`, Incomplete, 0},
		{"nested", `{"h":{"k":"v"},"l":[1,{"x":[]}]}`, Complete, 32},
		{"nested incomplete", `{"h":{"k":"v"}`, Incomplete, 0},
		{"not an object", `["a"]`, Invalid, 0},
		{"garbage", `hello`, Invalid, 0},
		{"mismatched close", `{"a":[}`, Invalid, 0},
		{"raw newline in string", "{\"a\":\"x\ny\"}", Invalid, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, n, err := Scan([]byte(tt.input))
			if res != tt.result {
				t.Fatalf("Scan() result = %v, want %v (err %v)", res, tt.result, err)
			}
			if n != tt.n {
				t.Errorf("Scan() n = %d, want %d", n, tt.n)
			}
			if res == Invalid && !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("Scan() error = %v, want ErrInvalidFrame", err)
			}
			if res != Invalid && err != nil {
				t.Errorf("Scan() unexpected error %v", err)
			}
		})
	}
}

func TestScanResumes(t *testing.T) {
	full := []byte(`{"version":"ADTP/2.0","content":"a}b{c\"d"}`)

	var s scanner
	for i := 1; i < len(full); i++ {
		res, _, err := s.scan(full[:i])
		if res != Incomplete || err != nil {
			t.Fatalf("prefix %d: result = %v err = %v, want incomplete", i, res, err)
		}
	}

	res, n, err := s.scan(full)
	if res != Complete || err != nil {
		t.Fatalf("full: result = %v err = %v", res, err)
	}
	if n != len(full) {
		t.Errorf("full: n = %d, want %d", n, len(full))
	}
}

func TestScanDepthLimit(t *testing.T) {
	deep := make([]byte, 0, 2*maxDepth+2)
	for i := 0; i <= maxDepth; i++ {
		deep = append(deep, '{')
	}
	if res, _, err := Scan(deep); res != Invalid || !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Scan(deep) = %v, %v; want invalid", res, err)
	}
}
