package parser

import (
	"context"
	"errors"
	"testing"
)

// FuzzParseSource checks the parser never panics and only ever fails with a
// *ParseError.
func FuzzParseSource(f *testing.F) {
	seeds := []string{
		authSuite,
		"it('x', () => { for (;;) { assert(1) } })",
		"describe.each([1])('t', () => {})",
		"it(",
		"garbage-but-should-not-panic\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		_, err := ParseSource(context.Background(), "fuzz.js", data, Options{})
		if err == nil {
			return
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("unexpected error type %T: %v", err, err)
		}
	})
}
