// Package testutil provides shared test utilities and fixtures.
package testutil

import (
	"testing"

	"github.com/packetplot/packetplot/internal/packetformat"
)

// AssertStatusCode checks that an HTTP response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// MustDescriptor parses a packet configuration document or fails the test.
func MustDescriptor(t *testing.T, doc string) *packetformat.Descriptor {
	t.Helper()
	desc, err := packetformat.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse packet configuration: %v", err)
	}
	return desc
}
