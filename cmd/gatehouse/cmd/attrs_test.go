package cmd

import (
	"reflect"
	"testing"
)

func TestParseAttrFlags(t *testing.T) {
	t.Parallel()
	got, err := parseAttrFlags([]string{"role:admin,operator", "region:us-east"})
	if err != nil {
		t.Fatalf("parseAttrFlags() error: %v", err)
	}
	want := map[string][]string{
		"role":   {"admin", "operator"},
		"region": {"us-east"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseAttrFlags() = %+v, want %+v", got, want)
	}
}

func TestParseAttrFlags_Empty(t *testing.T) {
	t.Parallel()
	got, err := parseAttrFlags(nil)
	if err != nil {
		t.Fatalf("parseAttrFlags() error: %v", err)
	}
	if got != nil {
		t.Fatalf("parseAttrFlags(nil) = %+v, want nil", got)
	}
}

func TestParseAttrFlags_Malformed(t *testing.T) {
	t.Parallel()
	if _, err := parseAttrFlags([]string{"no-colon-here"}); err == nil {
		t.Fatal("parseAttrFlags() error = nil, want malformed attribute error")
	}
}

func TestParseMemberFlags(t *testing.T) {
	t.Parallel()
	got, err := parseMemberFlags([]string{"user:alice", "service:billing"})
	if err != nil {
		t.Fatalf("parseMemberFlags() error: %v", err)
	}
	if len(got) != 2 || got[0].Typestr != "user" || got[0].Name != "alice" {
		t.Fatalf("parseMemberFlags() = %+v", got)
	}
}

func TestParseMemberFlags_Malformed(t *testing.T) {
	t.Parallel()
	if _, err := parseMemberFlags([]string{"no-colon"}); err == nil {
		t.Fatal("parseMemberFlags() error = nil, want malformed member error")
	}
}
