package args

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// Parsers for the built-in key types.
var (
	ParseBool     = strconv.ParseBool
	ParseInt      = strconv.Atoi
	ParseDuration = time.ParseDuration
	ParseAddr     = netip.ParseAddr
	ParsePrefix   = netip.ParsePrefix
)

// ParseString accepts any text.
func ParseString(s string) (string, error) { return s, nil }

// Some returns a present optional value.
func Some[T any](v T) *T { return &v }

// None returns an absent optional value.
func None[T any]() *T { return nil }

// ParseOption lifts parse to optional values. The empty string is None.
func ParseOption[T any](parse func(string) (T, error)) func(string) (*T, error) {
	return func(s string) (*T, error) {
		if s == "" {
			return nil, nil
		}
		v, err := parse(s)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
}

// ParseList lifts parse to comma separated lists. Blank elements are
// rejected.
func ParseList[T any](parse func(string) (T, error)) func(string) ([]T, error) {
	return func(s string) ([]T, error) {
		out := []T{}
		if s == "" {
			return out, nil
		}
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				return nil, fmt.Errorf("empty element in list %q", s)
			}
			v, err := parse(part)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
}
