package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PositiveInteger reports an error unless n > 0.
func PositiveInteger(n int) error {
	if n <= 0 {
		return fmt.Errorf("must be a positive integer, got %d", n)
	}
	return nil
}

// Percentage reports an error unless 0 <= n <= 100.
func Percentage(n float64) error {
	if n < 0 || n > 100 {
		return fmt.Errorf("must be between 0 and 100, got %v", n)
	}
	return nil
}

var memoryPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([kKmMgG])$`)

// Memory is a parsed memory quantity with a unit suffix (k/m/g, binary
// multiples), as accepted by MemoryStr.
type Memory struct {
	raw   string
	bytes float64
}

// AsGB returns the quantity in gibibytes.
func (m Memory) AsGB() float64 { return m.bytes / (1 << 30) }

// String returns the original representation.
func (m Memory) String() string { return m.raw }

// MemoryStr parses a memory string of the form `\d+(\.\d+)?[kKmMgG]`
// (e.g. "20G", "512m") into a Memory value.
func MemoryStr(s string) (Memory, error) {
	m := memoryPattern.FindStringSubmatch(s)
	if m == nil {
		return Memory{}, fmt.Errorf("invalid memory string %q, want e.g. \"20G\" or \"512m\"", s)
	}
	qty, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Memory{}, fmt.Errorf("invalid memory string %q: %w", s, err)
	}
	var mult float64
	switch strings.ToLower(m[2]) {
	case "k":
		mult = 1 << 10
	case "m":
		mult = 1 << 20
	case "g":
		mult = 1 << 30
	}
	return Memory{raw: s, bytes: qty * mult}, nil
}

var boolWords = map[string]bool{
	"yes": true, "y": true, "true": true, "1": true,
	"no": false, "n": false, "false": false, "0": false,
}

// BoolFromStr parses a case-insensitive {yes,no,true,false,1,0,y,n}.
func BoolFromStr(s string) (bool, error) {
	v, ok := boolWords[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false, fmt.Errorf("invalid boolean string %q, want one of yes/no/true/false/1/0/y/n", s)
	}
	return v, nil
}
