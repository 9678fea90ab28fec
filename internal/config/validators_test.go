package config

import "testing"

func TestPositiveInteger(t *testing.T) {
	cases := []struct {
		n       int
		wantErr bool
	}{
		{1, false},
		{1000, false},
		{0, true},
		{-5, true},
	}
	for _, c := range cases {
		err := PositiveInteger(c.n)
		if (err != nil) != c.wantErr {
			t.Errorf("PositiveInteger(%d) error = %v, wantErr %v", c.n, err, c.wantErr)
		}
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		n       float64
		wantErr bool
	}{
		{0, false},
		{50.5, false},
		{100, false},
		{-0.1, true},
		{100.1, true},
	}
	for _, c := range cases {
		err := Percentage(c.n)
		if (err != nil) != c.wantErr {
			t.Errorf("Percentage(%v) error = %v, wantErr %v", c.n, err, c.wantErr)
		}
	}
}

func TestMemoryStr(t *testing.T) {
	m, err := MemoryStr("20G")
	if err != nil {
		t.Fatalf("MemoryStr(20G): %v", err)
	}
	if got := m.AsGB(); got != 20 {
		t.Errorf("AsGB() = %v, want 20", got)
	}

	m, err = MemoryStr("512m")
	if err != nil {
		t.Fatalf("MemoryStr(512m): %v", err)
	}
	if got := m.AsGB(); got <= 0 || got >= 1 {
		t.Errorf("AsGB() for 512m = %v, want in (0,1)", got)
	}

	if _, err := MemoryStr("20"); err == nil {
		t.Error("MemoryStr(20) with no unit = nil error, want error")
	}
	if _, err := MemoryStr("abcG"); err == nil {
		t.Error("MemoryStr(abcG) = nil error, want error")
	}
}

func TestBoolFromStr(t *testing.T) {
	truthy := []string{"yes", "Y", "true", "TRUE", "1"}
	falsy := []string{"no", "N", "false", "FALSE", "0"}
	for _, s := range truthy {
		v, err := BoolFromStr(s)
		if err != nil || !v {
			t.Errorf("BoolFromStr(%q) = %v, %v, want true, nil", s, v, err)
		}
	}
	for _, s := range falsy {
		v, err := BoolFromStr(s)
		if err != nil || v {
			t.Errorf("BoolFromStr(%q) = %v, %v, want false, nil", s, v, err)
		}
	}
	if _, err := BoolFromStr("maybe"); err == nil {
		t.Error("BoolFromStr(maybe) = nil error, want error")
	}
}
