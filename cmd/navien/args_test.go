package main

import (
	"errors"
	"slices"
	"testing"

	"github.com/muurk/navien/internal/protocol"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		args    []string
		want    protocol.Request
		wantErr error
	}{
		{name: "simple", op: "power-on", want: protocol.Request{Operation: "power-on"}},
		{name: "case insensitive", op: "Holiday-Off", want: protocol.Request{Operation: "holiday-off"}},
		{name: "room heat", op: "room-heat", args: []string{"21.5"}, want: protocol.Request{Operation: "room-heat", Temperature: 21.5}},
		{name: "celsius suffix", op: "hot-water-temp", args: []string{"50C"}, want: protocol.Request{Operation: "hot-water-temp", Temperature: 50}},
		{name: "interval", op: "interval-heat", args: []string{"3", "20"}, want: protocol.Request{Operation: "interval-heat", Hours: 3, Minutes: 20}},
		{name: "heat level", op: "heat-level", args: []string{"high"}, want: protocol.Request{Operation: "heat-level", Level: "high"}},
		{name: "program", op: "program-24h", args: []string{"6-8,17"}, want: protocol.Request{Operation: "program-24h", Schedule: []int{6, 7, 8, 17}}},
		{name: "program cleared", op: "program-24h", args: []string{"None"}, want: protocol.Request{Operation: "program-24h", Schedule: []int{}}},
		{name: "program only commas", op: "program-24h", args: []string{",,"}, wantErr: protocol.ErrInvalidOperand},
		{name: "NaN temperature", op: "room-heat", args: []string{"NaN"}, wantErr: protocol.ErrInvalidOperand},
		{name: "infinite temperature", op: "central-heat", args: []string{"+Inf"}, wantErr: protocol.ErrInvalidOperand},
		{name: "unknown", op: "warp", wantErr: protocol.ErrUnknownOperation},
		{name: "bad temperature", op: "room-heat", args: []string{"warm"}, wantErr: protocol.ErrInvalidOperand},
		{name: "bad minutes", op: "interval-heat", args: []string{"3", "x"}, wantErr: protocol.ErrInvalidOperand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRequest(tt.op, tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseRequest() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRequest() error = %v", err)
			}
			if got.Operation != tt.want.Operation || got.Temperature != tt.want.Temperature ||
				got.Hours != tt.want.Hours || got.Minutes != tt.want.Minutes || got.Level != tt.want.Level ||
				!slices.Equal(got.Schedule, tt.want.Schedule) {
				t.Errorf("parseRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRequestArgCount(t *testing.T) {
	cases := map[string][]string{
		"power-off":     {"now"},
		"room-heat":     nil,
		"interval-heat": {"3"},
		"program-24h":   nil,
		"heat-level":    {"low", "high"},
	}
	for op, args := range cases {
		if _, err := parseRequest(op, args); err == nil {
			t.Errorf("parseRequest(%q, %v) should fail", op, args)
		}
	}
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		args []string
		want []int
	}{
		{[]string{"6"}, []int{6}},
		{[]string{"6-8", "7-9"}, []int{6, 7, 8, 9}},
		{[]string{"22-1"}, []int{22, 23, 0, 1}},
		{[]string{"1,,3"}, []int{1, 3}},
	}
	for _, tt := range tests {
		got, err := parseHours(tt.args)
		if err != nil {
			t.Fatalf("parseHours(%v) error = %v", tt.args, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("parseHours(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}

	for _, bad := range []string{"24", "-1", "a-3", "3-", ",", " , "} {
		if _, err := parseHours([]string{bad}); !errors.Is(err, protocol.ErrInvalidOperand) {
			t.Errorf("parseHours(%q) error = %v, want ErrInvalidOperand", bad, err)
		}
	}
}
