package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/muurk/navien/internal/protocol"
)

// parseRequest turns CLI arguments for operation into a protocol.Request
func parseRequest(operation string, args []string) (protocol.Request, error) {
	op, err := protocol.ParseOperation(operation)
	if err != nil {
		return protocol.Request{}, err
	}
	req := protocol.Request{Operation: op.String()}

	want := func(n int, usage string) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %s", op, usage)
		}
		return nil
	}

	switch op {
	case protocol.OpRoomHeat, protocol.OpCentralHeat, protocol.OpWaterSetTemp:
		if err := want(1, "one temperature in °C"); err != nil {
			return req, err
		}
		t, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "C"), 64)
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
			return req, fmt.Errorf("%w: temperature %q", protocol.ErrInvalidOperand, args[0])
		}
		req.Temperature = t

	case protocol.OpIntervalHeat:
		if err := want(2, "<hours> <minutes>"); err != nil {
			return req, err
		}
		if req.Hours, err = strconv.Atoi(args[0]); err != nil {
			return req, fmt.Errorf("%w: hours %q", protocol.ErrInvalidOperand, args[0])
		}
		if req.Minutes, err = strconv.Atoi(args[1]); err != nil {
			return req, fmt.Errorf("%w: minutes %q", protocol.ErrInvalidOperand, args[1])
		}

	case protocol.OpProgram24h:
		if len(args) == 0 {
			return req, fmt.Errorf("%s takes the hours to heat, e.g. 6-8,17-22, or none", op)
		}
		if len(args) == 1 && strings.EqualFold(strings.TrimSpace(args[0]), "none") {
			req.Schedule = []int{}
			break
		}
		hours, err := parseHours(args)
		if err != nil {
			return req, err
		}
		req.Schedule = hours

	case protocol.OpHeatLevel:
		if err := want(1, "low, medium or high"); err != nil {
			return req, err
		}
		req.Level = args[0]

	default:
		if err := want(0, "no arguments"); err != nil {
			return req, err
		}
	}
	return req, nil
}

// parseHours expands "6", "6-8" and comma separated lists of them.
// Ranges are inclusive; a range may wrap past midnight ("22-2").
func parseHours(args []string) ([]int, error) {
	seen := make(map[int]bool)
	var hours []int
	add := func(h int) {
		if !seen[h] {
			seen[h] = true
			hours = append(hours, h)
		}
	}

	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			from, to, isRange := strings.Cut(part, "-")
			start, err := parseHour(from)
			if err != nil {
				return nil, err
			}
			if !isRange {
				add(start)
				continue
			}
			end, err := parseHour(to)
			if err != nil {
				return nil, err
			}
			for h := start; ; h = (h + 1) % 24 {
				add(h)
				if h == end {
					break
				}
			}
		}
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("%w: no hours given (use \"none\" to clear the program)", protocol.ErrInvalidOperand)
	}
	return hours, nil
}

func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: hour %q (want 0-23)", protocol.ErrInvalidOperand, s)
	}
	return h, nil
}
