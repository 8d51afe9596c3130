package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/muurk/navien/internal/protocol"
)

func TestHeaderRenderKeepsParamOrder(t *testing.T) {
	h := NewHeader("Controller Status", "navien status", []Detail{
		D("Controller", "0011AABBCCDD"),
		D("User", "user@example.com"),
	}).SetWidth(80)

	out := h.Render()
	if !strings.Contains(out, "CONTROLLER STATUS") {
		t.Errorf("title missing: %q", out)
	}
	ci := strings.Index(out, "Controller:")
	ui := strings.Index(out, "User:")
	if ci < 0 || ui < 0 || ci > ui {
		t.Errorf("params out of order: %q", out)
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Command sent", []Detail{D("Operation", "power-on")}),
			want:   []string{"SUCCESS", "Command sent", "Operation:", "power-on"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Login", errors.New("bad password"), []string{"Check the user ID"}),
			want:   []string{"FAILED", "Error: bad password", "Troubleshooting:", "Check the user ID"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Partial status", nil),
			want:   []string{"WARNING", "Partial status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Render() missing %q in %q", w, out)
				}
			}
		})
	}
}

func TestProgressUpdateStep(t *testing.T) {
	p := NewProgress("", "Log in", "Find controller", "Read status", "Send command")

	p.StartStep(1, "")
	if p.Current != 1 || p.Percent != 0 {
		t.Errorf("after start: current=%d percent=%v", p.Current, p.Percent)
	}
	p.CompleteStep(1, "")
	p.UpdateStep(2, StepSkipped, "cached")
	if p.Percent != 0.5 {
		t.Errorf("Percent = %v, want 0.5", p.Percent)
	}
	p.FailStep(3, "timeout")
	if p.Percent != 0.5 {
		t.Errorf("failed step must not count: Percent = %v", p.Percent)
	}

	// Out of range is ignored
	p.UpdateStep(9, StepComplete, "")
	p.UpdateStep(0, StepComplete, "")

	out := p.Render()
	if !strings.Contains(out, "[2/4]") || !strings.Contains(out, "(timeout)") {
		t.Errorf("Render() = %q", out)
	}
}

func TestRunnerSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:     "Power On",
		Command:   "navien set power-on",
		StepNames: []string{"Log in", "Send command"},
		Output:    &buf,
	})

	details, err := r.Run(context.Background(), func(ctx context.Context, onStep StepCallback) ([]Detail, error) {
		onStep(1, StepRunning, "")
		onStep(1, StepComplete, "token")
		onStep(2, StepComplete, "19 bytes")
		return []Detail{D("Operation", "power-on")}, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(details) != 2 || details[1].Key != "Duration" {
		t.Errorf("details = %+v", details)
	}

	out := buf.String()
	for _, w := range []string{"POWER ON", "(19 bytes)", "Power On complete", "power-on"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q", w)
		}
	}
	if r.Progress().Percent != 1 {
		t.Errorf("Percent = %v, want 1", r.Progress().Percent)
	}
}

func TestRunnerFailure(t *testing.T) {
	var buf bytes.Buffer
	wantErr := errors.New("relay unreachable")
	r := NewRunner(RunnerConfig{
		Title:        "Status",
		Output:       &buf,
		Troubleshoot: func(error) []string { return []string{"Check your network"} },
	})

	_, err := r.Run(context.Background(), func(context.Context, StepCallback) ([]Detail, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
	out := buf.String()
	if !strings.Contains(out, "Status failed") || !strings.Contains(out, "Check your network") {
		t.Errorf("output = %q", out)
	}
}

func testState() *protocol.DeviceState {
	return &protocol.DeviceState{
		DeviceID:          protocol.DeviceID{1, 2, 3, 4, 5, 6, 7, 8},
		CurrentMode:       protocol.ModeProgram24h,
		CurrentInsideTemp: 41, // 20.5
		InsideHeatTemp:    44,
		HotWaterSetTemp:   100,
		HeatLevel:         protocol.HeatLevelMedium,
		Schedule:          protocol.Schedule{0xF0, 0x00, 0x0F},
		InsideMin:         20,
		InsideMax:         80,
		RoomCount:         1,
	}
}

func TestRenderState(t *testing.T) {
	s := testState()
	out := RenderState(s, "Boiler Room", 90)

	for _, w := range []string{"BOILER ROOM", "24 Hour Program", "20.5°C", "Schedule:", "Error code:", "none"} {
		if !strings.Contains(out, w) {
			t.Errorf("RenderState() missing %q", w)
		}
	}
	if strings.Contains(out, "room data") {
		t.Error("no extra room warning expected")
	}

	s.ExtraRoomData = []byte{1, 2, 3}
	s.ErrorCode = 12
	out = RenderState(s, "", 100)
	if !strings.Contains(out, "12") {
		t.Error("error code should be shown")
	}
	if err := s.UnsupportedRoomData(); err == nil || !strings.Contains(out, err.Error()) {
		t.Errorf("extra room warning missing: %q", out)
	}
}

func TestStateDetailsInterval(t *testing.T) {
	s := testState()
	s.CurrentMode = protocol.ModeIntervalHeating
	s.RepeatReserveHour = 3
	s.RepeatReserveMinute = 20

	var found bool
	for _, d := range StateDetails(s) {
		if d.Key == "Interval" {
			found = true
			if d.Value != "every 3h for 20 min" {
				t.Errorf("Interval = %q", d.Value)
			}
		}
	}
	if !found {
		t.Error("Interval detail missing")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if got := Confirm(strings.NewReader(tt.input), &out, "Remove controller?"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRenderOnceNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderOnce(&buf, "hello"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("RenderOnce() wrote %q", buf.String())
	}
}
