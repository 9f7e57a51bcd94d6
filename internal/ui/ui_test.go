package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHeaderKeepsParamOrder(t *testing.T) {
	out := NewHeader("Device configuration", "easyip configure a0:29:19:3e:ab:91",
		Param{Key: "MAC", Value: "a0:29:19:3e:ab:91"},
		Param{Key: "New IP", Value: "192.168.1.50"},
		Param{Key: "Gateway", Value: "192.168.1.1"},
	).SetWidth(80).Render()

	if !strings.Contains(out, "DEVICE CONFIGURATION") {
		t.Error("title not upper-cased")
	}
	mac := strings.Index(out, "MAC:")
	ip := strings.Index(out, "New IP:")
	gw := strings.Index(out, "Gateway:")
	if !(mac > 0 && ip > mac && gw > ip) {
		t.Errorf("params out of order (mac=%d ip=%d gw=%d):\n%s", mac, ip, gw, out)
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
		absent []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Configuration applied", Param{Key: "IP", Value: "10.0.0.5"}),
			want:   []string{"SUCCESS", "Configuration applied", "IP:", "10.0.0.5"},
			absent: []string{"Troubleshooting"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Configuration failed", errors.New("no acknowledgement"), []string{"Check the MAC address"}),
			want:   []string{"FAILED", "Error: no acknowledgement", "Troubleshooting:", "Check the MAC address"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Source port busy").AddDetail("Port", "10669"),
			want:   []string{"WARNING", "Source port busy", "10669"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in:\n%s", w, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("unexpected %q", a)
				}
			}
		})
	}
}

func TestRunnerSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:   "Diagnostics",
		Command: "easyip diag",
		Steps:   []string{"Bind socket", "Check source port", "Send probe"},
		Output:  &buf,
		Width:   80,
	})

	err := r.Run(func(onStep StepCallback) ([]Param, error) {
		onStep(1, StepRunning, "")
		onStep(1, StepComplete, "bound to 0.0.0.0:50000")
		onStep(2, StepSkipped, "port in use")
		onStep(3, StepComplete, "")
		onStep(9, StepComplete, "ignored")
		return []Param{{Key: "Hostname", Value: "gate"}}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if r.Percent() != 1 {
		t.Errorf("Percent() = %v", r.Percent())
	}
	out := buf.String()
	for _, want := range []string{"DIAGNOSTICS", "[1/3] Bind socket", "(bound to 0.0.0.0:50000)", "[3/3]", "SUCCESS", "Hostname:", "Duration:"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if steps := r.Steps(); steps[1].Status != StepSkipped || steps[1].Message != "port in use" {
		t.Errorf("step 2 = %+v", steps[1])
	}
}

func TestRunnerFailure(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("bind: permission denied")
	r := NewRunner(RunnerConfig{
		Title:        "Diagnostics",
		Steps:        []string{"Bind socket", "Send probe"},
		Troubleshoot: func(err error) []string { return []string{"Run as administrator"} },
		Output:       &buf,
		Width:        80,
	})

	err := r.Run(func(onStep StepCallback) ([]Param, error) {
		onStep(1, StepFailed, "")
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run() = %v", err)
	}
	if r.Percent() != 0 {
		t.Errorf("Percent() = %v", r.Percent())
	}
	out := buf.String()
	for _, want := range []string{"FAILED", "permission denied", "Run as administrator", "[0/2]"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"y\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got := ConfigureConfirmation(strings.NewReader(tt.input), &out, "a0:29:19:3e:ab:91", "10.0.0.5")
			if got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "10.0.0.5") {
				t.Error("warning does not name the new address")
			}
			if !tt.want && !strings.Contains(out.String(), "cancelled") && tt.input != "" {
				t.Error("no cancellation notice")
			}
		})
	}
}
