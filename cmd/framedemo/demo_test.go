// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/frameflow"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { frameflow.SetLogger(nil) })

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun_Defaults(t *testing.T) {
	out, err := execute(t, "--frames", "3", "--lanes", "2", "--tasks", "9", "--log-level", "error")
	if err != nil {
		t.Fatalf("Execute: %v\n%s", err, out)
	}
	for _, want := range []string{
		"tasks:   13/13 finished, 0 not completed",
		"frames:  3 submitted, 6 lanes, 0 failed",
		"assets:  1 shaders, 1 textures, 1 fonts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frameflow.toml")
	body := "workers = 2\nlane_workers = 2\nfence_timeout = \"500ms\"\nlane_reuse = false\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", path, "--frames", "2", "--lanes", "3", "--tasks", "0", "--log-level", "error")
	if err != nil {
		t.Fatalf("Execute: %v\n%s", err, out)
	}
	// Without reuse nothing stays pooled between frames.
	if !strings.Contains(out, "sync:    0 fences, 0 semaphores pooled, 0 dropped") {
		t.Errorf("unexpected sync line:\n%s", out)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing config", []string{"--config", filepath.Join(t.TempDir(), "absent.toml")}},
		{"negative lanes", []string{"--lanes", "-1"}},
		{"positional argument", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("Execute() = nil, want error")
			}
		})
	}
}
