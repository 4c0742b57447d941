package botguard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGojaSolver(t *testing.T) {
	tests := []struct {
		name      string
		script    string
		token     string
		hasExpiry bool
		wantErr   bool
	}{
		{
			name:   "string result",
			script: `function bgAttest(input) { return "t-" + input.clientName + "-" + input.clientVersion; }`,
			token:  "t-WEB-2.0",
		},
		{
			name:      "object result with ttl",
			script:    `function bgAttest(input) { return { token: "obj", ttlSeconds: 60 }; }`,
			token:     "obj",
			hasExpiry: true,
		},
		{
			name:    "missing function",
			script:  `var x = 1;`,
			wantErr: true,
		},
		{
			name:    "null result",
			script:  `function bgAttest() { return null; }`,
			wantErr: true,
		},
		{
			name:    "throws",
			script:  `function bgAttest() { throw new Error("nope"); }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewGojaSolver("test.js", tt.script)
			if err != nil {
				t.Fatalf("NewGojaSolver error: %v", err)
			}
			out, err := s.Attest(context.Background(), Input{ClientName: "WEB", ClientVersion: "2.0"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Attest error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if out.Token != tt.token {
				t.Errorf("Expected token %q, got %q", tt.token, out.Token)
			}
			if tt.hasExpiry != !out.ExpiresAt.IsZero() {
				t.Errorf("Expected expiry set = %v, got %v", tt.hasExpiry, out.ExpiresAt)
			}
		})
	}
}

func TestGojaSolver_CompileError(t *testing.T) {
	if _, err := NewGojaSolver("bad.js", "function ("); err == nil {
		t.Fatal("Expected compile error")
	}
}

func TestGojaSolver_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.js")
	if err := os.WriteFile(path, []byte(`function bgAttest() { return "file"; }`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewGojaSolverFromFile(path)
	if err != nil {
		t.Fatalf("NewGojaSolverFromFile error: %v", err)
	}
	out, err := s.Attest(context.Background(), Input{})
	if err != nil || out.Token != "file" {
		t.Errorf("Expected token file, got %q (%v)", out.Token, err)
	}
}

func TestGojaSolver_ContextCancel(t *testing.T) {
	s, err := NewGojaSolver("loop.js", `function bgAttest() { for (;;) {} }`)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := s.Attest(ctx, Input{}); err == nil {
		t.Fatal("Expected interrupted script to fail")
	}
}
