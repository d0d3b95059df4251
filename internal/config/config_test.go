package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	d, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.StackSize != 0 {
		t.Fatalf("expected zero-value defaults, got %+v", d)
	}
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	content := "stack_size = 250\ntemplate_path = \"lempar.go.tmpl\"\ntoken_prefix = \"TOK_\"\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	d, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.StackSize != 250 || d.TemplatePath != "lempar.go.tmpl" || d.TokenPrefix != "TOK_" {
		t.Fatalf("got %+v", d)
	}
}

func TestApplyToDoesNotOverwrite(t *testing.T) {
	d := Defaults{StackSize: 250, TemplatePath: "default.tmpl", TokenPrefix: "TOK_"}
	stackSize := 100
	templatePath := "explicit.tmpl"
	tokenPrefix := ""

	d.ApplyTo(&stackSize, &templatePath, &tokenPrefix)

	if stackSize != 100 {
		t.Fatalf("expected explicit stack size to survive, got %d", stackSize)
	}
	if templatePath != "explicit.tmpl" {
		t.Fatalf("expected explicit template path to survive, got %q", templatePath)
	}
	if tokenPrefix != "TOK_" {
		t.Fatalf("expected default token prefix to fill in, got %q", tokenPrefix)
	}
}
