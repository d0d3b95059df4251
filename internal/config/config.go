// Package config loads the optional lalrgen.toml defaults file: a sibling
// of the grammar file (or a file in that directory's parent) supplying
// fallback values for anything not already set by a grammar declaration
// or a command-line flag.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults holds the values lalrgen.toml may supply. Every field is a
// fallback: grammar declarations (%stack_size, %token_prefix) and CLI
// flags (-t) always take precedence over whatever is loaded here.
type Defaults struct {
	StackSize    int    `toml:"stack_size"`
	TemplatePath string `toml:"template_path"`
	TokenPrefix  string `toml:"token_prefix"`
}

// FileName is the conventional name of the defaults file.
const FileName = "lalrgen.toml"

// Load searches dir (and, if not found there, dir's parent) for
// lalrgen.toml and unmarshals it. A missing file is not an error; Load
// returns a zero Defaults in that case.
func Load(dir string) (Defaults, error) {
	var d Defaults

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		parent := filepath.Dir(dir)
		if parent == dir {
			return d, nil
		}
		data, err = os.ReadFile(filepath.Join(parent, FileName))
		if os.IsNotExist(err) {
			return d, nil
		}
	}
	if err != nil {
		return d, err
	}

	if err := toml.Unmarshal(data, &d); err != nil {
		return d, err
	}
	return d, nil
}

// ApplyTo fills in zero-valued fields of StackSize/TemplatePath/TokenPrefix
// that the caller hasn't already set from a grammar declaration or a CLI
// flag; it never overwrites a value that's already present.
func (d Defaults) ApplyTo(stackSize *int, templatePath, tokenPrefix *string) {
	if *stackSize == 0 && d.StackSize != 0 {
		*stackSize = d.StackSize
	}
	if *templatePath == "" && d.TemplatePath != "" {
		*templatePath = d.TemplatePath
	}
	if *tokenPrefix == "" && d.TokenPrefix != "" {
		*tokenPrefix = d.TokenPrefix
	}
}
