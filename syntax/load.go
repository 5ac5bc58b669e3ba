package syntax

import (
	"io"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// File is the YAML form of a dialect.
//
//	name: strict-ruby
//	base: ruby
//	deny: [subexp-call, possessive]
//	options: [ignore-case]
type File struct {
	Name    string   `yaml:"name"`
	Base    string   `yaml:"base"`
	Allow   []string `yaml:"allow"`
	Deny    []string `yaml:"deny"`
	Options []string `yaml:"options"`
}

// Load reads a dialect from YAML. Allow is applied before Deny.
func Load(r io.Reader) (*Syntax, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, xerrors.Errorf("decode syntax: %w", err)
	}
	return f.Syntax()
}

// Syntax resolves the file into a dialect.
func (f *File) Syntax() (*Syntax, error) {
	s := &Syntax{Name: f.Name}
	if f.Base != "" {
		base, ok := Lookup(f.Base)
		if !ok {
			return nil, xerrors.Errorf("syntax %q: unknown base %q", f.Name, f.Base)
		}
		*s = *base
		if f.Name != "" {
			s.Name = f.Name
		}
	}
	if s.Name == "" {
		return nil, xerrors.New("syntax: name is required")
	}
	for _, name := range f.Allow {
		op, err := ParseOp(name)
		if err != nil {
			return nil, xerrors.Errorf("syntax %q: allow: %w", s.Name, err)
		}
		s.Ops |= op
	}
	for _, name := range f.Deny {
		op, err := ParseOp(name)
		if err != nil {
			return nil, xerrors.Errorf("syntax %q: deny: %w", s.Name, err)
		}
		s.Ops &^= op
	}
	for _, name := range f.Options {
		o, err := ParseOption(name)
		if err != nil {
			return nil, xerrors.Errorf("syntax %q: %w", s.Name, err)
		}
		s.Options |= o
	}
	return s, nil
}
