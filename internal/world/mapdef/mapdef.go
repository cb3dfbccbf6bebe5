// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package mapdef parses map skeleton documents: the geometry tree the map
// loader collaborator supplies for a world-build request. A skeleton is a
// YAML document validated against a JSON Schema generated from these types.
package mapdef

import (
	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/atriumworld/atrium/internal/comm"
)

// SupportedFormat is the constraint on skeleton format versions this server
// accepts.
const SupportedFormat = "^1.0.0"

// Parse errors.
var (
	ErrInvalidSkeleton    = oops.Code("MAPDEF_INVALID").Errorf("invalid map skeleton")
	ErrUnsupportedVersion = oops.Code("MAPDEF_VERSION").Errorf("unsupported map format version")
)

// Rect is a serializable rectangle, bottom-left anchored.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width" jsonschema:"minimum=0"`
	Height int `json:"height" yaml:"height" jsonschema:"minimum=0"`
}

// Node describes one context to build: a room, area or interactable.
type Node struct {
	Name     string        `json:"name" yaml:"name" jsonschema:"required,minLength=1"`
	Kind     string        `json:"kind" yaml:"kind" jsonschema:"required,enum=room,enum=area,enum=interactable"`
	Rect     *Rect         `json:"rect,omitempty" yaml:"rect,omitempty"`
	Region   *comm.Spec    `json:"region,omitempty" yaml:"region,omitempty"`
	Media    []comm.Medium `json:"media,omitempty" yaml:"media,omitempty"`
	Menu     string        `json:"menu,omitempty" yaml:"menu,omitempty"`
	Children []Node        `json:"children,omitempty" yaml:"children,omitempty"`
}

// Skeleton is a parsed map document.
type Skeleton struct {
	Format string `json:"format" yaml:"format" jsonschema:"required"`
	Name   string `json:"name" yaml:"name" jsonschema:"required,minLength=1"`
	Spawn  struct {
		X int `json:"x" yaml:"x"`
		Y int `json:"y" yaml:"y"`
	} `json:"spawn,omitempty" yaml:"spawn,omitempty"`
	Rect  Rect   `json:"rect" yaml:"rect" jsonschema:"required"`
	Nodes []Node `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// Parse unmarshals, schema-validates and version-gates a skeleton document.
func Parse(data []byte) (*Skeleton, error) {
	if len(data) == 0 {
		return nil, oops.Hint("document is empty").Wrap(ErrInvalidSkeleton)
	}

	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var sk Skeleton
	if err := yaml.Unmarshal(data, &sk); err != nil {
		return nil, oops.Wrapf(err, "unmarshal map skeleton")
	}

	if err := checkFormat(sk.Format); err != nil {
		return nil, err
	}
	return &sk, nil
}

// checkFormat enforces the SupportedFormat constraint.
func checkFormat(format string) error {
	v, err := semver.NewVersion(format)
	if err != nil {
		return oops.With("format", format).Wrap(ErrUnsupportedVersion)
	}
	c, err := semver.NewConstraint(SupportedFormat)
	if err != nil {
		// The constraint is a compile-time constant; failing to parse it is
		// a code bug.
		panic("mapdef: invalid SupportedFormat constraint: " + err.Error())
	}
	if !c.Check(v) {
		return oops.
			With("format", format).
			With("supported", SupportedFormat).
			Wrap(ErrUnsupportedVersion)
	}
	return nil
}
