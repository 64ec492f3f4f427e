// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sequence defines annotated DNA sequences, the input of feature
// conversion.
//
// Positions in this package are 1-based and both ends of a Location are
// inclusive.
package sequence

import (
	"fmt"

	"github.com/biogo/biogo/feat"
)

// AccessionID identifies a sequence in some external database.
type AccessionID struct {
	ID string
	// Version is appended to the ID as ".<Version>" when it is positive.
	Version int
}

func (id AccessionID) String() string {
	if id.Version > 0 {
		return fmt.Sprintf("%s.%d", id.ID, id.Version)
	}
	return id.ID
}

// Sequence is a DNA sequence with an ordered list of annotated features.
type Sequence struct {
	Accession AccessionID
	Features  []*Feature
}

// Feature annotates a sub-region of a Sequence.  Any field may be nil.
type Feature struct {
	Source           *string
	Type             *string
	ShortDescription *string
	Description      *string
	Location         *Location
}

// Point is a single 1-based position.
type Point struct {
	Position int
}

// Location spans the closed range [Start, End].  A nil Strand means that no
// strand was specified for the location.
type Location struct {
	Start, End Point
	Strand     *Strand
}

// Strand is the orientation of a location relative to the sequence.
type Strand int

const (
	Positive Strand = iota + 1
	Negative
	Undefined
)

func (s Strand) String() string {
	switch s {
	case Positive:
		return "+"
	case Negative:
		return "-"
	case Undefined:
		return "."
	}
	return fmt.Sprintf("Strand(%d)", int(s))
}

// StrandFromOrientation returns the Strand equivalent to a biogo orientation.
func StrandFromOrientation(o feat.Orientation) Strand {
	switch o {
	case feat.Forward:
		return Positive
	case feat.Reverse:
		return Negative
	}
	return Undefined
}

// String returns a pointer to s, for populating optional fields.
func String(s string) *string {
	return &s
}

// StrandOf returns a pointer to s, for populating Location.Strand.
func StrandOf(s Strand) *Strand {
	return &s
}
