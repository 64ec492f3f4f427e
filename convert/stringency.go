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

package convert

import (
	"errors"
	"fmt"
	"strings"
)

// Stringency controls how converters react to missing or malformed input.
type Stringency int

const (
	// Strict fails the conversion.
	Strict Stringency = iota
	// Lenient writes a warning to the reporter and continues with a degraded
	// result.
	Lenient
	// Silent continues with a degraded result without writing anything.
	Silent
)

var errInvalidStringency = errors.New("invalid stringency")

var stringencyNames = [...]string{
	Strict:  "STRICT",
	Lenient: "LENIENT",
	Silent:  "SILENT",
}

func (s Stringency) String() string {
	if s.valid() {
		return stringencyNames[s]
	}
	return fmt.Sprintf("Stringency(%d)", int(s))
}

func (s Stringency) valid() bool {
	return s >= Strict && s <= Silent
}

// ParseStringency returns the stringency named by name, ignoring case.
func ParseStringency(name string) (Stringency, error) {
	for i, n := range stringencyNames {
		if strings.EqualFold(n, name) {
			return Stringency(i), nil
		}
	}
	return 0, fmt.Errorf("%v: %q", errInvalidStringency, name)
}

// Set implements flag.Value.
func (s *Stringency) Set(name string) error {
	parsed, err := ParseStringency(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Stringency) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("%v: %d", errInvalidStringency, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stringency) UnmarshalText(text []byte) error {
	return s.Set(string(text))
}
