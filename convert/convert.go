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

// Package convert translates annotated DNA sequences into flat genomic
// feature records.
//
// Every conversion takes a Stringency and a Reporter.  Problems with the input
// are passed to WarnOrFail, which either fails the conversion, writes a
// warning to the reporter, or ignores the problem depending on the
// stringency.
package convert

import (
	"fmt"
	"reflect"
)

// Reporter receives warnings written under Lenient stringency.  *log.Logger
// satisfies Reporter.
type Reporter interface {
	Printf(format string, v ...interface{})
}

// Converter converts values of type S into values of type T.
type Converter[S, T any] interface {
	Convert(source S, stringency Stringency, reporter Reporter) (T, error)
}

// Conversion identifies the source and target types of a converter.
type Conversion struct {
	Source, Target reflect.Type
}

// ConversionOf returns the Conversion from S to T.
func ConversionOf[S, T any]() Conversion {
	return Conversion{
		Source: reflect.TypeOf((*S)(nil)).Elem(),
		Target: reflect.TypeOf((*T)(nil)).Elem(),
	}
}

func (c Conversion) String() string {
	return fmt.Sprintf("%v -> %v", c.Source, c.Target)
}

// ConversionError reports a failed conversion.
type ConversionError struct {
	Conversion
	// Value is the input that could not be converted.  It may be nil.
	Value   interface{}
	Message string
	Cause   error
}

func (err *ConversionError) Error() string {
	msg := fmt.Sprintf("could not convert %v to %v, %s", err.Source, err.Target, err.Message)
	if err.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.Cause)
	}
	return msg
}

func (err *ConversionError) Unwrap() error {
	return err.Cause
}

// WarnOrFail handles a problem converting value.  Under Strict stringency it
// returns a *ConversionError.  Under Lenient stringency it writes a warning to
// reporter, if reporter is not nil, and returns nil.  Under Silent stringency
// it returns nil.  An invalid stringency is treated as Strict.
func (c Conversion) WarnOrFail(value interface{}, message string, cause error, stringency Stringency, reporter Reporter) error {
	err := &ConversionError{c, value, message, cause}
	switch stringency {
	case Lenient:
		if reporter != nil {
			reporter.Printf("Warning: %v", err)
		}
		return nil
	case Silent:
		return nil
	}
	return err
}
