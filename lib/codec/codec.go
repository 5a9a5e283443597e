// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the binary encoding used for blobs Greendale stores
// in SQLite, such as the list of event IDs removed by a retention
// sweep. It is CBOR with Core Deterministic Encoding (RFC 8949 §4.2),
// so equal values always encode to equal bytes.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder: " + err.Error())
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes data into v. Unknown struct fields are ignored.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }
