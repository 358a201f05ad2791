// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode serializes with Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, shortest integer forms, definite lengths only. The
// same logical value always yields the same bytes.
var encMode = mustEncMode()

// decMode accepts standard CBOR and ignores unknown fields, so an
// older CLI keeps working against a daemon that has grown new
// response fields.
var decMode = mustDecMode()

func mustEncMode() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	// Types carrying identity in unexported fields surface it through
	// encoding.TextMarshaler; encode them as CBOR text strings rather
	// than empty maps.
	options.TextMarshaler = cbor.TextMarshalerTextString
	mode, err := options.EncMode()
	if err != nil {
		panic("codec: building encoder mode: " + err.Error())
	}
	return mode
}

func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{
		// Docket keys every wire map with strings. When the decode
		// target is any, produce map[string]any instead of the CBOR
		// default map[any]any, which encoding/json refuses when a
		// handler result is re-emitted as --json output.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Decode-side mirror of TextMarshalerTextString: text strings
		// round-trip through encoding.TextUnmarshaler.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: building decoder mode: " + err.Error())
	}
	return mode
}

// Marshal encodes value with the deterministic encoder.
func Marshal(value any) ([]byte, error) {
	return encMode.Marshal(value)
}

// Unmarshal decodes CBOR data into value.
func Unmarshal(data []byte, value any) error {
	return decMode.Unmarshal(data, value)
}

// Encoder and Decoder alias the underlying stream types so consumers
// import only lib/codec, never fxamacker/cbor directly.
type (
	Encoder = cbor.Encoder
	Decoder = cbor.Decoder
)

// RawMessage is a pre-encoded CBOR value. The socket layer uses it to
// hand request payloads to handlers undecoded and to splice handler
// results into response envelopes without a second encode.
type RawMessage = cbor.RawMessage

// NewEncoder returns a stream encoder writing deterministic CBOR to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading from r with Docket's
// decode configuration.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}
