// Package serde defines the primitives to serialize and deserialize (serde)
// the data model of the modules.
//
// A message implements its serialization while a factory provides the
// deserialization. Both of them expect a context that defines the format to
// use, so that for instance a message can be serialized in JSON with a
// context, and in XML with another one. The context can also carry additional
// factories so that a message can instantiate nested fields of dynamic types.
//
// Documentation Last Review: 07.10.2020
package serde

import "io"

// Message is the interface that a data model should implement to be
// serialized and deserialized.
type Message interface {
	// Serialize serializes the object by complying to the context format.
	Serialize(ctx Context) ([]byte, error)
}

// Factory is the interface to implement to instantiate a data model from a
// raw message.
type Factory interface {
	// Deserialize deserializes the message using the given context.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// Fingerprinter is an interface to fingerprint an object. It is a one way
// operation with the purpose of generating a deterministic footprint of the
// object, where a serialization does not give that guarantee.
type Fingerprinter interface {
	// Fingerprint writes a deterministic binary representation of the object
	// into the writer.
	Fingerprint(writer io.Writer) error
}

// Format is the identifier type of a format implementation.
type Format string

const (
	// FormatJSON is the identifier for JSON formats.
	FormatJSON Format = "JSON"

	// FormatXML is the identifier for XML formats.
	FormatXML Format = "XML"
)

// FormatEngine is the interface that a format implementation must implement.
// An engine is associated to a message type so that this message can be
// encoded and decoded in the format the engine implements.
type FormatEngine interface {
	// Encode encodes the message using the context so that the data is
	// readable by a decoder of the same format.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode decodes the data into a message using the context.
	Decode(ctx Context, data []byte) (Message, error)
}
