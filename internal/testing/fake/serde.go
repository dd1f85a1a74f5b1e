package fake

import (
	"encoding/json"
	"io"

	"go.dedis.ch/acta/serde"
)

// Message is a fake implementation of serde.Message.
//
// - implements serde.Message
// - implements serde.Fingerprinter
type Message struct {
	Digest []byte
}

// Fingerprint implements serde.Fingerprinter.
func (m Message) Fingerprint(w io.Writer) error {
	_, err := w.Write(m.Digest)
	return err
}

// Serialize implements serde.Message.
func (m Message) Serialize(ctx serde.Context) ([]byte, error) {
	return ctx.Marshal(struct{}{})
}

// MessageFactory is a fake implementation of serde.Factory.
//
// - implements serde.Factory
type MessageFactory struct {
	err error
}

// NewBadMessageFactory returns a factory that always fails.
func NewBadMessageFactory() MessageFactory {
	return MessageFactory{err: fakeErr}
}

// Deserialize implements serde.Factory.
func (f MessageFactory) Deserialize(serde.Context, []byte) (serde.Message, error) {
	return Message{}, f.err
}

const (
	// GoodFormat should register working format engines.
	GoodFormat = serde.Format("FakeFormat")

	// BadFormat should register non-working format engines.
	BadFormat = serde.Format("BadFormat")

	// MsgFormat should register an engine for fake messages.
	MsgFormat = serde.Format("MsgFormat")
)

// GetFakeFormatValue returns the value of the fake format.
func GetFakeFormatValue() []byte {
	return []byte(`fake format`)
}

// Format is a fake format engine implementation.
//
// - implements serde.FormatEngine
type Format struct {
	err  error
	Msg  serde.Message
	Call *Call
}

// NewBadFormat returns a new format engine that always returns an error.
func NewBadFormat() Format {
	return Format{err: fakeErr}
}

// Encode implements serde.FormatEngine.
func (f Format) Encode(ctx serde.Context, m serde.Message) ([]byte, error) {
	f.Call.Add(ctx, m)
	return GetFakeFormatValue(), f.err
}

// Decode implements serde.FormatEngine.
func (f Format) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	f.Call.Add(ctx, data)
	return f.Msg, f.err
}

// ContextEngine is a fake implementation of serde.ContextEngine. The zero
// value is a working JSON engine with an undefined format name.
//
// - implements serde.ContextEngine
type ContextEngine struct {
	Count  *Counter
	format serde.Format
	err    error
}

// NewContext returns a fake serde context.
func NewContext() serde.Context {
	return serde.NewContext(ContextEngine{
		format: GoodFormat,
	})
}

// NewContextWithFormat returns a fake serde context using the given format.
func NewContextWithFormat(f serde.Format) serde.Context {
	return serde.NewContext(ContextEngine{
		format: f,
	})
}

// NewBadContext returns a fake serde context that produces errors.
func NewBadContext() serde.Context {
	return serde.NewContext(ContextEngine{
		format: BadFormat,
		err:    fakeErr,
	})
}

// NewBadContextWithDelay returns a fake serde context that produces errors
// after the given delay of operations.
func NewBadContextWithDelay(delay int) serde.Context {
	return serde.NewContext(ContextEngine{
		Count:  NewCounter(delay),
		format: BadFormat,
		err:    fakeErr,
	})
}

// GetFormat implements serde.ContextEngine.
func (ctx ContextEngine) GetFormat() serde.Format {
	return ctx.format
}

// Marshal implements serde.ContextEngine.
func (ctx ContextEngine) Marshal(m interface{}) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	if ctx.err != nil {
		if ctx.Count.Done() {
			return data, ctx.err
		}

		ctx.Count.Decrease()
	}

	return data, nil
}

// Unmarshal implements serde.ContextEngine.
func (ctx ContextEngine) Unmarshal(data []byte, m interface{}) error {
	err := json.Unmarshal(data, m)
	if err != nil {
		return err
	}

	if ctx.err != nil {
		if ctx.Count.Done() {
			return ctx.err
		}

		ctx.Count.Decrease()
	}

	return nil
}
