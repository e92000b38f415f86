package relay_test

import (
	"bytes"
	"context"
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/llm/family"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/relay"
)

// fakeStream replays payloads, then returns err (io.EOF when nil).
type fakeStream struct {
	payloads []string
	err      error
	onRead   func(i int)
	reads    int
	closed   bool
}

func (s *fakeStream) Next() ([]byte, error) {
	i := s.reads
	s.reads++
	if s.onRead != nil {
		s.onRead(i)
	}
	if i < len(s.payloads) {
		return []byte(s.payloads[i]), nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

var _ = Describe("Run", func() {
	It("relays Meta deltas in order and closes on the final event", func() {
		stream := &fakeStream{payloads: []string{
			`{"generation":"He"}`,
			`{"generation":"llo"}`,
			`{"generation":"","stop_reason":"end"}`,
			`{"generation":"never read"}`,
		}}
		sink := &relay.CollectSink{}

		res, err := relay.Run(context.Background(), family.Meta, stream, sink)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.Deltas).To(Equal([]string{"He", "llo"}))
		Expect(sink.Closed).To(BeTrue())
		Expect(res.Text).To(Equal("Hello"))
		Expect(res.Chunks).To(Equal(3))
		Expect(stream.reads).To(Equal(3))
		Expect(stream.closed).To(BeTrue())
	})

	It("stops without further emission when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		stream := &fakeStream{
			payloads: []string{`{"generation":"He"}`, `{"generation":"llo"}`},
			onRead: func(i int) {
				if i == 1 {
					cancel()
				}
			},
		}
		sink := &relay.CollectSink{}
		r := relay.New(logger.Nop())

		res, err := r.Run(ctx, family.Meta, stream, sink)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(sink.Deltas).To(Equal([]string{"He"}))
		Expect(sink.Closed).To(BeFalse())
		Expect(sink.Err).To(BeNil())
		Expect(res.Text).To(Equal("He"))
		Expect(r.State()).To(Equal(relay.Closed))
	})

	It("skips chunks that fail to decode", func() {
		stream := &fakeStream{payloads: []string{
			`{"generation":"A"}`,
			`{not json`,
			`{"generation":"B","stop_reason":"stop"}`,
		}}
		sink := &relay.CollectSink{}

		res, err := relay.Run(context.Background(), family.Meta, stream, sink)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(Equal("AB"))
		Expect(res.Skipped).To(Equal(1))
	})

	It("fails the sink on vendor errors without retracting text", func() {
		boom := errors.New("connection reset")
		stream := &fakeStream{payloads: []string{`{"generation":"partial"}`}, err: boom}
		sink := &relay.CollectSink{}

		res, err := relay.Run(context.Background(), family.Meta, stream, sink)
		Expect(err).To(MatchError(boom))
		Expect(sink.Err).To(MatchError(boom))
		Expect(sink.Deltas).To(Equal([]string{"partial"}))
		Expect(res.Text).To(Equal("partial"))
	})

	It("stops reading and closes the vendor stream once the client is gone", func() {
		stream := &fakeStream{payloads: []string{
			`{"generation":"He"}`,
			`{"generation":"llo"}`,
		}}
		pr, pw := io.Pipe()
		Expect(pr.Close()).To(Succeed())

		_, err := relay.Run(context.Background(), family.Meta, stream, relay.NewTextSink(pw))
		Expect(err).To(MatchError(relay.ErrSinkWrite))
		Expect(err).To(MatchError(io.ErrClosedPipe))
		Expect(stream.reads).To(Equal(1))
		Expect(stream.closed).To(BeTrue())
	})

	It("closes when the vendor stream ends without a final marker", func() {
		stream := &fakeStream{payloads: []string{`{"outputText":"Hi"}`}}
		sink := &relay.CollectSink{}

		res, err := relay.Run(context.Background(), family.AmazonTitan, stream, sink)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.Closed).To(BeTrue())
		Expect(res.Text).To(Equal("Hi"))
	})

	It("collects usage reported by Anthropic streams", func() {
		stream := &fakeStream{payloads: []string{
			`{"type":"message_start","message":{"usage":{"input_tokens":12,"output_tokens":1}}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hi"}}`,
			`{"type":"message_delta","usage":{"output_tokens":7}}`,
			`{"type":"message_stop"}`,
		}}

		res, err := relay.Run(context.Background(), family.Anthropic, stream, &relay.CollectSink{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(Equal("Hi"))
		Expect(res.Usage).NotTo(BeNil())
		Expect(res.Usage.InputTokens).To(Equal(12))
		Expect(res.Usage.OutputTokens).To(Equal(7))
	})

	It("refuses to run twice", func() {
		r := relay.New(nil)
		_, err := r.Run(context.Background(), family.Meta, &fakeStream{}, &relay.CollectSink{})
		Expect(err).NotTo(HaveOccurred())

		_, err = r.Run(context.Background(), family.Meta, &fakeStream{}, &relay.CollectSink{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Sinks", func() {
	It("writes raw text", func() {
		var buf bytes.Buffer
		sink := relay.NewTextSink(&buf)
		Expect(sink.Emit("He")).To(Succeed())
		Expect(sink.Emit("llo")).To(Succeed())
		Expect(sink.Close()).To(Succeed())
		Expect(buf.String()).To(Equal("Hello"))
	})

	It("frames SSE text and terminates with DONE", func() {
		var buf bytes.Buffer
		sink := relay.NewSSESink(&buf)
		Expect(sink.Emit("Hi")).To(Succeed())
		Expect(sink.Close()).To(Succeed())
		Expect(buf.String()).To(Equal("data: {\"text\":\"Hi\"}\n\ndata: [DONE]\n\n"))
	})

	It("writes an SSE error event on failure", func() {
		var buf bytes.Buffer
		sink := relay.NewSSESink(&buf)
		Expect(sink.Fail(errors.New("throttled"))).To(Succeed())
		Expect(buf.String()).To(Equal("event: error\ndata: {\"error\":\"throttled\"}\n\n"))
	})
})
