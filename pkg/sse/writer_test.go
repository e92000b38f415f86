package sse

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Writer", func() {
	var (
		buf *bytes.Buffer
		w   *Writer
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		w = NewWriter(buf)
	})

	It("frames JSON data", func() {
		Expect(w.WriteJSON(map[string]string{"text": "Hel"})).To(Succeed())
		Expect(buf.String()).To(Equal("data: {\"text\":\"Hel\"}\n\n"))
	})

	It("terminates with [DONE]", func() {
		Expect(w.Done()).To(Succeed())
		Expect(buf.String()).To(Equal("data: [DONE]\n\n"))
	})

	It("writes typed events", func() {
		Expect(w.WriteEvent(Event{Type: "error", Data: `{"error":"boom"}`})).To(Succeed())
		Expect(buf.String()).To(Equal("event: error\ndata: {\"error\":\"boom\"}\n\n"))
	})

	It("writes the retry field", func() {
		Expect(w.WriteEvent(Event{Retry: 1500, Data: "x"})).To(Succeed())
		Expect(buf.String()).To(Equal("retry: 1500\ndata: x\n\n"))
	})

	It("round trips multi-line data through the Reader", func() {
		Expect(w.WriteEvent(Event{ID: "7", Data: "line one\nline two"})).To(Succeed())

		ev, err := NewReader(strings.NewReader(buf.String())).Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.ID).To(Equal("7"))
		Expect(ev.Data).To(Equal("line one\nline two"))
	})
})
