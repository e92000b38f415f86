package transport_test

import (
	"errors"
	"io"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/transport"
)

var _ = Describe("SSEStream", func() {
	It("yields data payloads and skips pings", func() {
		body := io.NopCloser(strings.NewReader(
			"event: ping\ndata: {}\n\n" +
				"data: {\"a\":1}\n\n" +
				"data: {\"a\":2}\n\n",
		))
		s := transport.NewSSEStream("test", body)
		defer s.Close()

		first, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(first)).To(Equal(`{"a":1}`))

		second, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(second)).To(Equal(`{"a":2}`))

		_, err = s.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("turns error events into vendor errors", func() {
		body := io.NopCloser(strings.NewReader("event: error\ndata: {\"type\":\"overloaded_error\"}\n\n"))
		s := transport.NewSSEStream("anthropic", body)

		_, err := s.Next()
		var vendorErr *transport.VendorError
		Expect(errors.As(err, &vendorErr)).To(BeTrue())
		Expect(vendorErr.StatusCode).To(Equal(http.StatusBadGateway))
		Expect(vendorErr.Body).To(ContainSubstring("overloaded_error"))
	})
})

var _ = Describe("CheckResponse", func() {
	It("passes successful responses through", func() {
		resp := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("ok"))}
		Expect(transport.CheckResponse("test", resp)).To(Succeed())
	})

	It("wraps failures with status and body", func() {
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Body: io.NopCloser(strings.NewReader("slow down"))}
		err := transport.CheckResponse("test", resp)

		var vendorErr *transport.VendorError
		Expect(errors.As(err, &vendorErr)).To(BeTrue())
		Expect(vendorErr.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(vendorErr.Body).To(Equal("slow down"))
		Expect(err.Error()).To(Equal("test error 429: slow down"))
	})
})
