package bedrock_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/family"
	"github.com/papercomputeco/relay/pkg/llm/format"
	"github.com/papercomputeco/relay/pkg/transport"
	"github.com/papercomputeco/relay/pkg/transport/bedrock"
)

var _ = Describe("Bedrock SDK transport", func() {
	var (
		server  *httptest.Server
		paths   []string
		respond func(w http.ResponseWriter)
	)

	invocation := func() *transport.Invocation {
		b, err := format.Format(family.Anthropic, []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")}, llm.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		return &transport.Invocation{Model: "anthropic.claude-3-haiku-20240307-v1:0", Family: family.Anthropic, Body: b}
	}

	newTransport := func() *bedrock.Transport {
		t, err := bedrock.New(context.Background(), bedrock.Config{
			Region:          "us-east-1",
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
			Endpoint:        server.URL,
		})
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	BeforeEach(func() {
		paths = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			_, _ = io.Copy(io.Discard, r.Body)
			respond(w)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("rejects half-configured static keys", func() {
		_, err := bedrock.New(context.Background(), bedrock.Config{AccessKeyID: "only-id"})
		Expect(errors.Is(err, transport.ErrMissingCredentials)).To(BeTrue())
	})

	It("returns the raw model body", func() {
		respond = func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello"}]}`))
		}

		out, err := newTransport().Invoke(context.Background(), invocation())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"content":[{"type":"text","text":"Hello"}]}`))
		Expect(paths).To(HaveLen(1))
		Expect(paths[0]).To(HavePrefix("/model/anthropic.claude-3-haiku-20240307-v1"))
	})

	It("maps vendor failures once without retrying", func() {
		respond = func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Amzn-ErrorType", "ThrottlingException")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"Too many requests"}`))
		}

		_, err := newTransport().Invoke(context.Background(), invocation())
		var vendorErr *transport.VendorError
		Expect(errors.As(err, &vendorErr)).To(BeTrue())
		Expect(vendorErr.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(vendorErr.Transport).To(Equal(transport.Bedrock))
		Expect(paths).To(HaveLen(1))
	})
})
