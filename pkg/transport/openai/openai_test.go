package openai_test

import (
	"context"
	"encoding/json"
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
	"github.com/papercomputeco/relay/pkg/transport/openai"
)

var _ = Describe("OpenAI transport", func() {
	var (
		server   *httptest.Server
		captured *http.Request
		body     map[string]any
	)

	invocation := func() *transport.Invocation {
		b, err := format.Format(family.OpenAI, []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")}, llm.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		return &transport.Invocation{Model: "gpt-4o", Family: family.OpenAI, Body: b}
	}

	BeforeEach(func() {
		body = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			if body["stream"] == true {
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n"))
				_, _ = w.Write([]byte("data: [DONE]\n\n"))
				return
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hello"}}]}`))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires an API key", func() {
		_, err := openai.New(openai.Config{})
		Expect(errors.Is(err, transport.ErrMissingCredentials)).To(BeTrue())
	})

	It("sends bearer authenticated requests", func() {
		t, err := openai.New(openai.Config{APIKey: "sk-test", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		out, err := t.Invoke(context.Background(), invocation())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(ContainSubstring("Hello"))

		Expect(captured.URL.Path).To(Equal("/v1/chat/completions"))
		Expect(captured.Header.Get("Authorization")).To(Equal("Bearer sk-test"))
		Expect(body["model"]).To(Equal("gpt-4o"))
		Expect(body).NotTo(HaveKey("stream_options"))
	})

	It("asks for usage on streams", func() {
		t, err := openai.New(openai.Config{APIKey: "sk-test", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		s, err := t.InvokeStream(context.Background(), invocation())
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		Expect(body["stream_options"]).To(Equal(map[string]any{"include_usage": true}))

		first, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(first)).To(ContainSubstring(`"Hi"`))

		done, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(done)).To(Equal("[DONE]"))
	})
})
