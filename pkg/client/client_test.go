package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/client"
	"github.com/papercomputeco/relay/pkg/llm"
)

var _ = Describe("Client", func() {
	var (
		srv      *httptest.Server
		c        *client.Client
		lastReq  *http.Request
		lastBody []byte
		handler  http.HandlerFunc
	)

	BeforeEach(func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastReq = r
			lastBody, _ = io.ReadAll(r.Body)
			handler(w, r)
		}))
		DeferCleanup(srv.Close)

		var err error
		c, err = client.New(srv.URL + "/")
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a target without a scheme", func() {
		_, err := client.New("localhost")
		Expect(err).To(HaveOccurred())
	})

	Describe("ChatStream", func() {
		It("sends a text-framed stream request and copies the body", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("Hello there"))
			}

			var out bytes.Buffer
			text, err := c.ChatStream(context.Background(), client.ChatRequest{
				Messages:       []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
				Model:          "gpt-4o",
				ConversationID: "conv-1",
			}, &out)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Hello there"))
			Expect(out.String()).To(Equal("Hello there"))

			Expect(lastReq.URL.Path).To(Equal("/api/chat"))
			Expect(lastReq.Header.Get(client.ConversationHeader)).To(Equal("conv-1"))

			var sent map[string]any
			Expect(json.Unmarshal(lastBody, &sent)).To(Succeed())
			Expect(sent["stream"]).To(BeTrue())
			Expect(sent["stream_format"]).To(Equal("text"))
			Expect(sent["model"]).To(Equal("gpt-4o"))
		})

		It("returns the server error message", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"bedrock request failed with status 429","detail":"slow down"}`))
			}

			_, err := c.ChatStream(context.Background(), client.ChatRequest{}, io.Discard)
			var apiErr *client.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusTooManyRequests))
			Expect(err.Error()).To(ContainSubstring("slow down"))
		})
	})

	It("reads the text of a non-streamed reply", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"model":"m","text":"done"}`))
		}

		text, err := c.Chat(context.Background(), client.ChatRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("done"))
	})

	It("maps 404 to ErrNotFound", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"conversation not found"}`))
		}

		_, err := c.GetConversation(context.Background(), "missing")
		Expect(errors.Is(err, client.ErrNotFound)).To(BeTrue())
	})

	It("decodes a conversation", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id":"c1","title":"Trip","messages":[{"role":"user","content":"hi"}]}`))
		}

		conv, err := c.GetConversation(context.Background(), "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(conv.Title).To(Equal("Trip"))
		Expect(conv.Messages).To(HaveLen(1))
		Expect(lastReq.URL.Path).To(Equal("/api/conversations/c1"))
	})

	It("passes the search query when listing", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"conversations":[{"id":"a"},{"id":"b"}]}`))
		}

		convs, err := c.ListConversations(context.Background(), "paris trip")
		Expect(err).NotTo(HaveOccurred())
		Expect(convs).To(HaveLen(2))
		Expect(lastReq.URL.Query().Get("q")).To(Equal("paris trip"))
	})

	It("requests an export in the given format", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# Trip\n"))
		}

		data, err := c.ExportConversation(context.Background(), "c1", "md")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("# Trip\n"))
		Expect(lastReq.URL.Path).To(Equal("/api/conversations/c1/export"))
		Expect(lastReq.URL.Query().Get("format")).To(Equal("md"))
	})

	It("sends usage bounds only when set", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"records":0}`))
		}

		_, err := c.UsageSummary(context.Background(), "2024-01-01", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(lastReq.URL.Query().Get("from")).To(Equal("2024-01-01"))
		Expect(lastReq.URL.Query().Has("to")).To(BeFalse())
	})

	It("deletes a conversation", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}

		Expect(c.DeleteConversation(context.Background(), "c1")).To(Succeed())
		Expect(lastReq.Method).To(Equal(http.MethodDelete))
	})
})
