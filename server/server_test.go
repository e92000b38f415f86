package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"github.com/papercomputeco/relay/pkg/chat"
	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/format"
	relaylogger "github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/storage"
	"github.com/papercomputeco/relay/pkg/storage/inmemory"
	"github.com/papercomputeco/relay/pkg/transport"
	testutils "github.com/papercomputeco/relay/pkg/utils/test"
	"github.com/papercomputeco/relay/server/header"
	"github.com/papercomputeco/relay/server/worker"
)

const (
	sonnet = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	llama  = "meta.llama3-8b-instruct-v1:0"
)

var _ = Describe("Server", func() {
	var (
		bedrock *testutils.MockTransport
		driver  *inmemory.Driver
		s       *Server
	)

	newServer := func(config Config, pool *worker.Pool) *Server {
		reg := transport.NewRegistry("")
		reg.Register(transport.Bedrock, bedrock, nil)
		reg.Register(transport.Anthropic, nil, transport.ErrMissingCredentials)

		srv, err := New(config, Dependencies{
			Chat:   chat.NewService(reg, relaylogger.Nop()),
			Driver: driver,
			Pool:   pool,
		}, relaylogger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return srv
	}

	do := func(method, path, body string) (*http.Response, string) {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, r)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := s.server.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, string(data)
	}

	BeforeEach(func() {
		bedrock = testutils.NewMockTransport(transport.Bedrock)
		driver = inmemory.NewDriver()
		s = newServer(Config{ListenAddr: ":0", DefaultModel: sonnet}, nil)
	})

	Describe("New", func() {
		It("requires a chat service and a driver", func() {
			_, err := New(Config{}, Dependencies{Driver: driver}, relaylogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("chat service is required")))

			_, err = New(Config{}, Dependencies{Chat: chat.NewService(transport.NewRegistry(""), nil)}, relaylogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("storage driver is required")))
		})

		It("rejects unknown stream formats", func() {
			_, err := New(Config{StreamFormat: "ndjson"}, Dependencies{
				Chat:   chat.NewService(transport.NewRegistry(""), nil),
				Driver: driver,
			}, relaylogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("unknown stream format")))
		})
	})

	It("answers ping", func() {
		resp, body := do(http.MethodGet, "/ping", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(Equal(`"pong"`))
	})

	Describe("POST /api/chat", func() {
		BeforeEach(func() {
			bedrock.Body = []byte(`{"type":"message","content":[{"type":"text","text":"Hello there"}],"usage":{"input_tokens":1000,"output_tokens":500}}`)
		})

		It("returns the normalized reply with usage and cost", func() {
			resp, body := do(http.MethodPost, "/api/chat", `{"prompt":"Hi"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get(header.TransportHeader)).To(Equal(transport.Bedrock))
			Expect(resp.Header.Get(header.FamilyHeader)).To(Equal("anthropic"))

			Expect(gjson.Get(body, "output").String()).To(Equal("Hello there"))
			Expect(gjson.Get(body, "text").String()).To(Equal("Hello there"))
			Expect(gjson.Get(body, "model").String()).To(Equal(sonnet))
			Expect(gjson.Get(body, "usage.input_tokens").Int()).To(Equal(int64(1000)))
			Expect(gjson.Get(body, "cost.totalCost").Float()).To(BeNumerically("~", 0.0105, 1e-9))
		})

		It("applies stored parameters under request overrides", func() {
			topK := 40
			Expect(driver.SaveParameters(context.Background(), sonnet, llm.Params{
				Temperature: 0.1, MaxTokens: 300, TopP: 0.5, TopK: &topK,
			})).To(Succeed())

			resp, _ := do(http.MethodPost, "/api/chat", `{"prompt":"Hi","temperature":0.9}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			invs := bedrock.Invocations()
			Expect(invs).To(HaveLen(1))
			body, ok := invs[0].Body.(*format.AnthropicRequest)
			Expect(ok).To(BeTrue())
			Expect(body.MaxTokens).To(Equal(300))
			Expect(body.Temperature).To(BeNumerically("~", 0.9))
		})

		It("puts documents into the system prompt", func() {
			resp, _ := do(http.MethodPost, "/api/chat",
				`{"prompt":"Summarize","documents":[{"name":"notes.txt","content":"Quarterly revenue grew."}]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body := bedrock.Invocations()[0].Body.(*format.AnthropicRequest)
			Expect(body.System).To(ContainSubstring("Quarterly revenue grew."))
		})

		It("rejects bodies without messages or prompt", func() {
			resp, body := do(http.MethodPost, "/api/chat", `{"model":"gpt-4o"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(gjson.Get(body, "error").String()).NotTo(BeEmpty())
			Expect(bedrock.Invocations()).To(BeEmpty())
		})

		It("rejects out of range parameters", func() {
			resp, body := do(http.MethodPost, "/api/chat", `{"prompt":"Hi","temperature":3}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(gjson.Get(body, "error").String()).To(ContainSubstring("temperature"))
		})

		It("rejects an empty conversation", func() {
			resp, _ := do(http.MethodPost, "/api/chat", `{"messages":[]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("passes vendor status codes through", func() {
			bedrock.Err = &transport.VendorError{Transport: transport.Bedrock, StatusCode: http.StatusTooManyRequests, Body: "slow down"}

			resp, body := do(http.MethodPost, "/api/chat", `{"prompt":"Hi"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))
			Expect(gjson.Get(body, "error").String()).To(Equal("bedrock request failed with status 429"))
			Expect(gjson.Get(body, "detail").String()).To(Equal("slow down"))
		})

		It("reports unconfigured transports as server errors", func() {
			resp, body := do(http.MethodPost, "/api/chat",
				`{"prompt":"Hi","model":"claude-3-5-haiku-20241022","provider":"anthropic"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(gjson.Get(body, "error").String()).To(Equal("transport is not configured"))
		})

		It("rejects unknown transports", func() {
			resp, _ := do(http.MethodPost, "/api/chat", `{"prompt":"Hi","provider":"carrier-pigeon"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		Context("streaming", func() {
			BeforeEach(func() {
				bedrock.Chunks = [][]byte{
					[]byte(`{"generation":"He"}`),
					[]byte(`{"generation":"llo"}`),
					[]byte(`{"generation":"","stop_reason":"stop"}`),
				}
			})

			It("writes plain text deltas by default", func() {
				resp, body := do(http.MethodPost, "/api/chat", `{"prompt":"Hi","model":"`+llama+`","stream":true}`)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/plain"))
				Expect(body).To(Equal("Hello"))
			})

			It("writes SSE frames when asked", func() {
				resp, body := do(http.MethodPost, "/api/chat",
					`{"prompt":"Hi","model":"`+llama+`","stream":true,"stream_format":"sse"}`)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
				Expect(body).To(ContainSubstring(`data: {"text":"He"}`))
				Expect(body).To(ContainSubstring(`data: {"text":"llo"}`))
				Expect(body).To(HaveSuffix("data: [DONE]\n\n"))
			})

			It("uses the configured default format", func() {
				s = newServer(Config{DefaultModel: llama, StreamFormat: StreamFormatSSE}, nil)
				_, body := do(http.MethodPost, "/api/chat", `{"prompt":"Hi","stream":true}`)
				Expect(body).To(ContainSubstring("data: [DONE]"))
			})

			Context("when the vendor stream fails part way", func() {
				var base string

				BeforeEach(func() {
					bedrock.Chunks = [][]byte{[]byte(`{"generation":"He"}`)}
					bedrock.StreamErr = errors.New("connection reset by peer")

					ln, err := net.Listen("tcp", "127.0.0.1:0")
					Expect(err).NotTo(HaveOccurred())
					base = "http://" + ln.Addr().String()

					srv := s
					go func() { _ = srv.RunWithListener(ln) }()
					DeferCleanup(func() { _ = srv.Close() })
				})

				post := func(body string) (*http.Response, string, error) {
					resp, err := http.Post(base+"/api/chat", "application/json", strings.NewReader(body))
					Expect(err).NotTo(HaveOccurred())
					defer resp.Body.Close()
					data, readErr := io.ReadAll(resp.Body)
					return resp, string(data), readErr
				}

				It("aborts a plain text body instead of ending it cleanly", func() {
					resp, body, readErr := post(`{"prompt":"Hi","model":"` + llama + `","stream":true}`)
					Expect(resp.StatusCode).To(Equal(http.StatusOK))
					Expect(body).To(Equal("He"))
					Expect(readErr).To(HaveOccurred())
				})

				It("sends an SSE error event and no DONE before aborting", func() {
					resp, body, readErr := post(`{"prompt":"Hi","model":"` + llama + `","stream":true,"stream_format":"sse"}`)
					Expect(resp.StatusCode).To(Equal(http.StatusOK))
					Expect(body).To(ContainSubstring(`data: {"text":"He"}`))
					Expect(body).To(ContainSubstring("event: error"))
					Expect(body).To(ContainSubstring("connection reset by peer"))
					Expect(body).NotTo(ContainSubstring("[DONE]"))
					Expect(readErr).To(HaveOccurred())
				})
			})

			It("returns vendor errors before the stream starts", func() {
				bedrock.Err = &transport.VendorError{Transport: transport.Bedrock, StatusCode: http.StatusForbidden, Body: "denied"}

				resp, body := do(http.MethodPost, "/api/chat", `{"prompt":"Hi","model":"`+llama+`","stream":true}`)
				Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
				Expect(gjson.Get(body, "detail").String()).To(Equal("denied"))
			})
		})

		Context("with a worker pool", func() {
			var pool *worker.Pool

			BeforeEach(func() {
				var err error
				pool, err = worker.NewPool(&worker.Config{Driver: driver, NumWorkers: 1, QueueSize: 8})
				Expect(err).NotTo(HaveOccurred())
				s = newServer(Config{DefaultModel: sonnet}, pool)
			})

			AfterEach(func() {
				pool.Close()
			})

			It("records usage and appends to the named conversation", func() {
				req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"prompt":"Hi"}`))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set(header.ConversationIDHeader, "conv-1")
				resp, err := s.server.Test(req, -1)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				Eventually(func() int {
					recs, _ := driver.ListUsage(context.Background())
					return len(recs)
				}).Should(Equal(1))

				Eventually(func() int {
					conv, err := driver.GetConversation(context.Background(), "conv-1")
					if err != nil {
						return 0
					}
					return len(conv.Messages)
				}).Should(Equal(2))
			})
		})
	})

	Describe("POST /api/invoke", func() {
		It("decodes loosely typed params", func() {
			bedrock.Body = []byte(`{"generation":"ok","prompt_token_count":3,"generation_token_count":1}`)

			resp, body := do(http.MethodPost, "/api/invoke",
				`{"modelId":"`+llama+`","prompt":"Hi","params":{"max_tokens":"256","temperature":"0.2"}}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "text").String()).To(Equal("ok"))

			meta := bedrock.Invocations()[0].Body.(*format.MetaRequest)
			Expect(meta.MaxGenLen).To(Equal(256))
			Expect(meta.Temperature).To(BeNumerically("~", 0.2))
		})

		It("rejects unknown params", func() {
			resp, _ := do(http.MethodPost, "/api/invoke",
				`{"modelId":"`+llama+`","prompt":"Hi","params":{"warp_factor":9}}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("requires modelId and prompt", func() {
			resp, _ := do(http.MethodPost, "/api/invoke", `{"prompt":"Hi"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("streams SSE frames", func() {
			bedrock.Chunks = [][]byte{[]byte(`{"generation":"Yo","stop_reason":"stop"}`)}

			_, body := do(http.MethodPost, "/api/invoke", `{"modelId":"`+llama+`","prompt":"Hi","stream":true}`)
			Expect(body).To(ContainSubstring(`data: {"text":"Yo"}`))
			Expect(body).To(ContainSubstring("data: [DONE]"))
		})
	})

	Describe("catalog", func() {
		It("lists models filtered by provider", func() {
			resp, body := do(http.MethodGet, "/api/models?provider=anthropic", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			providers := gjson.Get(body, "models.#.provider").Array()
			Expect(providers).NotTo(BeEmpty())
			for _, p := range providers {
				Expect(p.String()).To(Equal("anthropic"))
			}
			Expect(gjson.Get(body, "providers").Array()).NotTo(BeEmpty())
		})

		It("gets a model by percent-encoded id", func() {
			resp, body := do(http.MethodGet, "/api/models/anthropic.claude-3-5-sonnet-20241022-v2%3A0", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "id").String()).To(Equal(sonnet))
		})

		It("returns 404 for unknown models", func() {
			resp, _ := do(http.MethodGet, "/api/models/nope", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("estimates cost from token counts", func() {
			resp, body := do(http.MethodPost, "/api/cost/estimate",
				`{"modelId":"`+sonnet+`","inputTokens":1000,"outputTokens":500}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "priced").Bool()).To(BeTrue())
			Expect(gjson.Get(body, "cost.totalCost").Float()).To(BeNumerically("~", 0.0105, 1e-9))
		})

		It("counts tokens from text", func() {
			_, body := do(http.MethodPost, "/api/cost/estimate", `{"modelId":"`+sonnet+`","inputText":"abcdefgh"}`)
			Expect(gjson.Get(body, "inputTokens").Int()).To(Equal(int64(2)))
			Expect(gjson.Get(body, "outputTokens").Int()).To(Equal(int64(0)))
		})
	})

	Describe("workflows", func() {
		It("lists the built-in templates", func() {
			_, body := do(http.MethodGet, "/api/workflow/templates", "")
			Expect(gjson.Get(body, "templates.#").Int()).To(Equal(int64(3)))
		})

		It("runs inline steps and chains their output", func() {
			bedrock.Body = []byte(`{"type":"message","content":[{"type":"text","text":"step output"}]}`)

			resp, body := do(http.MethodPost, "/api/workflow",
				`{"steps":[{"name":"One","systemPrompt":"First."},{"name":"Two","systemPrompt":"Second."}],"input":"topic"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "steps.#").Int()).To(Equal(int64(2)))
			Expect(gjson.Get(body, "output").String()).To(Equal("step output"))
			Expect(bedrock.Invocations()).To(HaveLen(2))
		})

		It("returns the partial result when a step fails", func() {
			bedrock.Err = &transport.VendorError{Transport: transport.Bedrock, StatusCode: 500, Body: "boom"}

			resp, body := do(http.MethodPost, "/api/workflow",
				`{"template":"Outline → Draft → Refine","input":"topic"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "steps.0.status").String()).To(Equal("failed"))
			Expect(gjson.Get(body, "error").String()).NotTo(BeEmpty())
		})

		It("rejects unknown templates", func() {
			resp, _ := do(http.MethodPost, "/api/workflow", `{"template":"nope","input":"x"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /api/compare", func() {
		It("returns one result per model", func() {
			bedrock.Body = []byte(`{"generation":"same","prompt_token_count":1,"generation_token_count":1}`)

			resp, body := do(http.MethodPost, "/api/compare",
				`{"models":["`+llama+`","meta.llama3-70b-instruct-v1:0"],"prompt":"Hi"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "results.#").Int()).To(Equal(int64(2)))
			Expect(gjson.Get(body, "results.0.text").String()).To(Equal("same"))
		})

		It("requires at least one model", func() {
			resp, _ := do(http.MethodPost, "/api/compare", `{"prompt":"Hi"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("conversations", func() {
		var conv *storage.Conversation

		BeforeEach(func() {
			conv = testutils.NewTestConversation("How do pods restart?", "Kubernetes restarts them.")
			Expect(driver.SaveConversation(context.Background(), conv)).To(Succeed())
		})

		It("lists and searches", func() {
			_, body := do(http.MethodGet, "/api/conversations", "")
			Expect(gjson.Get(body, "conversations.#").Int()).To(Equal(int64(1)))

			_, body = do(http.MethodGet, "/api/conversations?q=KUBERNETES", "")
			Expect(gjson.Get(body, "conversations.0.id").String()).To(Equal(conv.ID))

			_, body = do(http.MethodGet, "/api/conversations?q=terraform", "")
			Expect(gjson.Get(body, "conversations.#").Int()).To(Equal(int64(0)))
		})

		It("saves a new conversation", func() {
			resp, body := do(http.MethodPost, "/api/conversations",
				`{"model":"gpt-4o","messages":[{"role":"user","content":"Plan a trip"}]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(gjson.Get(body, "id").String()).NotTo(BeEmpty())
			Expect(gjson.Get(body, "title").String()).To(Equal("Plan a trip"))
		})

		It("rejects invalid roles", func() {
			resp, _ := do(http.MethodPost, "/api/conversations", `{"messages":[{"role":"robot","content":"x"}]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("gets and deletes by id", func() {
			resp, body := do(http.MethodGet, "/api/conversations/"+conv.ID, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "messages.#").Int()).To(Equal(int64(2)))

			resp, _ = do(http.MethodDelete, "/api/conversations/"+conv.ID, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp, _ = do(http.MethodGet, "/api/conversations/"+conv.ID, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("exports markdown as an attachment", func() {
			resp, body := do(http.MethodGet, "/api/conversations/"+conv.ID+"/export?format=md", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/markdown"))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring(".md"))
			Expect(body).To(HavePrefix("# How do pods restart?"))
			Expect(body).To(ContainSubstring("## Assistant"))
		})

		It("rejects unknown export formats", func() {
			resp, _ := do(http.MethodGet, "/api/conversations/"+conv.ID+"/export?format=pdf", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("usage", func() {
		BeforeEach(func() {
			ctx := context.Background()
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			for i, model := range []string{sonnet, llama} {
				Expect(driver.RecordUsage(ctx, &storage.UsageRecord{
					ModelID:      model,
					InputTokens:  100,
					OutputTokens: 50,
					Timestamp:    base.Add(time.Duration(i) * 48 * time.Hour),
				})).To(Succeed())
			}
		})

		It("lists records", func() {
			_, body := do(http.MethodGet, "/api/usage", "")
			Expect(gjson.Get(body, "records.#").Int()).To(Equal(int64(2)))
		})

		It("summarizes a date range with an inclusive end day", func() {
			resp, body := do(http.MethodGet, "/api/usage/summary?from=2024-05-01&to=2024-05-01", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "records").Int()).To(Equal(int64(1)))
			Expect(gjson.Get(body, "inputTokens").Int()).To(Equal(int64(100)))
		})

		It("summarizes everything without a range", func() {
			_, body := do(http.MethodGet, "/api/usage/summary", "")
			Expect(gjson.Get(body, "records").Int()).To(Equal(int64(2)))
			Expect(gjson.Get(body, "outputTokens").Int()).To(Equal(int64(100)))
		})

		It("rejects malformed dates", func() {
			resp, _ := do(http.MethodGet, "/api/usage/summary?from=yesterday", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("clears records", func() {
			resp, _ := do(http.MethodDelete, "/api/usage", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			recs, err := driver.ListUsage(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(BeEmpty())
		})
	})

	Describe("parameters", func() {
		path := "/api/parameters/" + llama

		It("returns defaults for unknown models", func() {
			_, body := do(http.MethodGet, path, "")
			Expect(gjson.Get(body, "params.max_tokens").Int()).To(Equal(int64(llm.DefaultMaxTokens)))
		})

		It("saves overrides on top of stored values and resets them", func() {
			resp, body := do(http.MethodPut, path, `{"max_tokens":512}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gjson.Get(body, "params.max_tokens").Int()).To(Equal(int64(512)))
			Expect(gjson.Get(body, "params.temperature").Float()).To(BeNumerically("~", llm.DefaultTemperature))

			_, body = do(http.MethodGet, path, "")
			Expect(gjson.Get(body, "params.max_tokens").Int()).To(Equal(int64(512)))

			resp, _ = do(http.MethodDelete, path, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			p, err := driver.GetParameters(context.Background(), llama)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(llm.DefaultParams()))
		})

		It("rejects out of range values", func() {
			resp, _ := do(http.MethodPut, path, `{"top_p":1.5}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})
})
