package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/eventstream"
	"github.com/papercomputeco/relay/pkg/llm"
)

var _ = Describe("Event", func() {
	now := time.Unix(1735689600, 0).UTC()

	turn := llm.ConversationTurn{
		Provider: "openai",
		Family:   "openai",
		Request: &llm.ChatRequest{
			Model:    "gpt-4.1",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
		},
		Response: &llm.ChatResponse{Model: "gpt-4.1", Text: "hi"},
	}

	It("stamps schema, type, id and source", func() {
		ev := eventstream.NewTurnCompletedEvent(turn, eventstream.TurnRequestMeta{
			Path:        "/api/chat",
			StartedAt:   now.Add(-2 * time.Second),
			CompletedAt: now,
			Streaming:   true,
		}, now)

		Expect(ev.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(ev.EventType).To(Equal("relay.turn.completed"))
		Expect(ev.EventID).NotTo(BeEmpty())
		Expect(ev.Source).To(Equal(eventstream.EventSource{Transport: "openai", Family: "openai", Model: "gpt-4.1"}))
		Expect(ev.RequestMeta.DurationMs).To(Equal(int64(2000)))
	})

	It("marshals with the expected top-level keys", func() {
		ev := eventstream.NewTurnCompletedEvent(turn, eventstream.TurnRequestMeta{}, now)
		ev.Cost = &eventstream.TurnCost{Input: "0.003", Output: "0.0075", Total: "0.0105"}

		payload, err := json.Marshal(ev)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("request_meta"))
		Expect(got).To(HaveKeyWithValue("cost", HaveKeyWithValue("total", "0.0105")))
		Expect(got).To(HaveKey("turn"))
	})

	Describe("Validate", func() {
		It("accepts a stamped event", func() {
			Expect(eventstream.Validate(eventstream.NewTurnCompletedEvent(turn, eventstream.TurnRequestMeta{}, now))).To(Succeed())
		})

		It("rejects nil and incomplete envelopes", func() {
			Expect(eventstream.Validate(nil)).To(MatchError(eventstream.ErrNilTurnEvent))
			Expect(eventstream.Validate(&eventstream.TurnCompletedEvent{EventType: "x"})).To(MatchError(ContainSubstring("missing event id")))
			Expect(eventstream.Validate(&eventstream.TurnCompletedEvent{EventID: "x"})).To(MatchError(ContainSubstring("missing event type")))
		})
	})
})
