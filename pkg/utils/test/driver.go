package testutils

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/storage"
)

// NewTestConversation creates a two-message conversation for testing.
func NewTestConversation(question, answer string) *storage.Conversation {
	return &storage.Conversation{
		Model: "test-model",
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleUser, question),
			llm.NewTextMessage(llm.RoleAssistant, answer),
		},
	}
}

// DriverBehaviors registers the specs every storage.Driver must pass. It must
// be called from inside a container node; driver is invoked in BeforeEach and
// must return an empty store.
func DriverBehaviors(driver func() storage.Driver) {
	var (
		d   storage.Driver
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		d = driver()
	})

	Describe("conversations", func() {
		It("assigns id, title and timestamps on save", func() {
			conv := NewTestConversation("How do goroutines work?", "They are scheduled by the runtime.")
			Expect(d.SaveConversation(ctx, conv)).To(Succeed())

			Expect(conv.ID).NotTo(BeEmpty())
			Expect(conv.Title).To(Equal("How do goroutines work?"))
			Expect(conv.CreatedAt).NotTo(BeZero())

			got, err := d.GetConversation(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal(conv.Title))
			Expect(got.Model).To(Equal("test-model"))
			Expect(got.Messages).To(Equal(conv.Messages))
		})

		It("upserts and keeps the creation time", func() {
			conv := NewTestConversation("first", "reply")
			Expect(d.SaveConversation(ctx, conv)).To(Succeed())
			created := conv.CreatedAt

			update := &storage.Conversation{
				ID:       conv.ID,
				Title:    "Renamed",
				Model:    conv.Model,
				Messages: append(conv.Messages, llm.NewTextMessage(llm.RoleUser, "second")),
			}
			time.Sleep(5 * time.Millisecond)
			Expect(d.SaveConversation(ctx, update)).To(Succeed())

			got, err := d.GetConversation(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Renamed"))
			Expect(got.Messages).To(HaveLen(3))
			Expect(got.CreatedAt.UnixMilli()).To(Equal(created.UnixMilli()))
			Expect(got.UpdatedAt.After(got.CreatedAt)).To(BeTrue())

			all, err := d.ListConversations(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("lists the most recently updated first", func() {
			older := NewTestConversation("older", "a")
			Expect(d.SaveConversation(ctx, older)).To(Succeed())
			time.Sleep(5 * time.Millisecond)
			newer := NewTestConversation("newer", "b")
			Expect(d.SaveConversation(ctx, newer)).To(Succeed())

			all, err := d.ListConversations(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].ID).To(Equal(newer.ID))
			Expect(all[1].ID).To(Equal(older.ID))
		})

		It("searches titles and messages case-insensitively", func() {
			byTitle := NewTestConversation("Kubernetes deployment", "use a Deployment")
			byMessage := NewTestConversation("unrelated", "the KUBERNETES scheduler")
			neither := NewTestConversation("cooking", "add salt")
			for _, c := range []*storage.Conversation{byTitle, byMessage, neither} {
				Expect(d.SaveConversation(ctx, c)).To(Succeed())
			}

			found, err := d.SearchConversations(ctx, "kubernetes")
			Expect(err).NotTo(HaveOccurred())

			ids := []string{}
			for _, c := range found {
				ids = append(ids, c.ID)
			}
			Expect(ids).To(ConsistOf(byTitle.ID, byMessage.ID))
		})

		It("deletes conversations", func() {
			conv := NewTestConversation("bye", "ok")
			Expect(d.SaveConversation(ctx, conv)).To(Succeed())
			Expect(d.DeleteConversation(ctx, conv.ID)).To(Succeed())

			_, err := d.GetConversation(ctx, conv.ID)
			Expect(errors.Is(err, storage.ErrNotFound)).To(BeTrue())

			err = d.DeleteConversation(ctx, conv.ID)
			Expect(errors.Is(err, storage.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("usage", func() {
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		record := func(model, cost string, at time.Time) {
			Expect(d.RecordUsage(ctx, &storage.UsageRecord{
				ModelID:      model,
				InputTokens:  1000,
				OutputTokens: 500,
				TotalCost:    decimal.RequireFromString(cost),
				Timestamp:    at,
			})).To(Succeed())
		}

		BeforeEach(func() {
			record("a", "0.0105", base)
			record("b", "0.25", base.Add(24*time.Hour))
			record("a", "0.0005", base.Add(48*time.Hour))
		})

		It("lists records oldest first", func() {
			recs, err := d.ListUsage(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(3))
			Expect(recs[0].ModelID).To(Equal("a"))
			Expect(recs[0].ID).NotTo(BeEmpty())
			Expect(recs[1].ModelID).To(Equal("b"))
			Expect(recs[2].Timestamp.Equal(base.Add(48 * time.Hour))).To(BeTrue())

			Expect(storage.TotalCost(recs).String()).To(Equal("0.261"))
			Expect(storage.CostByModel(recs)["a"].String()).To(Equal("0.011"))
		})

		It("filters by inclusive date range", func() {
			recs, err := d.UsageBetween(ctx, base, base.Add(24*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))
			Expect(storage.TotalCost(recs).String()).To(Equal("0.2605"))
		})

		It("clears every record", func() {
			Expect(d.ClearUsage(ctx)).To(Succeed())
			recs, err := d.ListUsage(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(BeEmpty())
		})
	})

	Describe("parameters", func() {
		const model = "meta.llama3-1-8b-instruct-v1:0"

		It("returns defaults when nothing is stored", func() {
			p, err := d.GetParameters(ctx, model)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(llm.DefaultParams()))
		})

		It("saves, overwrites and resets", func() {
			topK := 40
			custom := llm.Params{Temperature: 0.2, MaxTokens: 512, TopP: 0.5, TopK: &topK, StopSequences: []string{"END"}}
			Expect(d.SaveParameters(ctx, model, custom)).To(Succeed())

			p, err := d.GetParameters(ctx, model)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(custom))

			custom.MaxTokens = 1024
			Expect(d.SaveParameters(ctx, model, custom)).To(Succeed())
			p, err = d.GetParameters(ctx, model)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.MaxTokens).To(Equal(1024))

			Expect(d.ResetParameters(ctx, model)).To(Succeed())
			p, err = d.GetParameters(ctx, model)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(llm.DefaultParams()))
		})
	})
}
