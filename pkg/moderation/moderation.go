// Package moderation implements the two LLM-backed collaborators of the
// mirror pipeline: the ad classifier and the text rewriter. Both degrade
// gracefully: classification fails open to news, rewriting falls back to the
// input text. A transient provider error never suppresses a legitimate post
// and never blocks a dispatch.
package moderation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/tinyland-inc/mirrorclaw/pkg/config"
	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
	"github.com/tinyland-inc/mirrorclaw/pkg/providers"
)

// Verdict is the classifier's decision for a text.
type Verdict int

const (
	News Verdict = iota
	Ad
)

func (v Verdict) String() string {
	if v == Ad {
		return "ad"
	}
	return "news"
}

const (
	// Texts shorter than this are never worth a classification call.
	minClassifyLength = 20
	// Texts shorter than this are passed through the rewriter unchanged.
	minRewriteLength = 10

	rewriteAttempts = 3
)

const classifySystemPrompt = `You analyze texts and decide whether a text is an advertisement or news.

An advertisement is:
- An offer of services or goods (buy, order, download, use)
- Promo codes and discounts
- Invitations to webinars or courses
- Product links (referral links, ref codes)
- Commercial calls to action (invest in this project, open an account)
- Spam and junk

News is:
- Information about events, facts, figures
- Financial news and quotes
- Economic information
- Industry events
- Analysis and discussion

Answer with EXACTLY one word: "ADVERTISEMENT" or "NEWS".
Write nothing else!`

const rewriteSystemPrompt = `You write posts for a Telegram news channel.
Your rules:
- Rephrase the news briefly and energetically
- AT MOST 280 characters (so it fits in one post)
- NO filler and no padding
- NO "according to", "as reported by" and similar clutter
- Only the substance and the facts
- You may open with one fitting emoji (optional)
- Answer ONLY with the post text, nothing else`

// Moderator bundles the classifier and rewriter over one provider.
type Moderator struct {
	provider providers.Provider
	model    string
}

func NewModerator(provider providers.Provider, cfg config.ProviderConfig) *Moderator {
	return &Moderator{
		provider: provider,
		model:    cfg.Model,
	}
}

// Classify decides whether text is an advertisement. Texts too short to
// classify and any provider failure yield News: the ad filter fails open so
// a transient API error never drops a legitimate story.
func (m *Moderator) Classify(ctx context.Context, text string) Verdict {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minClassifyLength {
		return News
	}

	temp := 0.3
	answer, err := m.provider.Complete(ctx, providers.CompletionRequest{
		System:      classifySystemPrompt,
		User:        "Decide: is this an advertisement or news?\n\n" + text,
		Model:       m.model,
		MaxTokens:   20,
		Temperature: &temp,
	})
	if err != nil {
		logger.WarnCF("moderation", "Ad classification failed, assuming news",
			map[string]any{"error": err.Error()})
		return News
	}

	if strings.Contains(strings.ToUpper(answer), "ADVERTISEMENT") {
		return Ad
	}
	return News
}

// Rewrite rephrases text for the destination channel. It retries a fixed
// number of times and falls back to the input on exhaustion or on an empty
// answer, so the caller never ends up dispatching an empty body.
func (m *Moderator) Rewrite(ctx context.Context, text string) string {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minRewriteLength {
		return text
	}

	temp := 0.6
	req := providers.CompletionRequest{
		System:      rewriteSystemPrompt,
		User:        "Rewrite in the style of a Telegram post:\n\n" + text,
		Model:       m.model,
		MaxTokens:   300,
		Temperature: &temp,
	}

	for attempt := 1; attempt <= rewriteAttempts; attempt++ {
		answer, err := m.provider.Complete(ctx, req)
		if err != nil {
			logger.WarnCF("moderation", "Rewrite attempt failed",
				map[string]any{"attempt": attempt, "error": err.Error()})
			continue
		}
		rewritten := strings.TrimSpace(answer)
		if rewritten == "" {
			logger.WarnCF("moderation", "Rewrite returned empty text",
				map[string]any{"attempt": attempt})
			continue
		}
		return rewritten
	}

	logger.WarnC("moderation", "Rewrite exhausted retries, keeping original text")
	return text
}
