package discord

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"level_checkin_bot/internal/leaderboard"
)

const (
	pageSize  = 10
	pagerIdle = 2 * time.Minute

	pagerPrevID = "lb_prev"
	pagerNextID = "lb_next"
)

type pagerEntry struct {
	scores  []leaderboard.Score
	period  leaderboard.Period
	page    int
	touched time.Time
}

// pager keeps the leaderboard paging state per reply message. Entries idle
// past pagerIdle are dropped, leaving the buttons inert.
type pager struct {
	mu      sync.Mutex
	entries map[string]*pagerEntry
}

func newPager() *pager {
	return &pager{entries: make(map[string]*pagerEntry)}
}

func (p *pager) put(messageID string, scores []leaderboard.Score, period leaderboard.Period, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prune(now)
	p.entries[messageID] = &pagerEntry{
		scores:  scores,
		period:  period,
		page:    0,
		touched: now,
	}
}

// turn flips the page for the given message and returns the new content, or
// false when the pager is gone or expired.
func (p *pager) turn(messageID, direction string, now time.Time) (string, []discordgo.MessageComponent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prune(now)
	entry, ok := p.entries[messageID]
	if !ok {
		return "", nil, false
	}

	last := lastPage(len(entry.scores))
	switch direction {
	case pagerPrevID:
		if entry.page > 0 {
			entry.page--
		}
	case pagerNextID:
		if entry.page < last {
			entry.page++
		}
	}
	entry.touched = now

	return formatPage(entry.scores, entry.period, entry.page), pagerButtons(entry.page, last), true
}

func (p *pager) prune(now time.Time) {
	for id, entry := range p.entries {
		if now.Sub(entry.touched) > pagerIdle {
			delete(p.entries, id)
		}
	}
}

// renderFirst formats page zero without registering state; the caller
// registers it under the reply's message ID once that is known.
func (p *pager) renderFirst(scores []leaderboard.Score, period leaderboard.Period) (string, []discordgo.MessageComponent) {
	return formatPage(scores, period, 0), pagerButtons(0, lastPage(len(scores)))
}

func lastPage(total int) int {
	if total == 0 {
		return 0
	}
	return (total - 1) / pageSize
}

func formatPage(scores []leaderboard.Score, period leaderboard.Period, page int) string {
	start := page * pageSize
	end := start + pageSize
	if end > len(scores) {
		end = len(scores)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", period.Title())

	medals := map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}
	for n, score := range scores[start:end] {
		rank := start + n + 1
		marker := ""
		if score.Overridden {
			marker = " 📌"
		}
		if medal, ok := medals[rank]; ok {
			fmt.Fprintf(&b, "%s %s: **%d**%s\n", medal, score.Username, score.Total, marker)
			continue
		}
		fmt.Fprintf(&b, "%d. %s: **%d**%s\n", rank, score.Username, score.Total, marker)
	}

	fmt.Fprintf(&b, "\nPage %d/%d", page+1, lastPage(len(scores))+1)
	return b.String()
}

func pagerButtons(page, last int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀ Prev",
					Style:    discordgo.SecondaryButton,
					CustomID: pagerPrevID,
					Disabled: page <= 0,
				},
				discordgo.Button{
					Label:    "Next ▶",
					Style:    discordgo.SecondaryButton,
					CustomID: pagerNextID,
					Disabled: page >= last,
				},
			},
		},
	}
}

func (c *Client) handlePagerTurn(i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	if customID != pagerPrevID && customID != pagerNextID {
		return
	}
	if i.Message == nil {
		return
	}

	content, components, ok := c.pager.turn(i.Message.ID, customID, c.clock())
	if !ok {
		// Expired pager: acknowledge so the click does not error, change
		// nothing.
		if err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			c.logger.WithField("event", "pager_ack_failed").WithError(err).Warn("could not acknowledge expired pager")
		}
		return
	}

	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	})
	if err != nil {
		c.logger.WithField("event", "pager_update_failed").WithError(err).Warn("could not update leaderboard page")
	}
}
