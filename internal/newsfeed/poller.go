package newsfeed

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tradevision/internal/model"
)

// Poller refreshes the feed on a cron schedule so the dashboard picks up
// newly published articles without user interaction.
type Poller struct {
	feed *Feed
	cron *cron.Cron
	log  *slog.Logger

	// OnChange receives the refreshed item list after every successful
	// refresh (optional).
	OnChange func(items []model.NewsItem)

	// OnRefresh is a metrics hook fired per successful refresh (optional).
	OnRefresh func()
}

// NewPoller creates a poller with a cron spec such as "@every 2m".
// Start must be called to begin polling.
func NewPoller(feed *Feed, spec string, log *slog.Logger) (*Poller, error) {
	if log == nil {
		log = slog.Default()
	}
	p := &Poller{feed: feed, cron: cron.New(), log: log}
	if _, err := p.cron.AddFunc(spec, p.refresh); err != nil {
		return nil, err
	}
	return p, nil
}

// Start begins the polling schedule.
func (p *Poller) Start() { p.cron.Start() }

// Stop halts the schedule and waits for a running refresh to finish.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
}

func (p *Poller) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := p.feed.Refresh(ctx); err != nil {
		p.log.Warn("news refresh failed", "err", err)
		return
	}
	if p.OnRefresh != nil {
		p.OnRefresh()
	}
	if p.OnChange != nil {
		p.OnChange(p.feed.Items())
	}
}
