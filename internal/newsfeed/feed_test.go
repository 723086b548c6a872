package newsfeed

import (
	"context"
	"errors"
	"testing"

	"tradevision/internal/model"
)

// pagedSource serves a fixed article list in pages.
type pagedSource struct {
	articles []model.NewsItem
	err      error
	calls    int
}

func (s *pagedSource) News(_ context.Context, limit, page int) (model.NewsPage, error) {
	s.calls++
	if s.err != nil {
		return model.NewsPage{}, s.err
	}
	start := (page - 1) * limit
	end := start + limit
	if start > len(s.articles) {
		start = len(s.articles)
	}
	if end > len(s.articles) {
		end = len(s.articles)
	}
	return model.NewsPage{
		Items: s.articles[start:end],
		Total: len(s.articles),
		Page:  page,
		Limit: limit,
	}, nil
}

func articles(n int) []model.NewsItem {
	out := make([]model.NewsItem, n)
	for i := range out {
		out[i] = model.NewsItem{ID: int64(i + 1)}
	}
	return out
}

func TestFeed_PaginationAccumulates(t *testing.T) {
	src := &pagedSource{articles: articles(45)}
	feed := NewFeed(src, 20)

	if !feed.HasNext() {
		t.Fatal("fresh feed should report a next page")
	}

	more, err := feed.LoadNext(context.Background())
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if !more || len(feed.Items()) != 20 {
		t.Fatalf("page 1: expected 20 items and more pages, got %d more=%v", len(feed.Items()), more)
	}

	more, err = feed.LoadNext(context.Background())
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if !more || len(feed.Items()) != 40 {
		t.Fatalf("page 2: expected 40 items and more pages, got %d more=%v", len(feed.Items()), more)
	}

	more, err = feed.LoadNext(context.Background())
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if more {
		t.Error("expected no more pages after 45/45 items")
	}
	if feed.HasNext() {
		t.Error("HasNext should be false once everything is loaded")
	}

	items := feed.Items()
	if len(items) != 45 {
		t.Fatalf("expected 45 items, got %d", len(items))
	}
	for i, item := range items {
		if item.ID != int64(i+1) {
			t.Fatalf("item order broken at %d: %+v", i, item)
		}
	}

	// Exhausted feed: LoadNext becomes a no-op.
	calls := src.calls
	if _, err := feed.LoadNext(context.Background()); err != nil {
		t.Fatalf("no-op load: %v", err)
	}
	if src.calls != calls {
		t.Error("LoadNext on exhausted feed must not hit the source")
	}
}

func TestFeed_LoadError(t *testing.T) {
	src := &pagedSource{err: errors.New("boom")}
	feed := NewFeed(src, 20)

	if _, err := feed.LoadNext(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(feed.Items()) != 0 {
		t.Error("failed load must not add items")
	}
	if !feed.HasNext() {
		t.Error("failed load must leave the feed retryable")
	}
}

func TestFeed_RefreshResetsAccumulation(t *testing.T) {
	src := &pagedSource{articles: articles(45)}
	feed := NewFeed(src, 20)

	if _, err := feed.LoadNext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := feed.LoadNext(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.articles = articles(50) // five new articles published
	if err := feed.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(feed.Items()) != 20 {
		t.Errorf("refresh should keep only page 1, got %d items", len(feed.Items()))
	}
	if feed.Total() != 50 {
		t.Errorf("refresh should update total, got %d", feed.Total())
	}
	if !feed.HasNext() {
		t.Error("refreshed feed should page again from the start")
	}
}
