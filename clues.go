/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Seednode/triviabox"

// CategoryID is opaque to everything but the ClueSource that issued it.
type CategoryID int64

type ClueSource interface {
	CategoryIDs(ctx context.Context, count int) ([]CategoryID, error)
	Category(ctx context.Context, id CategoryID) (Category, error)
}

type categorySummary struct {
	ID *int64 `json:"id"`
}

type categoryDetail struct {
	Title string       `json:"title"`
	Clues []clueDetail `json:"clues"`
}

type clueDetail struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// jserviceSource reads categories from a jservice-compatible api.
type jserviceSource struct {
	baseURL  string
	poolSize int
	clues    int
	client   *http.Client
	tracer   trace.Tracer
	shuffle  func(n int, swap func(i, j int))
}

func newJServiceSource(cfg *Config) *jserviceSource {
	return &jserviceSource{
		baseURL:  strings.TrimSuffix(cfg.apiURL, "/"),
		poolSize: cfg.poolSize,
		clues:    cfg.clues,
		client:   &http.Client{Timeout: cfg.apiTimeout},
		tracer:   otel.Tracer(tracerName),
		shuffle:  rand.Shuffle,
	}
}

func (s *jserviceSource) CategoryIDs(ctx context.Context, count int) ([]CategoryID, error) {
	ctx, span := s.tracer.Start(ctx, "clues.category_ids",
		trace.WithAttributes(
			attribute.Int("trivia.pool_size", s.poolSize),
			attribute.Int("trivia.count", count),
		))
	defer span.End()

	ids, err := s.categoryIDs(ctx, count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch category ids")
	}

	return ids, err
}

func (s *jserviceSource) categoryIDs(ctx context.Context, count int) ([]CategoryID, error) {
	const op = "fetch category ids"

	q := url.Values{}
	q.Set("count", strconv.Itoa(s.poolSize))

	body, err := s.get(ctx, "/categories", q)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var summaries []categorySummary
	if err := sonic.Unmarshal(body, &summaries); err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("decode category list: %w", err)}
	}

	pool := make([]CategoryID, 0, len(summaries))
	seen := make(map[CategoryID]bool, len(summaries))
	for i, c := range summaries {
		if c.ID == nil {
			return nil, &NetworkError{Op: op, Err: fmt.Errorf("category %d has no id", i)}
		}
		id := CategoryID(*c.ID)
		if seen[id] {
			continue
		}
		seen[id] = true
		pool = append(pool, id)
	}

	if len(pool) < count {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("only %d distinct categories available, need %d", len(pool), count)}
	}

	return sampleIDs(pool, count, s.shuffle), nil
}

// sampleIDs draws count ids from pool without replacement. The first count
// positions of a uniform shuffle are a uniform sample.
func sampleIDs(pool []CategoryID, count int, shuffle func(n int, swap func(i, j int))) []CategoryID {
	shuffled := append([]CategoryID(nil), pool...)
	shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:count]
}

func (s *jserviceSource) Category(ctx context.Context, id CategoryID) (Category, error) {
	ctx, span := s.tracer.Start(ctx, "clues.category",
		trace.WithAttributes(attribute.Int64("trivia.category_id", int64(id))))
	defer span.End()

	c, err := s.category(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch category")
	}

	return c, err
}

func (s *jserviceSource) category(ctx context.Context, id CategoryID) (Category, error) {
	op := fmt.Sprintf("fetch category %d", id)

	q := url.Values{}
	q.Set("id", strconv.FormatInt(int64(id), 10))

	body, err := s.get(ctx, "/category", q)
	if err != nil {
		return Category{}, &NetworkError{Op: op, Err: err}
	}

	var detail categoryDetail
	if err := sonic.Unmarshal(body, &detail); err != nil {
		return Category{}, &NetworkError{Op: op, Err: fmt.Errorf("decode category: %w", err)}
	}

	if detail.Clues == nil {
		return Category{}, &NetworkError{Op: op, Err: errors.New("category has no clue list")}
	}

	if len(detail.Clues) < s.clues {
		return Category{}, &NetworkError{Op: op, Err: fmt.Errorf("category has %d clues, need %d", len(detail.Clues), s.clues)}
	}

	return detail.toCategory(s.clues), nil
}

func (d categoryDetail) toCategory(n int) Category {
	clues := make([]Clue, n)
	for i, c := range d.Clues[:n] {
		clues[i] = Clue{
			Question: c.Question,
			Answer:   c.Answer,
			State:    Hidden,
		}
	}

	return Category{Title: d.Title, Clues: clues}
}

func (s *jserviceSource) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "triviabox/"+releaseVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, path)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}

const maxResponseSize = 4 << 20
