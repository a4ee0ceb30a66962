/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	categoryCachePrefix  = "trivia:category:"
	categoryCacheVersion = 1
)

type cachedCategory struct {
	Version  int          `json:"version"`
	CachedAt time.Time    `json:"cachedAt"`
	Title    string       `json:"title"`
	Clues    []clueDetail `json:"clues"`
}

// cachedSource keeps category details in redis. Id sampling always goes
// upstream so that every board is a fresh draw.
type cachedSource struct {
	next   ClueSource
	redis  *redis.Client
	ttl    time.Duration
	clues  int
	logger *log.Logger
	now    func() time.Time
}

func newCachedSource(next ClueSource, rc *redis.Client, ttl time.Duration, clues int, logger *log.Logger) *cachedSource {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &cachedSource{
		next:   next,
		redis:  rc,
		ttl:    ttl,
		clues:  clues,
		logger: logger,
		now:    time.Now,
	}
}

func (c *cachedSource) CategoryIDs(ctx context.Context, count int) ([]CategoryID, error) {
	return c.next.CategoryIDs(ctx, count)
}

func (c *cachedSource) Category(ctx context.Context, id CategoryID) (Category, error) {
	key := categoryCacheKey(id)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if cat, ok := c.decode(raw); ok {
			c.logger.WithField("category", id).Debug("category cache hit")
			return cat, nil
		}
		c.logger.WithField("category", id).Warn("discarding unreadable category cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WithError(err).WithField("category", id).Warn("failed to read category cache entry")
	}

	cat, err := c.next.Category(ctx, id)
	if err != nil {
		return Category{}, err
	}

	c.store(ctx, key, cat)

	return cat, nil
}

func (c *cachedSource) decode(raw []byte) (Category, bool) {
	var entry cachedCategory
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		return Category{}, false
	}
	if entry.Version != categoryCacheVersion || len(entry.Clues) < c.clues {
		return Category{}, false
	}

	return categoryDetail{Title: entry.Title, Clues: entry.Clues}.toCategory(c.clues), true
}

func (c *cachedSource) store(ctx context.Context, key string, cat Category) {
	entry := cachedCategory{
		Version:  categoryCacheVersion,
		CachedAt: c.now().UTC(),
		Title:    cat.Title,
		Clues:    make([]clueDetail, 0, len(cat.Clues)),
	}
	for _, clue := range cat.Clues {
		entry.Clues = append(entry.Clues, clueDetail{Question: clue.Question, Answer: clue.Answer})
	}

	data, err := sonic.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("failed to marshal category cache entry")
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("failed to store category cache entry")
	}
}

func categoryCacheKey(id CategoryID) string {
	return categoryCachePrefix + strconv.FormatInt(int64(id), 10)
}
