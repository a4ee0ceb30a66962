/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type gameState int

const (
	stateIdle gameState = iota
	stateLoading
	stateReady
)

func (s gameState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateLoading:
		return "loading"
	case stateReady:
		return "ready"
	default:
		return fmt.Sprintf("gameState(%d)", int(s))
	}
}

const loadFailedNotice = "Could not load a new board. Please try again."

type clickRequest struct {
	generation uint64
	row        int
	col        int
}

type loadResult struct {
	categories []Category
	err        error
}

// Game drives one viewer's board. Everything touching the board or the
// view happens on the goroutine running run.
type Game struct {
	source     ClueSource
	board      *Board
	view       *BoardView
	state      gameState
	showErrors bool
	logger     *log.Entry

	starts chan struct{}
	clicks chan clickRequest
	loaded chan loadResult
}

func newGame(cfg *Config, source ClueSource, surface Surface, logger *log.Entry) *Game {
	return &Game{
		source:     source,
		board:      NewBoard(cfg.categories, cfg.clues),
		view:       NewBoardView(surface, placeholderGlyph),
		state:      stateIdle,
		showErrors: cfg.showErrors,
		logger:     logger,
		starts:     make(chan struct{}),
		clicks:     make(chan clickRequest),
		loaded:     make(chan loadResult, 1),
	}
}

func (g *Game) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.starts:
			g.handleStart(ctx)
		case c := <-g.clicks:
			g.handleClick(c)
		case res := <-g.loaded:
			g.handleLoaded(res)
		}
	}
}

// Start asks the game loop to fetch and show a new board.
func (g *Game) Start(ctx context.Context) {
	select {
	case g.starts <- struct{}{}:
	case <-ctx.Done():
	}
}

// Click forwards a cell click to the game loop.
func (g *Game) Click(ctx context.Context, generation uint64, row, col int) {
	select {
	case g.clicks <- clickRequest{generation: generation, row: row, col: col}:
	case <-ctx.Done():
	}
}

func (g *Game) handleStart(ctx context.Context) {
	if g.state == stateLoading {
		g.logger.Debug("ignoring start while a board is loading")
		return
	}

	g.state = stateLoading
	g.view.ShowLoading()

	g.logger.WithFields(log.Fields{
		"categories": g.board.Columns(),
		"clues":      g.board.Rows(),
	}).Debug("loading board")

	go func() {
		started := time.Now()
		categories, err := g.load(ctx)
		if err == nil {
			g.logger.WithField("took", time.Since(started).Round(time.Millisecond)).Debug("loaded board")
		}
		g.loaded <- loadResult{categories: categories, err: err}
	}()
}

// load fetches every category concurrently. Either all of them arrive or
// the first error is returned and the rest are cancelled.
func (g *Game) load(ctx context.Context) ([]Category, error) {
	ids, err := g.source.CategoryIDs(ctx, g.board.Columns())
	if err != nil {
		return nil, err
	}

	categories := make([]Category, len(ids))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		eg.Go(func() error {
			c, err := g.source.Category(egCtx, id)
			if err != nil {
				return err
			}
			categories[i] = c
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (g *Game) handleLoaded(res loadResult) {
	if res.err != nil {
		g.logger.WithError(res.err).Warn("failed to load board")

		g.view.HideLoading()
		if g.showErrors {
			g.view.Notify(loadFailedNotice)
		}

		if g.board.Ready() {
			g.state = stateReady
		} else {
			g.state = stateIdle
		}

		return
	}

	if err := g.board.Reset(res.categories); err != nil {
		panic(fmt.Sprintf("clue source returned a malformed board: %v", err))
	}

	g.view.RenderFull(g.board, g.reveal)
	g.view.HideLoading()
	g.state = stateReady

	g.logger.WithField("titles", g.board.Titles()).Info("board ready")
}

func (g *Game) handleClick(c clickRequest) {
	if g.state != stateReady {
		g.logger.WithField("state", g.state).Debug("ignoring click outside of a ready board")
		return
	}

	if !g.view.Dispatch(c.generation, c.row, c.col) {
		g.logger.WithFields(log.Fields{
			"generation": c.generation,
			"row":        c.row,
			"col":        c.col,
		}).Debug("ignoring click on stale or unknown cell")
	}
}

func (g *Game) reveal(row, col int) RevealResult {
	res, err := g.board.RevealNext(row, col)
	if err != nil {
		panic(fmt.Sprintf("view dispatched a click the board cannot address: %v", err))
	}

	return res
}
