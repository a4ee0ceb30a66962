package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestConfig(t *testing.T) (*Config, *test.Hook) {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	return &Config{
		apiTimeout:     5 * time.Second,
		apiURL:         "http://127.0.0.1",
		bind:           "127.0.0.1",
		cacheTTL:       time.Hour,
		categories:     6,
		clues:          5,
		poolSize:       100,
		port:           8080,
		sessionTimeout: time.Hour,
		log:            logger,
	}, hook
}

func makeCategories(columns, rows int) []Category {
	categories := make([]Category, columns)
	for col := range columns {
		clues := make([]Clue, rows)
		for row := range rows {
			clues[row] = Clue{
				Question: fmt.Sprintf("Q%d.%d", col, row),
				Answer:   fmt.Sprintf("A%d.%d", col, row),
			}
		}
		categories[col] = Category{Title: fmt.Sprintf("Cat%d", col), Clues: clues}
	}
	return categories
}

// stubSource serves a fixed set of categories, addressed by their index.
type stubSource struct {
	mu         sync.Mutex
	categories []Category
	idsErr     error
	failID     CategoryID
	failErr    error
	calls      int
}

func newStubSource(columns, rows int) *stubSource {
	return &stubSource{categories: makeCategories(columns, rows), failID: -1}
}

func (s *stubSource) CategoryIDs(ctx context.Context, count int) ([]CategoryID, error) {
	if s.idsErr != nil {
		return nil, s.idsErr
	}
	ids := make([]CategoryID, count)
	for i := range ids {
		ids[i] = CategoryID(i)
	}
	return ids, nil
}

func (s *stubSource) Category(ctx context.Context, id CategoryID) (Category, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if id == s.failID {
		return Category{}, &NetworkError{Op: fmt.Sprintf("fetch category %d", id), Err: s.failErr}
	}
	if int(id) >= len(s.categories) {
		return Category{}, &NetworkError{Op: "fetch category", Err: errors.New("no such category")}
	}

	c := s.categories[id]
	return Category{Title: c.Title, Clues: append([]Clue(nil), c.Clues...)}, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingSurface keeps the grid a viewer would currently see.
type recordingSurface struct {
	generation   uint64
	titles       []string
	cells        [][]string
	loading      bool
	loadingCalls int
	renders      int
	patches      int
	notices      []string
}

func (s *recordingSurface) RenderGrid(grid Grid) {
	s.renders++
	s.generation = grid.Generation
	s.titles = append([]string(nil), grid.Titles...)
	s.cells = make([][]string, grid.Rows)
	for row := range s.cells {
		s.cells[row] = make([]string, len(grid.Titles))
		for col := range s.cells[row] {
			s.cells[row][col] = grid.Placeholder
		}
	}
}

func (s *recordingSurface) PatchCell(generation uint64, row, col int, text string) {
	s.patches++
	if generation != s.generation {
		return
	}
	s.cells[row][col] = text
}

func (s *recordingSurface) SetLoading(active bool) {
	s.loadingCalls++
	s.loading = active
}

func (s *recordingSurface) Notice(message string) {
	s.notices = append(s.notices, message)
}

func (s *recordingSurface) snapshot() [][]string {
	out := make([][]string, len(s.cells))
	for i, row := range s.cells {
		out[i] = append([]string(nil), row...)
	}
	return out
}
