/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
)

// RevealState tracks how much of a clue is showing. It only ever moves
// forward: Hidden, then Question, then Answer.
type RevealState int

const (
	Hidden RevealState = iota
	Question
	Answer
)

func (s RevealState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Question:
		return "question"
	case Answer:
		return "answer"
	default:
		return fmt.Sprintf("RevealState(%d)", int(s))
	}
}

type Clue struct {
	Question string
	Answer   string
	State    RevealState
}

type Category struct {
	Title string
	Clues []Clue
}

// RevealResult is the text a cell should now display. The zero value means
// the clue was already fully revealed and nothing changed.
type RevealResult struct {
	State RevealState
	Text  string
}

func (r RevealResult) Exhausted() bool {
	return r.State == Hidden
}

// Board is a grid of categories (columns) by clues (rows). It is owned by
// a single game loop and is not safe for concurrent use.
type Board struct {
	columns    int
	rows       int
	categories []Category
}

func NewBoard(columns, rows int) *Board {
	return &Board{
		columns: columns,
		rows:    rows,
	}
}

func (b *Board) Columns() int { return b.columns }

func (b *Board) Rows() int { return b.rows }

func (b *Board) Ready() bool {
	return len(b.categories) == b.columns && b.columns > 0
}

// Reset replaces the whole board. On a shape mismatch the current board is
// left untouched.
func (b *Board) Reset(categories []Category) error {
	if len(categories) != b.columns {
		return fmt.Errorf("%w: got %d categories, want %d", ErrInvalidBoardShape, len(categories), b.columns)
	}

	for i, c := range categories {
		if len(c.Clues) != b.rows {
			return fmt.Errorf("%w: category %d (%q) has %d clues, want %d", ErrInvalidBoardShape, i, c.Title, len(c.Clues), b.rows)
		}
	}

	fresh := make([]Category, len(categories))
	for i, c := range categories {
		fresh[i] = Category{
			Title: c.Title,
			Clues: append([]Clue(nil), c.Clues...),
		}
	}

	b.categories = fresh

	return nil
}

func (b *Board) clue(row, col int) (*Clue, error) {
	if !b.Ready() || col < 0 || col >= len(b.categories) || row < 0 || row >= len(b.categories[col].Clues) {
		return nil, fmt.Errorf("%w: row %d, col %d", ErrIndexOutOfRange, row, col)
	}

	return &b.categories[col].Clues[row], nil
}

// RevealNext advances the clue at (row, col) by exactly one step.
func (b *Board) RevealNext(row, col int) (RevealResult, error) {
	c, err := b.clue(row, col)
	if err != nil {
		return RevealResult{}, err
	}

	switch c.State {
	case Hidden:
		c.State = Question
		return RevealResult{State: Question, Text: c.Question}, nil
	case Question:
		c.State = Answer
		return RevealResult{State: Answer, Text: c.Answer}, nil
	default:
		return RevealResult{}, nil
	}
}

func (b *Board) CategoryAt(col int) (Category, error) {
	if !b.Ready() || col < 0 || col >= len(b.categories) {
		return Category{}, fmt.Errorf("%w: col %d", ErrIndexOutOfRange, col)
	}

	c := b.categories[col]

	return Category{
		Title: c.Title,
		Clues: append([]Clue(nil), c.Clues...),
	}, nil
}

func (b *Board) ClueAt(row, col int) (Clue, error) {
	c, err := b.clue(row, col)
	if err != nil {
		return Clue{}, err
	}

	return *c, nil
}

func (b *Board) Titles() []string {
	titles := make([]string, 0, len(b.categories))
	for _, c := range b.categories {
		titles = append(titles, c.Title)
	}

	return titles
}
