package main

import (
	"errors"
	"testing"
)

func readyBoard(t *testing.T) *Board {
	t.Helper()

	b := NewBoard(6, 5)
	if err := b.Reset(makeCategories(6, 5)); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	return b
}

func TestRevealNextProgression(t *testing.T) {
	b := readyBoard(t)

	for row := range b.Rows() {
		for col := range b.Columns() {
			clue, err := b.ClueAt(row, col)
			if err != nil {
				t.Fatalf("ClueAt(%d, %d) failed: %v", row, col, err)
			}

			res, err := b.RevealNext(row, col)
			if err != nil {
				t.Fatalf("first RevealNext(%d, %d) failed: %v", row, col, err)
			}
			if res.State != Question || res.Text != clue.Question {
				t.Fatalf("first reveal = %+v, want question %q", res, clue.Question)
			}

			res, err = b.RevealNext(row, col)
			if err != nil {
				t.Fatalf("second RevealNext(%d, %d) failed: %v", row, col, err)
			}
			if res.State != Answer || res.Text != clue.Answer {
				t.Fatalf("second reveal = %+v, want answer %q", res, clue.Answer)
			}

			for range 3 {
				res, err = b.RevealNext(row, col)
				if err != nil {
					t.Fatalf("extra RevealNext(%d, %d) failed: %v", row, col, err)
				}
				if !res.Exhausted() {
					t.Fatalf("expected exhausted result, got %+v", res)
				}
			}

			after, _ := b.ClueAt(row, col)
			if after.State != Answer {
				t.Fatalf("state after exhausted reveals = %s, want answer", after.State)
			}
		}
	}
}

func TestRevealNextOnlyTouchesAddressedClue(t *testing.T) {
	b := readyBoard(t)

	if _, err := b.RevealNext(2, 3); err != nil {
		t.Fatalf("RevealNext failed: %v", err)
	}

	for row := range b.Rows() {
		for col := range b.Columns() {
			clue, _ := b.ClueAt(row, col)
			want := Hidden
			if row == 2 && col == 3 {
				want = Question
			}
			if clue.State != want {
				t.Fatalf("clue (%d, %d) state = %s, want %s", row, col, clue.State, want)
			}
		}
	}
}

func TestRevealNextOutOfRange(t *testing.T) {
	b := readyBoard(t)

	cases := []struct{ row, col int }{
		{-1, 0}, {0, -1}, {5, 0}, {0, 6}, {100, 100},
	}

	for _, tc := range cases {
		if _, err := b.RevealNext(tc.row, tc.col); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("RevealNext(%d, %d) error = %v, want ErrIndexOutOfRange", tc.row, tc.col, err)
		}
	}

	empty := NewBoard(6, 5)
	if _, err := empty.RevealNext(0, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("RevealNext on empty board error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestResetRejectsMalformedShapes(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
	}{
		{"nil", nil},
		{"too few categories", makeCategories(5, 5)},
		{"too many categories", makeCategories(7, 5)},
		{"all too few clues", makeCategories(6, 4)},
		{"all too many clues", makeCategories(6, 6)},
		{"one short category", func() []Category {
			c := makeCategories(6, 5)
			c[4].Clues = c[4].Clues[:3]
			return c
		}()},
		{"one long category", func() []Category {
			c := makeCategories(6, 5)
			c[0].Clues = append(c[0].Clues, Clue{Question: "extra"})
			return c
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := readyBoard(t)
			before := b.Titles()

			err := b.Reset(tt.categories)
			if !errors.Is(err, ErrInvalidBoardShape) {
				t.Fatalf("Reset error = %v, want ErrInvalidBoardShape", err)
			}

			after := b.Titles()
			if len(after) != len(before) || !b.Ready() {
				t.Fatalf("rejected Reset changed the board: %v -> %v", before, after)
			}
		})
	}
}

func TestResetReplacesWholesale(t *testing.T) {
	b := readyBoard(t)

	if _, err := b.RevealNext(0, 0); err != nil {
		t.Fatalf("RevealNext failed: %v", err)
	}

	fresh := makeCategories(6, 5)
	fresh[0].Title = "Fresh"
	if err := b.Reset(fresh); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	clue, _ := b.ClueAt(0, 0)
	if clue.State != Hidden {
		t.Fatalf("state after reset = %s, want hidden", clue.State)
	}

	cat, err := b.CategoryAt(0)
	if err != nil {
		t.Fatalf("CategoryAt failed: %v", err)
	}
	if cat.Title != "Fresh" {
		t.Fatalf("title = %q, want Fresh", cat.Title)
	}

	// The board keeps its own copy of the input.
	fresh[0].Clues[1].Question = "mutated"
	clue, _ = b.ClueAt(1, 0)
	if clue.Question == "mutated" {
		t.Fatal("board shares clue storage with Reset input")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	b := readyBoard(t)

	cat, _ := b.CategoryAt(2)
	cat.Clues[0].State = Answer

	clue, _ := b.ClueAt(0, 2)
	if clue.State != Hidden {
		t.Fatalf("mutating CategoryAt result leaked into board: %s", clue.State)
	}

	if _, err := b.CategoryAt(6); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("CategoryAt(6) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestRevealStateString(t *testing.T) {
	for state, want := range map[RevealState]string{
		Hidden:         "hidden",
		Question:       "question",
		Answer:         "answer",
		RevealState(9): "RevealState(9)",
	} {
		if got := state.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
}
