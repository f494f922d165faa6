// Package console implements the interactive numbered menu for recording
// and viewing feedback.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kalambet/complaintctl/internal/feedback"
)

// Sample values shown to the user. Input is never checked against them.
var (
	Products  = []string{"toys", "powder", "shampoo", "dress"}
	Companies = []string{"johnson", "fairy days", "dons", "kosin"}
)

const menuText = `
===== Complaint Management System =====
1. Add Review
2. Add Ranking
3. Add Complaint
4. View All Feedback
5. View Reviews Only
6. View Rankings Only
7. View Complaints Only
8. Exit
`

// Store is the subset of feedback.Store the menu drives.
type Store interface {
	Add(r feedback.Record) error
	List(kind feedback.Kind) []feedback.Record
	Len() int
}

// Result tells the loop whether to keep prompting.
type Result int

const (
	Continue Result = iota
	Exit
)

var addChoices = map[string]feedback.Kind{
	"1": feedback.KindReview,
	"2": feedback.KindRanking,
	"3": feedback.KindComplaint,
}

var viewChoices = map[string]feedback.Kind{
	"4": "",
	"5": feedback.KindReview,
	"6": feedback.KindRanking,
	"7": feedback.KindComplaint,
}

type line struct {
	text string
	err  error
}

// Handler maps one menu choice to its effect on the store.
type Handler struct {
	store Store
	in    *bufio.Reader
	out   io.Writer
	log   zerolog.Logger

	// ctx bounds every prompt; Run replaces it with its own context.
	ctx      context.Context
	lines    chan line
	readOnce sync.Once
}

// NewHandler creates a Handler reading answers from in and writing to out.
func NewHandler(store Store, in io.Reader, out io.Writer, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		in:    bufio.NewReader(in),
		out:   out,
		log:   log,
		ctx:   context.Background(),
		lines: make(chan line, 1),
	}
}

// Handle runs a single menu choice. Errors are store or input failures;
// an unrecognised choice is not an error.
func (h *Handler) Handle(choice string) (Result, error) {
	choice = strings.TrimSpace(choice)

	if kind, ok := addChoices[choice]; ok {
		return Continue, h.add(kind)
	}
	if kind, ok := viewChoices[choice]; ok {
		h.view(kind)
		return Continue, nil
	}
	if choice == "8" {
		fmt.Fprintln(h.out, "Exiting system...")
		return Exit, nil
	}

	fmt.Fprintln(h.out, "Invalid choice, try again.")
	return Continue, nil
}

func (h *Handler) add(kind feedback.Kind) error {
	fmt.Fprintf(h.out, "Available products: %s\n", strings.Join(Products, ", "))
	product, err := h.prompt("Enter product: ")
	if err != nil {
		return err
	}

	fmt.Fprintf(h.out, "Available companies: %s\n", strings.Join(Companies, ", "))
	company, err := h.prompt("Enter company: ")
	if err != nil {
		return err
	}

	message, err := h.prompt("Enter your message (or ranking number): ")
	if err != nil {
		return err
	}

	r := feedback.New(kind, strings.ToLower(company), strings.ToLower(product), message)
	if err := h.store.Add(r); err != nil {
		return fmt.Errorf("saving %s: %w", kind, err)
	}

	h.log.Info().Str("kind", string(kind)).Str("company", r.Company()).Str("product", r.Product()).Msg("feedback recorded")
	fmt.Fprintf(h.out, "%s saved successfully!\n", kind)
	return nil
}

func (h *Handler) view(kind feedback.Kind) {
	if h.store.Len() == 0 {
		fmt.Fprintln(h.out, "No feedback available.")
		return
	}
	for _, r := range h.store.List(kind) {
		fmt.Fprintln(h.out, r.String())
	}
}

// readLines feeds h.lines until the input fails, then closes it.
func (h *Handler) readLines() {
	defer close(h.lines)
	for {
		text, err := h.in.ReadString('\n')
		h.lines <- line{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// prompt writes label and reads one line without its line ending.
// A final line without a newline is returned before io.EOF is reported.
func (h *Handler) prompt(label string) (string, error) {
	fmt.Fprint(h.out, label)
	h.readOnce.Do(func() { go h.readLines() })

	select {
	case <-h.ctx.Done():
		return "", h.ctx.Err()
	case l, ok := <-h.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil && !(errors.Is(l.err, io.EOF) && l.text != "") {
			return "", l.err
		}
		return strings.TrimRight(l.text, "\r\n"), nil
	}
}

// Run shows the menu until the user exits, input ends or ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	h.ctx = ctx
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(h.out, menuText)
		choice, err := h.prompt("Enter choice: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(h.out)
				return nil
			}
			return fmt.Errorf("reading choice: %w", err)
		}

		res, err := h.Handle(choice)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(h.out)
				return nil
			}
			h.log.Error().Err(err).Msg("menu action failed")
			fmt.Fprintf(h.out, "Error: %v\n", err)
			continue
		}
		if res == Exit {
			return nil
		}
	}
}
