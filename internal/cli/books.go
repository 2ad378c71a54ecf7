package cli

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrlokans/mylibrary/internal/client"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/library"
)

type BooksCommand struct {
	clientOptions
	Query      string
	Status     string
	Category   string
	Sort       string
	Categories bool
}

func NewBooksCommand() *BooksCommand {
	return &BooksCommand{}
}

func (cmd *BooksCommand) ParseFlags(args []string) error {
	fs := newFlagSet("books", "books [-q TEXT] [-status STATUS] [-category NAME] [-sort ORDER] [options]")
	cmd.register(fs)
	fs.StringVar(&cmd.Query, "q", "", "Search in title and author")
	fs.StringVar(&cmd.Status, "status", "", "Only books with this status (à lire, en cours, lu, abandonné)")
	fs.StringVar(&cmd.Category, "category", "", "Only books in this category")
	fs.StringVar(&cmd.Sort, "sort", "", "Sort order: title, date, note")
	fs.BoolVar(&cmd.Categories, "categories", false, "List the categories of the library instead of books")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Status != "" {
		if _, err := parseStatus(cmd.Status); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *BooksCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	w := cmd.writer()

	if cmd.Categories {
		categories, err := c.Categories(ctx)
		if err != nil {
			return err
		}
		for _, name := range categories {
			fmt.Fprintln(w, name)
		}
		return nil
	}

	books, err := c.Books(ctx, client.BookFilter{
		Query:    cmd.Query,
		Status:   cmd.Status,
		Category: cmd.Category,
		Sort:     library.ParseSort(cmd.Sort),
	})
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(w, "Aucun livre.")
		return nil
	}
	for _, b := range books {
		printBookLine(w, b)
	}
	fmt.Fprintf(w, "\n%s\n", formatCount(len(books), "livre", "livres"))
	return nil
}

type ShowBookCommand struct {
	clientOptions
	ID int64
}

func NewShowBookCommand() *ShowBookCommand {
	return &ShowBookCommand{}
}

func (cmd *ShowBookCommand) ParseFlags(args []string) error {
	fs := newFlagSet("show", "show -id ID [options]")
	cmd.register(fs)
	fs.Int64Var(&cmd.ID, "id", 0, "Book id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.ID <= 0 {
		fs.Usage()
		return fmt.Errorf("id is required")
	}
	return nil
}

func (cmd *ShowBookCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	book, err := c.Book(ctx, cmd.ID)
	if err != nil {
		return err
	}
	printBook(cmd.writer(), *book)
	return nil
}

// AddBookCommand saves a book, optionally prefilled from the catalog by ISBN.
// Explicit flags win over catalog data.
type AddBookCommand struct {
	clientOptions
	Title      string
	Author     string
	ISBN       string
	Status     string
	Note       int
	Memo       string
	Categories string
	Lookup     bool

	set map[string]bool
}

func NewAddBookCommand() *AddBookCommand {
	return &AddBookCommand{}
}

func (cmd *AddBookCommand) ParseFlags(args []string) error {
	fs := newFlagSet("add", "add -title TITLE -author AUTHOR [options] | add -isbn ISBN -lookup [options]")
	cmd.register(fs)
	fs.StringVar(&cmd.Title, "title", "", "Title")
	fs.StringVar(&cmd.Author, "author", "", "Author")
	fs.StringVar(&cmd.ISBN, "isbn", "", "ISBN-10 or ISBN-13")
	fs.StringVar(&cmd.Status, "status", string(entities.StatusToRead), "Reading status")
	fs.IntVar(&cmd.Note, "note", 0, "Rating from 0 to 5")
	fs.StringVar(&cmd.Memo, "memo", "", "Personal note")
	fs.StringVar(&cmd.Categories, "categories", "", "Comma separated categories")
	fs.BoolVar(&cmd.Lookup, "lookup", false, "Prefill the book from the catalog using -isbn")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.set = setFlags(fs)

	if cmd.Lookup && cmd.ISBN == "" {
		fs.Usage()
		return fmt.Errorf("-lookup needs -isbn")
	}
	if !cmd.Lookup && (strings.TrimSpace(cmd.Title) == "" || strings.TrimSpace(cmd.Author) == "") {
		fs.Usage()
		return fmt.Errorf("title and author are required")
	}
	if _, err := parseStatus(cmd.Status); err != nil {
		return err
	}
	if cmd.Note < entities.MinNote || cmd.Note > entities.MaxNote {
		return fmt.Errorf("note must be between %d and %d", entities.MinNote, entities.MaxNote)
	}
	return nil
}

func (cmd *AddBookCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	var book entities.Book
	if cmd.Lookup {
		hit, err := c.SearchISBN(ctx, cmd.ISBN)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", cmd.ISBN, err)
		}
		book = hit.ToBook()
	}
	cmd.apply(&book)

	saved, err := c.AddBook(ctx, book)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.writer(), "Livre ajouté (id %d)\n\n", saved.ID)
	printBook(cmd.writer(), *saved)
	return nil
}

func (cmd *AddBookCommand) apply(book *entities.Book) {
	if cmd.Title != "" {
		book.Title = strings.TrimSpace(cmd.Title)
	}
	if cmd.Author != "" {
		book.Author = strings.TrimSpace(cmd.Author)
	}
	if cmd.ISBN != "" {
		book.ISBN = cmd.ISBN
	}
	book.Status = entities.BookStatus(cmd.Status)
	if cmd.set["note"] {
		note := cmd.Note
		book.Note = &note
	}
	if cmd.Memo != "" {
		book.Memo = cmd.Memo
	}
	if cmd.Categories != "" {
		book.Categories = splitList(cmd.Categories)
	}
}

// UpdateBookCommand patches only the flags given on the command line.
type UpdateBookCommand struct {
	clientOptions
	ID          int64
	Status      string
	Note        int
	Memo        string
	DateLecture string

	set map[string]bool
}

func NewUpdateBookCommand() *UpdateBookCommand {
	return &UpdateBookCommand{}
}

func (cmd *UpdateBookCommand) ParseFlags(args []string) error {
	fs := newFlagSet("update", "update -id ID [-status S] [-note N] [-memo TEXT] [-read-on DATE] [options]")
	cmd.register(fs)
	fs.Int64Var(&cmd.ID, "id", 0, "Book id (required)")
	fs.StringVar(&cmd.Status, "status", "", "New reading status")
	fs.IntVar(&cmd.Note, "note", 0, "New rating from 0 to 5")
	fs.StringVar(&cmd.Memo, "memo", "", "New personal note, empty to clear")
	fs.StringVar(&cmd.DateLecture, "read-on", "", "Date the book was read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.set = setFlags(fs)

	if cmd.ID <= 0 {
		fs.Usage()
		return fmt.Errorf("id is required")
	}
	if cmd.set["status"] {
		if _, err := parseStatus(cmd.Status); err != nil {
			return err
		}
	}
	if cmd.set["note"] && (cmd.Note < entities.MinNote || cmd.Note > entities.MaxNote) {
		return fmt.Errorf("note must be between %d and %d", entities.MinNote, entities.MaxNote)
	}
	if len(cmd.set) == 1 {
		return fmt.Errorf("nothing to update")
	}
	return nil
}

func (cmd *UpdateBookCommand) patch() client.BookPatch {
	var p client.BookPatch
	if cmd.set["status"] {
		status := entities.BookStatus(strings.TrimSpace(cmd.Status))
		p.Status = &status
	}
	if cmd.set["note"] {
		note := cmd.Note
		p.Note = &note
	}
	if cmd.set["memo"] {
		memo := cmd.Memo
		p.Memo = &memo
	}
	if cmd.set["read-on"] {
		date := cmd.DateLecture
		p.DateLecture = &date
	}
	return p
}

func (cmd *UpdateBookCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	saved, err := c.PatchBook(ctx, cmd.ID, cmd.patch())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.writer(), "Livre mis à jour")
	printBookLine(cmd.writer(), *saved)
	return nil
}

type DeleteBookCommand struct {
	clientOptions
	ID int64
}

func NewDeleteBookCommand() *DeleteBookCommand {
	return &DeleteBookCommand{}
}

func (cmd *DeleteBookCommand) ParseFlags(args []string) error {
	fs := newFlagSet("delete", "delete -id ID [options]")
	cmd.register(fs)
	fs.Int64Var(&cmd.ID, "id", 0, "Book id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.ID <= 0 {
		fs.Usage()
		return fmt.Errorf("id is required")
	}
	return nil
}

func (cmd *DeleteBookCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	msg, err := c.DeleteBook(ctx, cmd.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.writer(), msg)
	return nil
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatCount(n int, singular, plural string) string {
	if n <= 1 {
		return strconv.Itoa(n) + " " + singular
	}
	return strconv.Itoa(n) + " " + plural
}
