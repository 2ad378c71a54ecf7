package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mrlokans/mylibrary/internal/client"
	"github.com/mrlokans/mylibrary/internal/entities"
)

const (
	EnvServer = "MYLIBRARY_SERVER"
	EnvPrefs  = "MYLIBRARY_PREFS"

	DefaultServer = "http://localhost:3000"

	commandTimeout = time.Minute
)

// Command is a subcommand of the mylibrary binary.
type Command interface {
	ParseFlags(args []string) error
	Run() error
}

// clientOptions are the flags shared by every command talking to a server.
type clientOptions struct {
	Server    string
	PrefsPath string

	out io.Writer
}

func (o *clientOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Server, "server", envOr(EnvServer, DefaultServer), "MyLibrary server URL (env "+EnvServer+")")
	fs.StringVar(&o.PrefsPath, "prefs", envOr(EnvPrefs, client.DefaultPrefsPath()), "Preference file holding the session (env "+EnvPrefs+")")
}

func (o *clientOptions) open() (*client.Client, *client.PrefsFile, error) {
	prefs, err := client.OpenPrefsFile(o.PrefsPath)
	if err != nil {
		return nil, nil, err
	}
	apiBase, imageBase := client.ServerURLs(o.Server)
	return client.New(client.Config{BaseURL: apiBase, ImageBaseURL: imageBase, Tokens: prefs}), prefs, nil
}

func (o *clientOptions) writer() io.Writer {
	if o.out == nil {
		return os.Stdout
	}
	return o.out
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s\n\nOptions:\n", os.Args[0], usage)
		fs.PrintDefaults()
	}
	return fs
}

func printBookLine(w io.Writer, b entities.Book) {
	note := "-"
	if b.Note != nil {
		note = fmt.Sprintf("%d/5", *b.Note)
	}
	fmt.Fprintf(w, "%5d  %-10s %-5s %s — %s\n", b.ID, b.Status, note, b.Title, b.Author)
}

func printBook(w io.Writer, b entities.Book) {
	fmt.Fprintf(w, "Titre:       %s\n", b.Title)
	fmt.Fprintf(w, "Auteur:      %s\n", b.Author)
	fmt.Fprintf(w, "Statut:      %s\n", b.Status)
	if b.Note != nil {
		fmt.Fprintf(w, "Note:        %d/5\n", *b.Note)
	}
	optional := []struct{ label, value string }{
		{"ISBN", b.ISBN},
		{"Éditeur", b.Publisher},
		{"Publication", b.PublishedDate},
		{"Langue", b.Language},
		{"Catégories", strings.Join(b.Categories, ", ")},
		{"Lu le", b.DateLecture},
		{"Couverture", b.ImageURL},
		{"Mémo", b.Memo},
	}
	for _, f := range optional {
		if f.value != "" {
			fmt.Fprintf(w, "%-12s %s\n", f.label+":", f.value)
		}
	}
	if b.PageCount != nil {
		fmt.Fprintf(w, "Pages:       %d\n", *b.PageCount)
	}
	if b.ID > 0 {
		fmt.Fprintf(w, "ID:          %d\n", b.ID)
	}
}

func parseStatus(raw string) (entities.BookStatus, error) {
	status := entities.BookStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q (à lire, en cours, lu, abandonné)", raw)
	}
	return status, nil
}
