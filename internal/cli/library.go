package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/client"
	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/gamification"
)

type SearchCommand struct {
	clientOptions
	Query      string
	ISBN       string
	MaxResults int
}

func NewSearchCommand() *SearchCommand {
	return &SearchCommand{}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := newFlagSet("search", "search -q TEXT [-max N] | search -isbn ISBN [options]")
	cmd.register(fs)
	fs.StringVar(&cmd.Query, "q", "", "Free text catalog query")
	fs.StringVar(&cmd.ISBN, "isbn", "", "Look up a single ISBN")
	fs.IntVar(&cmd.MaxResults, "max", 10, "Maximum number of results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (cmd.Query == "") == (cmd.ISBN == "") {
		fs.Usage()
		return fmt.Errorf("exactly one of -q or -isbn is required")
	}
	if cmd.Query != "" && len([]rune(strings.TrimSpace(cmd.Query))) < 2 {
		return fmt.Errorf("query must be at least 2 characters")
	}
	return nil
}

func (cmd *SearchCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	w := cmd.writer()

	if cmd.ISBN != "" {
		hit, err := c.SearchISBN(ctx, cmd.ISBN)
		if err != nil {
			return err
		}
		printBook(w, hit.ToBook())
		return nil
	}

	hits, err := c.SearchCatalog(ctx, cmd.Query, cmd.MaxResults)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(w, "Aucun résultat.")
		return nil
	}
	for i, hit := range hits {
		isbn := hit.ISBN
		if isbn == "" {
			isbn = "-"
		}
		fmt.Fprintf(w, "%2d. %s — %s [%s]\n", i+1, hit.Title, hit.Authors, isbn)
	}
	return nil
}

type StatsCommand struct {
	clientOptions
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := newFlagSet("stats", "stats [options]")
	cmd.register(fs)
	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	s, err := c.Stats(ctx)
	if err != nil {
		return err
	}

	w := cmd.writer()
	fmt.Fprintf(w, "Livres:            %d\n", s.Total)
	fmt.Fprintf(w, "  lus:             %d\n", s.Read)
	fmt.Fprintf(w, "  en cours:        %d\n", s.Reading)
	fmt.Fprintf(w, "  à lire:          %d\n", s.ToRead)
	fmt.Fprintf(w, "  abandonnés:      %d\n", s.Abandoned)
	fmt.Fprintf(w, "Auteur favori:     %s\n", s.FavoriteAuthorLabel())
	fmt.Fprintf(w, "Catégorie favorite: %s\n", s.FavoriteCategoryLabel())
	fmt.Fprintf(w, "\nNiveau: %s\n", s.Level.Name)
	printProgress(w, s.Level.Percent)
	fmt.Fprintln(w, s.Level.Message)
	return nil
}

func printProgress(w io.Writer, percent int) {
	const width = 20
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	fmt.Fprintf(w, "[%s%s] %d%%\n", strings.Repeat("#", filled), strings.Repeat(".", width-filled), percent)
}

type BadgesCommand struct {
	clientOptions
}

func NewBadgesCommand() *BadgesCommand {
	return &BadgesCommand{}
}

func (cmd *BadgesCommand) ParseFlags(args []string) error {
	fs := newFlagSet("badges", "badges [options]")
	cmd.register(fs)
	return fs.Parse(args)
}

func (cmd *BadgesCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	resp, err := c.Badges(ctx)
	if err != nil {
		return err
	}

	w := cmd.writer()
	fmt.Fprintf(w, "%d/%d badges débloqués, %s\n\n", gamification.UnlockedCount(*resp), len(resp.Badges),
		formatCount(resp.TotalBooksRead, "livre lu", "livres lus"))
	for _, b := range resp.Badges {
		mark := " "
		if b.IsUnlocked {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] %-24s %3d%%", mark, b.Name, b.Progress)
		if !b.IsUnlocked {
			line += fmt.Sprintf("  encore %d", b.BooksNeeded)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// RecommendCommand prints the home screen: current reads, the reading list
// and AI recommendations enriched against the catalog.
type RecommendCommand struct {
	clientOptions
	Refresh bool
}

func NewRecommendCommand() *RecommendCommand {
	return &RecommendCommand{}
}

func (cmd *RecommendCommand) ParseFlags(args []string) error {
	fs := newFlagSet("recommend", "recommend [-refresh] [options]")
	cmd.register(fs)
	fs.BoolVar(&cmd.Refresh, "refresh", false, "Ask for a new list instead of the cached one")
	return fs.Parse(args)
}

func (cmd *RecommendCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	cfg := config.NewConfig()
	searcher := catalog.NewGoogleBooksClient(catalog.GoogleBooksConfig{
		BaseURL:           cfg.Catalog.GoogleBooksURL,
		APIKey:            cfg.Catalog.GoogleBooksAPIKey,
		Timeout:           cfg.Catalog.Timeout,
		MaxResults:        cfg.Catalog.MaxResults,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
	})

	ctx, cancel := commandContext()
	defer cancel()
	home, err := client.NewHomeFeed(c, searcher).Load(ctx, cmd.Refresh)
	if err != nil {
		return err
	}
	printHome(cmd.writer(), home)
	return nil
}

func printHome(w io.Writer, home *client.Home) {
	section := func(title string, books []entities.Book) {
		if len(books) == 0 {
			return
		}
		fmt.Fprintf(w, "%s\n", title)
		for _, b := range books {
			printBookLine(w, b)
		}
		fmt.Fprintln(w)
	}
	section("En cours", home.Reading)
	section("À lire", home.ToRead)

	switch {
	case home.ReadCount == 0:
		fmt.Fprintln(w, "Lisez un premier livre pour recevoir des recommandations.")
	case home.RecommendationsErr != nil:
		fmt.Fprintf(w, "Recommandations indisponibles: %v\n", home.RecommendationsErr)
	default:
		fmt.Fprintln(w, "Recommandé pour vous")
		for _, b := range home.Recommendations {
			fmt.Fprintf(w, "  %s — %s\n", b.Title, b.Author)
			if b.Memo != "" {
				fmt.Fprintf(w, "      %s\n", b.Memo)
			}
		}
	}
}

type SummaryCommand struct {
	clientOptions
	ID int64
}

func NewSummaryCommand() *SummaryCommand {
	return &SummaryCommand{}
}

func (cmd *SummaryCommand) ParseFlags(args []string) error {
	fs := newFlagSet("summary", "summary -id ID [options]")
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

func (cmd *SummaryCommand) Run() error {
	c, _, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	summary, err := c.Summary(ctx, cmd.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.writer(), summary.Summary)
	return nil
}

// PrefsCommand shows or changes the display preferences. Changes are saved
// on the server and mirrored in the local preference file.
type PrefsCommand struct {
	clientOptions
	Theme   int
	Picture string

	set map[string]bool
}

func NewPrefsCommand() *PrefsCommand {
	return &PrefsCommand{}
}

func (cmd *PrefsCommand) ParseFlags(args []string) error {
	fs := newFlagSet("prefs", "prefs [-theme N] [-picture NAME] [options]")
	cmd.register(fs)
	fs.IntVar(&cmd.Theme, "theme", 0, "Theme: 0 Clair, 1 Pomme, 2 Rose, 3 Sombre")
	fs.StringVar(&cmd.Picture, "picture", "", "Profile picture: "+strings.Join(entities.ProfilePictures, ", "))
	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.set = setFlags(fs)
	if cmd.set["theme"] && !entities.Theme(cmd.Theme).Valid() {
		return fmt.Errorf("invalid theme %d", cmd.Theme)
	}
	if cmd.set["picture"] && !entities.ValidProfilePicture(cmd.Picture) {
		return fmt.Errorf("invalid profile picture %q", cmd.Picture)
	}
	return nil
}

func (cmd *PrefsCommand) Run() error {
	c, local, err := cmd.open()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	current, err := c.Preferences(ctx)
	if err != nil {
		return err
	}
	prefs := *current
	if cmd.set["theme"] {
		prefs.Theme = entities.Theme(cmd.Theme)
	}
	if cmd.set["picture"] {
		prefs.ProfilePicture = cmd.Picture
	}
	if prefs != *current {
		saved, err := c.SavePreferences(ctx, prefs)
		if err != nil {
			return err
		}
		prefs = *saved
	}
	if err := local.SavePreferences(prefs); err != nil {
		return err
	}

	fmt.Fprintf(cmd.writer(), "Thème: %s\nPhoto de profil: %s\n", prefs.Theme, prefs.ProfilePicture)
	return nil
}
