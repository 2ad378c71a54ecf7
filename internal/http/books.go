package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/ai"
	"github.com/mrlokans/mylibrary/internal/database/books"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/library"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/tasks"
)

const (
	MaxNote = 5

	maxTitleLength  = 512
	maxAuthorLength = 256
)

// BooksController serves the /api/livres endpoints.
type BooksController struct {
	store   BookStore
	queue   TaskQueue
	auditor Auditor
}

// NewBooksController creates a BooksController. queue may be nil, in which
// case new books are not enriched in the background.
func NewBooksController(store BookStore, queue TaskQueue, auditor Auditor) *BooksController {
	return &BooksController{store: store, queue: queue, auditor: auditorOrNop(auditor)}
}

func (bc *BooksController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/livres", bc.List)
	group.POST("/livres", bc.Create)
	group.GET("/livres/categories", bc.Categories)
	group.GET("/livres/home", bc.Home)
	group.GET("/livres/:id", bc.Get)
	group.PUT("/livres/:id", bc.Replace)
	group.PATCH("/livres/:id", bc.Patch)
	group.DELETE("/livres/:id", bc.Delete)
}

// bookPatch carries the fields a PATCH may change. Absent fields are kept.
type bookPatch struct {
	Status      *entities.BookStatus `json:"status"`
	Note        *int                 `json:"note"`
	Memo        *string              `json:"memo"`
	DateLecture *string              `json:"date_lecture"`
}

func validateStatus(status entities.BookStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return nil
}

func validateNote(note *int) error {
	if note != nil && (*note < 0 || *note > MaxNote) {
		return fmt.Errorf("note must be between 0 and %d", MaxNote)
	}
	return nil
}

// normalizeBook trims and validates a book sent by a client.
func normalizeBook(book *entities.Book) error {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	if book.Title == "" {
		return errors.New("titre is required")
	}
	if book.Author == "" {
		return errors.New("auteur is required")
	}
	if len(book.Title) > maxTitleLength || len(book.Author) > maxAuthorLength {
		return errors.New("titre or auteur is too long")
	}
	if book.Status == "" {
		book.Status = entities.StatusToRead
	}
	if err := validateStatus(book.Status); err != nil {
		return err
	}
	if err := validateNote(book.Note); err != nil {
		return err
	}
	book.Memo = ai.Sanitize(book.Memo)
	book.ISBN = strings.TrimSpace(book.ISBN)
	return nil
}

// List handles GET /api/livres?q=&status=&category=&sort=
func (bc *BooksController) List(c *gin.Context) {
	all, err := bc.store.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	filter := library.Filter{
		Query:    c.Query("q"),
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Sort:     library.ParseSort(c.Query("sort")),
	}
	c.JSON(http.StatusOK, filter.Apply(all))
}

// Categories handles GET /api/livres/categories
func (bc *BooksController) Categories(c *gin.Context) {
	all, err := bc.store.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, library.Categories(all))
}

// Home handles GET /api/livres/home
func (bc *BooksController) Home(c *gin.Context) {
	all, err := bc.store.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "home sections")
		return
	}
	c.JSON(http.StatusOK, library.Home(all))
}

func (bc *BooksController) Get(c *gin.Context) {
	book, ok := bc.loadBook(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, book)
}

// Create handles POST /api/livres
func (bc *BooksController) Create(c *gin.Context) {
	var book entities.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if err := normalizeBook(&book); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	userID := GetUserID(c)
	book.UserID = userID
	book.DateAjout = nil
	if err := bc.store.Create(&book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}
	bc.auditor.LogBook(userID, "book_create", book.ID, book.Title)

	if bc.queue != nil && book.MissingMetadata() {
		ids, err := bc.queue.Enqueue(c.Request.Context(), tasks.EnrichBookTask{BookID: book.ID, UserID: userID})
		log := logger.For(c.Request.Context()).WithField("book_id", book.ID)
		if err != nil {
			log.WithError(err).Warn("failed to enqueue enrichment")
		} else {
			log.WithField("task_id", ids[0]).Debug("enrichment enqueued")
		}
	}

	respondCreated(c, book)
}

// Replace handles PUT /api/livres/:id. Every editable field is replaced.
func (bc *BooksController) Replace(c *gin.Context) {
	existing, ok := bc.loadBook(c)
	if !ok {
		return
	}

	var book entities.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if err := normalizeBook(&book); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	book.ID = existing.ID
	book.UserID = existing.UserID
	if err := bc.store.Update(&book); err != nil {
		respondBookError(c, err, "update book")
		return
	}
	bc.auditor.LogBook(book.UserID, "book_update", book.ID, book.Title)

	updated, err := bc.store.GetForUser(book.UserID, book.ID)
	if err != nil {
		respondBookError(c, err, "reload book")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Patch handles PATCH /api/livres/:id for status, note, memo and reading date.
func (bc *BooksController) Patch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch bookPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updates := make(map[string]any)
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		updates["status"] = *patch.Status
	}
	if patch.Note != nil {
		if err := validateNote(patch.Note); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		updates["note"] = *patch.Note
	}
	if patch.Memo != nil {
		updates["memo"] = ai.Sanitize(*patch.Memo)
	}
	if patch.DateLecture != nil {
		updates["date_lecture"] = strings.TrimSpace(*patch.DateLecture)
	}

	userID := GetUserID(c)
	book, err := bc.store.UpdateFields(userID, id, updates)
	if err != nil {
		respondBookError(c, err, "patch book")
		return
	}
	if len(updates) > 0 {
		bc.auditor.LogBook(userID, "book_update", book.ID, book.Title)
	}
	c.JSON(http.StatusOK, book)
}

// Delete handles DELETE /api/livres/:id
func (bc *BooksController) Delete(c *gin.Context) {
	book, ok := bc.loadBook(c)
	if !ok {
		return
	}
	if err := bc.store.Delete(book.UserID, book.ID); err != nil {
		respondBookError(c, err, "delete book")
		return
	}
	bc.auditor.LogBook(book.UserID, "book_delete", book.ID, book.Title)
	respondSuccess(c, "Livre supprimé")
}

// loadBook resolves the :id parameter to one of the caller's books, writing
// the error response itself when that fails.
func (bc *BooksController) loadBook(c *gin.Context) (*entities.Book, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	book, err := bc.store.GetForUser(GetUserID(c), id)
	if err != nil {
		respondBookError(c, err, "get book")
		return nil, false
	}
	return book, true
}

func respondBookError(c *gin.Context, err error, context string) {
	if errors.Is(err, books.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	respondInternalError(c, err, context)
}
