package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ahmad-watoo/ams-api/internal/models"
	"github.com/ahmad-watoo/ams-api/internal/service"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
	"github.com/ahmad-watoo/ams-api/pkg/response"
)

// LibraryHandler exposes catalogue and lending endpoints.
type LibraryHandler struct {
	library *service.LibraryService
}

// NewLibraryHandler constructs LibraryHandler.
func NewLibraryHandler(library *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// ListBooks godoc
// @Summary List books
// @Tags Library
// @Produce json
// @Param search query string false "Search by title, author or ISBN"
// @Param category query string false "Filter by category"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /library/books [get]
func (h *LibraryHandler) ListBooks(c *gin.Context) {
	var filter models.BookFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Category = c.Query("category")
	filter.Page, filter.PageSize = pageParams(c)

	books, pagination, err := h.library.ListBooks(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, books, pagination)
}

// GetBook godoc
// @Summary Get book
// @Tags Library
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.Envelope
// @Router /library/books/{id} [get]
func (h *LibraryHandler) GetBook(c *gin.Context) {
	book, err := h.library.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// CreateBook godoc
// @Summary Add a book to the catalogue
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body service.CreateBookRequest true "Book payload"
// @Success 201 {object} response.Envelope
// @Router /library/books [post]
func (h *LibraryHandler) CreateBook(c *gin.Context) {
	var req service.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	book, err := h.library.CreateBook(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, book)
}

// UpdateBook godoc
// @Summary Update a catalogue entry
// @Tags Library
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param payload body service.UpdateBookRequest true "Book payload"
// @Success 200 {object} response.Envelope
// @Router /library/books/{id} [put]
func (h *LibraryHandler) UpdateBook(c *gin.Context) {
	var req service.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	book, err := h.library.UpdateBook(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// Borrow godoc
// @Summary Borrow a book
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body service.BorrowBookRequest true "Borrow payload"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /library/borrowings [post]
func (h *LibraryHandler) Borrow(c *gin.Context) {
	var req service.BorrowBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	borrowing, err := h.library.Borrow(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, borrowing)
}

// Return godoc
// @Summary Return a borrowed book
// @Tags Library
// @Produce json
// @Param id path string true "Borrowing ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /library/borrowings/{id}/return [post]
func (h *LibraryHandler) Return(c *gin.Context) {
	borrowing, err := h.library.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, borrowing, nil)
}

// Renew godoc
// @Summary Renew a borrowing
// @Tags Library
// @Produce json
// @Param id path string true "Borrowing ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /library/borrowings/{id}/renew [post]
func (h *LibraryHandler) Renew(c *gin.Context) {
	borrowing, err := h.library.Renew(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, borrowing, nil)
}

// ListBorrowings godoc
// @Summary List borrowings
// @Tags Library
// @Produce json
// @Param bookId query string false "Filter by book"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /library/borrowings [get]
func (h *LibraryHandler) ListBorrowings(c *gin.Context) {
	var filter models.BorrowingFilter
	filter.BookID = c.Query("bookId")
	filter.StudentID = c.Query("studentId")
	filter.Status = c.Query("status")
	filter.Page, filter.PageSize = pageParams(c)

	borrowings, pagination, err := h.library.ListBorrowings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, borrowings, pagination)
}

// FlagOverdue godoc
// @Summary Flag overdue borrowings
// @Tags Library
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /library/borrowings/flag-overdue [post]
func (h *LibraryHandler) FlagOverdue(c *gin.Context) {
	flagged, err := h.library.FlagOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"flagged": flagged}, nil)
}
