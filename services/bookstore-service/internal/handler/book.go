package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/payload"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
)

const (
	maxUploadBytes = 5 << 20
	imageField     = "image"
)

var errNotAnImage = errors.New("please upload an image file")

type BookHandler struct {
	bookUsecase usecase.BookUsecase
	validator   Validator
	logger      *zerolog.Logger
}

func NewBookHandler(bookUsecase usecase.BookUsecase, validator Validator, logger *zerolog.Logger) *BookHandler {
	return &BookHandler{
		bookUsecase: bookUsecase,
		validator:   validator,
		logger:      logger,
	}
}

// RegisterRoutes mounts the listing endpoints. requireAuth guards every write and my-books.
func (h *BookHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/", h.ListBooks)
	r.With(requireAuth).Get("/my-books", h.ListMyBooks)
	r.Get("/{id}", h.GetBook)

	r.With(requireAuth).Post("/", h.CreateBook)
	r.With(requireAuth).Put("/{id}", h.UpdateBook)
	r.With(requireAuth).Delete("/{id}", h.DeleteBook)
}

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	books, err := h.bookUsecase.ListBooks(r.Context(), usecase.ListBooksParams{
		Keyword:  query.Get("keyword"),
		Category: query.Get("category"),
	})
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.List(payload.NewBookDetailResponses(books)))
}

func (h *BookHandler) ListMyBooks(w http.ResponseWriter, r *http.Request) {
	callerID, ok := userID(w, r)
	if !ok {
		return
	}

	books, err := h.bookUsecase.ListMyBooks(r.Context(), callerID)
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.List(payload.NewBookResponses(books)))
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.bookUsecase.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{Success: true, Data: payload.NewBookDetailResponse(book)})
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	callerID, ok := userID(w, r)
	if !ok {
		return
	}

	var req payload.CreateBookRequest
	image, cleanup, ok := h.readBookRequest(w, r, &req, createBookFromForm)
	if !ok {
		return
	}
	defer cleanup()

	params := req.Params()
	params.Image = image

	book, err := h.bookUsecase.CreateBook(r.Context(), callerID, params)
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.Response{Success: true, Data: payload.NewBookResponse(book)})
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	callerID, ok := userID(w, r)
	if !ok {
		return
	}

	var req payload.UpdateBookRequest
	image, cleanup, ok := h.readBookRequest(w, r, &req, updateBookFromForm)
	if !ok {
		return
	}
	defer cleanup()

	params := req.Params()
	params.Image = image

	book, err := h.bookUsecase.UpdateBook(r.Context(), chi.URLParam(r, "id"), callerID, params)
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{Success: true, Data: payload.NewBookResponse(book)})
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	callerID, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.bookUsecase.DeleteBook(r.Context(), chi.URLParam(r, "id"), callerID); err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{Success: true, Data: struct{}{}})
}

// readBookRequest fills req from a multipart form (with an optional image) or a JSON
// body, then validates it. cleanup releases the uploaded file.
func (h *BookHandler) readBookRequest(
	w http.ResponseWriter,
	r *http.Request,
	req any,
	fromForm func(values map[string]string, req any) error,
) (*usecase.ImageUpload, func(), bool) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return nil, noop, decodeJSON(w, r, req, h.validator)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, noop, false
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	if err := fromForm(firstValues(r.MultipartForm), req); err != nil {
		cleanup()
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, noop, false
	}

	if !validatePayload(w, req, h.validator) {
		cleanup()
		return nil, noop, false
	}

	image, closeImage, err := openImage(r)
	if err != nil {
		cleanup()
		if errors.Is(err, errNotAnImage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, noop, false
		}
		writeUsecaseError(h.logger, w, r, err)
		return nil, noop, false
	}

	return image, func() {
		closeImage()
		cleanup()
	}, true
}

func firstValues(form *multipart.Form) map[string]string {
	values := make(map[string]string, len(form.Value))
	for key, v := range form.Value {
		if len(v) > 0 {
			values[key] = v[0]
		}
	}
	return values
}

// openImage returns the uploaded image, if any, after checking its content is an image.
func openImage(r *http.Request) (*usecase.ImageUpload, func(), error) {
	file, header, err := r.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, nil, fmt.Errorf("open uploaded image: %w", err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, nil, fmt.Errorf("read uploaded image: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		file.Close()
		return nil, nil, errNotAnImage
	}

	return &usecase.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Reader:      io.MultiReader(bytes.NewReader(head), file),
	}, func() { file.Close() }, nil
}

func createBookFromForm(values map[string]string, dst any) error {
	req := dst.(*payload.CreateBookRequest)

	req.Title = values["title"]
	req.Author = values["author"]
	req.Description = values["description"]
	req.Condition = values["condition"]
	req.Category = values["category"]

	var err error
	if req.Price, err = formFloat(values, "price"); err != nil {
		return err
	}
	if req.Stock, err = formInt(values, "stock"); err != nil {
		return err
	}
	return nil
}

func updateBookFromForm(values map[string]string, dst any) error {
	req := dst.(*payload.UpdateBookRequest)

	req.Title = formString(values, "title")
	req.Author = formString(values, "author")
	req.Description = formString(values, "description")
	req.Condition = formString(values, "condition")
	req.Category = formString(values, "category")
	req.Status = formString(values, "status")

	var err error
	if req.Price, err = formFloat(values, "price"); err != nil {
		return err
	}
	if req.Stock, err = formInt(values, "stock"); err != nil {
		return err
	}
	return nil
}

func formString(values map[string]string, key string) *string {
	v, ok := values[key]
	if !ok {
		return nil
	}
	return &v
}

func formFloat(values map[string]string, key string) (*float64, error) {
	v, ok := values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func formInt(values map[string]string, key string) (*int, error) {
	v, ok := values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
	return &i, nil
}
