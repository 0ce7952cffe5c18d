package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stocktrack/internal/auth"
	"stocktrack/internal/httputil"
	"stocktrack/internal/logging"
)

// Handler contains HTTP handlers for the inventory CRUD endpoints
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// List returns all items
// @Summary      List inventory
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Item
// @Router       /items [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	items, err := h.repo.List(r.Context())
	if err != nil {
		logger.Error("failed to list items", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load inventory", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	httputil.RespondJSON(w, items, http.StatusOK)
}

// Create adds a new item
// @Summary      Add an item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ItemInput true "Item fields"
// @Success      201 {object} Item
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Router       /items [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var in ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Warn("invalid item request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := in.Validate(); err != nil {
		logger.Warn("item validation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	username, _ := auth.GetUsernameFromContext(r.Context())

	item, err := h.repo.Create(r.Context(), in, username)
	if err != nil {
		logger.Error("failed to create item", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to add item", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	logger.Info("item created", "item_id", item.ID, "name", item.Name)

	httputil.RespondJSON(w, item, http.StatusCreated)
}

// Get returns one item
// @Summary      Get an item
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Item ID"
// @Success      200 {object} Item
// @Failure      404 {object} httputil.ErrorResponse "Item not found"
// @Router       /items/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid item id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	item, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "item not found", httputil.CodeItemNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get item", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load item", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	httputil.RespondJSON(w, item, http.StatusOK)
}

// Update overwrites an item
// @Summary      Update an item
// @Description  Overwrite an item's fields. Concurrent updates apply last-write-wins.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Item ID"
// @Param        request body ItemInput true "Item fields"
// @Success      200 {object} Item
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      404 {object} httputil.ErrorResponse "Item not found"
// @Router       /items/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid item id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	var in ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Warn("invalid item request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := in.Validate(); err != nil {
		logger.Warn("item validation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	username, _ := auth.GetUsernameFromContext(r.Context())

	item, err := h.repo.Update(r.Context(), id, in, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "item not found", httputil.CodeItemNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update item", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update item", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	logger.Info("item updated", "item_id", item.ID, "name", item.Name)

	httputil.RespondJSON(w, item, http.StatusOK)
}

// Delete removes an item
// @Summary      Delete an item
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Item ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "Item not found"
// @Router       /items/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid item id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "item not found", httputil.CodeItemNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete item", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete item", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	logger.Info("item deleted", "item_id", id)

	httputil.RespondJSON(w, map[string]string{"message": "item deleted"}, http.StatusOK)
}
