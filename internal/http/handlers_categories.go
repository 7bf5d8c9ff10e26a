package http

import (
	"net/http"
	"strings"

	"daromad/internal/core"
	"daromad/internal/log"
)

type createCategoryRequest struct {
	Name     string            `json:"name"`
	Type     core.CategoryType `json:"type"`
	ParentID *int64            `json:"parent_id"`
}

type updateCategoryRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	IsActive *bool  `json:"is_active"`
}

// handleListCategories returns the tree of global and owned categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tree, err := s.deps.Categories.Tree(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(emptyIfNil(tree)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.deps.Categories.Create(r.Context(), core.Category{
		OwnerID:  &owner,
		Name:     sanitizeInput(req.Name),
		Type:     core.CategoryType(strings.ToUpper(strings.TrimSpace(string(req.Type)))),
		ParentID: req.ParentID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Category created",
		log.NewFields().WithOwner(owner).WithID("category_id", created.ID).WithOperation(log.OpCreate).ToSlice()...)
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
}

// handleUpdateCategory replaces name, parent and active flag of an owned
// category. Omitting is_active keeps the category active.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	updated, err := s.deps.Categories.Update(r.Context(), owner, core.Category{
		ID:       id,
		Name:     sanitizeInput(req.Name),
		ParentID: req.ParentID,
		IsActive: active,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(updated).Write(w)
}

// handleDeleteCategory removes an owned category and its subtree. Schedules
// that pointed at it fail at their next run instead of firing uncategorized.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Categories.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Category deleted",
		log.NewFields().WithOwner(owner).WithID("category_id", id).WithOperation(log.OpDelete).ToSlice()...)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
