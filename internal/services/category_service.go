package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"daromad/internal/core"
)

// maxCategoryDepth bounds ancestor walks so corrupt data cannot loop forever.
const maxCategoryDepth = 64

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	ListVisibleCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
}

// CategoryNode is a category with its visible subcategories.
type CategoryNode struct {
	core.Category
	FullPath string          `json:"full_path"`
	Children []*CategoryNode `json:"children,omitempty"`
}

type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// Create validates a new category against its parent and stores it.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.IsActive = true

	parent, err := s.parentOf(ctx, c.ParentID)
	if err != nil {
		return core.Category{}, err
	}
	if err := c.Validate(parent); err != nil {
		return core.Category{}, err
	}
	return s.store.CreateCategory(ctx, c)
}

// Update renames, reparents or toggles a category owned by ownerID. Owner
// and type are fixed at creation.
func (s *CategoryService) Update(ctx context.Context, ownerID int64, c core.Category) (core.Category, error) {
	current, err := s.ownedCategory(ctx, ownerID, c.ID)
	if err != nil {
		return core.Category{}, err
	}

	current.Name = strings.TrimSpace(c.Name)
	current.ParentID = c.ParentID
	current.IsActive = c.IsActive

	parent, err := s.parentOf(ctx, current.ParentID)
	if err != nil {
		return core.Category{}, err
	}
	if err := current.Validate(parent); err != nil {
		return core.Category{}, err
	}
	if err := s.checkCycle(ctx, current.ID, parent); err != nil {
		return core.Category{}, err
	}

	if err := s.store.UpdateCategory(ctx, current); err != nil {
		return core.Category{}, err
	}
	return current, nil
}

// Delete removes an owned category and its subtree. Global categories
// cannot be deleted through an owner.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.ownedCategory(ctx, ownerID, id); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, id)
}

// FullPath renders the category as "Parent > Child".
func (s *CategoryService) FullPath(ctx context.Context, id int64) (string, error) {
	var names []string
	next := &id
	for depth := 0; next != nil; depth++ {
		if depth >= maxCategoryDepth {
			return "", core.ErrCategoryCycle
		}
		c, err := s.store.GetCategory(ctx, *next)
		if err != nil {
			return "", err
		}
		names = append(names, c.Name)
		next = c.ParentID
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " > "), nil
}

// Tree returns the categories visible to ownerID as a forest, roots and
// children ordered by type then name.
func (s *CategoryService) Tree(ctx context.Context, ownerID int64) ([]*CategoryNode, error) {
	cats, err := s.store.ListVisibleCategories(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*CategoryNode, len(cats))
	for _, c := range cats {
		nodes[c.ID] = &CategoryNode{Category: c}
	}

	var roots []*CategoryNode
	for _, c := range cats {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	for _, root := range roots {
		fillPaths(root, "")
	}
	return roots, nil
}

func sortNodes(nodes []*CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type < nodes[j].Type
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

func fillPaths(n *CategoryNode, prefix string) {
	n.FullPath = n.Name
	if prefix != "" {
		n.FullPath = prefix + " > " + n.Name
	}
	for _, child := range n.Children {
		fillPaths(child, n.FullPath)
	}
}

func (s *CategoryService) parentOf(ctx context.Context, parentID *int64) (*core.Category, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := s.store.GetCategory(ctx, *parentID)
	if err != nil {
		return nil, fmt.Errorf("resolve parent: %w", err)
	}
	return &parent, nil
}

func (s *CategoryService) ownedCategory(ctx context.Context, ownerID, id int64) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if c.OwnerID == nil || *c.OwnerID != ownerID {
		return core.Category{}, core.ErrCategoryOwnerMatch
	}
	return c, nil
}

// checkCycle walks up from parent and fails if it reaches id.
func (s *CategoryService) checkCycle(ctx context.Context, id int64, parent *core.Category) error {
	for depth := 0; parent != nil; depth++ {
		if parent.ID == id || depth >= maxCategoryDepth {
			return core.ErrCategoryCycle
		}
		next, err := s.parentOf(ctx, parent.ParentID)
		if err != nil {
			return err
		}
		parent = next
	}
	return nil
}
