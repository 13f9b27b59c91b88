// internal/app/features/orgchart/service.go
package orgchart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	orgnodestore "github.com/dalemusser/organigram/internal/app/store/orgnodes"
	"github.com/dalemusser/organigram/internal/app/system/authz"
	"github.com/dalemusser/organigram/internal/app/system/htmlsanitize"
	"github.com/dalemusser/organigram/internal/app/system/inputval"
	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/organigram/internal/app/system/normalize"
	"github.com/dalemusser/organigram/internal/app/system/orgtree"
	"github.com/dalemusser/organigram/internal/app/system/treecache"
	"github.com/dalemusser/organigram/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NodeStore is the persistence the service needs. *orgnodestore.Store
// satisfies it.
type NodeStore interface {
	orgtree.ParentLookup
	Create(ctx context.Context, n models.OrgNode) (models.OrgNode, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.OrgNode, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	List(ctx context.Context) ([]models.OrgNode, error)
	Save(ctx context.Context, n models.OrgNode) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	ReparentChildren(ctx context.Context, from primitive.ObjectID, to *primitive.ObjectID) (int64, error)
	HasPersonForUser(ctx context.Context, userID primitive.ObjectID) (bool, error)
}

// Seeder materializes the baseline divisions. *orgseed.Seeder satisfies it.
type Seeder interface {
	Ensure(ctx context.Context) error
	Done() bool
}

// TxRunner runs fn atomically when the deployment allows it. *txn.Runner satisfies it.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the org chart operations on top of a NodeStore.
type Service struct {
	store  NodeStore
	seeder Seeder
	cache  treecache.Cache
	tx     TxRunner
	log    *zap.Logger
}

// NewService wires a Service. seeder and tx may be nil; a nil cache
// falls back to an in-process cache.
func NewService(store NodeStore, seeder Seeder, cache treecache.Cache, tx TxRunner, logger *zap.Logger) *Service {
	if cache == nil {
		cache = treecache.NewMemory(treecache.DefaultTTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, seeder: seeder, cache: cache, tx: tx, log: logger}
}

// Listing is the node list together with the cache version it was read at.
type Listing struct {
	Nodes   []models.OrgNode
	Version string
}

// List returns every node, oldest first. The baseline seed runs first and
// the result is served from the tagged cache when possible.
func (s *Service) List(ctx context.Context) (Listing, error) {
	s.ensureSeeded(ctx)

	version, err := s.cache.Version(ctx)
	if err != nil {
		s.log.Warn("orgchart: cache version unavailable", zap.Error(err))
	}

	if raw, ok, err := s.cache.Get(ctx, treecache.ListKey); err != nil {
		s.log.Warn("orgchart: cache read failed", zap.Error(err))
	} else if ok {
		var nodes []models.OrgNode
		if err := json.Unmarshal(raw, &nodes); err == nil {
			return Listing{Nodes: nodes, Version: version}, nil
		}
		s.log.Warn("orgchart: dropping unreadable cache entry")
		_ = s.cache.Invalidate(ctx, treecache.ListKey)
	}

	// version was taken before this read, so a write landing in between
	// leaves the payload pinned to a version that is already gone.
	nodes, err := s.store.List(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("list nodes: %w", err)
	}
	if raw, err := json.Marshal(nodes); err == nil {
		stored, err := s.cache.Set(ctx, treecache.ListKey, version, raw, treecache.Tag)
		if err != nil {
			s.log.Warn("orgchart: cache write failed", zap.Error(err))
		} else if !stored {
			s.log.Debug("orgchart: listing changed while reading; not cached", zap.String("version", version))
		}
	}
	return Listing{Nodes: nodes, Version: version}, nil
}

// Tree returns the nested chart after forest normalization. rootName
// labels the virtual root when one is needed.
func (s *Service) Tree(ctx context.Context, rootName string) ([]*orgtree.TreeNode, string, error) {
	l, err := s.List(ctx)
	if err != nil {
		return nil, "", err
	}
	nodes := orgtree.Normalize(orgtree.FromModels(l.Nodes), rootName)
	return orgtree.BuildTree(nodes), l.Version, nil
}

// ParentOptions lists the nodes nodeID may be moved under.
func (s *Service) ParentOptions(ctx context.Context, nodeID string) ([]orgtree.Node, error) {
	id, err := parseID(nodeID)
	if err != nil {
		return nil, err
	}
	l, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	nodes := orgtree.FromModels(l.Nodes)
	if _, ok := orgtree.Index(nodes)[id.Hex()]; !ok {
		return nil, ErrNotFound
	}
	return orgtree.SelectableParents(nodes, id.Hex()), nil
}

// Create adds a PERSON node owned by the actor.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (models.OrgNode, error) {
	if actor.ID.IsZero() {
		return models.OrgNode{}, ErrUnauthenticated
	}
	// Divisions must exist before a person can be placed under one.
	s.ensureSeeded(ctx)

	in.Name = normalize.Name(htmlsanitize.PlainText(in.Name))
	in.RoleTitle = normalize.Name(htmlsanitize.PlainText(in.RoleTitle))
	in.Department = htmlsanitize.PlainText(in.Department)
	in.Description = htmlsanitize.PlainText(in.Description)
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
	in.ParentID = strings.TrimSpace(in.ParentID)
	in.LinkedUserID = strings.TrimSpace(in.LinkedUserID)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.OrgNode{}, validationFailed(res)
	}

	parentID := optionalID(in.ParentID)
	linked := actor.ID
	if in.LinkedUserID != "" {
		linked, _ = primitive.ObjectIDFromHex(in.LinkedUserID)
	}
	if linked != actor.ID && !isAdmin(actor) {
		return models.OrgNode{}, ErrForbidden
	}

	photo := in.PhotoURL
	if photo == "" {
		photo = DefaultPhotoURL
	}
	node := models.OrgNode{
		ParentID:     parentID,
		Name:         in.Name,
		RoleTitle:    in.RoleTitle,
		Department:   optionalText(in.Department),
		Description:  optionalText(in.Description),
		PhotoURL:     &photo,
		NodeType:     models.NodeTypePerson,
		CreatedByID:  actor.ID,
		LinkedUserID: &linked,
		UserID:       &linked,
	}

	var created models.OrgNode
	err := s.inTx(ctx, func(ctx context.Context) error {
		if parentID != nil {
			ok, err := s.store.Exists(ctx, *parentID)
			if err != nil {
				return fmt.Errorf("check parent: %w", err)
			}
			if !ok {
				return ErrParentNotFound
			}
		}
		taken, err := s.store.HasPersonForUser(ctx, linked)
		if err != nil {
			return fmt.Errorf("check account: %w", err)
		}
		if taken {
			return ErrAlreadyRegistered
		}
		created, err = s.store.Create(ctx, node)
		if errors.Is(err, orgnodestore.ErrDuplicatePerson) {
			return ErrAlreadyRegistered
		}
		return err
	})
	if err != nil {
		return models.OrgNode{}, err
	}

	s.invalidate(ctx, in.Locale)
	return created, nil
}

// Update applies the fields present in in. It returns the stored node and
// the names of the fields that changed.
func (s *Service) Update(ctx context.Context, actor Actor, in UpdateInput) (models.OrgNode, []string, error) {
	if actor.ID.IsZero() {
		return models.OrgNode{}, nil, ErrUnauthenticated
	}

	in.NodeID = strings.TrimSpace(in.NodeID)
	sanitizePtr(in.Name, true)
	sanitizePtr(in.RoleTitle, true)
	sanitizePtr(in.Department, false)
	sanitizePtr(in.Description, false)
	trimPtr(in.PhotoURL)
	trimPtr(in.ParentID)
	trimPtr(in.LinkedUserID)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.OrgNode{}, nil, validationFailed(res)
	}
	id, _ := primitive.ObjectIDFromHex(in.NodeID)

	var (
		node    models.OrgNode
		changed []string
	)
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		node, err = s.store.GetByID(ctx, id)
		if errors.Is(err, orgnodestore.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load node: %w", err)
		}
		if !authz.CanModifyNode(actor.ID, actor.Role, node) {
			return ErrForbidden
		}

		changed = changed[:0]
		if in.Name != nil && *in.Name != node.Name {
			node.Name = *in.Name
			changed = append(changed, "name")
		}
		if in.RoleTitle != nil && *in.RoleTitle != node.RoleTitle {
			node.RoleTitle = *in.RoleTitle
			changed = append(changed, "roleTitle")
		}
		if v, ok := normalize.Optional(in.Department); ok {
			node.Department = optionalText(v)
			changed = append(changed, "department")
		}
		if v, ok := normalize.Optional(in.Description); ok {
			node.Description = optionalText(v)
			changed = append(changed, "description")
		}
		if v, ok := normalize.Optional(in.PhotoURL); ok {
			if v == "" {
				v = DefaultPhotoURL
			}
			node.PhotoURL = &v
			changed = append(changed, "photoUrl")
		}
		if v, ok := normalize.Optional(in.LinkedUserID); ok {
			linked := optionalID(v)
			if linked != nil && *linked != actor.ID && !isAdmin(actor) {
				return ErrForbidden
			}
			node.LinkedUserID = linked
			changed = append(changed, "linkedUserId")
		}
		if v, ok := normalize.Optional(in.ParentID); ok {
			parentID := optionalID(v)
			if !sameID(parentID, node.ParentID) {
				if err := s.checkParent(ctx, parentID, node.ID); err != nil {
					return err
				}
				node.ParentID = parentID
				changed = append(changed, "parentId")
			}
		}

		err = s.store.Save(ctx, node)
		switch {
		case errors.Is(err, orgnodestore.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, orgnodestore.ErrDuplicatePerson):
			return ErrAlreadyRegistered
		}
		return err
	})
	if err != nil {
		return models.OrgNode{}, nil, err
	}

	s.invalidate(ctx, in.Locale)
	updated, err := s.store.GetByID(ctx, id)
	if err != nil {
		return node, changed, nil
	}
	return updated, changed, nil
}

// Delete removes a PERSON node. Its children move up to its parent.
// It returns the deleted node and how many children were moved.
func (s *Service) Delete(ctx context.Context, actor Actor, nodeID, loc string) (models.OrgNode, int64, error) {
	if actor.ID.IsZero() {
		return models.OrgNode{}, 0, ErrUnauthenticated
	}
	if strings.TrimSpace(nodeID) == "" {
		return models.OrgNode{}, 0, ErrMissingID
	}
	id, err := parseID(nodeID)
	if err != nil {
		return models.OrgNode{}, 0, err
	}

	var (
		node  models.OrgNode
		moved int64
	)
	err = s.inTx(ctx, func(ctx context.Context) error {
		var err error
		node, err = s.store.GetByID(ctx, id)
		if errors.Is(err, orgnodestore.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load node: %w", err)
		}
		if node.IsDivision() {
			return ErrInvalidNodeType
		}
		if !authz.CanModifyNode(actor.ID, actor.Role, node) {
			return ErrForbidden
		}

		moved, err = s.store.ReparentChildren(ctx, node.ID, node.ParentID)
		if err != nil {
			return fmt.Errorf("reparent children: %w", err)
		}
		n, err := s.store.Delete(ctx, node.ID)
		if err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return models.OrgNode{}, 0, err
	}

	s.invalidate(ctx, loc)
	return node, moved, nil
}

// checkParent verifies that parentID exists and that moving nodeID under
// it keeps the chart a forest. A nil parent is always allowed.
func (s *Service) checkParent(ctx context.Context, parentID *primitive.ObjectID, nodeID primitive.ObjectID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == nodeID {
		return wrap(ErrCycleDetected, orgtree.ErrCycleDetected)
	}
	ok, err := s.store.Exists(ctx, *parentID)
	if err != nil {
		return fmt.Errorf("check parent: %w", err)
	}
	if !ok {
		return ErrParentNotFound
	}
	err = orgtree.AssertNoCycle(ctx, s.store, parentID, nodeID)
	if errors.Is(err, orgtree.ErrCycleDetected) {
		return wrap(ErrCycleDetected, err)
	}
	if err != nil {
		return fmt.Errorf("cycle check: %w", err)
	}
	return nil
}

func (s *Service) ensureSeeded(ctx context.Context) {
	if s.seeder == nil || s.seeder.Done() {
		return
	}
	if err := s.seeder.Ensure(ctx); err != nil {
		// Serve what is stored; the next request retries the seed.
		s.log.Warn("orgchart: seed failed", zap.Error(err))
		return
	}
	if err := s.cache.InvalidateTag(ctx, treecache.Tag); err != nil {
		s.log.Warn("orgchart: cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, loc string) {
	if err := s.cache.InvalidateTag(ctx, treecache.Tag); err != nil {
		s.log.Warn("orgchart: cache invalidation failed", zap.Error(err))
	}
	if loc == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, locale.PagePath(loc)); err != nil {
		s.log.Warn("orgchart: page revalidation failed", zap.String("locale", loc), zap.Error(err))
	}
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.Run(ctx, fn)
}

func isAdmin(a Actor) bool {
	return strings.EqualFold(a.Role, models.RoleAdmin)
}

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return id, nil
}

func optionalID(hex string) *primitive.ObjectID {
	if hex == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sameID(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sanitizePtr(p *string, name bool) {
	if p == nil {
		return
	}
	v := htmlsanitize.PlainText(*p)
	if name {
		v = normalize.Name(v)
	}
	*p = v
}

func trimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}
