// Package orgseed materializes the baseline DIVISION hierarchy of the org
// chart. Seeding is idempotent by division name and runs at most once per
// process, with retry after a failed attempt.
package orgseed

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dalemusser/organigram/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Definition describes one seeded division. ParentKey refers to the Key of
// an earlier definition; "" marks a root.
type Definition struct {
	Key         string
	ParentKey   string
	Name        string
	RoleTitle   string
	Department  string
	Description string
}

// Baseline is the default hierarchy: the group root and its five divisions.
var Baseline = []Definition{
	{
		Key:         "credit-suisse-group",
		Name:        "Credit Suisse Group",
		RoleTitle:   "Executive Board",
		Department:  "Group Headquarters",
		Description: "Central leadership team",
	},
	{
		Key:         "global-wealth",
		ParentKey:   "credit-suisse-group",
		Name:        "Global Wealth Management",
		RoleTitle:   "Division",
		Department:  "Wealth Management",
		Description: "Advisory for ultra-high-net-worth clients",
	},
	{
		Key:         "swiss-bank",
		ParentKey:   "credit-suisse-group",
		Name:        "Swiss Bank",
		RoleTitle:   "Division",
		Department:  "Retail & SME",
		Description: "Domestic banking franchise",
	},
	{
		Key:         "investment-bank",
		ParentKey:   "credit-suisse-group",
		Name:        "Investment Bank",
		RoleTitle:   "Division",
		Department:  "Markets & Advisory",
		Description: "Capital markets and advisory services",
	},
	{
		Key:         "asset-management",
		ParentKey:   "credit-suisse-group",
		Name:        "Asset Management",
		RoleTitle:   "Division",
		Department:  "Investment Products",
		Description: "Active and alternative investment strategies",
	},
	{
		Key:         "corporate-functions",
		ParentKey:   "credit-suisse-group",
		Name:        "Corporate Functions",
		RoleTitle:   "Division",
		Department:  "Finance, HR & Operations",
		Description: "Enterprise services and governance",
	},
}

// Repository is the storage the seeder needs.
type Repository interface {
	// FindDivisionsByNames returns DIVISION nodes whose name is in names.
	FindDivisionsByNames(ctx context.Context, names []string) ([]models.OrgNode, error)
	Create(ctx context.Context, n models.OrgNode) (models.OrgNode, error)
	Save(ctx context.Context, n models.OrgNode) error
}

// Seeder owns the once-per-process seed guard.
type Seeder struct {
	repo    Repository
	defs    []Definition
	log     *zap.Logger
	timeout time.Duration

	group singleflight.Group
	done  atomic.Bool
}

// New returns a Seeder over defs. A nil defs uses Baseline.
func New(repo Repository, defs []Definition, logger *zap.Logger) *Seeder {
	if defs == nil {
		defs = Baseline
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{repo: repo, defs: defs, log: logger, timeout: 30 * time.Second}
}

// SetTimeout bounds a single seed run.
func (s *Seeder) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Done reports whether a seed run has completed successfully.
func (s *Seeder) Done() bool { return s.done.Load() }

// Ensure makes sure the seed has run. Concurrent callers share one
// in-flight run. After a success later calls return immediately; after a
// failure the next call tries again.
//
// The run is detached from ctx cancellation so that one caller giving up
// does not fail the others waiting on the same run.
func (s *Seeder) Ensure(ctx context.Context) error {
	if s.done.Load() {
		return nil
	}
	_, err, _ := s.group.Do("seed", func() (any, error) {
		if s.done.Load() {
			return nil, nil
		}
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := s.run(runCtx); err != nil {
			return nil, err
		}
		s.done.Store(true)
		return nil, nil
	})
	if err != nil {
		s.log.Warn("org chart seed failed", zap.Error(err))
	}
	return err
}

func (s *Seeder) run(ctx context.Context) error {
	names := make([]string, 0, len(s.defs))
	nameByKey := make(map[string]string, len(s.defs))
	for _, d := range s.defs {
		names = append(names, d.Name)
		nameByKey[d.Key] = d.Name
	}

	existing, err := s.repo.FindDivisionsByNames(ctx, names)
	if err != nil {
		return fmt.Errorf("find divisions: %w", err)
	}
	byName := make(map[string]models.OrgNode, len(existing))
	for _, n := range existing {
		if _, dup := byName[n.Name]; !dup {
			byName[n.Name] = n
		}
	}
	idsByKey := make(map[string]primitive.ObjectID, len(s.defs))

	created, updated := 0, 0
	for _, d := range s.defs {
		var parentID *primitive.ObjectID
		if d.ParentKey != "" {
			if id, ok := idsByKey[d.ParentKey]; ok {
				parentID = &id
			} else if p, ok := byName[nameByKey[d.ParentKey]]; ok {
				id := p.ID
				parentID = &id
			}
		}

		if n, ok := byName[d.Name]; ok {
			// An unresolved parent leaves the stored parent as it is.
			if parentID != nil {
				n.ParentID = parentID
			}
			n.RoleTitle = d.RoleTitle
			n.Department = optional(d.Department)
			n.Description = optional(d.Description)
			n.NodeType = models.NodeTypeDivision
			n.NameCI = text.Fold(n.Name)
			if err := s.repo.Save(ctx, n); err != nil {
				return fmt.Errorf("update division %q: %w", d.Name, err)
			}
			idsByKey[d.Key] = n.ID
			updated++
			continue
		}

		n, err := s.repo.Create(ctx, models.OrgNode{
			ParentID:    parentID,
			Name:        d.Name,
			NameCI:      text.Fold(d.Name),
			RoleTitle:   d.RoleTitle,
			Department:  optional(d.Department),
			Description: optional(d.Description),
			NodeType:    models.NodeTypeDivision,
			CreatedByID: models.SystemUserID,
		})
		if err != nil {
			return fmt.Errorf("create division %q: %w", d.Name, err)
		}
		idsByKey[d.Key] = n.ID
		created++
	}

	s.log.Info("org chart seed complete",
		zap.Int("created", created),
		zap.Int("updated", updated))
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
