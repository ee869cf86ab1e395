package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// SQLiteRepositorySuite runs the repository against the real SQLite store.
type SQLiteRepositorySuite struct {
	suite.Suite
	ctx     context.Context
	dataDir string
	backend *sqlite.Backend
	repo    *Repository
}

func (s *SQLiteRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.dataDir = s.T().TempDir()
	s.backend = s.attach()
	s.repo = s.newRepo(s.backend)
}

func (s *SQLiteRepositorySuite) TearDownTest() {
	s.Require().NoError(s.backend.Detach())
}

func (s *SQLiteRepositorySuite) attach() *sqlite.Backend {
	b := sqlite.NewBackend()
	s.Require().NoError(b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: s.dataDir}))
	return b
}

func (s *SQLiteRepositorySuite) newRepo(store types.Store) *Repository {
	repo := New(store,
		WithLogger(logging.Discard()),
		WithClock(func() time.Time { return fixedNow }))
	s.Require().NoError(repo.Load(s.ctx, nil))
	return repo
}

// reopen detaches and reattaches to the same directory, as a restart would.
func (s *SQLiteRepositorySuite) reopen() *Repository {
	s.Require().NoError(s.backend.Detach())
	s.backend = s.attach()
	return s.newRepo(s.backend)
}

func (s *SQLiteRepositorySuite) TestMutationsSurviveRestart() {
	s.Require().NoError(s.repo.AddProduct(s.ctx, filterProduct()))
	s.Require().NoError(s.repo.AddProduct(s.ctx, soapProduct()))
	s.Require().NoError(s.repo.ReplaceItem(s.ctx, "water_filter"))
	s.Require().NoError(s.repo.AddStock(s.ctx, "dish_soap", 4))
	want := s.repo.List()

	restarted := s.reopen()
	s.Equal(want, restarted.List())

	days, ok := restarted.DaysUntilReplacement("water_filter")
	s.True(ok)
	s.Equal(30, days)
}

func (s *SQLiteRepositorySuite) TestRemoveSurvivesRestart() {
	s.Require().NoError(s.repo.AddProduct(s.ctx, soapProduct()))
	s.Require().NoError(s.repo.RemoveProduct(s.ctx, "dish_soap"))

	restarted := s.reopen()
	s.Empty(restarted.List())
}

func (s *SQLiteRepositorySuite) TestSaveLoadIdempotent() {
	s.Require().NoError(s.repo.AddProduct(s.ctx, filterProduct()))
	s.Require().NoError(s.repo.AddProduct(s.ctx, soapProduct()))

	first, err := s.backend.Load()
	s.Require().NoError(err)
	s.Require().NoError(s.backend.Save(first))
	second, err := s.backend.Load()
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *SQLiteRepositorySuite) TestFindUsesCache() {
	s.Require().NoError(s.repo.AddProduct(s.ctx, filterProduct()))
	s.Require().NoError(s.repo.AddProduct(s.ctx, soapProduct()))
	s.Require().NoError(s.repo.RemoveStock(s.ctx, "dish_soap", 1))

	out, err := s.repo.Find(types.ProductFilter{OutOfStock: true})
	s.Require().NoError(err)
	s.Require().Len(out, 1)
	s.Equal("dish_soap", out[0].ProductID)

	cyclical, err := s.repo.Find(types.ProductFilter{CyclicalOnly: true})
	s.Require().NoError(err)
	s.Require().Len(cyclical, 1)
	s.Equal("water_filter", cyclical[0].ProductID)
}

func (s *SQLiteRepositorySuite) TestUnknownIDLeavesFileUntouched() {
	s.Require().NoError(s.repo.AddProduct(s.ctx, filterProduct()))
	path := filepath.Join(s.dataDir, "products.jsonl")
	before, err := os.ReadFile(path)
	s.Require().NoError(err)

	s.ErrorIs(s.repo.AddStock(s.ctx, "ghost", 3), types.ErrProductNotFound)

	after, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *SQLiteRepositorySuite) TestLegacyImportPersists() {
	legacy := filterProduct()
	s.Require().NoError(s.backend.Detach())
	s.backend = s.attach()
	repo := New(s.backend, WithLogger(logging.Discard()))
	s.Require().NoError(repo.Load(s.ctx, legacy))

	data, err := os.ReadFile(filepath.Join(s.dataDir, "products.jsonl"))
	s.Require().NoError(err)
	s.True(strings.Contains(string(data), `"product_id":"water_filter"`))
}

func TestSQLiteRepositorySuite(t *testing.T) {
	suite.Run(t, new(SQLiteRepositorySuite))
}
