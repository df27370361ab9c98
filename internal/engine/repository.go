package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"repoql/internal/compiler"
	"repoql/internal/ir"
	"repoql/internal/queryir"
	"repoql/internal/querysql"
	"repoql/internal/store"
)

// ErrUnknownOperation is returned when invoking an operation that was not
// registered: undeclared, or declared with the skip marker.
var ErrUnknownOperation = errors.New("unknown or skipped operation")

// Repository is one registered repository: a record schema plus the
// compiled plan for every resolved operation. Construction happens once
// through Register; after that the repository is read-only and safe for
// concurrent callers.
type Repository struct {
	spec     ir.RepositorySpec
	record   ir.RecordSpec
	store    *store.Store
	resolved *compiler.Resolved
	plans    map[string]*querysql.Plan
	logger   hclog.Logger
}

// Register resolves and compiles every declared operation of a repository
// and ensures its backing table exists. Fail-fast: any malformed
// declaration aborts registration with a ResolutionError before the
// repository becomes callable - a bad operation is a startup error, never
// a call-time discovery.
func Register(ctx context.Context, st *store.Store, repo ir.RepositorySpec, record ir.RecordSpec, logger hclog.Logger) (*Repository, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	resolved, err := compiler.ResolveRepository(repo, record)
	if err != nil {
		return nil, err
	}

	plans := make(map[string]*querysql.Plan, len(resolved.Intents))
	for _, name := range resolved.Order {
		intent := resolved.Intents[name]
		plan, err := querysql.Compile(intent, record)
		if err != nil {
			return nil, fmt.Errorf("register %q: %w", repo.Name, err)
		}
		plans[name] = plan

		fp, err := queryir.Fingerprint(intent)
		if err != nil {
			return nil, fmt.Errorf("register %q: %w", repo.Name, err)
		}
		logger.Debug("operation resolved",
			"repository", repo.Name,
			"operation", name,
			"cardinality", string(intent.Cardinality),
			"fingerprint", fp[:12])
	}
	for _, name := range resolved.Skipped {
		logger.Info("operation skipped", "repository", repo.Name, "operation", name)
	}

	if err := st.EnsureTable(ctx, record); err != nil {
		return nil, fmt.Errorf("register %q: %w", repo.Name, err)
	}

	return &Repository{
		spec:     repo,
		record:   record,
		store:    st,
		resolved: resolved,
		plans:    plans,
		logger:   logger.Named(repo.Name),
	}, nil
}

// Name returns the repository name.
func (r *Repository) Name() string { return r.spec.Name }

// Record returns the record schema the repository serves.
func (r *Repository) Record() ir.RecordSpec { return r.record }

// Operations returns resolved operation names in declaration order.
func (r *Repository) Operations() []string {
	out := make([]string, len(r.resolved.Order))
	copy(out, r.resolved.Order)
	return out
}

// Skipped returns the operation names excluded from automatic resolution.
func (r *Repository) Skipped() []string {
	out := make([]string, len(r.resolved.Skipped))
	copy(out, r.resolved.Skipped)
	return out
}

// Intent returns the compiled intent for an operation.
func (r *Repository) Intent(name string) (queryir.QueryIntent, bool) {
	intent, ok := r.resolved.Intents[name]
	return intent, ok
}

// Plan returns the compiled plan for an operation.
func (r *Repository) Plan(name string) (*querysql.Plan, bool) {
	plan, ok := r.plans[name]
	return plan, ok
}
