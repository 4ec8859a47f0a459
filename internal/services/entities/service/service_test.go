package service

import (
	"context"
	"testing"

	"colasignal/internal/core/similarity"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/services/entities/domain"
	"colasignal/internal/services/entities/repo"
)

type fakeTx struct{}

// Tx hands the callback the fake itself, matching the production contract
// that the bound Queryer is never nil
func (f fakeTx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error { return fn(f) }
func (fakeTx) Exec(ctx context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	var z repokit.CommandTag
	return z, nil
}

func (fakeTx) Query(ctx context.Context, sql string, args ...any) (repokit.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) repokit.Row { return nil }

// fakeStorage is an in-memory entities store
type fakeStorage struct {
	aliases  map[string]int64 // alias_norm -> entity id
	nextID   int64
	lookups  int
	inserted []domain.Alias
	queued   []domain.ReviewItem
	dirty    []int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{aliases: map[string]int64{}, nextID: 100}
}

func (f *fakeStorage) LookupAlias(ctx context.Context, norm string) (int64, bool, error) {
	f.lookups++
	id, ok := f.aliases[norm]
	return id, ok, nil
}

func (f *fakeStorage) Candidates(ctx context.Context, blockToken string, limit int) ([]domain.Alias, error) {
	var out []domain.Alias
	for norm, id := range f.aliases {
		tok, _, _ := cutFirst(norm)
		if tok == blockToken {
			out = append(out, domain.Alias{Norm: norm, EntityID: id})
		}
	}
	return out, nil
}

func cutFirst(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func (f *fakeStorage) InsertEntity(ctx context.Context, displayName string, resolverVersion int) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStorage) InsertAlias(ctx context.Context, a domain.Alias) error {
	f.inserted = append(f.inserted, a)
	if _, ok := f.aliases[a.Norm]; !ok {
		f.aliases[a.Norm] = a.EntityID
	}
	return nil
}

func (f *fakeStorage) EnqueueReview(ctx context.Context, item domain.ReviewItem) error {
	f.queued = append(f.queued, item)
	return nil
}

func (f *fakeStorage) MarkDirty(ctx context.Context, entityID int64, reason string) error {
	f.dirty = append(f.dirty, entityID)
	return nil
}

type fakeBinder struct{ st *fakeStorage }

func (b fakeBinder) Bind(_ repokit.Queryer) repo.Storage { return b.st }

func newResolver(st *fakeStorage, t similarity.Thresholds) *Service {
	return New(fakeTx{}, fakeBinder{st: st}, Config{Thresholds: t})
}

func TestResolve_ExactHit_CachesMapping(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	st.aliases["acme distillery"] = 7
	svc := newResolver(st, similarity.Thresholds{})

	res, err := svc.Resolve(context.Background(), "Acme Distillery, LLC")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.EntityID != 7 || res.Created || res.Ambiguous {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	// second call must come from the cache, not the store
	if _, err := svc.Resolve(context.Background(), "ACME DISTILLERY LLC"); err != nil {
		t.Fatalf("Resolve (cached): %v", err)
	}
	if st.lookups != 1 {
		t.Fatalf("expected 1 store lookup, got %d", st.lookups)
	}
}

func TestResolve_FuzzyMatch_AppendsAlias(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	st.aliases["acme distillery"] = 7
	svc := newResolver(st, similarity.Thresholds{})

	// single in-word typo scores above the default match threshold
	res, err := svc.Resolve(context.Background(), "Acme Distilery LLC")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.EntityID != 7 || res.Created || res.Ambiguous {
		t.Fatalf("typo should fuzzy-match entity 7, got %+v", res)
	}
	if len(st.inserted) != 1 || st.inserted[0].Norm != "acme distilery" {
		t.Fatalf("expected appended alias for the typo form, got %+v", st.inserted)
	}
	if st.inserted[0].Score <= 0 {
		t.Fatalf("alias should carry score provenance, got %+v", st.inserted[0])
	}
}

func TestResolve_Ambiguous_QueuesReviewAndHolds(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	st.aliases["acme distillery"] = 7

	// tighten MatchAt so the typo score (~0.933) lands inside the band
	svc := newResolver(st, similarity.Thresholds{
		MatchAt: 0.95, AmbiguousAt: 0.90, MaxEditDistance: 6,
	})

	res, err := svc.Resolve(context.Background(), "Acme Distilery LLC")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Ambiguous || !res.Created {
		t.Fatalf("expected ambiguous hold, got %+v", res)
	}
	if res.EntityID == 7 {
		t.Fatalf("ambiguous must never auto-merge into the candidate")
	}
	if len(st.queued) != 1 {
		t.Fatalf("expected 1 review item, got %d", len(st.queued))
	}
	q := st.queued[0]
	if q.CandidateID != 7 || q.HoldID != res.EntityID || q.ID == "" {
		t.Fatalf("review item mismatch: %+v", q)
	}
	if q.Score < 0.90 || q.Score >= 0.95 {
		t.Fatalf("review score outside the band: %v", q.Score)
	}
}

func TestResolve_Distinct_CreatesEntity(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	st.aliases["acme distillery"] = 7
	svc := newResolver(st, similarity.Thresholds{})

	res, err := svc.Resolve(context.Background(), "Miller Brewing Co.")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Created || res.Ambiguous {
		t.Fatalf("unrelated name should create an entity, got %+v", res)
	}
	if res.EntityID == 7 {
		t.Fatalf("unrelated name must not reuse entity 7")
	}
	if got, ok := st.aliases["miller brewing"]; !ok || got != res.EntityID {
		t.Fatalf("alias mapping not appended: %v", st.aliases)
	}
}

func TestResolve_EmptyName_Errors(t *testing.T) {
	t.Parallel()

	svc := newResolver(newFakeStorage(), similarity.Thresholds{})
	if _, err := svc.Resolve(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestPeek_NeverWrites(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	st.aliases["acme distillery"] = 7
	svc := newResolver(st, similarity.Thresholds{})

	// fuzzy hit reports the mapped entity without appending the alias
	res, err := svc.Peek(context.Background(), "Acme Distilery LLC")
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if res.EntityID != 7 || res.Created {
		t.Fatalf("typo should peek to entity 7, got %+v", res)
	}

	// unknown name reports a would-create without allocating anything
	res, err = svc.Peek(context.Background(), "Miller Brewing Co.")
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if !res.Created || res.EntityID != 0 {
		t.Fatalf("unknown name should report would-create, got %+v", res)
	}

	if len(st.inserted) != 0 || len(st.queued) != 0 || len(st.aliases) != 1 {
		t.Fatalf("peek wrote to the registry: aliases=%v inserted=%v queued=%v",
			st.aliases, st.inserted, st.queued)
	}

	// and a later real resolve still appends the alias it needs
	if _, err := svc.Resolve(context.Background(), "Acme Distilery LLC"); err != nil {
		t.Fatalf("Resolve after Peek: %v", err)
	}
	if len(st.inserted) != 1 {
		t.Fatalf("peek must not preempt the resolve-path append: %+v", st.inserted)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	svc := newResolver(st, similarity.Thresholds{})

	first, err := svc.Resolve(context.Background(), "Chateau d'Yquem S.A.")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i := 0; i < 3; i++ {
		got, err := svc.Resolve(context.Background(), "Chateau d'Yquem S.A.")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got.EntityID != first.EntityID {
			t.Fatalf("same raw name resolved to different entities: %d vs %d", got.EntityID, first.EntityID)
		}
	}
}
