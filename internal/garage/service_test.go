package garage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/garagesale/internal/metrics"
	"github.com/hitoshi/garagesale/internal/model"
	"github.com/hitoshi/garagesale/internal/repository"
	"github.com/hitoshi/garagesale/internal/security"
)

// --- モック ---

// fakeGarageRepo はメモリ上でslugの一意性を再現するガレージリポジトリ。
type fakeGarageRepo struct {
	bySlug     map[string]*model.Garage
	createFn   func(ctx context.Context, g *model.Garage) error
	slugErr    error
	probeCalls int
}

func newFakeGarageRepo(existing ...string) *fakeGarageRepo {
	r := &fakeGarageRepo{bySlug: map[string]*model.Garage{}}
	for i, slug := range existing {
		r.bySlug[slug] = &model.Garage{ID: fmt.Sprintf("g-%d", i), Title: slug, Slug: slug}
	}
	return r
}

func (r *fakeGarageRepo) FindBySlug(ctx context.Context, slug string) (*model.Garage, error) {
	return r.bySlug[slug], nil
}
func (r *fakeGarageRepo) FindByID(ctx context.Context, id string) (*model.Garage, error) {
	for _, g := range r.bySlug {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, nil
}
func (r *fakeGarageRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	r.probeCalls++
	if r.slugErr != nil {
		return false, r.slugErr
	}
	_, ok := r.bySlug[slug]
	return ok, nil
}
func (r *fakeGarageRepo) Create(ctx context.Context, g *model.Garage) error {
	if r.createFn != nil {
		return r.createFn(ctx, g)
	}
	if _, ok := r.bySlug[g.Slug]; ok {
		return repository.ErrSlugConflict
	}
	r.bySlug[g.Slug] = g
	return nil
}
func (r *fakeGarageRepo) List(ctx context.Context) ([]*model.Garage, error) {
	var out []*model.Garage
	for _, g := range r.bySlug {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

type mockItemRepo struct {
	listByGarageFn func(ctx context.Context, garageID string) ([]*model.Item, error)
}

func (m *mockItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	return nil, nil
}
func (m *mockItemRepo) ListByGarage(ctx context.Context, garageID string) ([]*model.Item, error) {
	if m.listByGarageFn != nil {
		return m.listByGarageFn(ctx, garageID)
	}
	return nil, nil
}
func (m *mockItemRepo) Create(ctx context.Context, item *model.Item) error { return nil }
func (m *mockItemRepo) Update(ctx context.Context, id string, upd model.ItemUpdate, updatedAt time.Time) error {
	return nil
}
func (m *mockItemRepo) Delete(ctx context.Context, id string) error { return nil }

type mockInterestRepo struct {
	countFn func(ctx context.Context, itemIDs []string) (map[string]int, error)
}

func (m *mockInterestRepo) Create(ctx context.Context, interest *model.Interest) error { return nil }
func (m *mockInterestRepo) CountByItemIDs(ctx context.Context, itemIDs []string) (map[string]int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, itemIDs)
	}
	return map[string]int{}, nil
}
func (m *mockInterestRepo) ListByItem(ctx context.Context, itemID string) ([]*model.Interest, error) {
	return nil, nil
}

// mockMetrics は呼び出し回数を記録するMetricsCollector。
type mockMetrics struct {
	created   int
	probes    int
	conflicts int
}

func (m *mockMetrics) RecordGarageCreated() { m.created++ }
func (m *mockMetrics) RecordSlugProbes(count int) { m.probes += count }
func (m *mockMetrics) RecordSlugConflict() { m.conflicts++ }
func (m *mockMetrics) RecordOwnerLogin(result string) {}
func (m *mockMetrics) RecordItemMutation(op string) {}
func (m *mockMetrics) RecordInterestCreated() {}
func (m *mockMetrics) RecordHTTPStatus(statusCode int) {}
func (m *mockMetrics) RecordPhotoFetch(duration time.Duration, ok bool) {}
func (m *mockMetrics) RecordParticipantsCleaned(count int64) {}

func newTestService(garages repository.GarageRepository, mm *mockMetrics) *Service {
	var m metrics.MetricsCollector
	if mm != nil {
		m = mm
	}
	return NewService(garages, &mockItemRepo{}, &mockInterestRepo{}, security.NewTextSanitizer(), m, ServiceConfig{MaxSlugAttempts: 5})
}

func assertAPIError(t *testing.T, err error, code, message string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
	if message != "" && apiErr.Message != message {
		t.Errorf("Message = %q, want %q", apiErr.Message, message)
	}
}

// --- CreateGarage ---

func TestCreateGarage_DerivesSlugFromTitle(t *testing.T) {
	repo := newFakeGarageRepo()
	mm := &mockMetrics{}
	svc := newTestService(repo, mm)

	g, err := svc.CreateGarage(context.Background(), CreateInput{
		Title:      "  Wes's Moving Sale!!  ",
		OwnerEmail: " wes@example.com ",
	})
	if err != nil {
		t.Fatalf("CreateGarage failed: %v", err)
	}
	if g.Slug != "wes-s-moving-sale" {
		t.Errorf("Slug = %q, want wes-s-moving-sale", g.Slug)
	}
	if g.Title != "Wes's Moving Sale!!" {
		t.Errorf("Title = %q, want trimmed", g.Title)
	}
	if g.OwnerEmail != "wes@example.com" {
		t.Errorf("OwnerEmail = %q, want trimmed", g.OwnerEmail)
	}
	if g.ID == "" || g.CreatedAt.IsZero() {
		t.Errorf("ID/CreatedAt not set: %+v", g)
	}
	if mm.created != 1 || mm.probes != 1 {
		t.Errorf("metrics created=%d probes=%d, want 1/1", mm.created, mm.probes)
	}
}

func TestCreateGarage_ExplicitSlugWins(t *testing.T) {
	svc := newTestService(newFakeGarageRepo(), nil)

	g, err := svc.CreateGarage(context.Background(), CreateInput{
		Title: "Spring Clean", Slug: "My Custom Slug", OwnerEmail: "o@example.com",
	})
	if err != nil {
		t.Fatalf("CreateGarage failed: %v", err)
	}
	if g.Slug != "my-custom-slug" {
		t.Errorf("Slug = %q, want my-custom-slug", g.Slug)
	}
}

// 同じベースslugのガレージを続けて作成すると -2, -3 の接尾辞が付く
func TestCreateGarage_SequentialSuffixes(t *testing.T) {
	svc := newTestService(newFakeGarageRepo(), nil)
	ctx := context.Background()

	want := []string{"sale", "sale-2", "sale-3"}
	for i, w := range want {
		g, err := svc.CreateGarage(ctx, CreateInput{Title: "Sale", OwnerEmail: fmt.Sprintf("o%d@example.com", i)})
		if err != nil {
			t.Fatalf("CreateGarage #%d failed: %v", i+1, err)
		}
		if g.Slug != w {
			t.Errorf("garage #%d slug = %q, want %q", i+1, g.Slug, w)
		}
	}
}

func TestCreateGarage_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
		msg  string
	}{
		{"タイトルなし", CreateInput{Title: "   ", OwnerEmail: "o@example.com"}, "Title is required."},
		{"メールなし", CreateInput{Title: "Sale", OwnerEmail: "  "}, "Owner email is required."},
		{"slugにできないタイトル", CreateInput{Title: "!!!", OwnerEmail: "o@example.com"}, "Unable to derive slug from title."},
		{"slugにできない指定slug", CreateInput{Title: "Sale", Slug: "???", OwnerEmail: "o@example.com"}, "Unable to derive slug from title."},
		{"タグだけのタイトル", CreateInput{Title: "<b></b>", OwnerEmail: "o@example.com"}, "Title is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeGarageRepo()
			svc := newTestService(repo, nil)

			_, err := svc.CreateGarage(context.Background(), tt.in)
			assertAPIError(t, err, model.ErrCodeValidation, tt.msg)
			if repo.probeCalls != 0 {
				t.Errorf("store probed %d times, want 0", repo.probeCalls)
			}
		})
	}
}

func TestCreateGarage_ExhaustedIsDistinct(t *testing.T) {
	repo := newFakeGarageRepo("sale", "sale-2", "sale-3", "sale-4", "sale-5")
	svc := newTestService(repo, nil)

	_, err := svc.CreateGarage(context.Background(), CreateInput{Title: "Sale", OwnerEmail: "o@example.com"})
	assertAPIError(t, err, model.ErrCodeSlugExhausted, "")
	if repo.probeCalls != 5 {
		t.Errorf("probes = %d, want 5", repo.probeCalls)
	}
}

// 探索後に別リクエストが同じslugを挿入した場合はSLUG_CONFLICTになり、自動再試行しない
func TestCreateGarage_ConflictOnInsertIsDistinct(t *testing.T) {
	repo := newFakeGarageRepo()
	creates := 0
	repo.createFn = func(ctx context.Context, g *model.Garage) error {
		creates++
		return fmt.Errorf("slug %q: %w", g.Slug, repository.ErrSlugConflict)
	}
	mm := &mockMetrics{}
	svc := newTestService(repo, mm)

	_, err := svc.CreateGarage(context.Background(), CreateInput{Title: "Sale", OwnerEmail: "o@example.com"})
	assertAPIError(t, err, model.ErrCodeSlugConflict, "")
	if creates != 1 {
		t.Errorf("insert attempts = %d, want 1", creates)
	}
	if mm.conflicts != 1 || mm.created != 0 {
		t.Errorf("metrics conflicts=%d created=%d", mm.conflicts, mm.created)
	}
}

func TestCreateGarage_StoreErrorIsNotAPIError(t *testing.T) {
	repo := newFakeGarageRepo()
	repo.slugErr = errors.New("db down")
	svc := newTestService(repo, nil)

	_, err := svc.CreateGarage(context.Background(), CreateInput{Title: "Sale", OwnerEmail: "o@example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("store failure surfaced as APIError %v", apiErr)
	}
}

// --- GetGarageView ---

func TestGetGarageView_NotFound(t *testing.T) {
	svc := newTestService(newFakeGarageRepo(), nil)

	_, err := svc.GetGarageView(context.Background(), "missing", "")
	assertAPIError(t, err, model.ErrCodeGarageNotFound, "Garage not found.")
}

func TestGetGarageView_ItemsWithCountsAndPrices(t *testing.T) {
	repo := newFakeGarageRepo("sale")
	garageID := repo.bySlug["sale"].ID
	lamp := int64(1050)

	items := &mockItemRepo{listByGarageFn: func(ctx context.Context, id string) ([]*model.Item, error) {
		if id != garageID {
			t.Errorf("ListByGarage id = %q, want %q", id, garageID)
		}
		return []*model.Item{
			{ID: "i1", GarageID: id, Title: "Lamp", PriceCents: &lamp, Status: model.ItemStatusAvailable},
			{ID: "i2", GarageID: id, Title: "Books", Status: model.ItemStatusSold},
		}, nil
	}}
	interests := &mockInterestRepo{countFn: func(ctx context.Context, ids []string) (map[string]int, error) {
		if strings.Join(ids, ",") != "i1,i2" {
			t.Errorf("CountByItemIDs ids = %v", ids)
		}
		return map[string]int{"i1": 3}, nil
	}}
	svc := NewService(repo, items, interests, security.NewTextSanitizer(), nil, ServiceConfig{})

	view, err := svc.GetGarageView(context.Background(), "sale", "")
	if err != nil {
		t.Fatalf("GetGarageView failed: %v", err)
	}
	if view.IsOwner {
		t.Error("anonymous viewer must not be owner")
	}
	if len(view.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(view.Items))
	}

	first := view.Items[0]
	if first.InterestCount != 3 || first.PriceLabel != "$10.50" || first.PriceInput != "10.5" {
		t.Errorf("first item view = %+v", first)
	}
	second := view.Items[1]
	if second.InterestCount != 0 || second.PriceLabel != "FREE" || second.PriceInput != "" {
		t.Errorf("second item view = %+v", second)
	}
}

func TestGetGarageView_IsOwnerOnlyForBoundGarage(t *testing.T) {
	repo := newFakeGarageRepo("sale", "other")
	svc := newTestService(repo, nil)
	ctx := context.Background()

	view, err := svc.GetGarageView(ctx, "sale", repo.bySlug["sale"].ID)
	if err != nil {
		t.Fatalf("GetGarageView failed: %v", err)
	}
	if !view.IsOwner {
		t.Error("owner of this garage should be owner")
	}

	view, err = svc.GetGarageView(ctx, "sale", repo.bySlug["other"].ID)
	if err != nil {
		t.Fatalf("GetGarageView failed: %v", err)
	}
	if view.IsOwner {
		t.Error("owner of another garage must not be owner here")
	}
}

func TestListGarages_OrderedByTitle(t *testing.T) {
	svc := newTestService(newFakeGarageRepo("zebra", "apple", "mango"), nil)

	garages, err := svc.ListGarages(context.Background())
	if err != nil {
		t.Fatalf("ListGarages failed: %v", err)
	}
	var titles []string
	for _, g := range garages {
		titles = append(titles, g.Title)
	}
	if strings.Join(titles, ",") != "apple,mango,zebra" {
		t.Errorf("titles = %v", titles)
	}
}
