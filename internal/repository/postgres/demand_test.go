package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/repository/postgres"
	"github.com/imovlocal/backend/internal/testutil"
)

func newDemand(creator, propertyType string, min, max float64, neighborhoods ...string) *demand.Demand {
	return &demand.Demand{
		CreatorID:     creator,
		CreatorName:   "User " + creator,
		CreatorPhone:  "11999990000",
		PropertyType:  propertyType,
		City:          "Curitiba",
		Neighborhoods: neighborhoods,
		PriceMin:      min,
		PriceMax:      max,
		Commission:    50,
		Status:        demand.StatusActive,
	}
}

func TestDemandRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewDemandRepository(db)
	ctx := context.Background()

	beds := 2
	d := newDemand("c1", "Apartamento", 100000, 300000, "Centro", "Batel", "Água Verde")
	d.MinBedrooms = &beds
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Neighborhoods) != 3 || got.Neighborhoods[0] != "Centro" || got.Neighborhoods[2] != "Água Verde" {
		t.Errorf("Neighborhoods = %v, want insertion order", got.Neighborhoods)
	}
	if got.MinBedrooms == nil || *got.MinBedrooms != 2 || got.MinGarage != nil || got.MinArea != nil {
		t.Errorf("optional minimums = %v %v %v", got.MinBedrooms, got.MinGarage, got.MinArea)
	}
	if got.UpdatedAt != nil {
		t.Errorf("UpdatedAt = %v, want nil", got.UpdatedAt)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.IsNotFound(err) {
		t.Errorf("GetByID(missing) error = %v, want not found", err)
	}
}

func TestDemandRepository_RejectsInvalidPriceRange(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewDemandRepository(db)

	err := repo.Create(context.Background(), newDemand("c1", "Casa", 300000, 300000, "Centro"))
	if err == nil {
		t.Fatal("Create() accepted price_min == price_max")
	}
	list, _ := repo.List(context.Background(), demand.Filter{})
	if len(list) != 0 {
		t.Errorf("partial demand left behind: %d rows", len(list))
	}
}

func TestDemandRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewDemandRepository(db)
	ctx := context.Background()

	apto := newDemand("c1", "Apartamento", 100000, 300000, "Centro", "Batel")
	casa := newDemand("c2", "Casa", 400000, 900000, "Batel")
	closed := newDemand("c1", "Apartamento", 50000, 150000, "Centro")
	closed.Status = demand.StatusCancelled
	for _, d := range []*demand.Demand{apto, casa, closed} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	tests := []struct {
		name   string
		filter demand.Filter
		want   []string
	}{
		{name: "active newest first", filter: demand.Filter{Status: demand.StatusActive}, want: []string{casa.ID, apto.ID}},
		{name: "neighborhood", filter: demand.Filter{Status: demand.StatusActive, Neighborhood: "Centro"}, want: []string{apto.ID}},
		{name: "property type", filter: demand.Filter{PropertyType: "Casa"}, want: []string{casa.ID}},
		{name: "price bounds", filter: demand.Filter{PriceMin: ptrFloat(200000), PriceMax: ptrFloat(250000)}, want: []string{apto.ID}},
		{name: "creator", filter: demand.Filter{CreatorID: "c1"}, want: []string{closed.ID, apto.ID}},
		{name: "paging", filter: demand.Filter{Skip: 1, Limit: 1}, want: []string{casa.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() = %d demands, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("List()[%d] = %s, want %s", i, got[i].ID, tt.want[i])
				}
				if len(got[i].Neighborhoods) == 0 {
					t.Errorf("List()[%d] has no neighborhoods", i)
				}
			}
		})
	}
}

func ptrFloat(v float64) *float64 { return &v }

func TestDemandRepository_UpdateDeleteViews(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewDemandRepository(db)
	proposals := postgres.NewProposalRepository(db)
	ctx := context.Background()

	d := newDemand("c1", "Apartamento", 100000, 300000, "Centro")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementViews(ctx, d.ID); err != nil {
			t.Fatalf("IncrementViews() error = %v", err)
		}
	}
	if err := repo.IncrementViews(ctx, "missing"); !errors.IsNotFound(err) {
		t.Errorf("IncrementViews(missing) error = %v, want not found", err)
	}

	d.Neighborhoods = []string{"Batel", "Juvevê"}
	d.City = "Londrina"
	if err := repo.Update(ctx, d); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := repo.GetByID(ctx, d.ID)
	if got.ViewCount != 3 || got.City != "Londrina" || len(got.Neighborhoods) != 2 || got.Neighborhoods[0] != "Batel" || got.UpdatedAt == nil {
		t.Errorf("after update = %+v", got)
	}

	if err := proposals.Create(ctx, &demand.Proposal{DemandID: d.ID, OffererID: "c2", OffererName: "B", Message: "Oi"}); err != nil {
		t.Fatalf("proposal Create() error = %v", err)
	}
	if err := repo.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if list, _ := proposals.ListByDemand(ctx, d.ID); len(list) != 0 {
		t.Errorf("proposals after delete = %d", len(list))
	}
	if err := repo.Delete(ctx, d.ID); !errors.IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
}

func TestDemandRepository_UpdateKeepsConcurrentAccept(t *testing.T) {
	db := testutil.NewTestDB(t)
	demands := postgres.NewDemandRepository(db)
	proposals := postgres.NewProposalRepository(db)
	ctx := context.Background()

	d := newDemand("c1", "Casa", 200000, 400000, "Moema")
	if err := demands.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	p := &demand.Proposal{DemandID: d.ID, OffererID: "c2", OffererName: "B", Message: "Tenho uma casa"}
	if err := proposals.Create(ctx, p); err != nil {
		t.Fatalf("proposal Create() error = %v", err)
	}

	stale, err := demands.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if err := proposals.Accept(ctx, p.ID, time.Now().UTC()); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	stale.MustHave = "varanda"
	if err := demands.Update(ctx, stale); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := demands.GetByID(ctx, d.ID)
	if got.Status != demand.StatusInNegotiation {
		t.Errorf("status after stale update = %s, want in_negotiation", got.Status)
	}
	if got.MustHave != "varanda" || got.ProposalCount != 1 {
		t.Errorf("after update = %+v", got)
	}

	err = demands.UpdateStatus(ctx, d.ID, demand.StatusActive, demand.StatusCancelled, time.Now().UTC())
	if !errors.IsConflict(err) {
		t.Errorf("UpdateStatus(from stale active) error = %v, want conflict", err)
	}
	if err := demands.UpdateStatus(ctx, "missing", demand.StatusActive, demand.StatusCancelled, time.Now().UTC()); !errors.IsNotFound(err) {
		t.Errorf("UpdateStatus(missing) error = %v, want not found", err)
	}

	if err := demands.UpdateStatus(ctx, d.ID, demand.StatusInNegotiation, demand.StatusClosed, time.Now().UTC()); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	got.City = "Santos"
	if err := demands.Update(ctx, got); !errors.IsValidation(err) {
		t.Errorf("Update(closed) error = %v, want validation", err)
	}
}

func TestProposalRepository_Lifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	demands := postgres.NewDemandRepository(db)
	repo := postgres.NewProposalRepository(db)
	ctx := context.Background()

	d := newDemand("c1", "Apartamento", 100000, 300000, "Centro")
	demands.Create(ctx, d)

	price := 250000.0
	pb := &demand.Proposal{DemandID: d.ID, OffererID: "b", OffererName: "B", Message: "Tenho", PropertyPrice: &price, PropertyTitle: "Apto"}
	pc := &demand.Proposal{DemandID: d.ID, OffererID: "c", OffererName: "C", Message: "Eu também"}
	for _, p := range []*demand.Proposal{pb, pc} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	dup := &demand.Proposal{DemandID: d.ID, OffererID: "b", OffererName: "B", Message: "De novo"}
	if err := repo.Create(ctx, dup); !errors.IsConflict(err) {
		t.Errorf("duplicate Create() error = %v, want conflict", err)
	}
	got, _ := demands.GetByID(ctx, d.ID)
	if got.ProposalCount != 2 {
		t.Errorf("ProposalCount = %d, want 2", got.ProposalCount)
	}

	if ok, _ := repo.Exists(ctx, d.ID, "b"); !ok {
		t.Error("Exists(b) = false")
	}
	if ok, _ := repo.Exists(ctx, d.ID, "z"); ok {
		t.Error("Exists(z) = true")
	}

	stored, err := repo.GetByID(ctx, pb.ID)
	if err != nil || stored.PropertyPrice == nil || *stored.PropertyPrice != price || stored.Status != demand.ProposalPending {
		t.Errorf("GetByID() = %+v, %v", stored, err)
	}

	now := time.Now().UTC()
	if err := repo.Accept(ctx, pb.ID, now); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	got, _ = demands.GetByID(ctx, d.ID)
	if got.Status != demand.StatusInNegotiation {
		t.Errorf("demand status = %s, want in_negotiation", got.Status)
	}
	if err := repo.Accept(ctx, pb.ID, now); !errors.IsValidation(err) {
		t.Errorf("second Accept() error = %v, want validation", err)
	}

	// in_negotiation no longer takes new proposals
	late := &demand.Proposal{DemandID: d.ID, OffererID: "late", OffererName: "L", Message: "Oi"}
	if err := repo.Create(ctx, late); !errors.IsValidation(err) {
		t.Errorf("Create() on negotiating demand error = %v, want validation", err)
	}
	if ok, _ := repo.Exists(ctx, d.ID, "late"); ok {
		t.Error("rejected insert was not rolled back")
	}

	rejected, err := repo.RejectPending(ctx, d.ID, pb.ID, now)
	if err != nil || len(rejected) != 1 || rejected[0].ID != pc.ID || rejected[0].Status != demand.ProposalRejected {
		t.Fatalf("RejectPending() = %+v, %v", rejected, err)
	}
	if err := repo.Reject(ctx, pc.ID, now); !errors.IsValidation(err) {
		t.Errorf("Reject() of rejected proposal error = %v, want validation", err)
	}

	list, _ := repo.ListByDemand(ctx, d.ID)
	if len(list) != 2 || list[0].ID != pc.ID {
		t.Errorf("ListByDemand() = %+v, want newest first", list)
	}
}

func TestDemandRepository_StatsAndReport(t *testing.T) {
	db := testutil.NewTestDB(t)
	demands := postgres.NewDemandRepository(db)
	proposals := postgres.NewProposalRepository(db)
	ctx := context.Background()

	d1 := newDemand("c1", "Apartamento", 100000, 300000, "Centro")
	d2 := newDemand("c1", "Casa", 100000, 300000, "Centro")
	d3 := newDemand("c2", "Apartamento", 100000, 300000, "Centro")
	d3.City = "Londrina"
	for _, d := range []*demand.Demand{d1, d2, d3} {
		demands.Create(ctx, d)
	}
	p1 := &demand.Proposal{DemandID: d1.ID, OffererID: "c2", OffererName: "B", Message: "Oi"}
	p2 := &demand.Proposal{DemandID: d3.ID, OffererID: "c1", OffererName: "A", Message: "Oi"}
	proposals.Create(ctx, p1)
	proposals.Create(ctx, p2)
	proposals.Accept(ctx, p2.ID, time.Now())

	stats, err := demands.Stats(ctx, "c1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := demand.Stats{MyDemands: 2, MyActiveDemands: 2, MyProposals: 1, MyAccepted: 1, ReceivedProposals: 1}
	if *stats != want {
		t.Errorf("Stats() = %+v, want %+v", *stats, want)
	}

	report, err := demands.BoardReport(ctx, 2, 1)
	if err != nil {
		t.Fatalf("BoardReport() error = %v", err)
	}
	if report.TotalDemands != 3 || report.DemandsByStatus[demand.StatusInNegotiation] != 1 ||
		report.TotalProposals != 2 || report.AcceptedProposals != 1 {
		t.Errorf("BoardReport() totals = %+v", report)
	}
	if len(report.RecentDemands) != 2 {
		t.Errorf("RecentDemands = %d, want 2", len(report.RecentDemands))
	}
	if len(report.TopCreators) != 1 || report.TopCreators[0].Key != "User c1" || report.TopCreators[0].Count != 2 {
		t.Errorf("TopCreators = %+v", report.TopCreators)
	}
	if len(report.ByPropertyType) != 2 || report.ByPropertyType[0].Key != "Apartamento" {
		t.Errorf("ByPropertyType = %+v", report.ByPropertyType)
	}
	if len(report.TopCities) != 1 || report.TopCities[0].Key != "Curitiba" {
		t.Errorf("TopCities = %+v", report.TopCities)
	}
}

func TestPropertyRepository_FindMatching(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := postgres.NewUserRepository(db)
	repo := postgres.NewPropertyRepository(db)
	ctx := context.Background()

	for _, id := range []string{"o1", "o2"} {
		if err := users.Create(ctx, testutil.NewUser(id, user.TypeParticular)); err != nil {
			t.Fatalf("user Create() error = %v", err)
		}
	}
	props := []*property.Property{
		{OwnerID: "o1", Title: "A", PropertyType: "Apartamento", Price: 200000, Neighborhood: "Centro", City: "Curitiba", Bedrooms: 3},
		{OwnerID: "o1", Title: "B", PropertyType: "Apartamento", Price: 200000, Neighborhood: "Batel", City: "Curitiba", Bedrooms: 1},
		{OwnerID: "o2", Title: "C", PropertyType: "Apartamento", Price: 300000, Neighborhood: "Centro", City: "Curitiba", Status: property.StatusPaused},
		{OwnerID: "o2", Title: "D", PropertyType: "Casa", Price: 200000, Neighborhood: "Centro", City: "Curitiba"},
	}
	for _, p := range props {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	two := 2
	tests := []struct {
		name     string
		criteria property.MatchCriteria
		want     int
	}{
		{name: "type price and neighborhoods", criteria: property.MatchCriteria{PropertyType: "Apartamento", PriceMin: 100000, PriceMax: 300000, Neighborhoods: []string{"Centro", "Batel"}}, want: 2},
		{name: "min bedrooms", criteria: property.MatchCriteria{PropertyType: "Apartamento", PriceMin: 100000, PriceMax: 300000, Neighborhoods: []string{"Centro", "Batel"}, MinBedrooms: &two}, want: 1},
		{name: "other city", criteria: property.MatchCriteria{PropertyType: "Apartamento", PriceMin: 100000, PriceMax: 300000, Neighborhoods: []string{"Centro"}, City: "Londrina"}, want: 0},
		{name: "no neighborhoods", criteria: property.MatchCriteria{PropertyType: "Apartamento", PriceMin: 100000, PriceMax: 300000}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindMatching(ctx, tt.criteria, 100)
			if err != nil {
				t.Fatalf("FindMatching() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("FindMatching() = %d, want %d", len(got), tt.want)
			}
		})
	}

	if n, _ := repo.CountActiveByOwner(ctx, "o2"); n != 1 {
		t.Errorf("CountActiveByOwner(o2) = %d, want 1", n)
	}
}
