package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/imovlocal/backend/internal/api/dto"
	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/validator"
	"github.com/imovlocal/backend/internal/services"
	"github.com/imovlocal/backend/internal/testutil"
)

type demandHarness struct {
	handler *DemandHandler
	props   *testutil.MockPropertyRepository
	notes   *testutil.MockNotificationRepository

	buyer  *user.User
	seller *user.User
	owner  *user.User
	admin  *user.User
}

func newDemandHarness() *demandHarness {
	demands := testutil.NewMockDemandRepository()
	proposals := testutil.NewMockProposalRepository(demands)
	props := testutil.NewMockPropertyRepository()
	notes := testutil.NewMockNotificationRepository()
	log := testutil.NewTestLogger()

	notifier := services.NewNotificationService(notes, testutil.NewMockUserRepository(), log)
	matcher := services.NewMatchmakingService(props, notifier, 100, log)
	service := services.NewDemandService(demands, proposals, props, matcher, notifier, demand.Policy{}, log)

	return &demandHarness{
		handler: NewDemandHandler(service, log, validator.New()),
		props:   props,
		notes:   notes,
		buyer:   testutil.NewUser("buyer", user.TypeCorretor),
		seller:  testutil.NewUser("seller", user.TypeImobiliaria),
		owner:   testutil.NewUser("owner", user.TypeParticular),
		admin:   testutil.NewUser("admin", user.TypeAdmin),
	}
}

func validDemandRequest() dto.CreateDemandRequest {
	return dto.CreateDemandRequest{
		PropertyType:  "Apartamento",
		City:          "Curitiba",
		Neighborhoods: []string{"Batel", "Centro"},
		PriceMin:      200000,
		PriceMax:      500000,
		Commission:    50,
	}
}

func (h *demandHarness) createDemand(t *testing.T) *demand.Demand {
	t.Helper()
	rr, env := serve(t, http.MethodPost, "/demands", "/demands", h.handler.Create, h.buyer, validDemandRequest())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create demand status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var d demand.Demand
	decodeData(t, env, &d)
	return &d
}

func TestDemandHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		user       func(h *demandHarness) *user.User
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "broker posts demand",
			user:       func(h *demandHarness) *user.User { return h.buyer },
			body:       validDemandRequest(),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "private owner is refused",
			user:       func(h *demandHarness) *user.User { return h.owner },
			body:       validDemandRequest(),
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "anonymous",
			user:       func(h *demandHarness) *user.User { return nil },
			body:       validDemandRequest(),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "malformed json",
			user:       func(h *demandHarness) *user.User { return h.buyer },
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name: "missing neighborhoods",
			user: func(h *demandHarness) *user.User { return h.buyer },
			body: func() dto.CreateDemandRequest {
				req := validDemandRequest()
				req.Neighborhoods = nil
				return req
			}(),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name: "inverted price range",
			user: func(h *demandHarness) *user.User { return h.buyer },
			body: func() dto.CreateDemandRequest {
				req := validDemandRequest()
				req.PriceMin = 600000
				return req
			}(),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDemandHarness()
			rr, env := serve(t, http.MethodPost, "/demands", "/demands", h.handler.Create, tt.user(h), tt.body)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantCode != "" && env.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", env.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestDemandHandler_CreateNotifiesMatchingOwners(t *testing.T) {
	h := newDemandHarness()
	h.props.Create(context.Background(), &property.Property{
		OwnerID:      h.seller.ID,
		Title:        "Apto no Batel",
		PropertyType: "Apartamento",
		Price:        350000,
		Neighborhood: "Batel",
		City:         "Curitiba",
	})

	d := h.createDemand(t)

	got := h.notes.ForUser(h.seller.ID)
	if len(got) != 1 {
		t.Fatalf("seller notifications = %d, want 1", len(got))
	}
	if got[0].Type != notification.TypeOpportunity {
		t.Errorf("notification type = %s, want %s", got[0].Type, notification.TypeOpportunity)
	}
	if len(h.notes.ForUser(h.buyer.ID)) != 0 {
		t.Errorf("demand creator %s should not be notified about demand %s", h.buyer.ID, d.ID)
	}
}

func TestDemandHandler_List(t *testing.T) {
	h := newDemandHarness()
	h.createDemand(t)

	tests := []struct {
		name       string
		user       *user.User
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "active demands", user: h.seller, wantStatus: http.StatusOK, wantCount: 1},
		{name: "neighborhood filter", user: h.seller, query: "?neighborhood=Centro", wantStatus: http.StatusOK, wantCount: 1},
		{name: "no match", user: h.seller, query: "?neighborhood=Portao", wantStatus: http.StatusOK, wantCount: 0},
		{name: "closed demands", user: h.seller, query: "?status=closed", wantStatus: http.StatusOK, wantCount: 0},
		{name: "bad status", user: h.seller, query: "?status=open", wantStatus: http.StatusBadRequest},
		{name: "bad price", user: h.seller, query: "?price_min=cheap", wantStatus: http.StatusBadRequest},
		{name: "private owner", user: h.owner, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := serve(t, http.MethodGet, "/demands", "/demands"+tt.query, h.handler.List, tt.user, nil)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if rr.Code == http.StatusOK {
				var demands []demand.Demand
				decodeData(t, env, &demands)
				if len(demands) != tt.wantCount {
					t.Errorf("count = %d, want %d", len(demands), tt.wantCount)
				}
			}
		})
	}
}

func TestDemandHandler_GetUpdateDelete(t *testing.T) {
	h := newDemandHarness()
	d := h.createDemand(t)

	rr, env := serve(t, http.MethodGet, "/demands/{id}", "/demands/"+d.ID, h.handler.Get, h.seller, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var got demand.Demand
	decodeData(t, env, &got)
	if got.ViewCount != 1 {
		t.Errorf("view count = %d, want 1", got.ViewCount)
	}

	rr, _ = serve(t, http.MethodGet, "/demands/{id}", "/demands/missing", h.handler.Get, h.seller, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get missing status = %d, want 404", rr.Code)
	}

	closed := "closed"
	rr, _ = serve(t, http.MethodPut, "/demands/{id}", "/demands/"+d.ID, h.handler.Update, h.seller, dto.UpdateDemandRequest{Status: &closed})
	if rr.Code != http.StatusForbidden {
		t.Errorf("update by other broker status = %d, want 403", rr.Code)
	}

	bogus := "sold"
	rr, _ = serve(t, http.MethodPut, "/demands/{id}", "/demands/"+d.ID, h.handler.Update, h.buyer, dto.UpdateDemandRequest{Status: &bogus})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("update with unknown status = %d, want 400", rr.Code)
	}

	rr, env = serve(t, http.MethodPut, "/demands/{id}", "/demands/"+d.ID, h.handler.Update, h.buyer, dto.UpdateDemandRequest{Status: &closed})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}
	decodeData(t, env, &got)
	if got.Status != demand.StatusClosed {
		t.Errorf("status = %s, want closed", got.Status)
	}

	rr, _ = serve(t, http.MethodDelete, "/demands/{id}", "/demands/"+d.ID, h.handler.Delete, h.seller, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("delete by other broker status = %d, want 403", rr.Code)
	}
	rr, env = serve(t, http.MethodDelete, "/demands/{id}", "/demands/"+d.ID, h.handler.Delete, h.buyer, nil)
	if rr.Code != http.StatusOK || env.Message != "Demand deleted" {
		t.Errorf("delete status = %d, message = %q", rr.Code, env.Message)
	}
	rr, _ = serve(t, http.MethodGet, "/demands/{id}", "/demands/"+d.ID, h.handler.Get, h.buyer, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rr.Code)
	}
}

func TestDemandHandler_ProposalFlow(t *testing.T) {
	h := newDemandHarness()
	d := h.createDemand(t)
	target := "/demands/" + d.ID + "/proposals"

	rr, _ := serve(t, http.MethodPost, "/demands/{id}/proposals", target, h.handler.CreateProposal, h.buyer,
		dto.CreateProposalRequest{Message: "Tenho um imóvel"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("proposal to own demand status = %d, want 400", rr.Code)
	}

	rr, _ = serve(t, http.MethodPost, "/demands/{id}/proposals", target, h.handler.CreateProposal, h.seller,
		dto.CreateProposalRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("proposal without message status = %d, want 400", rr.Code)
	}

	rr, env := serve(t, http.MethodPost, "/demands/{id}/proposals", target, h.handler.CreateProposal, h.seller,
		dto.CreateProposalRequest{Message: "Tenho um apartamento no Batel"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create proposal status = %d, body %s", rr.Code, rr.Body.String())
	}
	var p demand.Proposal
	decodeData(t, env, &p)

	rr, _ = serve(t, http.MethodPost, "/demands/{id}/proposals", target, h.handler.CreateProposal, h.seller,
		dto.CreateProposalRequest{Message: "De novo"})
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate proposal status = %d, want 409", rr.Code)
	}

	rr, _ = serve(t, http.MethodGet, "/demands/{id}/proposals", target, h.handler.ListProposals, h.seller, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("list proposals by offerer status = %d, want 403", rr.Code)
	}
	rr, env = serve(t, http.MethodGet, "/demands/{id}/proposals", target, h.handler.ListProposals, h.buyer, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list proposals status = %d", rr.Code)
	}
	var proposals []demand.Proposal
	decodeData(t, env, &proposals)
	if len(proposals) != 1 {
		t.Errorf("proposals = %d, want 1", len(proposals))
	}

	accept := "/proposals/" + p.ID + "/accept"
	rr, _ = serve(t, http.MethodPut, "/proposals/{id}/accept", accept, h.handler.AcceptProposal, h.seller, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("accept by offerer status = %d, want 403", rr.Code)
	}
	rr, env = serve(t, http.MethodPut, "/proposals/{id}/accept", accept, h.handler.AcceptProposal, h.buyer, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body %s", rr.Code, rr.Body.String())
	}
	var res dto.ProposalActionResponse
	decodeData(t, env, &res)
	if res.Message != "Proposta aceita" || res.Proposal.Status != demand.ProposalAccepted {
		t.Errorf("accept response = %+v", res)
	}

	accepted := 0
	for _, n := range h.notes.ForUser(h.seller.ID) {
		if n.Type == notification.TypeProposalAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("proposal_accepted notifications = %d, want 1", accepted)
	}

	rr, _ = serve(t, http.MethodPut, "/proposals/{id}/reject", "/proposals/"+p.ID+"/reject", h.handler.RejectProposal, h.buyer, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("reject after accept status = %d, want 400", rr.Code)
	}
}

func TestDemandHandler_BoardReport(t *testing.T) {
	h := newDemandHarness()
	h.createDemand(t)

	rr, _ := serve(t, http.MethodGet, "/admin/opportunities", "/admin/opportunities", h.handler.BoardReport, h.buyer, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("report by broker status = %d, want 403", rr.Code)
	}

	rr, env := serve(t, http.MethodGet, "/admin/opportunities", "/admin/opportunities", h.handler.BoardReport, h.admin, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("report status = %d, body %s", rr.Code, rr.Body.String())
	}
	var report demand.BoardReport
	decodeData(t, env, &report)
	if report.TotalDemands != 1 {
		t.Errorf("total demands = %d, want 1", report.TotalDemands)
	}
}
