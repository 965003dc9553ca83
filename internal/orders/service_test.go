package orders

import (
	"context"
	"testing"

	"github.com/calebmoura/lumiere-gateway/internal/auth"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
)

type fakeOrderAPI struct {
	lastToken  string
	lastID     string
	lastStatus string
	lastPage   int
	lastLimit  int
}

func (f *fakeOrderAPI) ListMyOrders(ctx context.Context, token string) ([]upstream.Order, error) {
	f.lastToken = token
	return []upstream.Order{{ID: "ord-1", Status: "pending"}}, nil
}

func (f *fakeOrderAPI) GetOrder(ctx context.Context, token, id string) (*upstream.Order, error) {
	f.lastToken = token
	f.lastID = id
	return &upstream.Order{ID: id, Status: "shipped"}, nil
}

func (f *fakeOrderAPI) ListAllOrders(ctx context.Context, token string, page, limit int) (*upstream.OrderPage, error) {
	f.lastToken = token
	f.lastPage = page
	f.lastLimit = limit
	return &upstream.OrderPage{Orders: []upstream.Order{{ID: "ord-1"}}, Total: 1, Page: page}, nil
}

func (f *fakeOrderAPI) UpdateOrderStatus(ctx context.Context, token, id, status string) (*upstream.Order, error) {
	f.lastToken = token
	f.lastID = id
	f.lastStatus = status
	return &upstream.Order{ID: id, Status: status}, nil
}

type fakeTokens struct {
	token string
	err   error
}

func (f *fakeTokens) ValidToken(ctx context.Context, sess *auth.Session) (string, error) {
	return f.token, f.err
}

func customerSession() *auth.Session {
	return &auth.Session{ID: "sess-1", Token: "jwt", Role: "customer"}
}

func adminSession() *auth.Session {
	return &auth.Session{ID: "sess-1", Token: "jwt", Role: auth.RoleAdmin}
}

func newTestService(t *testing.T, api orderAPI, tokens tokenSource) Service {
	t.Helper()
	svc, err := NewService(api, tokens)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestListMineForwardsToken(t *testing.T) {
	api := &fakeOrderAPI{}
	svc := newTestService(t, api, &fakeTokens{token: "jwt"})

	orders, err := svc.ListMine(context.Background(), customerSession())
	if err != nil {
		t.Fatalf("ListMine failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "ord-1" {
		t.Fatalf("unexpected orders %+v", orders)
	}
	if api.lastToken != "jwt" {
		t.Fatalf("token not forwarded: %q", api.lastToken)
	}
}

func TestListMineTokenError(t *testing.T) {
	tokens := &fakeTokens{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")}
	svc := newTestService(t, &fakeOrderAPI{}, tokens)

	_, err := svc.ListMine(context.Background(), customerSession())
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGetRequiresID(t *testing.T) {
	svc := newTestService(t, &fakeOrderAPI{}, &fakeTokens{token: "jwt"})

	_, err := svc.Get(context.Background(), customerSession(), "  ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGetForwards(t *testing.T) {
	api := &fakeOrderAPI{}
	svc := newTestService(t, api, &fakeTokens{token: "jwt"})

	order, err := svc.Get(context.Background(), customerSession(), "ord-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if order.ID != "ord-7" || api.lastID != "ord-7" {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	svc := newTestService(t, &fakeOrderAPI{}, &fakeTokens{token: "jwt"})

	_, err := svc.ListAll(context.Background(), customerSession(), 1, 20)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("unexpected error %v", err)
	}
	_, err = svc.ListAll(context.Background(), nil, 1, 20)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestListAllForwardsPagination(t *testing.T) {
	api := &fakeOrderAPI{}
	svc := newTestService(t, api, &fakeTokens{token: "admin-jwt"})

	page, err := svc.ListAll(context.Background(), adminSession(), 2, 50)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if page.Page != 2 || api.lastPage != 2 || api.lastLimit != 50 {
		t.Fatalf("pagination not forwarded: %+v", api)
	}
	if api.lastToken != "admin-jwt" {
		t.Fatalf("token not forwarded: %q", api.lastToken)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	svc := newTestService(t, &fakeOrderAPI{}, &fakeTokens{token: "jwt"})

	_, err := svc.UpdateStatus(context.Background(), adminSession(), "", "shipped")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), adminSession(), "ord-1", "teleported")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestUpdateStatusNormalizes(t *testing.T) {
	api := &fakeOrderAPI{}
	svc := newTestService(t, api, &fakeTokens{token: "admin-jwt"})

	order, err := svc.UpdateStatus(context.Background(), adminSession(), "ord-1", " Shipped ")
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if order.Status != "shipped" || api.lastStatus != "shipped" {
		t.Fatalf("status not normalized: %q", api.lastStatus)
	}
}

func TestUpdateStatusRequiresAdmin(t *testing.T) {
	svc := newTestService(t, &fakeOrderAPI{}, &fakeTokens{token: "jwt"})

	_, err := svc.UpdateStatus(context.Background(), customerSession(), "ord-1", "shipped")
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("unexpected error %v", err)
	}
}
