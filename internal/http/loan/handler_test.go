package loan_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loanhttp "github.com/MrJamesThe3rd/moneyflow/internal/http/loan"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/moneyflow/internal/identity"
	"github.com/MrJamesThe3rd/moneyflow/internal/loan"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	m.Run()
}

// memRepo is an in-memory loan.Repository with the same version check as the SQL store.
type memRepo struct {
	mu        sync.Mutex
	loans     map[uuid.UUID]*loan.Loan
	conflicts int
	saves     int
}

func newMemRepo() *memRepo {
	return &memRepo{loans: map[uuid.UUID]*loan.Loan{}}
}

func clone(l *loan.Loan) *loan.Loan {
	c := *l
	c.Payments = slices.Clone(l.Payments)

	return &c
}

func (m *memRepo) CreateLoan(_ context.Context, l *loan.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.ID = uuid.New()
	l.Version = 1
	l.CreatedAt = now.Add(time.Duration(len(m.loans)) * time.Second)
	l.UpdatedAt = l.CreatedAt
	m.loans[l.ID] = clone(l)

	return nil
}

func (m *memRepo) GetLoan(_ context.Context, id, ownerID uuid.UUID) (*loan.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.loans[id]
	if !ok || l.OwnerID != ownerID {
		return nil, loan.ErrNotFound
	}

	return clone(l), nil
}

func (m *memRepo) SaveLoan(_ context.Context, l *loan.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++

	if m.conflicts > 0 {
		m.conflicts--
		return loan.ErrConflict
	}

	cur, ok := m.loans[l.ID]
	if !ok || cur.OwnerID != l.OwnerID {
		return loan.ErrNotFound
	}

	if cur.Version != l.Version {
		return loan.ErrConflict
	}

	l.Version++
	m.loans[l.ID] = clone(l)

	return nil
}

func (m *memRepo) DeleteLoan(_ context.Context, id, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.loans[id]
	if !ok || l.OwnerID != ownerID {
		return loan.ErrNotFound
	}

	delete(m.loans, id)

	return nil
}

func (m *memRepo) ListLoans(_ context.Context, ownerID uuid.UUID, filter loan.ListFilter) ([]*loan.Loan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*loan.Loan

	for _, l := range m.loans {
		if l.OwnerID != ownerID {
			continue
		}

		if filter.Direction != nil && l.Direction != *filter.Direction {
			continue
		}

		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}

		matched = append(matched, clone(l))
	}

	slices.SortFunc(matched, func(a, b *loan.Loan) int { return b.CreatedAt.Compare(a.CreatedAt) })

	total := len(matched)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)

	return matched[start:end], total, nil
}

type testAPI struct {
	t      *testing.T
	repo   *memRepo
	server http.Handler
	tokens *identity.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	repo := newMemRepo()
	tokens := identity.NewService("handler-test-secret", time.Hour)
	svc := loan.NewService(repo, loan.WithClock(func() time.Time { return now }))

	router := chi.NewRouter()
	router.Route("/loans", func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))
		loanhttp.NewHandler(svc).Routes(r)
	})

	return &testAPI{t: t, repo: repo, server: router, tokens: tokens}
}

func (a *testAPI) do(user uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()

	token, err := a.tokens.Issue(user, "")
	require.NoError(a.t, err)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)

	return rec
}

type paymentBody struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

type loanBody struct {
	ID                 uuid.UUID       `json:"id"`
	OwnerID            uuid.UUID       `json:"ownerId"`
	Direction          string          `json:"direction"`
	CounterpartyName   string          `json:"counterpartyName"`
	PrincipalAmount    decimal.Decimal `json:"principalAmount"`
	Status             string          `json:"status"`
	DueDate            string          `json:"dueDate"`
	Payments           []paymentBody   `json:"payments"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	AccruedInterest    decimal.Decimal `json:"accruedInterest"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
}

func decodeLoan(t *testing.T, rec *httptest.ResponseRecorder) loanBody {
	t.Helper()

	var body loanBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())

	return body
}

const createBody = `{
	"direction": "given",
	"counterpartyName": "Alice",
	"principalAmount": 1000,
	"interestRate": 12,
	"startDate": "2024-01-15",
	"dueDate": "2024-12-15",
	"description": "rent help"
}`

func (a *testAPI) createLoan(user uuid.UUID, body string) loanBody {
	a.t.Helper()

	rec := a.do(user, http.MethodPost, "/loans", body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	return decodeLoan(a.t, rec)
}

func TestCreate(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	rec := api.do(user, http.MethodPost, "/loans", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeLoan(t, rec)
	assert.Equal(t, user, got.OwnerID)
	assert.Equal(t, "active", got.Status)
	assert.Empty(t, got.Payments)
	assert.Equal(t, "2024-12-15", got.DueDate)
	// Five whole months at 12% a year on 1000.
	assert.True(t, decimal.NewFromInt(50).Equal(got.AccruedInterest), got.AccruedInterest.String())
	assert.True(t, decimal.NewFromInt(1050).Equal(got.OutstandingBalance), got.OutstandingBalance.String())
	assert.Contains(t, rec.Body.String(), `"outstandingBalance":1050`)
}

func TestCreate_OverdueAtCreation(t *testing.T) {
	api := newTestAPI(t)

	got := api.createLoan(uuid.New(), strings.Replace(createBody, "2024-12-15", "2024-05-31", 1))
	assert.Equal(t, "overdue", got.Status)
}

func TestCreate_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		from, to  string
		wantField string
	}{
		{name: "ZeroPrincipal", from: `"principalAmount": 1000`, to: `"principalAmount": 0`, wantField: "principalAmount"},
		{name: "RateAboveHundred", from: `"interestRate": 12`, to: `"interestRate": 150`, wantField: "interestRate"},
		{name: "UnknownDirection", from: `"direction": "given"`, to: `"direction": "lent"`, wantField: "direction"},
		{name: "BadDate", from: `"startDate": "2024-01-15"`, to: `"startDate": "15/01/2024"`, wantField: "startDate"},
		{name: "MissingCounterparty", from: `"counterpartyName": "Alice"`, to: `"counterpartyName": ""`, wantField: "counterpartyName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)

			rec := api.do(uuid.New(), http.MethodPost, "/loans", strings.Replace(createBody, tt.from, tt.to, 1))
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			assert.Contains(t, rec.Body.String(), `"field":"`+tt.wantField+`"`)
			assert.Empty(t, api.repo.loans)
		})
	}
}

func TestGet_ForeignOrMissingIsNotFound(t *testing.T) {
	api := newTestAPI(t)
	owner := uuid.New()

	created := api.createLoan(owner, createBody)

	assert.Equal(t, http.StatusOK, api.do(owner, http.MethodGet, "/loans/"+created.ID.String(), "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(uuid.New(), http.MethodGet, "/loans/"+created.ID.String(), "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(owner, http.MethodGet, "/loans/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(owner, http.MethodGet, "/loans/not-a-uuid", "").Code)
}

func TestRequiresToken(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/loans", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddPayment(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	created := api.createLoan(user, createBody)
	path := "/loans/" + created.ID.String() + "/payments"

	rec := api.do(user, http.MethodPost, path, `{"amount": 500, "date": "2024-03-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeLoan(t, rec)
	require.Len(t, got.Payments, 1)
	assert.NotEqual(t, uuid.Nil, got.Payments[0].ID)
	assert.Equal(t, "2024-03-01", got.Payments[0].Date)
	assert.Equal(t, "active", got.Status)
	assert.True(t, decimal.NewFromInt(500).Equal(got.TotalPaid))
	assert.True(t, decimal.NewFromInt(550).Equal(got.OutstandingBalance), got.OutstandingBalance.String())
}

func TestAddPayment_RejectsInvalidAmount(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	created := api.createLoan(user, createBody)
	path := "/loans/" + created.ID.String() + "/payments"

	bodies := []string{
		`{"amount": 0, "date": "2024-03-01"}`,
		`{"amount": -25, "date": "2024-03-01"}`,
		`{"amount": 0.004, "date": "2024-03-01"}`,
		`{"amount": 99.996, "date": "2024-03-01"}`,
	}

	for _, body := range bodies {
		rec := api.do(user, http.MethodPost, path, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	assert.Zero(t, api.repo.saves)
	assert.Empty(t, api.repo.loans[created.ID].Payments)
}

func TestAddPayment_UnknownLoan(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(uuid.New(), http.MethodPost, "/loans/"+uuid.NewString()+"/payments", `{"amount": 5, "date": "2024-03-01"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaidThenRemovePaymentReverts(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	created := api.createLoan(user, createBody)
	base := "/loans/" + created.ID.String()

	api.do(user, http.MethodPost, base+"/payments", `{"amount": 400, "date": "2024-02-01"}`)

	rec := api.do(user, http.MethodPost, base+"/payments", `{"amount": 600, "date": "2024-03-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	paid := decodeLoan(t, rec)
	require.Equal(t, "paid", paid.Status)
	// Interest is still owed even though the status is paid.
	assert.True(t, decimal.NewFromInt(50).Equal(paid.OutstandingBalance), paid.OutstandingBalance.String())

	rec = api.do(user, http.MethodDelete, base+"/payments/"+paid.Payments[1].ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	reverted := decodeLoan(t, rec)
	assert.Equal(t, "active", reverted.Status)
	require.Len(t, reverted.Payments, 1)
	assert.Equal(t, paid.Payments[0].ID, reverted.Payments[0].ID)
}

func TestRemovePayment_UnknownPaymentIsNoop(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	created := api.createLoan(user, createBody)
	base := "/loans/" + created.ID.String()

	api.do(user, http.MethodPost, base+"/payments", `{"amount": 100, "date": "2024-02-01"}`)

	rec := api.do(user, http.MethodDelete, base+"/payments/"+uuid.NewString(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeLoan(t, rec)
	assert.Len(t, got.Payments, 1)
	assert.Equal(t, "active", got.Status)
}

func TestUpdate_KeepsStatus(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	created := api.createLoan(user, createBody)

	rec := api.do(user, http.MethodPut, "/loans/"+created.ID.String(), `{"dueDate": "2024-02-01", "counterpartyName": "Alicia", "direction": "received"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeLoan(t, rec)
	assert.Equal(t, "Alicia", got.CounterpartyName)
	assert.Equal(t, "2024-02-01", got.DueDate)
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, "given", got.Direction)
}

func TestUpdate_Invalid(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	created := api.createLoan(user, createBody)

	rec := api.do(user, http.MethodPut, "/loans/"+created.ID.String(), `{"principalAmount": -1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	created := api.createLoan(user, createBody)
	path := "/loans/" + created.ID.String()

	assert.Equal(t, http.StatusNotFound, api.do(uuid.New(), http.MethodDelete, path, "").Code)

	rec := api.do(user, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Loan deleted successfully"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, api.do(user, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(user, http.MethodPost, path+"/payments", `{"amount": 1, "date": "2024-03-01"}`).Code)
}

func TestConflictAfterRetries(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	created := api.createLoan(user, createBody)
	api.repo.conflicts = 3

	rec := api.do(user, http.MethodPost, "/loans/"+created.ID.String()+"/payments", `{"amount": 10, "date": "2024-03-01"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, api.repo.loans[created.ID].Payments)
}

func TestList(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	api.createLoan(user, createBody)
	api.createLoan(user, strings.Replace(createBody, `"given"`, `"received"`, 1))
	api.createLoan(user, strings.Replace(createBody, "2024-12-15", "2024-01-31", 1))
	api.createLoan(uuid.New(), createBody)

	type listBody struct {
		Data       []loanBody `json:"data"`
		Pagination struct {
			Total      int `json:"total"`
			Page       int `json:"page"`
			Limit      int `json:"limit"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}

	tests := []struct {
		name      string
		query     string
		wantLen   int
		wantTotal int
		wantPages int
	}{
		{name: "All", query: "", wantLen: 3, wantTotal: 3, wantPages: 1},
		{name: "ByDirection", query: "?type=received", wantLen: 1, wantTotal: 1, wantPages: 1},
		{name: "ByStatus", query: "?status=overdue", wantLen: 1, wantTotal: 1, wantPages: 1},
		{name: "Paged", query: "?page=2&limit=2", wantLen: 1, wantTotal: 3, wantPages: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(user, http.MethodGet, "/loans"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got listBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

			assert.Len(t, got.Data, tt.wantLen)
			assert.Equal(t, tt.wantTotal, got.Pagination.Total)
			assert.Equal(t, tt.wantPages, got.Pagination.TotalPages)
		})
	}
}

func TestList_BadFilter(t *testing.T) {
	api := newTestAPI(t)

	for _, query := range []string{"?status=late", "?type=borrowed", "?limit=500", "?page=0"} {
		rec := api.do(uuid.New(), http.MethodGet, "/loans"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}
