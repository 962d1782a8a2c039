package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"spendview/internal/catalog"
	"spendview/internal/charts"
	"spendview/internal/core"
	"spendview/internal/ports"
	"spendview/internal/storage"
)

type fakeSession struct {
	table  core.ResultTable
	err    error
	ran    []string
	closed int
}

func (s *fakeSession) Run(_ context.Context, entry catalog.Entry) (core.ResultTable, error) {
	s.ran = append(s.ran, entry.Label)
	if s.err != nil {
		return core.ResultTable{}, &storage.QueryError{Label: entry.Label, Err: s.err}
	}
	return s.table, nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeOpener struct {
	session *fakeSession
	err     error
	calls   int
}

func (o *fakeOpener) Open(_ context.Context, creds core.Credentials) (ports.QuerySession, error) {
	o.calls++
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if o.err != nil {
		return nil, o.err
	}
	return o.session, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []core.QueryEvent
	err    error
}

func (p *fakePublisher) PublishQueryExecuted(_ context.Context, ev core.QueryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var creds = core.Credentials{Username: "analyst", Password: "hunter2"}

func newService(session *fakeSession, openErr error, pub *fakePublisher) (*DashboardService, *fakeOpener) {
	opener := &fakeOpener{session: session, err: openErr}
	var publisher ports.EventPublisher
	if pub != nil {
		publisher = pub
	}
	return NewDashboardService(catalog.MustLoad(catalog.SQLite), opener, publisher, nil), opener
}

func TestRenderMissingCredentials(t *testing.T) {
	session := &fakeSession{}
	svc, _ := newService(session, nil, nil)

	_, err := svc.Render(context.Background(), core.Credentials{Username: "analyst"}, "Total Transactions")
	if !errors.Is(err, core.ErrMissingCredentials) {
		t.Fatalf("Render() error = %v, want ErrMissingCredentials", err)
	}
	if len(session.ran) != 0 {
		t.Errorf("ran %v without credentials", session.ran)
	}
}

func TestRenderConnectError(t *testing.T) {
	session := &fakeSession{}
	connErr := &storage.ConnectError{Driver: "mysql", Err: errors.New("access denied")}
	svc, _ := newService(session, connErr, nil)

	_, err := svc.Render(context.Background(), creds, "Total Transactions")
	var ce *storage.ConnectError
	if !errors.As(err, &ce) {
		t.Fatalf("Render() error = %v, want *ConnectError", err)
	}
	if len(session.ran) != 0 {
		t.Error("query ran after a failed connection")
	}
}

func TestRenderUnknownQuery(t *testing.T) {
	svc, opener := newService(&fakeSession{}, nil, nil)

	_, err := svc.Render(context.Background(), creds, "SELECT 1")
	if !errors.Is(err, core.ErrUnknownQuery) {
		t.Fatalf("Render() error = %v, want ErrUnknownQuery", err)
	}
	if opener.calls != 0 {
		t.Error("connected for an unknown query")
	}
}

func TestRenderBarChart(t *testing.T) {
	session := &fakeSession{table: core.ResultTable{
		Columns: []string{"Category", "total_spent"},
		Rows:    []core.Row{{"Food", 30.0}, {"Travel", 5.0}},
	}}
	pub := &fakePublisher{}
	svc, _ := newService(session, nil, pub)

	page, err := svc.Render(context.Background(), creds, "Spending by Category")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if page.ChartKind != charts.KindBar || page.Chart == "" {
		t.Errorf("chart = %q (%d bytes), want bar", page.ChartKind, len(page.Chart))
	}
	if page.ChartErr != nil {
		t.Errorf("ChartErr = %v", page.ChartErr)
	}
	if page.Table.Len() != 2 {
		t.Errorf("rows = %d, want 2", page.Table.Len())
	}
	if session.closed != 1 {
		t.Errorf("session closed %d times, want 1", session.closed)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if !ev.Success || ev.Rows != 2 || ev.Columns != 2 || ev.Slug != "spending-by-category" {
		t.Errorf("event = %+v", ev)
	}
	if strings.Contains(ev.Error+ev.Label+ev.Slug, creds.Password) {
		t.Error("event leaked the password")
	}
}

func TestRenderTableOnly(t *testing.T) {
	session := &fakeSession{table: core.ResultTable{
		Columns: []string{"Total_Transactions"},
		Rows:    []core.Row{{int64(3)}},
	}}
	svc, _ := newService(session, nil, nil)

	page, err := svc.Render(context.Background(), creds, "Total Transactions")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if page.Chart != "" || page.Headline != "" || page.ChartErr != nil {
		t.Errorf("table-only label produced chart=%d bytes headline=%q err=%v", len(page.Chart), page.Headline, page.ChartErr)
	}
}

func TestRenderHeadline(t *testing.T) {
	session := &fakeSession{table: core.ResultTable{
		Columns: []string{"Total_Cashback"},
		Rows:    []core.Row{{812.25}},
	}}
	svc, _ := newService(session, nil, nil)

	page, err := svc.Render(context.Background(), creds, "Total Cashback Received")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if page.Headline != "Total Cashback Received: 812.25" {
		t.Errorf("Headline = %q", page.Headline)
	}
}

func TestRenderQueryErrorReleasesSession(t *testing.T) {
	session := &fakeSession{err: errors.New("Unknown column 'Amount Paid'")}
	pub := &fakePublisher{}
	svc, _ := newService(session, nil, pub)

	_, err := svc.Render(context.Background(), creds, "Total Amount Spent")
	var qe *storage.QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("Render() error = %v, want *QueryError", err)
	}
	if session.closed != 1 {
		t.Errorf("session closed %d times, want 1", session.closed)
	}
	if len(pub.events) != 1 || pub.events[0].Success || pub.events[0].Error != "Unknown column 'Amount Paid'" {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestRenderBindingErrorKeepsTable(t *testing.T) {
	session := &fakeSession{table: core.ResultTable{
		Columns: []string{"Category", "SUM(`Amount Paid`)"},
		Rows:    []core.Row{{"Food", 30.0}},
	}}
	svc, _ := newService(session, nil, nil)

	page, err := svc.Render(context.Background(), creds, "Spending by Category")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	var be *charts.BindingError
	if !errors.As(page.ChartErr, &be) {
		t.Fatalf("ChartErr = %v, want *BindingError", page.ChartErr)
	}
	if page.Table.Len() != 1 || page.Chart != "" {
		t.Errorf("page = %+v", page)
	}
	if session.closed != 1 {
		t.Errorf("session closed %d times, want 1", session.closed)
	}
}

func TestPublishFailureDoesNotFailPass(t *testing.T) {
	session := &fakeSession{table: core.ResultTable{Columns: []string{"Total_Transactions"}, Rows: []core.Row{{int64(0)}}}}
	svc, _ := newService(session, nil, &fakePublisher{err: errors.New("broker down")})

	if _, err := svc.Render(context.Background(), creds, "Total Transactions"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
}
