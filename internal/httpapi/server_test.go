package httpapi_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/BrandonDHaskell/roomlog/internal/httpapi"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store/memory"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// newTestServer returns a handler on a fresh in-memory ledger whose clock
// starts at 9:00 on Tuesday 2025-04-15.
func newTestServer(t *testing.T) (http.Handler, *service.Ledger, *memory.Store, *testClock) {
	t.Helper()

	docs := memory.New()
	clock := &testClock{now: time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC)}
	ledger := service.NewLedger(service.LedgerOptions{
		Store:    docs,
		Location: time.UTC,
		Clock:    clock.Now,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, ledger.Load(context.Background()))

	srv := httpapi.NewServer(httpapi.Dependencies{Logger: zerolog.Nop(), Ledger: ledger})
	return srv.Handler(), ledger, docs, clock
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ── Health ───────────────────────────────────────────────────────────────────

func TestHealthz(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	do(t, h, http.MethodGet, "/healthz", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "roomlog_http_requests_total")
}

func TestMetrics_UnmatchedPathsShareOneLabel(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/no-such-page-7f3a", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := do(t, h, http.MethodGet, "/metrics", nil).Body.String()
	require.Contains(t, body, `route="unmatched"`)
	require.NotContains(t, body, "no-such-page-7f3a")
}

// ── Signing ──────────────────────────────────────────────────────────────────

func TestSign_ManualThenAuto(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/sign", types.SignRequest{Token: "Alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[types.SignResponse](t, rec)
	require.True(t, resp.OK)
	require.Equal(t, types.ModeManual, resp.Mode)
	require.Equal(t, types.SignIn, resp.Event.Action)
	require.Equal(t, "2025-04-15 9:00 AM", resp.Event.Timestamp)
	require.Equal(t, "9:00 AM", resp.Event.Time)

	rec = do(t, h, http.MethodPost, "/v1/cards", types.LinkCardRequest{CardID: "CARD001", Name: "Alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/v1/sign", types.SignRequest{Token: "CARD001", Time: "12:30"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp = decode[types.SignResponse](t, rec)
	require.Equal(t, types.ModeAuto, resp.Mode)
	require.Equal(t, "Alice", resp.Event.Name)
	require.Equal(t, types.SignOut, resp.Event.Action)
	require.Equal(t, "12:30 PM", resp.Event.Time)
}

func TestSign_FormBody(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	form := url.Values{"token": {"Bob"}, "action": {"IN"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/sign", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "Bob", decode[types.SignResponse](t, rec).Event.Name)
}

func TestSign_Errors(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{name: "missing token", body: types.SignRequest{}, status: http.StatusBadRequest, code: "bad_request"},
		{name: "bad action", body: types.SignRequest{Token: "Bob", Action: "LUNCH"}, status: http.StatusBadRequest, code: "bad_request"},
		{name: "bad time", body: types.SignRequest{Token: "Bob", Time: "25:99"}, status: http.StatusBadRequest, code: "bad_timestamp"},
		{name: "unknown field", body: map[string]string{"tokn": "Bob"}, status: http.StatusBadRequest, code: "bad_json"},
		{name: "unregistered card", body: types.SignRequest{Token: "1234567890"}, status: http.StatusNotFound, code: "unregistered_card"},
		{name: "out first", body: types.SignRequest{Token: "Bob", Action: "OUT"}, status: http.StatusConflict, code: "invalid_sequence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/sign", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[types.ErrorResponse](t, rec)
			require.False(t, resp.OK)
			require.Equal(t, tt.code, resp.Error)
			require.NotEmpty(t, resp.Message)
		})
	}
}

func TestSign_PersistenceFailureIs500(t *testing.T) {
	h, ledger, docs, _ := newTestServer(t)
	docs.SetFailSave(context.DeadlineExceeded)

	rec := do(t, h, http.MethodPost, "/v1/sign", types.SignRequest{Token: "Bob"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "storage_error", decode[types.ErrorResponse](t, rec).Error)
	require.Empty(t, ledger.Events())
}

// ── Scanning ─────────────────────────────────────────────────────────────────

func TestScan_JSON(t *testing.T) {
	h, ledger, _, clock := newTestServer(t)
	require.NoError(t, ledger.LinkCard(context.Background(), "CARD001", "Bob"))

	rec := do(t, h, http.MethodPost, "/v1/scan", types.ScanRequest{CardID: "CARD001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, types.SignIn, decode[types.SignResponse](t, rec).Event.Action)

	clock.Set(time.Date(2025, 4, 15, 17, 0, 0, 0, time.UTC))
	rec = do(t, h, http.MethodPost, "/v1/scan", types.ScanRequest{CardID: "CARD001"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, types.SignOut, decode[types.SignResponse](t, rec).Event.Action)

	rec = do(t, h, http.MethodPost, "/v1/scan", types.ScanRequest{CardID: "CARD404"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "RFID card not registered. Please contact administrator.", decode[types.ErrorResponse](t, rec).Message)
}

func TestScan_Protobuf(t *testing.T) {
	h, ledger, _, _ := newTestServer(t)
	require.NoError(t, ledger.LinkCard(context.Background(), "CARD001", "Bob"))

	body, err := proto.Marshal(wrapperspb.String("CARD001"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/scan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/x-protobuf")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/x-protobuf", rec.Header().Get("Content-Type"))

	var out structpb.Struct
	require.NoError(t, proto.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.Fields["ok"].GetBoolValue())
	ev := out.Fields["event"].GetStructValue()
	require.Equal(t, "Bob", ev.Fields["name"].GetStringValue())
	require.Equal(t, "IN", ev.Fields["action"].GetStringValue())
}

func TestToday(t *testing.T) {
	h, ledger, _, _ := newTestServer(t)
	ctx := context.Background()
	_, err := ledger.AddEvent(ctx, "Bob", types.SignIn, time.Date(2025, 4, 15, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = ledger.AddEvent(ctx, "Bob", types.SignOut, time.Date(2025, 4, 15, 8, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = ledger.AddEvent(ctx, "Alice", types.SignIn, time.Date(2025, 4, 14, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/v1/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[types.RowsResponse](t, rec)
	require.Equal(t, "2025-04-15", resp.Filter.Date)
	require.Len(t, resp.Rows, 1)
	require.Equal(t, []types.PairView{{In: "8:00 AM", Out: "8:45 AM"}}, resp.Rows[0].Pairs)
}

// ── Admin ────────────────────────────────────────────────────────────────────

func TestEvents_AddEditDeleteWithFilter(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/events", types.AddEventRequest{Name: "Bob", Action: "IN", Timestamp: "2025-04-14 9:00 AM"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	in := decode[types.EventView](t, rec)

	rec = do(t, h, http.MethodPost, "/v1/events", types.AddEventRequest{Name: "Bob", Action: "out", Timestamp: "2025-04-14 5:00 PM"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[types.EventView](t, rec)

	rec = do(t, h, http.MethodPost, "/v1/events", types.AddEventRequest{Name: "Alice", Action: "IN", Timestamp: "2025-04-15 8:00 AM"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/events?date=2025-04-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[types.EventsResponse](t, rec)
	require.Equal(t, "date", list.Filter.Type)
	require.Equal(t, []string{"2025-04-15", "2025-04-14"}, list.Dates)
	require.Len(t, list.Events, 2)
	require.Equal(t, out.ID, list.Events[0].ID)

	rec = do(t, h, http.MethodPatch, "/v1/events/"+out.ID, types.EditEventRequest{Timestamp: "2025-04-14 8:00 AM"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPatch, "/v1/events/"+out.ID, types.EditEventRequest{Timestamp: "2025-04-14 4:30 PM"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "4:30 PM", decode[types.EventView](t, rec).Time)

	rec = do(t, h, http.MethodDelete, "/v1/events/"+in.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/v1/events/"+in.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/events?filter_type=week&week_date=2025-04-19", nil)
	list = decode[types.EventsResponse](t, rec)
	require.Equal(t, "2025-04-14", list.Filter.From)
	require.Equal(t, "2025-04-18", list.Filter.To)
	require.Len(t, list.Filter.Days, 5)
	require.Len(t, list.Events, 2)

	rec = do(t, h, http.MethodGet, "/v1/events?date=yesterday", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRowsAndExports(t *testing.T) {
	h, ledger, _, _ := newTestServer(t)
	ctx := context.Background()
	for _, e := range []struct {
		kind types.Kind
		hour int
	}{{types.SignIn, 9}, {types.SignOut, 12}, {types.SignIn, 13}} {
		_, err := ledger.AddEvent(ctx, "Bob", e.kind, time.Date(2025, 4, 15, e.hour, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}

	rec := do(t, h, http.MethodGet, "/v1/rows?filter_type=date", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[types.RowsResponse](t, rec)
	require.Len(t, rows.Rows, 1)
	require.Equal(t, []types.PairView{{In: "9:00 AM", Out: "12:00 PM"}, {In: "1:00 PM"}}, rows.Rows[0].Pairs)

	rec = do(t, h, http.MethodGet, "/v1/export.csv?date=2025-04-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "room_logs_2025-04-15.csv")
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Bob", "Apr. 15", "9:00 AM", "12:00 PM", "1:00 PM", "", "", "", "", ""}, records[1])

	rec = do(t, h, http.MethodGet, "/v1/export.xlsx?filter_type=week&week_date=2025-04-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "room_logs_2025-04-14_to_2025-04-18.xlsx")
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"2025-04-15"}, f.GetSheetList())
}

func TestPeopleAndCards(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/people", types.AddPersonRequest{Name: "Diana"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"Diana"}, decode[types.PeopleResponse](t, rec).People)

	rec = do(t, h, http.MethodPost, "/v1/cards", types.LinkCardRequest{CardID: "CARD001", Name: "Diana"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/cards", types.LinkCardRequest{CardID: "CARD001", Name: "Bob"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "duplicate_card", decode[types.ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodGet, "/v1/cards", nil)
	require.Equal(t, []types.CardLink{{CardID: "CARD001", Person: "Diana"}}, decode[types.CardsResponse](t, rec).Cards)

	rec = do(t, h, http.MethodDelete, "/v1/cards/CARD001", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/v1/cards/CARD001", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/people", nil)
	require.Equal(t, []string{"Diana"}, decode[types.PeopleResponse](t, rec).People)
}
