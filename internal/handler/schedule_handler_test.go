package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/itinerary"
	"github.com/KasumiMercury/primind-itinerary/internal/service/planner"
)

const (
	day1 = "2026-03-25"
	day2 = "2026-03-26"
)

func testTrip() domain.Trip {
	return domain.Trip{
		ID:         "tokyo",
		Title:      "Tokyo",
		StartDate:  day1,
		EndDate:    "2026-03-27",
		WakeupTime: "09:00",
		SleepTime:  "22:00",
	}
}

func seedItems() []domain.ScheduleItem {
	return []domain.ScheduleItem{
		{ID: "a", DayDate: day1, Kind: domain.KindActivity, Title: "Senso-ji", Location: "Sensoji Temple", StartTime: "09:00", Duration: "02:00", EndTime: "11:00", SortOrder: 0, Revision: 1},
		{ID: "b", DayDate: day1, Kind: domain.KindTransport, StartTime: "11:00", Duration: "00:30", EndTime: "11:30", SortOrder: 1, Revision: 2,
			TransportSegments: []domain.TransportSegment{{Mode: domain.ModeSubway, FromStation: "Asakusa", ToStation: "Ueno"}}},
		{ID: "c", DayDate: day1, Kind: domain.KindActivity, Title: "Museum", StartTime: "11:30", Duration: "01:00", EndTime: "12:30", SortOrder: 2, Revision: 3},
	}
}

type testEnv struct {
	router  *gin.Engine
	service *itinerary.Service
	repo    *domain.MockScheduleRepository
}

// setupRouter wires a real service over a mock repository that accepts
// every write.
func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	repo := domain.NewMockScheduleRepository(ctrl)
	repo.EXPECT().ListItems(gomock.Any()).Return(seedItems(), nil)

	svc := itinerary.NewService(testTrip(), repo, itinerary.WithBoardOptions(
		planner.WithIDGenerator(func() string { return "new-1" }),
	))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	t.Cleanup(svc.Wait)

	router := gin.New()
	api := router.Group("/api/v1")
	NewScheduleHandler(svc).RegisterRoutes(api)
	NewSyncHandler(svc).RegisterRoutes(api)

	return &testEnv{router: router, service: svc, repo: repo}
}

func (e *testEnv) acceptWrites() {
	e.repo.EXPECT().UpsertItem(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	e.repo.EXPECT().UpsertItems(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	e.repo.EXPECT().DeleteItem(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("failed to encode body: %v", err)
			}
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHandleGetTrip(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/api/v1/trip", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[TripResponse](t, w)
	if resp.Trip.ID != "tokyo" || len(resp.Days) != 3 {
		t.Errorf("unexpected trip response %+v", resp)
	}
	if resp.Days[0].Label != "03.25(Wed)" {
		t.Errorf("label: got %q", resp.Days[0].Label)
	}
}

func TestHandleGetDay(t *testing.T) {
	env := setupRouter(t)

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantItems int
	}{
		{name: "seeded day", path: "/api/v1/days/" + day1 + "/items", wantCode: http.StatusOK, wantItems: 3},
		{name: "empty day", path: "/api/v1/days/" + day2 + "/items", wantCode: http.StatusOK, wantItems: 0},
		{name: "malformed date", path: "/api/v1/days/march/items", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("code: got %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				resp := decode[ErrorResponse](t, w)
				if resp.Error != errorCodeValidation {
					t.Errorf("error: got %q, want %q", resp.Error, errorCodeValidation)
				}
				return
			}
			resp := decode[DayResponse](t, w)
			if len(resp.Items) != tt.wantItems {
				t.Errorf("items: got %d, want %d", len(resp.Items), tt.wantItems)
			}
			if resp.SpillsPastMidnight {
				t.Error("day should not spill past midnight")
			}
		})
	}
}

func TestHandleGetDay_DisplayTitle(t *testing.T) {
	env := setupRouter(t)

	resp := decode[DayResponse](t, env.do(t, http.MethodGet, "/api/v1/days/"+day1+"/items", nil))

	if got := resp.Items[1].DisplayTitle; got != "Asakusa → Ueno" {
		t.Errorf("DisplayTitle: got %q, want %q", got, "Asakusa → Ueno")
	}
}

func TestHandleGetDay_MapURL(t *testing.T) {
	env := setupRouter(t)

	resp := decode[DayResponse](t, env.do(t, http.MethodGet, "/api/v1/days/"+day1+"/items", nil))

	want := "https://www.google.com/maps/search/?api=1&query=Sensoji+Temple"
	if got := resp.Items[0].MapURL; got != want {
		t.Errorf("MapURL: got %q, want %q", got, want)
	}
	if got := resp.Items[1].MapURL; got != "" {
		t.Errorf("MapURL without location: got %q, want empty", got)
	}
}

func TestHandleAddItem(t *testing.T) {
	env := setupRouter(t)
	env.acceptWrites()

	w := env.do(t, http.MethodPost, "/api/v1/days/"+day1+"/items", AddItemRequest{
		Kind:  domain.KindActivity,
		Title: "Lunch",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("code: got %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	resp := decode[ChangeResponse](t, w)
	if resp.Item == nil {
		t.Fatal("item missing from response")
	}
	if resp.Item.StartTime != "12:30" || resp.Item.EndTime != "13:30" || resp.Item.SortOrder != 3 {
		t.Errorf("unexpected item %+v", resp.Item.ScheduleItem)
	}
}

func TestHandleAddItem_Pending(t *testing.T) {
	env := setupRouter(t)
	env.acceptWrites()

	w := env.do(t, http.MethodPost, "/api/v1/pending/items", AddItemRequest{Kind: domain.KindOther})

	if w.Code != http.StatusCreated {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusCreated)
	}
	pending := decode[PendingResponse](t, env.do(t, http.MethodGet, "/api/v1/pending", nil))
	if len(pending.Items) != 1 {
		t.Errorf("pending: got %d, want 1", len(pending.Items))
	}
}

func TestHandleAddItem_Invalid(t *testing.T) {
	env := setupRouter(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{name: "unknown kind", path: "/api/v1/days/" + day1 + "/items", body: AddItemRequest{Kind: "hotel"}},
		{name: "outside trip", path: "/api/v1/days/2026-05-01/items", body: AddItemRequest{Kind: domain.KindActivity}},
		{name: "malformed json", path: "/api/v1/days/" + day1 + "/items", body: "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("code: got %d, want %d", w.Code, http.StatusBadRequest)
			}
			if resp := decode[ErrorResponse](t, w); resp.Error != errorCodeValidation || resp.Message == "" {
				t.Errorf("unexpected error body %+v", resp)
			}
		})
	}
}

func TestHandleEditTime(t *testing.T) {
	env := setupRouter(t)
	env.acceptWrites()

	w := env.do(t, http.MethodPatch, "/api/v1/items/b/time", EditTimeRequest{
		Field: domain.FieldDuration,
		Value: "0100",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[ChangeResponse](t, w)
	if !resp.Applied || len(resp.Upserted) != 2 {
		t.Errorf("unexpected change %+v", resp)
	}
	if resp.Item == nil || resp.Item.EndTime != "12:00" {
		t.Errorf("item: got %+v", resp.Item)
	}
}

func TestHandleEditTime_Errors(t *testing.T) {
	env := setupRouter(t)

	tests := []struct {
		name        string
		path        string
		body        EditTimeRequest
		wantCode    int
		wantApplied bool
	}{
		{name: "end time is derived", path: "/api/v1/items/a/time", body: EditTimeRequest{Field: domain.FieldEndTime, Value: "1000"}, wantCode: http.StatusBadRequest},
		{name: "missing item is a no-op", path: "/api/v1/items/ghost/time", body: EditTimeRequest{Field: domain.FieldStartTime, Value: "1000"}, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPatch, tt.path, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("code: got %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				resp := decode[ChangeResponse](t, w)
				if resp.Applied != tt.wantApplied || resp.Item != nil {
					t.Errorf("unexpected change %+v", resp)
				}
			}
		})
	}
}

func TestHandleUpdateDetails(t *testing.T) {
	env := setupRouter(t)
	env.acceptWrites()

	notes := "buy omamori"
	w := env.do(t, http.MethodPatch, "/api/v1/items/a", UpdateDetailsRequest{Notes: &notes})

	if w.Code != http.StatusOK {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[ChangeResponse](t, w)
	if resp.Item == nil || resp.Item.Notes != notes || resp.Item.Title != "Senso-ji" {
		t.Errorf("item: got %+v", resp.Item)
	}
}

func TestHandleSegments(t *testing.T) {
	env := setupRouter(t)
	env.acceptWrites()

	w := env.do(t, http.MethodPost, "/api/v1/items/b/segments", domain.TransportSegment{FromStation: "Ueno", ToStation: "Tokyo"})
	if w.Code != http.StatusOK {
		t.Fatalf("add: code %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[ChangeResponse](t, w)
	if resp.Item == nil || resp.Item.DisplayTitle != "Asakusa → Tokyo" {
		t.Errorf("item: got %+v", resp.Item)
	}

	w = env.do(t, http.MethodPut, "/api/v1/items/b/segments/0", domain.TransportSegment{Mode: domain.ModeWalk, FromStation: "Kaminarimon", ToStation: "Ueno"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: code %d, want %d", w.Code, http.StatusOK)
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "index out of range", path: "/api/v1/items/b/segments/9"},
		{name: "index not a number", path: "/api/v1/items/b/segments/first"},
		{name: "not a transport item", path: "/api/v1/items/a/segments/0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, tt.path, domain.TransportSegment{})
			if w.Code != http.StatusBadRequest {
				t.Errorf("code: got %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleReorder(t *testing.T) {
	env := setupRouter(t)
	env.acceptWrites()

	w := env.do(t, http.MethodPut, "/api/v1/days/"+day1+"/order", ReorderRequest{Order: []string{"c", "a", "b"}})

	if w.Code != http.StatusOK {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[ChangeResponse](t, w)
	if len(resp.Upserted) != 3 {
		t.Fatalf("upserted: got %d, want 3", len(resp.Upserted))
	}

	day := decode[DayResponse](t, env.do(t, http.MethodGet, "/api/v1/days/"+day1+"/items", nil))
	wantIDs := []string{"c", "a", "b"}
	wantStarts := []string{"09:00", "10:00", "12:00"}
	for i := range wantIDs {
		if day.Items[i].ID != wantIDs[i] || day.Items[i].StartTime != wantStarts[i] || day.Items[i].SortOrder != i {
			t.Errorf("items[%d]: got %s at %s (order %d), want %s at %s", i,
				day.Items[i].ID, day.Items[i].StartTime, day.Items[i].SortOrder, wantIDs[i], wantStarts[i])
		}
	}
}

func TestHandleMove(t *testing.T) {
	env := setupRouter(t)
	env.acceptWrites()

	target := day2
	w := env.do(t, http.MethodPost, "/api/v1/items/b/move", MoveRequest{DayDate: &target})
	if w.Code != http.StatusOK {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[ChangeResponse](t, w)
	if resp.Item == nil || resp.Item.DayDate != day2 || resp.Item.StartTime != "11:00" {
		t.Errorf("moved item: got %+v", resp.Item)
	}

	pending := ""
	w = env.do(t, http.MethodPost, "/api/v1/items/a/move", MoveRequest{DayDate: &pending})
	if w.Code != http.StatusOK {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusOK)
	}

	day := decode[DayResponse](t, env.do(t, http.MethodGet, "/api/v1/days/"+day1+"/items", nil))
	if len(day.Items) != 1 || day.Items[0].ID != "c" || day.Items[0].StartTime != "09:00" {
		t.Errorf("day1 after moves: got %+v", day.Items)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/items/c/move", "{}"); w.Code != http.StatusBadRequest {
		t.Errorf("missing day_date: got %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleDelete(t *testing.T) {
	env := setupRouter(t)
	env.acceptWrites()

	w := env.do(t, http.MethodDelete, "/api/v1/items/a", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[ChangeResponse](t, w)
	if !resp.Applied || len(resp.Deleted) != 1 || resp.Deleted[0] != "a" || resp.Item != nil {
		t.Errorf("unexpected change %+v", resp)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/items/a", nil)
	if resp := decode[ChangeResponse](t, w); w.Code != http.StatusOK || resp.Applied {
		t.Errorf("second delete: code %d, applied %v", w.Code, resp.Applied)
	}
}

func TestHandleExportCSV(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/api/v1/export.csv", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("code: got %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}

	rows, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows: got %d, want 4", len(rows))
	}
	if rows[0][0] != "day_date" {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[2][4] != "Asakusa → Ueno" || rows[2][10] != "subway: Asakusa → Ueno" {
		t.Errorf("transport row: got %v", rows[2])
	}
	if rows[1][1] != "03.25(Wed)" {
		t.Errorf("label: got %q", rows[1][1])
	}
}

func TestSyncHandlers(t *testing.T) {
	env := setupRouter(t)
	errDown := errors.New("redis down")

	first := env.repo.EXPECT().UpsertItem(gomock.Any(), gomock.Any()).Return(errDown)
	env.repo.EXPECT().UpsertItem(gomock.Any(), gomock.Any()).Return(nil).After(first)

	title := "Asakusa"
	if w := env.do(t, http.MethodPatch, "/api/v1/items/a", UpdateDetailsRequest{Title: &title}); w.Code != http.StatusOK {
		t.Fatalf("update: code %d", w.Code)
	}
	env.service.Wait()

	failures := decode[FailuresResponse](t, env.do(t, http.MethodGet, "/api/v1/sync/failures", nil))
	if failures.Count != 1 || failures.Failures[0].ItemID != "a" || failures.Failures[0].Message != errDown.Error() {
		t.Fatalf("unexpected failures %+v", failures)
	}

	w := env.do(t, http.MethodPost, "/api/v1/sync/retry", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("retry: code %d", w.Code)
	}
	result := decode[itinerary.RetryResult](t, w)
	if result.Attempted != 1 || result.Remaining != 0 {
		t.Errorf("unexpected retry result %+v", result)
	}
}
