package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigmatch/internal/adapters/http/api"
	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type rematchCall struct {
	gigID    string
	limit    int
	enhanced bool
}

type mockDependencies struct {
	results    map[string][]model.MatchResult
	byTalent   map[string][]model.MatchResult
	findErr    error
	accept     bool
	rematchErr error
	lastLimit  int
	lastAI     bool
	rematches  []rematchCall
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		results: map[string][]model.MatchResult{
			"gig-1": {
				{ID: "m1", GigID: "gig-1", TalentID: "t1", Score: 8.5, Rank: 1, Algorithm: model.AlgorithmRuleBased},
				{ID: "m2", GigID: "gig-1", TalentID: "t2", Score: 6.1, Rank: 2, Algorithm: model.AlgorithmRuleBased},
			},
			"gig-empty": nil,
		},
		byTalent: map[string][]model.MatchResult{
			"t1": {{ID: "m1", GigID: "gig-1", TalentID: "t1", Score: 8.5, Rank: 1}},
		},
		accept: true,
	}
}

func (m *mockDependencies) FindMatches(_ context.Context, gigID string, limit int, useEnhanced bool) ([]model.MatchResult, error) {
	m.lastLimit, m.lastAI = limit, useEnhanced
	if m.findErr != nil {
		return nil, m.findErr
	}
	rs, ok := m.results[gigID]
	if !ok {
		return nil, fmt.Errorf("gig %s: %w", gigID, ranking.ErrNotFound)
	}
	if len(rs) > limit {
		rs = rs[:limit]
	}
	return rs, nil
}

func (m *mockDependencies) ResultsForGig(_ context.Context, gigID string) ([]model.MatchResult, error) {
	rs, ok := m.results[gigID]
	if !ok {
		return nil, fmt.Errorf("gig %s: %w", gigID, ranking.ErrNotFound)
	}
	return rs, nil
}

func (m *mockDependencies) ResultsForTalent(_ context.Context, talentID string) ([]model.MatchResult, error) {
	return m.byTalent[talentID], nil
}

func (m *mockDependencies) Rematch(_ context.Context, gigID string, limit int, enhanced bool) (bool, error) {
	if m.rematchErr != nil {
		return false, m.rematchErr
	}
	if _, ok := m.results[gigID]; !ok {
		return false, fmt.Errorf("gig %s: %w", gigID, ranking.ErrNotFound)
	}
	m.rematches = append(m.rematches, rematchCall{gigID, limit, enhanced})
	return m.accept, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any { return m.stats }

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_FindMatches(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDependencies()
		h := api.NewServer(deps, &mockStatsProvider{}, api.WithLimits(10, 100)).Routes()

		Convey("When a valid request omits limit", func() {
			w := do(h, http.MethodPost, "/api/v1/matches", `{"gig_id":"gig-1"}`)

			Convey("Then the default limit is used and the envelope is complete", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(deps.lastLimit, ShouldEqual, 10)
				body := decode(w)
				So(body["gig_id"], ShouldEqual, "gig-1")
				So(body["total_matches"], ShouldEqual, 2.0)
				So(body["algorithm_used"], ShouldEqual, "rule_based")
				So(body, ShouldContainKey, "processing_time_ms")
				matches := body["matches"].([]any)
				So(len(matches), ShouldEqual, 2)
				So(matches[0].(map[string]any)["rank"], ShouldEqual, 1.0)
			})
		})

		Convey("When use_ai is requested", func() {
			w := do(h, http.MethodPost, "/api/v1/matches", `{"gig_id":"gig-1","limit":1,"use_ai":true}`)

			Convey("Then the enhanced algorithm is reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastAI, ShouldBeTrue)
				body := decode(w)
				So(body["algorithm_used"], ShouldEqual, "ai_enhanced")
				So(body["total_matches"], ShouldEqual, 1.0)
			})
		})

		Convey("When nothing qualifies", func() {
			w := do(h, http.MethodPost, "/api/v1/matches", `{"gig_id":"gig-empty"}`)

			Convey("Then matches is an empty list, not null", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"matches":[]`)
			})
		})

		Convey("When the request is invalid", func() {
			bodies := []string{
				`{"gig_id":`,
				`{"limit":5}`,
				`{"gig_id":"   "}`,
				`{"gig_id":"gig-1","limit":0}`,
				`{"gig_id":"gig-1","limit":101}`,
				`{"gig_id":"gig-1","limit":"ten"}`,
				`{"gig_id":"gig-1","limit":-3}`,
			}
			for _, body := range bodies {
				w := do(h, http.MethodPost, "/api/v1/matches", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When the gig does not exist", func() {
			w := do(h, http.MethodPost, "/api/v1/matches", `{"gig_id":"nope"}`)

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the pipeline fails", func() {
			deps.findErr = fmt.Errorf("replace: %w", ranking.ErrPersist)
			w := do(h, http.MethodPost, "/api/v1/matches", `{"gig_id":"gig-1"}`)

			Convey("Then 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(w)["code"], ShouldEqual, "internal_error")
			})
		})
	})
}

func TestServer_Reads(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDependencies()
		h := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"talents": 4}}).Routes()

		Convey("Then gig matches are listed", func() {
			w := do(h, http.MethodGet, "/api/v1/gigs/gig-1/matches", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["total_matches"], ShouldEqual, 2.0)
		})

		Convey("Then an unknown gig is 404", func() {
			w := do(h, http.MethodGet, "/api/v1/gigs/nope/matches", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then talent matches are listed, empty for unknown talents", func() {
			w := do(h, http.MethodGet, "/api/v1/talents/t1/matches", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["total_matches"], ShouldEqual, 1.0)

			w = do(h, http.MethodGet, "/api/v1/talents/ghost/matches", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"matches":[]`)
		})

		Convey("Then stats are served as JSON", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["talents"], ShouldEqual, 4.0)
		})

		Convey("Then healthz serves Prometheus metrics", func() {
			do(h, http.MethodGet, "/stats", "")
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "gigmatch_")
		})

		Convey("Then the API document is served", func() {
			So(do(h, http.MethodGet, "/openapi.yaml", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/api-docs", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then unknown routes are 404 and wrong methods 405", func() {
			So(do(h, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodGet, "/api/v1/matches", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_Rematch(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDependencies()
		h := api.NewServer(deps, nil, api.WithLimits(10, 50)).Routes()

		Convey("When a rematch is accepted", func() {
			w := do(h, http.MethodPost, "/api/v1/gigs/gig-1/rematch?limit=5&use_ai=true", "")

			Convey("Then 202 is returned and the job parameters are forwarded", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode(w)["status"], ShouldEqual, "accepted")
				So(deps.rematches, ShouldResemble, []rematchCall{{"gig-1", 5, true}})
			})
		})

		Convey("When parameters are omitted", func() {
			w := do(h, http.MethodPost, "/api/v1/gigs/gig-1/rematch", "")
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.rematches, ShouldResemble, []rematchCall{{"gig-1", 10, false}})
		})

		Convey("When parameters are invalid", func() {
			So(do(h, http.MethodPost, "/api/v1/gigs/gig-1/rematch?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/api/v1/gigs/gig-1/rematch?limit=51", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/api/v1/gigs/gig-1/rematch?use_ai=maybe", "").Code, ShouldEqual, http.StatusBadRequest)
			So(deps.rematches, ShouldBeEmpty)
		})

		Convey("When the gig does not exist", func() {
			So(do(h, http.MethodPost, "/api/v1/gigs/nope/rematch", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the queue is full", func() {
			deps.accept = false
			So(do(h, http.MethodPost, "/api/v1/gigs/gig-1/rematch", "").Code, ShouldEqual, http.StatusTooManyRequests)

			deps.rematchErr = queue.ErrQueueFull
			So(do(h, http.MethodPost, "/api/v1/gigs/gig-1/rematch", "").Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("When stats have no provider", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestServer_RateLimit(t *testing.T) {
	Convey("Given a server limited to two API requests per minute", t, func() {
		h := api.NewServer(newMockDependencies(), nil, api.WithRateLimit(2, time.Minute)).Routes()

		Convey("Then the third request from one client is rejected", func() {
			So(do(h, http.MethodGet, "/api/v1/gigs/gig-1/matches", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/api/v1/gigs/gig-1/matches", "").Code, ShouldEqual, http.StatusOK)

			w := do(h, http.MethodGet, "/api/v1/gigs/gig-1/matches", "")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decode(w)["code"], ShouldEqual, "rate_limited")
		})

		Convey("Then operational routes are not limited", func() {
			for range 5 {
				So(do(h, http.MethodGet, "/stats", "").Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestServer_CORS(t *testing.T) {
	Convey("Given a server allowing one browser origin", t, func() {
		h := api.NewServer(newMockDependencies(), nil, api.WithCORS("https://app.example.com")).Routes()

		Convey("Then requests from that origin are echoed back", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set("Origin", "https://app.example.com")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://app.example.com")
		})

		Convey("Then other origins get no CORS headers", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set("Origin", "https://evil.example.com")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
		})
	})
}
