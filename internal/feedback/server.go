// Package feedback serves the rating form that feeds the quality ranker:
// a list of today's insights and a POST endpoint accepting star ratings.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"insightd/internal/models"
)

// Store is the slice of the insight store the server needs.
type Store interface {
	GetInsight(ctx context.Context, id string) (*models.Insight, error)
	StoreFeedback(ctx context.Context, fb models.Feedback) (string, error)
	TodaysInsights(ctx context.Context) ([]models.Insight, error)
}

// Server hosts the feedback form and submission endpoint.
type Server struct {
	store  Store
	logger *slog.Logger
	http   *http.Server
}

// New creates a feedback server listening on addr.
func New(addr string, store Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("POST /feedback", s.handleSubmit)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("feedback server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down feedback server")
	return s.http.Shutdown(shutdownCtx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	insights, err := s.store.TodaysInsights(r.Context())
	if err != nil {
		s.logger.Error("list insights", "error", err)
		http.Error(w, "store unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{Insights: insights}); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

// submission accepts both the HTML form and JSON clients.
type submission struct {
	InsightID  string   `json:"insight_id"`
	StarRating int      `json:"star_rating"`
	Tags       []string `json:"tags"`
	Comment    string   `json:"comment"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, err := parseSubmission(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if sub.StarRating < 1 || sub.StarRating > 5 {
		http.Error(w, "star_rating must be between 1 and 5", http.StatusBadRequest)
		return
	}
	if sub.InsightID == "" {
		http.Error(w, "insight_id required", http.StatusBadRequest)
		return
	}

	ins, err := s.store.GetInsight(r.Context(), sub.InsightID)
	if err != nil {
		s.logger.Error("lookup insight", "insight_id", sub.InsightID, "error", err)
		http.Error(w, "store unavailable", http.StatusBadGateway)
		return
	}
	if ins == nil {
		http.Error(w, "unknown insight", http.StatusNotFound)
		return
	}

	id, err := s.store.StoreFeedback(r.Context(), models.Feedback{
		InsightID:  sub.InsightID,
		StarRating: sub.StarRating,
		Tags:       sub.Tags,
		Comment:    sub.Comment,
	})
	if err != nil {
		s.logger.Error("store feedback", "insight_id", sub.InsightID, "error", err)
		http.Error(w, "store unavailable", http.StatusBadGateway)
		return
	}

	s.logger.Info("feedback recorded",
		"feedback_id", id,
		"insight_id", sub.InsightID,
		"stars", sub.StarRating)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func parseSubmission(r *http.Request) (submission, error) {
	var sub submission

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			return sub, fmt.Errorf("invalid JSON body: %w", err)
		}
		return sub, nil
	}

	if err := r.ParseForm(); err != nil {
		return sub, fmt.Errorf("invalid form: %w", err)
	}
	rating, err := strconv.Atoi(r.FormValue("star_rating"))
	if err != nil {
		return sub, fmt.Errorf("invalid star_rating")
	}
	sub.InsightID = r.FormValue("insight_id")
	sub.StarRating = rating
	sub.Comment = r.FormValue("comment")
	if tags := r.FormValue("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				sub.Tags = append(sub.Tags, tag)
			}
		}
	}
	return sub, nil
}

type indexData struct {
	Insights []models.Insight
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"stars": func() []int { return []int{1, 2, 3, 4, 5} },
	"id": func(ins models.Insight) string {
		s, err := models.RecordIDString(ins.ID)
		if err != nil {
			return ""
		}
		return s
	},
}).Parse(`<!DOCTYPE html>
<html>
<head><title>Today's Insights</title></head>
<body>
<h1>Today's Insights</h1>
{{if not .Insights}}<p>No insights yet today.</p>{{end}}
{{range .Insights}}
<div class="insight">
  <h2>{{.Headline}}</h2>
  <p><strong>{{.CompanyName}} ({{.CompanySymbol}})</strong> &mdash; score {{printf "%.1f" .Score}}</p>
  <p>{{.Analysis}}</p>
  <ul>{{range .Evidence}}<li>{{.}}</li>{{end}}</ul>
  <form method="post" action="/feedback">
    <input type="hidden" name="insight_id" value="{{id .}}">
    <label>Rating:
      <select name="star_rating">{{range stars}}<option value="{{.}}">{{.}}</option>{{end}}</select>
    </label>
    <input type="text" name="comment" placeholder="comment">
    <button type="submit">Rate</button>
  </form>
</div>
{{end}}
</body>
</html>`))
