package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/leapxmla/internal/catalog"
	"github.com/starfederation/datastar-go/datastar"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// statusView is what the status page shows.
type statusView struct {
	LoadedAt time.Time
	Catalogs []catalogStatus
	Sessions int
}

type catalogStatus struct {
	Name  string
	Cubes int
}

func (s *Server) buildStatus(ctx context.Context, repo *catalog.Repository) (statusView, error) {
	view := statusView{
		LoadedAt: repo.LoadedAt(),
		Sessions: len(s.sessions.Snapshot()),
	}
	for _, c := range repo.Catalogs() {
		schemas, err := c.Schemas(ctx)
		if err != nil {
			return view, fmt.Errorf("failed to list schemas of %s: %w", c.Name(), err)
		}
		st := catalogStatus{Name: c.Name()}
		for _, sch := range schemas {
			cubes, err := sch.Cubes(ctx)
			if err != nil {
				return view, fmt.Errorf("failed to list cubes of %s: %w", c.Name(), err)
			}
			st.Cubes += len(cubes)
		}
		view.Catalogs = append(view.Catalogs, st)
	}
	return view, nil
}

// handleStatus renders the status page. The page then subscribes to
// /status/updates for catalog reloads.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.buildStatus(r.Context(), s.catalog.Repository())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage(view).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleStatusUpdates patches the catalog panel every time the catalog is
// swapped. No initial state is sent; the page already carries it.
func (s *Server) handleStatusUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.catalog.Subscribe()
	defer s.catalog.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case repo, ok := <-updates:
			if !ok {
				return
			}
			view, err := s.buildStatus(ctx, repo)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(statusPanel(view)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func statusPage(view statusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8">`+
			`<title>leapxmla</title><script type="module" src="`+datastarScript+`"></script></head>`+
			`<body><h1>leapxmla</h1><div data-init="@get('/status/updates')">`); err != nil {
			return err
		}
		if err := statusPanel(view).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div></body></html>`)
		return err
	})
}

// statusPanel is the element patched on reload. Its id must stay stable.
func statusPanel(view statusView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section id="catalog-status"><p>Loaded %s, %d sessions</p><table>`,
			templ.EscapeString(view.LoadedAt.UTC().Format(time.RFC3339)), view.Sessions); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<tr><th>Catalog</th><th>Cubes</th></tr>`); err != nil {
			return err
		}
		for _, c := range view.Catalogs {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td></tr>`,
				templ.EscapeString(c.Name), c.Cubes); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table></section>`)
		return err
	})
}
