package web

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/witr/library-manager/internal/catalog"
	"github.com/witr/library-manager/internal/db"
	"github.com/witr/library-manager/internal/library"
	"github.com/witr/library-manager/internal/stats"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates loads templates from the given filesystem. Every page under
// pages/ is parsed together with the layouts and partials.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template inside the base layout.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}
	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}
	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}

	common := append(layouts, partials...)

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		files := append([]string{page}, common...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},

		// releaseDate renders a nullable release date, or "" when unknown.
		"releaseDate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02")
		},

		"duration": catalog.FormatDuration,

		"join": strings.Join,

		"lines": func(s []string) string {
			return strings.Join(s, "\n")
		},

		"base64": func(b []byte) string {
			return base64.StdEncoding.EncodeToString(b)
		},

		"add": func(a, b int) int {
			return a + b
		},

		// seq yields n blank rows for repeated form fields.
		"seq": func(n int) []int {
			return make([]int, n)
		},

		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},

		"percent": func(part, whole int) string {
			if whole == 0 {
				return "0%"
			}
			return fmt.Sprintf("%.0f%%", 100*float64(part)/float64(whole))
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	User        *db.User
	Flash       *FlashMessage
	CurrentPath string

	// Navigation entries the user's role may open.
	CanEdit   bool
	CanManage bool
	IsEboard  bool
}

// FlashMessage represents a one-shot notification carried across a redirect.
type FlashMessage struct {
	Type    string // "success" or "error"
	Message string
}

// Pager links the previous and next pages of a listing.
type Pager struct {
	Page    int
	PrevURL string
	NextURL string
}

// HomePageData is the search page.
type HomePageData struct {
	PageData
	Filter db.LibraryFilter
	Albums []db.AlbumSummary
	Pager  Pager
}

// AlbumPageData is one album with its reviews.
type AlbumPageData struct {
	PageData
	Album      *db.AlbumView
	Reviews    []db.ReviewView
	Guidelines string
}

// ReviewManagerPageData lists the signed-in user's reviews.
type ReviewManagerPageData struct {
	PageData
	Reviews []db.ReviewView
}

// ManageReviewsPageData lists every review for moderation.
type ManageReviewsPageData struct {
	PageData
	Reviews []db.ReviewView
	Pager   Pager
}

// AlbumFormPageData is the add and edit album form.
type AlbumFormPageData struct {
	PageData
	Action  string
	Entry   library.Entry
	Genres  []string
	Lookup  string // upc or release id the form was prefilled from
	Missing bool   // the lookup found nothing
}

// ManageOtherPageData lists the editable parameters.
type ManageOtherPageData struct {
	PageData
	Parameters []db.Parameter
}

// ManageUsersPageData lists users and invites.
type ManageUsersPageData struct {
	PageData
	Users   []db.User
	Invites []db.Invite
	Roles   []db.Role
}

// StatisticsPageData shows review totals and reviewer tiers.
type StatisticsPageData struct {
	PageData
	Report *stats.Report
}
