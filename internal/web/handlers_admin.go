package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/witr/library-manager/internal/db"
	"github.com/witr/library-manager/internal/stats"
)

// editableParameters are the keys /manage_other may set.
var editableParameters = map[string]bool{
	db.ParamReviewGuidelines: true,
	db.ParamGenres:           true,
}

// ManageReviews lists every review, hidden ones included (GET /manage_reviews).
func (s *Server) ManageReviews(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)

	reviews, hasNext, err := queries(r).ListReviews(r.Context(), page)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "manage_reviews", ManageReviewsPageData{
		PageData: s.pageData(w, r, "Manage reviews"),
		Reviews:  reviews,
		Pager:    pager(r, page, hasNext),
	})
}

// ModerateReview hides, shows or deletes a review
// (POST /manage_reviews/{reviewID}/{action}).
func (s *Server) ModerateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := queries(r)
	reviewID := chi.URLParam(r, "reviewID")

	var err error
	switch chi.URLParam(r, "action") {
	case "hide":
		err = q.SetReviewHidden(ctx, reviewID, true)
	case "show":
		err = q.SetReviewHidden(ctx, reviewID, false)
	case "delete":
		err = q.RemoveReview(ctx, reviewID)
	default:
		http.NotFound(w, r)
		return
	}

	if errors.Is(err, db.ErrNotFound) {
		setFlash(w, "error", "That review no longer exists.")
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}
	redirect(w, r, "/manage_reviews")
}

// ManageOther lists the site parameters (GET /manage_other).
func (s *Server) ManageOther(w http.ResponseWriter, r *http.Request) {
	params, err := queries(r).ListParameters(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "manage_other", ManageOtherPageData{
		PageData:   s.pageData(w, r, "Other settings"),
		Parameters: params,
	})
}

// SetParameter saves one site parameter (POST /manage_other).
func (s *Server) SetParameter(w http.ResponseWriter, r *http.Request) {
	key := r.PostFormValue("key")
	if !editableParameters[key] {
		setFlash(w, "error", "Unknown setting.")
		redirect(w, r, "/manage_other")
		return
	}

	value := strings.ReplaceAll(r.PostFormValue("value"), "\r\n", "\n")
	if err := queries(r).SetParameter(r.Context(), key, strings.TrimSpace(value)); err != nil {
		s.serverError(w, r, err)
		return
	}

	setFlash(w, "success", "Setting saved.")
	redirect(w, r, "/manage_other")
}

// ReviewStatistics shows review totals and reviewer tiers (GET /review_statistics).
func (s *Server) ReviewStatistics(w http.ResponseWriter, r *http.Request) {
	report, err := stats.Build(r.Context(), queries(r), stats.DefaultTiers)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "review_statistics", StatisticsPageData{
		PageData: s.pageData(w, r, "Review statistics"),
		Report:   report,
	})
}

// ManageUsers lists users and invites (GET /manage_users).
func (s *Server) ManageUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := queries(r)

	users, err := q.ListUsers(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	invites, err := q.ListInvites(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "manage_users", ManageUsersPageData{
		PageData: s.pageData(w, r, "Manage users"),
		Users:    users,
		Invites:  invites,
		Roles:    db.Roles,
	})
}

// AddInvite lets an email sign in (POST /manage_users/invites).
func (s *Server) AddInvite(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if !strings.Contains(email, "@") {
		setFlash(w, "error", "Enter an email address.")
		redirect(w, r, "/manage_users")
		return
	}

	err := queries(r).AddInvite(r.Context(), email)
	switch {
	case errors.Is(err, db.ErrAlreadyExists):
		setFlash(w, "error", email+" is already invited.")
	case err != nil:
		s.serverError(w, r, err)
		return
	default:
		setFlash(w, "success", email+" invited.")
	}
	redirect(w, r, "/manage_users")
}

// RemoveInvite revokes an email's sign-in (POST /manage_users/invites/delete).
// The user row is kept.
func (s *Server) RemoveInvite(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))

	err := queries(r).RemoveInvite(r.Context(), email)
	switch {
	case errors.Is(err, db.ErrNotFound):
		setFlash(w, "error", email+" was not invited.")
	case err != nil:
		s.serverError(w, r, err)
		return
	default:
		setFlash(w, "success", email+" can no longer sign in.")
	}
	redirect(w, r, "/manage_users")
}

// SetRole changes a user's role (POST /manage_users/{userID}/role).
func (s *Server) SetRole(w http.ResponseWriter, r *http.Request) {
	err := queries(r).SetUserRole(r.Context(), chi.URLParam(r, "userID"), r.PostFormValue("role"))
	switch {
	case errors.Is(err, db.ErrInvalidRole):
		setFlash(w, "error", "Unknown role.")
	case errors.Is(err, db.ErrNotFound):
		setFlash(w, "error", "That user no longer exists.")
	case err != nil:
		s.serverError(w, r, err)
		return
	default:
		setFlash(w, "success", "Role updated.")
	}
	redirect(w, r, "/manage_users")
}
