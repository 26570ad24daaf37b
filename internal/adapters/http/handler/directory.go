package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/core/profile"
	"github.com/ogurasousui/staff-directory/internal/platform/auth"
)

// DirectoryHTTPHandler はブラウザ向けの JSON API です。
type DirectoryHTTPHandler struct {
	svc       directory.UseCase
	settings  directory.Settings
	instances directory.Instances
	logger    *slog.Logger
}

// NewDirectoryHTTPHandler は DirectoryHTTPHandler を生成します。
func NewDirectoryHTTPHandler(svc directory.UseCase, settings directory.Settings, instances directory.Instances, logger *slog.Logger) *DirectoryHTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryHTTPHandler{svc: svc, settings: settings, instances: instances, logger: logger}
}

// Register はルーティングを登録します。
func (h *DirectoryHTTPHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/employees", h.listEmployees).Methods(http.MethodGet)
	api.HandleFunc("/new-hires", h.listNewHires).Methods(http.MethodGet)
	api.HandleFunc("/departments", h.getDepartments).Methods(http.MethodGet)
	api.HandleFunc("/staff/{slug}", h.getEmployee).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
}

// ItemView は一覧・プロフィールの 1 件です。
type ItemView struct {
	ID              string     `json:"id"`
	Login           string     `json:"login"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name"`
	Slug            string     `json:"slug"`
	Roles           []string   `json:"roles"`
	Department      string     `json:"department"`
	JobTitle        string     `json:"job_title"`
	Phone           string     `json:"phone"`
	Office          string     `json:"office"`
	Bio             string     `json:"bio"`
	PhotoURL        string     `json:"photo_url"`
	LinkedInURL     string     `json:"linkedin_url"`
	StartDate       string     `json:"start_date"`
	DepartmentColor string     `json:"department_color"`
	Tenure          string     `json:"tenure"`
	NewHire         bool       `json:"new_hire"`
	AvatarURL       string     `json:"avatar_url"`
	Social          []LinkView `json:"social"`
}

// LinkView はソーシャルリンクです。
type LinkView struct {
	Platform string `json:"platform"`
	Label    string `json:"label"`
	URL      string `json:"url,omitempty"`
	Value    string `json:"value"`
}

// ButtonView はページ送りボタンです。
type ButtonView struct {
	Page     int  `json:"page"`
	Current  bool `json:"current"`
	Ellipsis bool `json:"ellipsis"`
}

// NavView は前後ページへの移動ボタンです。
type NavView struct {
	Page     int  `json:"page"`
	Disabled bool `json:"disabled"`
}

// PaginationView はページ送り情報です。
type PaginationView struct {
	CurrentPage int          `json:"current_page"`
	TotalPages  int          `json:"total_pages"`
	Buttons     []ButtonView `json:"buttons"`
	Prev        NavView      `json:"prev"`
	Next        NavView      `json:"next"`
}

// ListResponse は一覧 API のレスポンスです。
type ListResponse struct {
	Items      []ItemView     `json:"items"`
	Pagination PaginationView `json:"pagination"`
	Total      int            `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *DirectoryHTTPHandler) listEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	locked, err := h.instances.Resolve(q.Get("instance"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var roles []string
	for _, raw := range q["role"] {
		for _, role := range strings.Split(raw, ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
	}

	res, err := h.svc.ListEmployees(r.Context(), directory.ListEmployeesInput{
		Request: directory.Request{
			Search:     q.Get("search"),
			Department: q.Get("department"),
			Letter:     q.Get("letter"),
			Sort:       directory.SortKey(q.Get("sort")),
			Page:       atoiOrZero(q.Get("page")),
			PerPage:    atoiOrZero(q.Get("per_page")),
			Roles:      roles,
		},
		Locked:        locked,
		Settings:      h.settings,
		Authenticated: auth.Authenticated(r.Context()),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Items:      toItemViews(res.Items),
		Pagination: toPaginationView(res.Window),
		Total:      res.Total,
	})
}

func (h *DirectoryHTTPHandler) listNewHires(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListNewHires(r.Context(), directory.ListNewHiresInput{
		Settings:      h.settings,
		Authenticated: auth.Authenticated(r.Context()),
		Limit:         atoiOrZero(r.URL.Query().Get("limit")),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]ItemView{"items": toItemViews(items)})
}

func (h *DirectoryHTTPHandler) getDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.svc.GetDepartments(r.Context(), directory.GetDepartmentsInput{
		Settings:      h.settings,
		Authenticated: auth.Authenticated(r.Context()),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"departments": departments})
}

func (h *DirectoryHTTPHandler) getEmployee(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetEmployee(r.Context(), directory.GetEmployeeInput{
		Slug:          mux.Vars(r)["slug"],
		Settings:      h.settings,
		Authenticated: auth.Authenticated(r.Context()),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]ItemView{"employee": toItemView(item)})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DirectoryHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		writeJSON(w, code, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, directory.ErrInvalidSlug),
		errors.Is(err, directory.ErrUnknownInstance),
		errors.Is(err, profile.ErrInvalidAccountID):
		return http.StatusBadRequest
	case errors.Is(err, directory.ErrEmployeeNotFound), errors.Is(err, profile.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, directory.ErrLoginRequired), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func toItemViews(items []*directory.Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, item := range items {
		out = append(out, toItemView(item))
	}
	return out
}

func toItemView(item *directory.Item) ItemView {
	p := item.Profile
	if p == nil {
		p = profile.FromAttributes(item.Account.ID, nil)
	}

	social := make([]LinkView, 0, len(item.Social))
	for _, link := range item.Social {
		social = append(social, LinkView{
			Platform: string(link.Platform),
			Label:    link.Label,
			URL:      link.URL,
			Value:    link.Value,
		})
	}

	roles := item.Account.Roles
	if roles == nil {
		roles = []string{}
	}

	return ItemView{
		ID:              item.Account.ID,
		Login:           item.Account.Login,
		Email:           item.Account.Email,
		DisplayName:     item.Account.DisplayName,
		Slug:            item.Account.Slug,
		Roles:           roles,
		Department:      p.Department,
		JobTitle:        p.JobTitle,
		Phone:           p.Phone,
		Office:          p.Office,
		Bio:             p.Bio,
		PhotoURL:        p.PhotoURL,
		LinkedInURL:     p.LinkedInURL,
		StartDate:       p.StartDate,
		DepartmentColor: item.DepartmentColor,
		Tenure:          item.Tenure,
		NewHire:         item.NewHire,
		AvatarURL:       item.AvatarURL,
		Social:          social,
	}
}

func toPaginationView(w directory.Window) PaginationView {
	buttons := make([]ButtonView, 0, len(w.Buttons))
	for _, b := range w.Buttons {
		buttons = append(buttons, ButtonView{Page: b.Page, Current: b.Current, Ellipsis: b.Ellipsis})
	}
	return PaginationView{
		CurrentPage: w.CurrentPage,
		TotalPages:  w.TotalPages,
		Buttons:     buttons,
		Prev:        NavView{Page: w.Prev.Page, Disabled: w.Prev.Disabled},
		Next:        NavView{Page: w.Next.Page, Disabled: w.Next.Disabled},
	}
}
