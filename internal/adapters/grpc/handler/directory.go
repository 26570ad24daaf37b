package handler

import (
	"context"
	"fmt"

	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/core/profile"
	"github.com/ogurasousui/staff-directory/internal/platform/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DirectoryGrpcHandler は DirectoryService の gRPC 実装です。
type DirectoryGrpcHandler struct {
	directory directory.UseCase
	profiles  profile.UseCase
	settings  directory.Settings
	instances directory.Instances
	hrRole    string
}

// NewDirectoryGrpcHandler は DirectoryGrpcHandler を生成します。
func NewDirectoryGrpcHandler(dir directory.UseCase, profiles profile.UseCase, settings directory.Settings, instances directory.Instances, hrRole string) *DirectoryGrpcHandler {
	return &DirectoryGrpcHandler{
		directory: dir,
		profiles:  profiles,
		settings:  settings,
		instances: instances,
		hrRole:    hrRole,
	}
}

var _ DirectoryServiceServer = (*DirectoryGrpcHandler)(nil)

// ListEmployees は社員一覧の 1 ページを返します。固定条件は instance 名からサーバー側で解決します。
func (h *DirectoryGrpcHandler) ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	locked, err := h.instances.Resolve(stringField(req, "instance"))
	if err != nil {
		return nil, toStatusError(err)
	}

	roles := stringsField(req, "roles")
	if role := stringField(req, "role"); role != "" {
		roles = append(roles, role)
	}

	res, err := h.directory.ListEmployees(ctx, directory.ListEmployeesInput{
		Request: directory.Request{
			Search:     stringField(req, "search"),
			Department: stringField(req, "department"),
			Letter:     stringField(req, "letter"),
			Sort:       directory.SortKey(stringField(req, "sort")),
			Page:       intField(req, "page"),
			PerPage:    intField(req, "per_page"),
			Roles:      roles,
		},
		Locked:        locked,
		Settings:      h.settings,
		Authenticated: auth.Authenticated(ctx),
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{
		"items":      itemsToValues(res.Items),
		"pagination": windowToValue(res.Window),
		"total":      res.Total,
	})
}

// ListNewHires は新入社員の一覧を返します。
func (h *DirectoryGrpcHandler) ListNewHires(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	items, err := h.directory.ListNewHires(ctx, directory.ListNewHiresInput{
		Settings:      h.settings,
		Authenticated: auth.Authenticated(ctx),
		Limit:         intField(req, "limit"),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return newStruct(map[string]any{"items": itemsToValues(items)})
}

// GetDepartments は部署一覧を返します。
func (h *DirectoryGrpcHandler) GetDepartments(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	departments, err := h.directory.GetDepartments(ctx, directory.GetDepartmentsInput{
		Settings:      h.settings,
		Authenticated: auth.Authenticated(ctx),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return newStruct(map[string]any{"departments": stringsToValues(departments)})
}

// GetProfile はスラッグで社員のプロフィールを返します。
func (h *DirectoryGrpcHandler) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	slug := stringField(req, "slug")
	if slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	item, err := h.directory.GetEmployee(ctx, directory.GetEmployeeInput{
		Slug:          slug,
		Settings:      h.settings,
		Authenticated: auth.Authenticated(ctx),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return newStruct(map[string]any{"employee": itemToValue(item)})
}

// UpdateProfile は HR ロールの閲覧者によるプロフィールの部分更新です。
func (h *DirectoryGrpcHandler) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.RequireRole(ctx, h.hrRole); err != nil {
		return nil, toStatusError(err)
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	fields := make(map[string]string)
	if v, ok := req.GetFields()["fields"]; ok {
		for key, value := range v.GetStructValue().GetFields() {
			s, ok := value.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("fields.%s must be a string", key))
			}
			fields[key] = s.StringValue
		}
	}

	in := profile.UpdateProfileInput{
		AccountID: stringField(req, "account_id"),
		Fields:    fields,
	}
	if _, ok := req.GetFields()["hidden_social"]; ok {
		in.HiddenSocialSet = true
		for _, pl := range stringsField(req, "hidden_social") {
			in.HiddenSocial = append(in.HiddenSocial, profile.Platform(pl))
		}
	}

	updated, err := h.profiles.UpdateProfile(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}
	return newStruct(map[string]any{"profile": profileToValue(updated)})
}

// SetVisibility は HR ロールの閲覧者によるディレクトリ掲載可否の変更です。
func (h *DirectoryGrpcHandler) SetVisibility(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := auth.RequireRole(ctx, h.hrRole); err != nil {
		return nil, toStatusError(err)
	}

	in := profile.SetVisibilityInput{
		AccountID: stringField(req, "account_id"),
		Hidden:    boolField(req, "hidden"),
	}
	if err := h.profiles.SetVisibility(ctx, in); err != nil {
		return nil, toStatusError(err)
	}
	return newStruct(map[string]any{"account_id": in.AccountID, "hidden": in.Hidden})
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}

func stringField(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func intField(s *structpb.Struct, key string) int {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0
	}
	return int(v.GetNumberValue())
}

func boolField(s *structpb.Struct, key string) bool {
	v, ok := s.GetFields()[key]
	if !ok {
		return false
	}
	return v.GetBoolValue()
}

func stringsField(s *structpb.Struct, key string) []string {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	values := v.GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, value := range values {
		if str := value.GetStringValue(); str != "" {
			out = append(out, str)
		}
	}
	return out
}

func stringsToValues(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func itemsToValues(items []*directory.Item) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, itemToValue(item))
	}
	return out
}

func itemToValue(item *directory.Item) map[string]any {
	social := make([]any, 0, len(item.Social))
	for _, link := range item.Social {
		social = append(social, map[string]any{
			"platform": string(link.Platform),
			"label":    link.Label,
			"url":      link.URL,
			"value":    link.Value,
		})
	}

	p := item.Profile
	if p == nil {
		p = profile.FromAttributes(item.Account.ID, nil)
	}

	return map[string]any{
		"id":               item.Account.ID,
		"login":            item.Account.Login,
		"email":            item.Account.Email,
		"display_name":     item.Account.DisplayName,
		"slug":             item.Account.Slug,
		"roles":            stringsToValues(item.Account.Roles),
		"department":       p.Department,
		"job_title":        p.JobTitle,
		"phone":            p.Phone,
		"office":           p.Office,
		"bio":              p.Bio,
		"photo_url":        p.PhotoURL,
		"linkedin_url":     p.LinkedInURL,
		"start_date":       p.StartDate,
		"department_color": item.DepartmentColor,
		"tenure":           item.Tenure,
		"new_hire":         item.NewHire,
		"avatar_url":       item.AvatarURL,
		"social":           social,
	}
}

func profileToValue(p *profile.Profile) map[string]any {
	attrs := p.Attributes()
	out := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out["account_id"] = p.AccountID
	return out
}

func windowToValue(w directory.Window) map[string]any {
	buttons := make([]any, 0, len(w.Buttons))
	for _, b := range w.Buttons {
		buttons = append(buttons, map[string]any{
			"page":     b.Page,
			"current":  b.Current,
			"ellipsis": b.Ellipsis,
		})
	}
	return map[string]any{
		"current_page": w.CurrentPage,
		"total_pages":  w.TotalPages,
		"buttons":      buttons,
		"prev":         map[string]any{"page": w.Prev.Page, "disabled": w.Prev.Disabled},
		"next":         map[string]any{"page": w.Next.Page, "disabled": w.Next.Disabled},
	}
}
