package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/report"
)

// Error codes beyond filter.InvalidFilterCode.
const (
	codeBadRequest  = "BAD_REQUEST"
	codeNotFound    = "NOT_FOUND"
	codeQueryFailed = "QUERY_FAILED"
	codeCanceled    = "CANCELED"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// reportResponse is a report page with its rows under one key.
type reportResponse struct {
	RequestID   string        `json:"request_id"`
	Kind        report.Kind   `json:"kind"`
	Fingerprint string        `json:"fingerprint"`
	Rows        any           `json:"rows"`
	Count       int64         `json:"count"`
	Total       report.Totals `json:"total"`
}

type linksRequest struct {
	IssueIDs []int64 `json:"issue_ids"`
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) report(c *gin.Context) {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil {
		abort(c, http.StatusNotFound, errorBody{Code: codeNotFound, Message: err.Error()})
		return
	}

	spec, ok := s.bindSpec(c)
	if !ok {
		return
	}
	if s.maxLimit > 0 && (spec.Page.Limit == 0 || spec.Page.Limit > s.maxLimit) {
		spec.Page.Limit = s.maxLimit
	}

	page, err := s.engine.Report(c.Request.Context(), spec, kind)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := reportResponse{
		RequestID:   page.RequestID,
		Kind:        page.Kind,
		Fingerprint: page.Fingerprint,
		Count:       page.Count,
		Total:       page.Total,
	}
	switch kind {
	case report.KindWorklogs:
		resp.Rows = page.Worklogs
	case report.KindIssues:
		resp.Rows = page.Issues
	default:
		resp.Rows = page.Groups
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) aggregate(c *gin.Context) {
	breakdown, err := report.ParseBreakdown(c.Query("breakdown"))
	if err != nil {
		abort(c, http.StatusBadRequest, errorBody{Code: codeBadRequest, Field: "breakdown", Message: err.Error()})
		return
	}

	spec, ok := s.bindSpec(c)
	if !ok {
		return
	}

	res, err := s.engine.Aggregate(c.Request.Context(), spec, breakdown)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) links(c *gin.Context) {
	var req linksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, errorBody{Code: codeBadRequest, Message: err.Error()})
		return
	}

	ctx := c.Request.Context()
	name := c.Param("link")
	if name == "all" {
		links, err := s.engine.ResolveAllLinks(ctx, req.IssueIDs)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, links)
		return
	}

	kind, err := report.ParseLinkKind(name)
	if err != nil {
		abort(c, http.StatusNotFound, errorBody{Code: codeNotFound, Message: err.Error()})
		return
	}
	links, err := s.engine.ResolveLinks(ctx, kind, req.IssueIDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

func (s *Server) picker(c *gin.Context) {
	ctx := c.Request.Context()

	requested, err := parseIDs(c.Query("project_ids"))
	if err != nil {
		abort(c, http.StatusBadRequest, errorBody{
			Code:    string(filter.ErrCodeMalformedValue),
			Field:   "project_ids",
			Message: err.Error(),
		})
		return
	}
	browsable, err := s.scope.BrowsableProjects(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	projectIDs, _ := filter.Scope(requested, browsable)

	var opts any
	switch c.Param("picker") {
	case "projects":
		var all []report.ProjectOption
		if all, err = s.engine.Projects(ctx); err == nil {
			visible := []report.ProjectOption{}
			for _, p := range all {
				if _, ok := slices.BinarySearch(projectIDs, p.ID); ok {
					visible = append(visible, p)
				}
			}
			opts = visible
		}
	case "components":
		opts, err = s.engine.Components(ctx, projectIDs)
	case "affected_versions":
		opts, err = s.engine.Versions(ctx, report.LinkAffectedVersions, projectIDs)
	case "fix_versions":
		opts, err = s.engine.Versions(ctx, report.LinkFixVersions, projectIDs)
	case "assignees":
		opts, err = s.engine.Users(ctx, projectIDs, true)
	case "authors":
		opts, err = s.engine.Users(ctx, projectIDs, false)
	case "epics":
		opts, err = s.engine.EpicLinks(ctx, projectIDs)
	default:
		abort(c, http.StatusNotFound, errorBody{Code: codeNotFound, Message: "unknown picker " + strconv.Quote(c.Param("picker"))})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// bindSpec decodes the filter body and narrows its projects to the
// browsable ones. It writes the error response itself.
func (s *Server) bindSpec(c *gin.Context) (filter.Spec, bool) {
	var file filter.File
	if err := c.ShouldBindJSON(&file); err != nil {
		abort(c, http.StatusBadRequest, errorBody{Code: codeBadRequest, Message: err.Error()})
		return filter.Spec{}, false
	}

	browsable, err := s.scope.BrowsableProjects(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return filter.Spec{}, false
	}
	scoped, denied := filter.Scope(file.ProjectIDs, browsable)
	if len(denied) > 0 {
		s.log.Debug().Ints64("denied", denied).Msg("dropped projects outside scope")
	}
	file.ProjectIDs = scoped

	spec, err := file.Spec()
	if err != nil {
		s.fail(c, err)
		return filter.Spec{}, false
	}
	return spec, true
}

// fail maps an engine error to a status and the error envelope.
func (s *Server) fail(c *gin.Context, err error) {
	var fe *filter.InvalidFilterError
	switch {
	case errors.As(err, &fe):
		abort(c, http.StatusBadRequest, errorBody{Code: string(fe.Code), Field: fe.Field, Message: fe.Message})
	case errors.Is(err, context.Canceled):
		abort(c, 499, errorBody{Code: codeCanceled, Message: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		abort(c, http.StatusGatewayTimeout, errorBody{Code: codeCanceled, Message: err.Error()})
	default:
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		abort(c, http.StatusInternalServerError, errorBody{Code: codeQueryFailed, Message: err.Error()})
	}
}

func abort(c *gin.Context, status int, body errorBody) {
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

// parseIDs reads a comma-separated id list. Empty means none.
func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
