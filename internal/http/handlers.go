package http

import (
	"bytes"
	"context"
	"fmt"
	stdhttp "net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"dictionary/app/internal/db"
	"dictionary/app/internal/history"
	"dictionary/app/internal/http/templates"
	applog "dictionary/app/internal/log"
	"dictionary/app/internal/lookup"
	"dictionary/app/internal/theme"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	noStore              = "no-store"
	errorFallbackMessage = "We couldn't process your request right now."
)

type htmlResponse struct {
	Status       int
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Location     string `header:"Location"`
	Body         []byte
}

type searchInput struct {
	RawBody []byte `contentType:"application/x-www-form-urlencoded" doc:"Form with a word field, sent as typed without validation"`
}

type wordInput struct {
	Body struct {
		Word string `json:"word" doc:"Replacement query text"`
	}
}

type stateBody struct {
	Word      string      `json:"word"`
	IsLoading bool        `json:"isLoading"`
	View      lookup.View `json:"view"`
	Theme     theme.Theme `json:"theme"`
}

type stateResponse struct {
	Status       int
	CacheControl string `header:"Cache-Control"`
	Body         stateBody
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Sessions int    `json:"sessions"`
	}
}

func (s *Server) registerHomeRoute() {
	huma.Get(s.api, "/", s.homeHandler,
		htmlOperation("Dictionary page", stdhttp.StatusInternalServerError),
		withMetadata(metadataSession),
	)
}

func (s *Server) registerSearchRoute() {
	huma.Post(s.api, "/search", s.searchHandler,
		htmlOperation("Search for a word", stdhttp.StatusSeeOther, stdhttp.StatusBadRequest, stdhttp.StatusTooManyRequests),
		withMetadata(metadataSession, metadataRateLimit),
	)
}

func (s *Server) registerThemeRoute() {
	huma.Post(s.api, "/theme", s.themeHandler,
		htmlOperation("Toggle display theme", stdhttp.StatusSeeOther),
		withMetadata(metadataSession),
	)
}

func (s *Server) registerAPIRoutes() {
	huma.Get(s.api, "/api/state", s.stateHandler, func(op *huma.Operation) {
		op.Summary = "Current lookup state"
	}, withMetadata(metadataSession))

	huma.Put(s.api, "/api/word", s.updateWordHandler, func(op *huma.Operation) {
		op.Summary = "Replace the query text"
	}, withMetadata(metadataSession))

	huma.Post(s.api, "/api/search", s.apiSearchHandler, func(op *huma.Operation) {
		op.Summary = "Search for the current query text"
		op.DefaultStatus = stdhttp.StatusAccepted
	}, withMetadata(metadataSession, metadataRateLimit))

	huma.Post(s.api, "/api/theme", s.apiThemeHandler, func(op *huma.Operation) {
		op.Summary = "Toggle display theme"
	}, withMetadata(metadataSession))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) homeHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	sess := sessionFromContext(ctx)
	if sess == nil {
		s.recordError(ctx, eris.New("session missing from context"), "rendering dictionary page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage), nil
	}

	state := sess.controller.State()
	data := templates.PageData{
		Word:   state.Word,
		View:   lookup.Render(state),
		Theme:  sess.Theme(),
		Recent: s.recentLookups(ctx, sess),
	}

	body, err := renderComponent(ctx, templates.Page(data))
	if err != nil {
		s.recordError(ctx, err, "rendering dictionary page", logrus.Fields{"session_id": sess.id})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render the page right now."), nil
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) searchHandler(ctx context.Context, input *searchInput) (*htmlResponse, error) {
	sess := sessionFromContext(ctx)
	if sess == nil {
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage), nil
	}

	form, err := url.ParseQuery(string(input.RawBody))
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(eris.Wrap(err, "parsing search form")).WithField("session_id", sess.id).Warn("rejected search form")
		}
		return s.renderErrorResponse(ctx, stdhttp.StatusBadRequest, "We couldn't read that search."), nil
	}

	sess.controller.UpdateWord(form.Get("word"))
	sess.controller.Search(ctx)

	return redirectHome(), nil
}

func (s *Server) themeHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	sess := sessionFromContext(ctx)
	if sess == nil {
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage), nil
	}

	sess.ToggleTheme()

	return redirectHome(), nil
}

func (s *Server) stateHandler(ctx context.Context, _ *struct{}) (*stateResponse, error) {
	sess, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	return newStateResponse(stdhttp.StatusOK, sess), nil
}

func (s *Server) updateWordHandler(ctx context.Context, input *wordInput) (*stateResponse, error) {
	sess, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}

	sess.controller.UpdateWord(input.Body.Word)

	return newStateResponse(stdhttp.StatusOK, sess), nil
}

func (s *Server) apiSearchHandler(ctx context.Context, _ *struct{}) (*stateResponse, error) {
	sess, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}

	sess.controller.Search(ctx)

	return newStateResponse(stdhttp.StatusAccepted, sess), nil
}

func (s *Server) apiThemeHandler(ctx context.Context, _ *struct{}) (*stateResponse, error) {
	sess, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}

	sess.ToggleTheme()

	return newStateResponse(stdhttp.StatusOK, sess), nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Database = "disabled"
	resp.Body.Sessions = len(s.sessions.all())

	if s.db == nil {
		return resp, nil
	}

	resp.Body.Database = "ok"

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	return resp, nil
}

func (s *Server) recentLookups(ctx context.Context, sess *session) []templates.RecentLookupView {
	if s.history == nil {
		return nil
	}

	records, err := s.history.Recent(ctx, sess.id, s.historyLimit)
	if err != nil {
		s.recordError(ctx, err, "loading recent lookups", logrus.Fields{"session_id": sess.id})
		return nil
	}

	views := make([]templates.RecentLookupView, 0, len(records))
	for _, record := range records {
		views = append(views, templates.RecentLookupView{
			Word:    record.Word,
			Text:    record.Text,
			IsError: record.Outcome != history.OutcomeDefinition,
		})
	}
	return views
}

func requireSession(ctx context.Context) (*session, error) {
	sess := sessionFromContext(ctx)
	if sess == nil {
		return nil, huma.Error500InternalServerError("session unavailable")
	}
	return sess, nil
}

func newStateResponse(status int, sess *session) *stateResponse {
	state := sess.controller.State()
	return &stateResponse{
		Status:       status,
		CacheControl: noStore,
		Body: stateBody{
			Word:      state.Word,
			IsLoading: state.Loading,
			View:      lookup.Render(state),
			Theme:     sess.Theme(),
		},
	}
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:       status,
		ContentType:  htmlContentType,
		CacheControl: noStore,
		Body:         body,
	}
}

func redirectHome() *htmlResponse {
	response := newHTMLResponse(stdhttp.StatusSeeOther, nil)
	response.Location = "/"
	return response
}

func renderComponent(ctx context.Context, component templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return nil, eris.Wrap(err, "rendering component")
	}
	return buf.Bytes(), nil
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func withMetadata(keys ...string) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if op.Metadata == nil {
			op.Metadata = map[string]any{}
		}
		for _, key := range keys {
			op.Metadata[key] = true
		}
	}
}

func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) *htmlResponse {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))

	th := theme.Default()
	if sess := sessionFromContext(ctx); sess != nil {
		th = sess.Theme()
	}

	body, err := renderComponent(ctx, templates.ErrorPage(templates.ErrorPageData{
		StatusLabel: label,
		Message:     message,
		Theme:       th,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		body = []byte(fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, templ.EscapeString(message)))
	}

	return newHTMLResponse(status, body)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	applog.CaptureException(ctx, s.sentry, err)
}
