package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", common.AuthorizationScheme+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestSession_Required(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodGet, "/api/files", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, body = do(t, h, http.MethodGet, "/api/files", "expired", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, common.ErrTokenExpired.Error(), body["message"])

	code, _ = do(t, h, http.MethodGet, "/api/files", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSession_XRairTokenHeader(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set(common.AccessTokenHeaderName, "bob")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bob, f.files.lastRequester.PublicAddress)
}

func TestAuthRoutes_IgnoreBadToken(t *testing.T) {
	f := newFixture()

	code, body := do(t, f.srv.Handler(), http.MethodGet, "/api/auth/get_challenge/"+alice, "expired", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, `{"primaryType":"Challenge"}`, body["response"])
}

func TestListFiles_FilterAndRequester(t *testing.T) {
	f := newFixture()

	code, body := do(t, f.srv.Handler(), http.MethodGet, "/api/files?title=a&category=c1&demo=false&uploader="+bob, "alice", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 1)

	assert.Equal(t, "a", f.files.lastFilter.Title)
	assert.Equal(t, "c1", f.files.lastFilter.CategoryID)
	assert.Equal(t, bob, f.files.lastFilter.Uploader)
	require.NotNil(t, f.files.lastFilter.Demo)
	assert.False(t, *f.files.lastFilter.Demo)
	assert.Equal(t, alice, f.files.lastRequester.PublicAddress)
}

func TestListFiles_BadDemo(t *testing.T) {
	f := newFixture()
	code, _ := do(t, f.srv.Handler(), http.MethodGet, "/api/files?demo=maybe", "alice", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListFiles_InternalErrorHidden(t *testing.T) {
	f := newFixture()
	f.files.listErr = errBoom

	code, body := do(t, f.srv.Handler(), http.MethodGet, "/api/files", "alice", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, common.ErrorInternal.Error(), body["message"])
}

func TestGetFile(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodGet, "/api/files/f1", "bob", "")
	require.Equal(t, http.StatusOK, code)
	file := body["file"].(map[string]any)
	assert.Equal(t, "f1", file["_id"])
	assert.NotContains(t, file, "key")

	code, body = do(t, h, http.MethodGet, "/api/files/nope", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "file")
	assert.Nil(t, body["file"])
}

func TestUpdateFile_OwnerOnly(t *testing.T) {
	tests := []struct {
		name  string
		token string
		id    string
		body  string
		want  int
	}{
		{"owner", "alice", "f1", `{"title":"new"}`, http.StatusOK},
		{"super admin", "admin", "f1", `{"title":"new"}`, http.StatusOK},
		{"stranger", "bob", "f1", `{"title":"new"}`, http.StatusForbidden},
		{"missing file", "alice", "f2", `{"title":"new"}`, http.StatusNotFound},
		{"unknown key", "alice", "f1", `{"bogus":1}`, http.StatusBadRequest},
		{"bad json", "alice", "f1", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			code, _ := do(t, f.srv.Handler(), http.MethodPut, "/api/files/"+tt.id, tt.token, tt.body)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestUpdateFile_TrailingSlash(t *testing.T) {
	f := newFixture()
	code, _ := do(t, f.srv.Handler(), http.MethodPut, "/api/files/f1/", "alice", `{"demo":true}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"demo": true}, f.files.lastPatch)
}

func TestFilesForToken(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodGet, "/api/tokens/t1/files", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["results"])
	assert.Equal(t, []any{}, body["data"])

	f.resolver.files = []*models.File{{ID: "f1"}, {ID: "f2"}}
	code, body = do(t, h, http.MethodGet, "/api/tokens/t1/files", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["results"])
	assert.Len(t, body["data"], 2)
}

func TestListFilesByCategory_Paging(t *testing.T) {
	f := newFixture()
	f.files.page = &models.FilePage{Files: []*models.File{{ID: "f21"}}, TotalCount: 21}
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodGet, "/api/files/category/c1?pageNum=2&itemsPerPage=20", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, [2]int{2, 20}, f.files.lastPage)
	assert.Equal(t, float64(21), body["totalCount"])
	assert.Len(t, body["files"], 1)

	code, _ = do(t, h, http.MethodGet, "/api/files/category/c1", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, [2]int{1, 20}, f.files.lastPage)

	code, _ = do(t, h, http.MethodGet, "/api/files/category/c1?pageNum=0", "bob", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLinkAndUnlinkOffers(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodPost, "/api/files/f1/offers", "alice", `{"offers":["o1","o2"]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"o1", "o2"}, f.files.linked)
	offer := body["offer"].(map[string]any)
	assert.Equal(t, []any{"o1", "o2"}, offer["offers"])

	code, _ = do(t, h, http.MethodPost, "/api/files/f1/offers", "alice", `{"offers":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/files/f1/offers", "bob", `{"offers":["o1"]}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, h, http.MethodDelete, "/api/files/f1/offers", "alice", `{"offer":"o1"}`)
	assert.Equal(t, http.StatusNotFound, code)

	f.files.unlock = &models.Unlock{ID: "u1", FileID: "f1", OfferIDs: []string{}}
	code, body = do(t, h, http.MethodDelete, "/api/files/f1/offers", "alice", `{"offer":"o1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "o1", f.files.unlinked)
	assert.Equal(t, []any{}, body["offer"].(map[string]any)["offers"])

	code, _ = do(t, h, http.MethodDelete, "/api/files/f1/offers", "alice", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetFileOffers(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodGet, "/api/files/f1/offer", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["data"])

	f.files.unlock = &models.Unlock{ID: "u1", FileID: "f1", OfferIDs: []string{"o1"},
		Offers: []*models.Offer{{ID: "o1", DiamondRangeIndex: 2}}}
	code, body = do(t, h, http.MethodGet, "/api/files/f1/offer", "bob", "")
	require.Equal(t, http.StatusOK, code)
	offers := body["data"].(map[string]any)["offers"].([]any)
	require.Len(t, offers, 1)
	assert.Equal(t, float64(2), offers[0].(map[string]any)["diamondRangeIndex"])
}

func TestStreamLink(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodGet, "/api/files/f1/stream?token=t9", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "t9", f.media.lastToken)
	assert.Equal(t, bob, f.media.lastRequester.PublicAddress)
	assert.Equal(t, float64(900), body["expiresIn"])
	assert.NotEmpty(t, body["url"])

	code, _ = do(t, h, http.MethodGet, "/api/files/f1/stream", "bob", "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAuthEndpoints(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, _ := do(t, h, http.MethodGet, "/api/auth/get_challenge/nope", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	f.auth.admin = true
	code, body := do(t, h, http.MethodGet, "/api/auth/admin/n1/0xsig/", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	f.auth.admin = false
	_, body = do(t, h, http.MethodGet, "/api/auth/admin/n1/0xsig", "", "")
	assert.Equal(t, false, body["success"])

	f.auth.adminErr = common.ErrChallengeExpired
	code, _ = do(t, h, http.MethodGet, "/api/auth/admin/n1/0xsig", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = do(t, h, http.MethodGet, "/api/auth/authentication/n2/0xsig", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "jwt-for-n2", body["token"])

	code, _ = do(t, h, http.MethodGet, "/api/auth/authentication/n2/bad", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUsers_LookupThenRegister(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodGet, "/api/users/"+alice, "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])

	code, body = do(t, h, http.MethodPost, "/api/users", "", `{"publicAddress":"`+alice+`","adminNFT":"temp"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, alice, body["user"].(map[string]any)["publicAddress"])

	code, _ = do(t, h, http.MethodPost, "/api/users", "", `{"publicAddress":"`+alice+`"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = do(t, h, http.MethodGet, "/api/users/"+alice, "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "temp", body["user"].(map[string]any)["adminNFT"])
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture()
	h := f.srv.Handler()

	code, body := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	f.srv.svc.Health = func(context.Context) error { return errBoom }
	code, _ = do(t, f.srv.Handler(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rair_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrorNotFound, http.StatusNotFound},
		{common.ErrorForbidden, http.StatusForbidden},
		{common.ErrorUnauthorized, http.StatusUnauthorized},
		{common.ErrInvalidToken, http.StatusUnauthorized},
		{common.ErrInvalidSignature, http.StatusUnauthorized},
		{common.ErrorValidation, http.StatusBadRequest},
		{common.ErrInvalidAddress, http.StatusBadRequest},
		{common.ErrVersionConflict, http.StatusConflict},
		{common.ErrAlreadyExists, http.StatusConflict},
		{errBoom, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
