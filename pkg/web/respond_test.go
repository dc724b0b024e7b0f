package web

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func TestPrefersXML(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"", false},
		{"application/json", false},
		{"application/xml", true},
		{"text/xml", true},
		{"*/*", false},
		{"application/xml, application/json", false},
		{"application/xml;q=0.9, application/json;q=0.5", true},
		{"application/json;q=0.9, application/xml;q=0.5", false},
		{"text/html, application/xml;q=0.9", true},
		{"application/xml;q=0", false},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, PrefersXML(req))
		})
	}
}

func TestRespondError(t *testing.T) {
	t.Run("json by default", func(t *testing.T) {
		// given
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		// when
		RespondError(rr, req, discard, http.StatusNotFound, "not here")

		// then
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, ContentTypeJSON, rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"error":"not here"}`, rr.Body.String())
	})

	t.Run("xml when requested", func(t *testing.T) {
		// given
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", ContentTypeXML)
		rr := httptest.NewRecorder()

		// when
		RespondError(rr, req, discard, http.StatusNotFound, "not here")

		// then
		assert.Equal(t, ContentTypeXML, rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Body.String(), "<error><message>not here</message></error>")
	})
}

func TestRespond_NilPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rr := httptest.NewRecorder()

	Respond(rr, req, discard, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestFieldErrors_MarshalXML(t *testing.T) {
	// given
	resp := ValidationErrorResponse{Errors: FieldErrors{"Name": "failed on rule: max", "Description": "failed on rule: max"}}

	// when
	out, err := xml.Marshal(resp)

	// then
	require.NoError(t, err)
	assert.Equal(t,
		`<error><validation_errors><field name="Description">failed on rule: max</field><field name="Name">failed on rule: max</field></validation_errors></error>`,
		string(out))
}

func TestDecode(t *testing.T) {
	type payload struct {
		XMLName xml.Name `json:"-" xml:"product"`
		Name    string   `json:"name" xml:"name"`
	}

	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
		wantErr     error
	}{
		{name: "json", contentType: "application/json; charset=utf-8", body: `{"name":"pen"}`, want: "pen"},
		{name: "no content type", body: `{"name":"pen"}`, want: "pen"},
		{name: "xml", contentType: "application/xml", body: `<product><name>pen</name></product>`, want: "pen"},
		{name: "unsupported", contentType: "text/plain", body: "pen", wantErr: ErrUnsupportedMediaType},
		{name: "json trailing whitespace", body: "{\"name\":\"pen\"}\n ", want: "pen"},
		{name: "json trailing garbage", body: `{"name":"pen"}garbage`, wantErr: ErrTrailingData},
		{name: "two json documents", body: `{"name":"pen"}{"name":"ink"}`, wantErr: ErrTrailingData},
		{name: "xml trailing comment", contentType: "application/xml", body: "<product><name>pen</name></product>\n<!-- end -->", want: "pen"},
		{name: "xml trailing text", contentType: "application/xml", body: `<product><name>pen</name></product>garbage`, wantErr: ErrTrailingData},
		{name: "two xml documents", contentType: "application/xml", body: `<product><name>pen</name></product><product/>`, wantErr: ErrTrailingData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			var p payload

			// when
			err := Decode(req, &p)

			// then
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name)
		})
	}
}
