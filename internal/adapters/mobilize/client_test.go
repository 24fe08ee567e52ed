package mobilize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mobilizewarehouse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attendanceJSON = `{"id": %d, "event": {"id": 1, "event_type": "CANVASS"}, "timeslot": {"id": 2}, "person": {"id": 3}, "sponsor": {"id": 4}, "referrer": {}}`

func TestHTTPFetcher_Fetch(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "":
			assert.Equal(t, "/v1/organizations/42/attendances", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("per_page"))
			next := srv.URL + "/v1/organizations/42/attendances?page=2&per_page=2"
			fmt.Fprintf(w, `{"count": 3, "next": %q, "previous": null, "data": [`+attendanceJSON+`,`+attendanceJSON+`]}`, next, 1, 2)
		case "2":
			fmt.Fprintf(w, `{"count": 3, "next": null, "previous": "x", "data": [`+attendanceJSON+`]}`, 3)
		default:
			t.Errorf("unexpected page %q", r.URL.RawQuery)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), Config{BaseURL: srv.URL + "/v1", APIKey: "secret", OrganizationID: "42", PageSize: 2}, nil)
	res, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Attendances, 3)
	for i, a := range res.Attendances {
		assert.Equal(t, int64(i+1), int64(a.ID))
		require.NotNil(t, a.Event)
		assert.Equal(t, "CANVASS", *a.Event.EventType)
	}

	var payload []map[string]any
	require.NoError(t, json.Unmarshal(res.Payload, &payload))
	require.Len(t, payload, 3)
	assert.Equal(t, float64(3), payload[2]["id"])
}

func TestHTTPFetcher_Fetch_defaultEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attendances", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("per_page"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"count": 0, "next": null, "data": []}`))
	}))
	defer srv.Close()

	res, err := NewHTTPFetcher(srv.Client(), Config{BaseURL: srv.URL}, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Attendances)
	assert.JSONEq(t, `[]`, string(res.Payload))
}

func TestHTTPFetcher_Fetch_errors(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		wantErr       string
		wantMalformed bool
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantErr: "status: 401",
		},
		{
			name: "invalid body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
			wantErr: "failed to decode mobilize response",
		},
		{
			name: "invalid record",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"next": null, "data": [{"id": "abc"}]}`))
			},
			wantErr:       "failed to decode attendance 0",
			wantMalformed: true,
		},
		{
			name: "fractional id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"next": null, "data": [{"id": 1}, {"id": 12.7}]}`))
			},
			wantErr:       "failed to decode attendance 1",
			wantMalformed: true,
		},
		{
			name: "empty timestamp",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"next": null, "data": [{"id": 1, "created_date": ""}]}`))
			},
			wantErr:       "invalid timestamp",
			wantMalformed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPFetcher(srv.Client(), Config{BaseURL: srv.URL}, nil).Fetch(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantMalformed, errors.Is(err, domain.ErrMalformedRecord))
		})
	}
}

func TestHTTPFetcher_Fetch_paginationLoop(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"next": %q, "data": []}`, srv.URL+"/attendances")
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.Client(), Config{BaseURL: srv.URL}, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loops back")
}
