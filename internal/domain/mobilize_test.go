package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{in: `42`, want: 42},
		{in: `"42"`, want: 42},
		{in: `null`, want: 0},
		{in: `""`, want: 0},
		{in: `4.2e1`, want: 42},
		{in: `12.0`, want: 12},
		{in: `12.7`, wantErr: true},
		{in: `"12.7"`, wantErr: true},
		{in: `"NaN"`, wantErr: true},
		{in: `"Inf"`, wantErr: true},
		{in: `1e300`, wantErr: true},
		{in: `"abc"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.in), &id)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestTimestamp_presence(t *testing.T) {
	var ts RawTimeslot
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "start_date": 1578000000, "end_date": null}`), &ts))
	require.NotNil(t, ts.StartDate)
	assert.Equal(t, "2020-01-02 21:20:00", FormatDateTime(*ts.StartDate))
	assert.Nil(t, ts.EndDate)

	var epoch RawTimeslot
	require.NoError(t, json.Unmarshal([]byte(`{"start_date": 0}`), &epoch))
	require.NotNil(t, epoch.StartDate)
	assert.Equal(t, "1970-01-01 00:00:00", FormatDateTime(*epoch.StartDate))

	var bad RawTimeslot
	assert.Error(t, json.Unmarshal([]byte(`{"start_date": ""}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"start_date": 1578000000.5}`), &bad))
}

func TestRawSponsor_HasID(t *testing.T) {
	tests := []struct {
		in        string
		wantHasID bool
		wantID    ID
	}{
		{in: `{"id": 5, "name": "Org"}`, wantHasID: true, wantID: 5},
		{in: `{"id": null, "name": "Org"}`, wantHasID: true, wantID: 0},
		{in: `{"name": "Org"}`, wantHasID: false, wantID: 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s RawSponsor
			require.NoError(t, json.Unmarshal([]byte(tt.in), &s))
			assert.Equal(t, tt.wantHasID, s.HasID)
			assert.Equal(t, tt.wantID, s.ID)
			require.NotNil(t, s.Name)
			assert.Equal(t, "Org", *s.Name)
		})
	}
}
