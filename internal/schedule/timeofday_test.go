package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinuteOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    MinuteOfDay
		wantErr bool
	}{
		{input: "00:00", want: 0},
		{input: "08:00", want: 480},
		{input: "09:30", want: 570},
		{input: "23:59", want: 1439},
		{input: "24:00", want: 1440},
		{input: "8:00", want: 480},
		{input: "25:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "-1:00", wantErr: true},
		{input: "12", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMinuteOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinuteOfDayString(t *testing.T) {
	assert.Equal(t, "00:00", MinuteOfDay(0).String())
	assert.Equal(t, "08:05", MinuteOfDay(485).String())
	assert.Equal(t, "23:59", MinuteOfDay(1439).String())
}

func TestMinuteOfDayJSONRoundTrip(t *testing.T) {
	type payload struct {
		Start MinuteOfDay `json:"start"`
	}

	data, err := json.Marshal(payload{Start: 570})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"09:30"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"start":"14:45"}`), &decoded))
	assert.Equal(t, MinuteOfDay(885), decoded.Start)

	assert.Error(t, json.Unmarshal([]byte(`{"start":930}`), &decoded))
}

func TestMinuteOfDayAddBefore(t *testing.T) {
	m := MinuteOfDay(480)
	assert.Equal(t, MinuteOfDay(540), m.Add(60))
	assert.True(t, m.Before(481))
	assert.False(t, m.Before(480))
}
