package pixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRGB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{in: "102,212,255", want: RGB{R: 102, G: 212, B: 255}},
		{in: " 0, 255 ,0 ", want: RGB{G: 255}},
		{in: "#66d4ff", want: RGB{R: 102, G: 212, B: 255}},
		{in: "#FF0000", want: RGB{R: 255}},
		{in: "256,0,0", wantErr: true},
		{in: "1,2", wantErr: true},
		{in: "#fff", wantErr: true},
		{in: "#gggggg", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRGB(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, must(ParseRGB(got.String())))
	}
}

func must(c RGB, err error) RGB {
	if err != nil {
		panic(err)
	}
	return c
}
