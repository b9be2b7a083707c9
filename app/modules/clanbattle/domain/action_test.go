package clanbattledomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionToken(t *testing.T) {
	tests := []struct {
		in      string
		want    ActionToken
		wantErr bool
	}{
		{in: "atk/202411/1/5", want: ActionToken{ActionAttack, "202411", 1, 5}},
		{in: "over/202411/3/1", want: ActionToken{ActionCarryOver, "202411", 3, 1}},
		{in: "comp/202411/2/9", want: ActionToken{ActionComplete, "202411", 2, 9}},
		{in: "beat/202410/1/5", want: ActionToken{ActionKill, "202410", 1, 5}},
		{in: "beat/202411/1", wantErr: true},
		{in: "beat/202411/1/5/extra", wantErr: true},
		{in: "heal/202411/1/5", wantErr: true},
		{in: "atk/2024/1/5", wantErr: true},
		{in: "atk/202411/x/5", wantErr: true},
		{in: "atk/202411/1/0", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseActionToken(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}
