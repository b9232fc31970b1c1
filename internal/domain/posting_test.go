package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    PostStatus
		wantErr bool
	}{
		{"new", StatusNew, false},
		{"Saved", StatusSaved, false},
		{" applied ", StatusApplied, false},
		{"in_progress", StatusInProgress, false},
		{"dismissed", StatusDismissed, false},
		{"archived", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostStatusRank(t *testing.T) {
	assert.Equal(t, 0, StatusNew.Rank())
	assert.Equal(t, 4, StatusDismissed.Rank())
	assert.Less(t, StatusSaved.Rank(), StatusApplied.Rank())
	assert.Equal(t, len(Statuses), PostStatus("bogus").Rank())
}
