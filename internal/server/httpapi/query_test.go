package httpapi

import (
	"net/url"
	"testing"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	no := false
	tests := []struct {
		name  string
		query string
		want  models.Filter
	}{
		{"empty", "", models.Filter{}},
		{"fetch", "select=*&user_email=eq.a@b.c&is_deleted=eq.false&order=occurred_at.desc",
			models.Filter{UserEmail: "a@b.c", IsDeleted: &no, NewestFirst: true}},
		{"by id", "id=eq.r1", models.Filter{ID: "r1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := parseFilter(q)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFilter_Repeated(t *testing.T) {
	_, err := parseFilter(url.Values{"id": {"eq.a", "eq.b"}})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDecodePatch(t *testing.T) {
	p, err := decodePatch([]byte(`{"id":"r1","user_email":"A@x.io","title":"T","amount":"12.50","note":null,"type":"Monthly"}`), "a@x.io")
	require.NoError(t, err)
	require.NotNil(t, p.Title)
	assert.Equal(t, "T", *p.Title)
	assert.Equal(t, "12.5", p.Amount.String())
	assert.Nil(t, p.Note)
	assert.True(t, p.ClearNote)
	assert.Equal(t, "Monthly", *p.Type)
	assert.Nil(t, p.IsDeleted)
	assert.Nil(t, p.PhotoURL)
	assert.False(t, p.ClearPhotoURL)
}

func TestDecodePatch_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `nope`, common.ErrValidation},
		{"unknown column", `{"colour":"red"}`, common.ErrValidation},
		{"bad type", `{"is_deleted":"yes"}`, common.ErrValidation},
		{"foreign owner", `{"user_email":"b@x.io"}`, common.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePatch([]byte(tt.body), "a@x.io")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
