package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/id"
	"physio/internal/domain/catalogs/partner"
)

func TestRelationQueries_ReplacesLinks(t *testing.T) {
	repo := NewPartnerRepo(nil)
	p := partner.NewPartner()
	p.ID = id.New()
	h1, h2 := id.New(), id.New()
	p.PersonalHistoryIDs = []id.ID{h1, h2}

	queries, err := repo.relationQueries(p)
	require.NoError(t, err)
	require.Len(t, queries, 3)

	assert.Equal(t,
		"DELETE FROM personal_history_rel WHERE partner_id = $1 AND personal_history_id NOT IN ($2,$3)",
		queries[0].SQL)
	assert.Equal(t,
		"INSERT INTO personal_history_rel (partner_id,personal_history_id) VALUES ($1,$2),($3,$4) ON CONFLICT DO NOTHING",
		queries[1].SQL)
	assert.Len(t, queries[1].Args, 4)

	// no familiar links: only the cleanup
	assert.Equal(t, "DELETE FROM familiar_history_rel WHERE partner_id = $1", queries[2].SQL)
}
