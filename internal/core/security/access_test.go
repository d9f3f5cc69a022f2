package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,name,model_id:id,group_id:id,perm_read,perm_write,perm_create,perm_unlink
access_partner_treatment_user,partner.treatment.user,model_partner_treatment,base.group_user,1,1,1,0
access_partner_treatment_manager,partner.treatment.manager,physiotherapy_mgmt.model_partner_treatment,physiotherapy_mgmt.group_manager,1,1,1,1
access_partner_sport_all,partner.sport.all,model_partner_sport,,1,0,0,0
`

func TestLoadCSV(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	rules := table.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "partner.treatment", rules[0].Model)
	assert.Equal(t, "partner.treatment", rules[1].Model)
	assert.Equal(t, "partner.sport", rules[2].Model)
	assert.Equal(t, "", rules[2].Group)
	assert.True(t, rules[1].Unlink)
	assert.False(t, rules[0].Unlink)
}

func TestPermissions_ByGroup(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	user := table.Permissions([]string{"base.group_user"})
	assert.Equal(t, []string{
		"partner.sport:read",
		"partner.treatment:create",
		"partner.treatment:read",
		"partner.treatment:write",
	}, user)

	manager := table.Permissions([]string{"base.group_user", "physiotherapy_mgmt.group_manager"})
	assert.Contains(t, manager, "partner.treatment:unlink")

	anonymous := table.Permissions(nil)
	assert.Equal(t, []string{"partner.sport:read"}, anonymous)
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "id,name\n"},
		{"bad flag", strings.Replace(sampleCSV, "1,1,1,0", "1,yes,1,0", 1)},
		{"missing model", "id,name,model_id:id,group_id:id,perm_read,perm_write,perm_create,perm_unlink\na,b,,g,1,1,1,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
