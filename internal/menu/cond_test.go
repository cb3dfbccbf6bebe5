// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package menu_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atriumworld/atrium/internal/menu"
)

func TestParseCondition_Eval(t *testing.T) {
	env := menu.Env{
		"role":   "moderator",
		"medium": "text",
		"area":   "global.park.disco",
	}

	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"equality true", `role == "moderator"`, true},
		{"equality false", `role == "owner"`, false},
		{"inequality", `medium != "voice"`, true},
		{"conjunction", `role == "moderator" && medium == "text"`, true},
		{"conjunction short-circuits false", `role == "owner" && medium == "text"`, false},
		{"disjunction", `role == "owner" || medium == "text"`, true},
		{"negation", `!(role == "owner")`, true},
		{"double negation", `!!(role == "moderator")`, true},
		{"grouping", `(role == "owner" || role == "moderator") && medium != "voice"`, true},
		{"missing attribute reads empty", `music == ""`, true},
		{"missing attribute never equals", `music == "jazz"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := menu.ParseCondition(tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Eval(env))
		})
	}
}

func TestParseCondition_Errors(t *testing.T) {
	tests := []struct {
		name string
		cond string
	}{
		{"empty", ""},
		{"dangling operator", `role ==`},
		{"unterminated string", `role == "mod`},
		{"missing operator", `role "moderator"`},
		{"unbalanced parens", `(role == "moderator"`},
		{"literal on the left", `"moderator" == role`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := menu.ParseCondition(tt.cond)
			assert.Error(t, err)
		})
	}
}

func TestParseCondition_DepthLimit(t *testing.T) {
	deep := strings.Repeat("(", 40) + `role == "moderator"` + strings.Repeat(")", 40)
	_, err := menu.ParseCondition(deep)
	assert.Error(t, err)

	shallow := strings.Repeat("(", 10) + `role == "moderator"` + strings.Repeat(")", 10)
	_, err = menu.ParseCondition(shallow)
	assert.NoError(t, err)
}
