package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testData = `[
  {"name": "Açúcar", "aliases": ["Sacarose"], "risk": 2, "concerns": ["Pico de insulina", "Inflamação"], "health_impact": "Eleva a glicemia"},
  {"name": "Sal", "aliases": ["Cloreto de sódio"], "risk": 5, "concerns": ["Hipertensão"], "health_impact": ""},
  {"name": "Sal marinho", "aliases": [], "risk": 6, "concerns": [], "health_impact": ""},
  {"name": "Xarope de açúcar", "aliases": ["Açúcar invertido"], "risk": 3, "concerns": [], "health_impact": ""}
]`

func mustIndex(t *testing.T, data string) *Index {
	t.Helper()
	idx, err := LoadBytes([]byte(data))
	require.NoError(t, err)
	return idx
}

func TestLoadBytes(t *testing.T) {
	t.Run("top-level array", func(t *testing.T) {
		idx := mustIndex(t, testData)
		assert.Equal(t, 4, idx.Len())
		assert.Equal(t, "Açúcar", idx.FindAll()[0].Name)
		assert.Equal(t, []string{"Pico de insulina", "Inflamação"}, idx.FindAll()[0].Concerns)
	})

	t.Run("wrapped object", func(t *testing.T) {
		idx := mustIndex(t, `{"ingredients": [{"name": "Aveia", "risk": 9}]}`)
		assert.Equal(t, 1, idx.Len())
	})

	tests := []struct {
		name string
		data string
	}{
		{"empty", "  "},
		{"invalid json", `[{"name": "Aveia", "risk": 9}`},
		{"missing list", `{"items": []}`},
		{"missing name", `[{"name": "  ", "risk": 3}]`},
		{"risk too low", `[{"name": "Aveia", "risk": 0}]`},
		{"risk too high", `[{"name": "Aveia", "risk": 11}]`},
		{"duplicate name", `[{"name": "Aveia", "risk": 9}, {"name": "AVEIA ", "risk": 8}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingredients.json")
	require.NoError(t, os.WriteFile(path, []byte(testData), 0644))

	idx, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadDefault(t *testing.T) {
	idx, err := LoadDefault()
	require.NoError(t, err)
	assert.Greater(t, idx.Len(), 10)

	m := NewMatcher(idx)
	ing, kind := m.FindWithKind("sacarose")
	require.NotNil(t, ing)
	assert.Equal(t, "Açúcar", ing.Name)
	assert.Equal(t, MatchAlias, kind)
}

func TestMatcherPriority(t *testing.T) {
	m := NewMatcher(mustIndex(t, testData))

	tests := []struct {
		query string
		want  string
		kind  MatchKind
	}{
		{"Açúcar", "Açúcar", MatchExact},
		{"  AÇÚCAR ", "Açúcar", MatchExact},
		{"SACAROSE", "Açúcar", MatchAlias},
		{"sacarose", "Açúcar", MatchAlias},
		{"cloreto de sódio", "Sal", MatchAlias},
		// 別名優先於子字串："açúcar invertido" 也包含 "açúcar"
		{"Açúcar invertido", "Xarope de açúcar", MatchAlias},
		// 完全相同優先於子字串
		{"Sal marinho", "Sal marinho", MatchExact},
		// 子字串：多筆符合時取清單中第一筆
		{"sal marinho integral", "Sal", MatchSubstring},
		{"açúcar mascavo", "Açúcar", MatchSubstring},
		{"xarope", "Xarope de açúcar", MatchSubstring},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ing, kind := m.FindWithKind(tt.query)
			require.NotNil(t, ing)
			assert.Equal(t, tt.want, ing.Name)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestMatcherMiss(t *testing.T) {
	m := NewMatcher(mustIndex(t, testData))

	for _, q := range []string{"", "   ", "Goma xantana"} {
		ing, kind := m.FindWithKind(q)
		assert.Nil(t, ing, q)
		assert.Equal(t, MatchNone, kind, q)
	}

	assert.Nil(t, NewMatcher(nil).Find("Açúcar"))
	assert.Nil(t, NewMatcher(Empty()).Find("Açúcar"))
}

func TestIndexReadOnly(t *testing.T) {
	idx := mustIndex(t, testData)
	m := NewMatcher(idx)

	all := idx.FindAll()
	all[0].Name = "Mel"
	all[0].Risk = 10
	all[0].Concerns[0] = "nenhum"
	all[0].Aliases = append(all[0].Aliases, "glicose")

	ing := m.Find("Sacarose")
	ing.Risk = 9
	ing.Aliases[0] = "mel"

	fresh := idx.FindAll()
	assert.Equal(t, "Açúcar", fresh[0].Name)
	assert.Equal(t, 2, fresh[0].Risk)
	assert.Equal(t, []string{"Pico de insulina", "Inflamação"}, fresh[0].Concerns)
	assert.Equal(t, "Açúcar", m.Find("sacarose").Name)
	assert.Nil(t, m.Find("glicose"))

	empty := mustIndex(t, `[{"name": "Aveia", "aliases": [], "risk": 9, "concerns": []}]`).FindAll()
	assert.NotNil(t, empty[0].Aliases)
	assert.NotNil(t, empty[0].Concerns)
}
