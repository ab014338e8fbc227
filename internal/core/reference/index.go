// Package reference 提供已知成分的參考資料（固定風險分數與健康疑慮），
// 作為修正模型輸出的依據。資料在啟動時載入一次，之後唯讀。
package reference

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"label-analyzer/internal/pkg/common"
)

//go:embed data/ingredients.json
var defaultData []byte

// 風險分數範圍（1 = 高風險，10 = 安全）
const (
	MinRisk = 1
	MaxRisk = 10
)

// Ingredient 參考成分
type Ingredient struct {
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases"`
	Risk         int      `json:"risk"`
	Concerns     []string `json:"concerns"`
	HealthImpact string   `json:"health_impact"`
}

// Index 唯讀的參考成分清單，保留檔案中的順序
type Index struct {
	entries []Ingredient
	// 預先小寫化的名稱與別名，避免每次查詢重算
	names   []string
	aliases [][]string
}

// Load 從檔案載入參考資料
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}
	idx, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// LoadDefault 載入內建的參考資料
func LoadDefault() (*Index, error) {
	return LoadBytes(defaultData)
}

// LoadBytes 解析參考資料，接受頂層陣列或 {"ingredients": [...]}
func LoadBytes(data []byte) (*Index, error) {
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		name := normalize(e.Name)
		if name == "" {
			return nil, fmt.Errorf("ingredient #%d: name is required", i)
		}
		if e.Risk < MinRisk || e.Risk > MaxRisk {
			return nil, fmt.Errorf("ingredient %q: risk %d out of range %d-%d", e.Name, e.Risk, MinRisk, MaxRisk)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("ingredient %q: duplicate name (first at #%d)", e.Name, prev)
		}
		seen[name] = i
	}

	return newIndex(entries), nil
}

// Empty 空的參考資料，載入失敗時的降級模式使用
func Empty() *Index {
	return newIndex(nil)
}

func newIndex(entries []Ingredient) *Index {
	idx := &Index{
		entries: entries,
		names:   make([]string, len(entries)),
		aliases: make([][]string, len(entries)),
	}
	for i, e := range entries {
		idx.names[i] = normalize(e.Name)
		for _, a := range e.Aliases {
			if a = normalize(a); a != "" {
				idx.aliases[i] = append(idx.aliases[i], a)
			}
		}
	}
	return idx
}

func decodeEntries(data []byte) ([]Ingredient, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("reference data is empty")
	}

	if trimmed[0] == '[' {
		var entries []Ingredient
		if err := common.ParseJSONBytes(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse reference data: %w", err)
		}
		return entries, nil
	}

	var doc struct {
		Ingredients *[]Ingredient `json:"ingredients"`
	}
	if err := common.ParseJSONBytes(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}
	if doc.Ingredients == nil {
		return nil, fmt.Errorf("reference data has no ingredients list")
	}
	return *doc.Ingredients, nil
}

// FindAll 回傳全部參考成分的副本
func (idx *Index) FindAll() []Ingredient {
	out := make([]Ingredient, len(idx.entries))
	for i := range idx.entries {
		out[i] = idx.entries[i].clone()
	}
	return out
}

func (idx *Index) entry(i int) *Ingredient {
	ing := idx.entries[i].clone()
	return &ing
}

func (ing Ingredient) clone() Ingredient {
	ing.Aliases = slices.Clone(ing.Aliases)
	ing.Concerns = slices.Clone(ing.Concerns)
	return ing
}

// Len 參考成分數量
func (idx *Index) Len() int {
	return len(idx.entries)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
