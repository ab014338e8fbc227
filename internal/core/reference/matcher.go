package reference

import "strings"

// MatchKind 命中的比對規則
type MatchKind string

const (
	MatchNone      MatchKind = ""
	MatchExact     MatchKind = "exact"
	MatchAlias     MatchKind = "alias"
	MatchSubstring MatchKind = "substring"
)

// Matcher 將模型回傳的成分名稱對應到參考成分
type Matcher struct {
	index *Index
}

// NewMatcher 創建比對器，idx 為 nil 時視為空清單
func NewMatcher(idx *Index) *Matcher {
	if idx == nil {
		idx = Empty()
	}
	return &Matcher{index: idx}
}

// Index 取得底層參考資料
func (m *Matcher) Index() *Index {
	return m.index
}

// Find 依序嘗試：名稱完全相同、別名完全相同、子字串，先命中者優先
func (m *Matcher) Find(query string) *Ingredient {
	ing, _ := m.FindWithKind(query)
	return ing
}

// FindWithKind 同 Find，另外回傳命中的規則。
// 子字串規則有多筆符合時取清單中第一筆，不依長度挑選。
func (m *Matcher) FindWithKind(query string) (*Ingredient, MatchKind) {
	q := normalize(query)
	if q == "" {
		return nil, MatchNone
	}

	idx := m.index
	for i, name := range idx.names {
		if name == q {
			return idx.entry(i), MatchExact
		}
	}

	for i, aliases := range idx.aliases {
		for _, a := range aliases {
			if a == q {
				return idx.entry(i), MatchAlias
			}
		}
	}

	for i, name := range idx.names {
		if strings.Contains(q, name) || strings.Contains(name, q) {
			return idx.entry(i), MatchSubstring
		}
	}

	return nil, MatchNone
}
