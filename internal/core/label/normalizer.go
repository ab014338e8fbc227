package label

import (
	"label-analyzer/internal/core/reference"
)

// Summary 單次正規化的統計
type Summary struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
}

// Unverified 未命中參考資料的成分數
func (s Summary) Unverified() int {
	return s.Total - s.Verified
}

// Normalizer 以參考成分資料修正模型回報的成分
type Normalizer struct {
	matcher *reference.Matcher
}

// NewNormalizer 創建正規化器，matcher 為 nil 時所有成分皆為未驗證
func NewNormalizer(matcher *reference.Matcher) *Normalizer {
	if matcher == nil {
		matcher = reference.NewMatcher(nil)
	}
	return &Normalizer{matcher: matcher}
}

// Matcher 取得比對器
func (n *Normalizer) Matcher() *reference.Matcher {
	return n.matcher
}

// Normalize 就地補充每個成分，不增刪也不調整順序
func (n *Normalizer) Normalize(report *AnalysisReport) Summary {
	var sum Summary
	if report == nil {
		return sum
	}
	for i := range report.Ingredients {
		sum.Total++
		if n.NormalizeIngredient(&report.Ingredients[i]) {
			sum.Verified++
		}
	}
	return sum
}

// NormalizeIngredient 先以 name 再以 technical_name 比對；命中時以參考資料覆寫分數
func (n *Normalizer) NormalizeIngredient(ing *DetectedIngredient) bool {
	ref := n.matcher.Find(ing.Name)
	if ref == nil {
		ref = n.matcher.Find(ing.TechnicalName)
	}
	if ref == nil {
		ing.Verified = false
		return false
	}

	ing.RiskScore = Score(ref.Risk)
	ing.Concerns = mergeConcerns(ing.Concerns, ref.Concerns)
	if ref.HealthImpact != "" {
		ing.HealthImpact = ref.HealthImpact
	}
	ing.Verified = true
	return true
}

// mergeConcerns 模型的在前、參考資料新增的在後，重複只保留第一次出現
func mergeConcerns(model, ref []string) []string {
	out := make([]string, 0, len(model)+len(ref))
	seen := make(map[string]struct{}, len(model)+len(ref))
	for _, list := range [][]string{model, ref} {
		for _, c := range list {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
