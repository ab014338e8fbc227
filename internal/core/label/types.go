package label

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// 風險等級
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Score 1-10 分數，0 表示模型未提供
//
// 模型偶爾以字串或小數回傳分數，解碼時一律四捨五入為整數。
type Score int

// UnmarshalJSON 接受數字、數字字串與 null
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		text = strings.TrimSpace(str)
		if text == "" {
			*s = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid score %s", string(data))
	}
	*s = Score(math.Round(f))
	return nil
}

// DetectedIngredient 模型偵測到的單一成分
type DetectedIngredient struct {
	Name          string   `json:"name"`
	TechnicalName string   `json:"technical_name,omitempty"`
	RiskScore     Score    `json:"risk_score"`
	Concerns      []string `json:"concerns"`
	Description   string   `json:"description,omitempty"`
	WhyUsed       string   `json:"why_used,omitempty"`
	HealthImpact  string   `json:"health_impact,omitempty"`
	Verified      bool     `json:"verified"`
}

// AnalysisReport 標籤分析報告
type AnalysisReport struct {
	ProductName         string               `json:"product_name"`
	Category            string               `json:"category,omitempty"`
	OverallScore        Score                `json:"overall_score"`
	RiskLevel           string               `json:"risk_level,omitempty"`
	Ingredients         []DetectedIngredient `json:"ingredients"`
	IngredientsDetected []string             `json:"ingredients_detected,omitempty"`
	PersonalizedAlerts  []string             `json:"personalized_alerts"`
	Alternatives        []string             `json:"alternatives"`
	Summary             string               `json:"summary"`
}

// Clone 深拷貝報告，快取回傳的報告不與儲存內容共用切片
func (r *AnalysisReport) Clone() *AnalysisReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Ingredients = make([]DetectedIngredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ing.Concerns = cloneStrings(ing.Concerns)
		out.Ingredients[i] = ing
	}
	out.IngredientsDetected = cloneStrings(r.IngredientsDetected)
	out.PersonalizedAlerts = cloneStrings(r.PersonalizedAlerts)
	out.Alternatives = cloneStrings(r.Alternatives)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}
