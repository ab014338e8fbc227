package label

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"label-analyzer/internal/pkg/common"
)

const unreadableCode = "IMAGE_UNREADABLE"

// ParseModelOutput 將模型原始文字解析為報告
//
// 取第一個 '{' 到最後一個 '}' 之間的內容。模型回報 IMAGE_UNREADABLE 時回傳
// *UnreadableImageError，其餘任何解析或結構錯誤都回傳 *MalformedResponseError。
func ParseModelOutput(content string) (*AnalysisReport, error) {
	jsonStr, ok := common.ExtractJSONObject(content)
	if !ok {
		return nil, malformed("no JSON object found", nil)
	}

	var fields map[string]json.RawMessage
	if err := common.ParseJSON(jsonStr, &fields); err != nil {
		return nil, malformed("invalid JSON", err)
	}

	// 錯誤物件不當作報告解析
	if raw, ok := fields["error"]; ok && !isNull(raw) {
		var code string
		if err := json.Unmarshal(raw, &code); err != nil {
			return nil, malformed("unexpected error field", err)
		}
		code = strings.TrimSpace(code)
		if strings.EqualFold(code, unreadableCode) {
			return nil, &UnreadableImageError{Message: unreadableMessage(fields["message"])}
		}
		if code != "" {
			return nil, malformed(fmt.Sprintf("model reported error %q", common.Truncate(code, 80)), nil)
		}
	}

	raw, ok := fields["ingredients"]
	if !ok || isNull(raw) {
		return nil, malformed("missing ingredients", nil)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed("ingredients is not an array", nil)
	}

	var report AnalysisReport
	if err := common.ParseJSON(jsonStr, &report); err != nil {
		return nil, malformed("report does not match schema", err)
	}
	if err := validate(&report); err != nil {
		return nil, malformed("report does not match schema", err)
	}
	fillEmpty(&report)

	return &report, nil
}

func validate(r *AnalysisReport) error {
	if !validScore(r.OverallScore) {
		return fmt.Errorf("overall_score %d out of range", r.OverallScore)
	}

	r.RiskLevel = strings.ToLower(strings.TrimSpace(r.RiskLevel))
	switch r.RiskLevel {
	case "", RiskLow, RiskMedium, RiskHigh:
	default:
		return fmt.Errorf("unknown risk_level %q", r.RiskLevel)
	}

	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("ingredient %d has no name", i)
		}
		if !validScore(ing.RiskScore) {
			return fmt.Errorf("ingredient %q risk_score %d out of range", ing.Name, ing.RiskScore)
		}
	}
	return nil
}

func validScore(s Score) bool {
	return s >= 0 && s <= 10
}

// fillEmpty 讓缺少的陣列欄位輸出為 []
func fillEmpty(r *AnalysisReport) {
	if r.PersonalizedAlerts == nil {
		r.PersonalizedAlerts = []string{}
	}
	if r.Alternatives == nil {
		r.Alternatives = []string{}
	}
	for i := range r.Ingredients {
		if r.Ingredients[i].Concerns == nil {
			r.Ingredients[i].Concerns = []string{}
		}
	}
}

func unreadableMessage(raw json.RawMessage) string {
	var msg string
	if len(raw) > 0 && json.Unmarshal(raw, &msg) == nil {
		if msg = strings.TrimSpace(msg); msg != "" {
			return msg
		}
	}
	return DefaultUnreadableMessage
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
