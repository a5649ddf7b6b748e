// Package estimate produces a category estimate for a receipt when no
// upstream AI estimate is supplied. It applies vendor/keyword rules with
// priorities, plus the meal-receipt rule distinguishing 会議費 from
// 接待交際費 by alcohol and amount.
package estimate

import (
	"context"
	"fmt"
	"strings"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
)

// Estimator supplies a category estimate for a receipt. The classifier treats
// it as an opaque collaborator.
type Estimator interface {
	Estimate(ctx context.Context, q domain.ReceiptQuery, totalAmount int64) (domain.CategoryEstimate, error)
}

// CategoryRule maps keywords to an account category. Higher priority wins
// when several rules match.
type CategoryRule struct {
	Category domain.AccountCategory
	Priority int
	Keywords []string
}

// Confidence levels by how the estimate was reached.
const (
	keywordConfidence = 0.8
	mealConfidence    = 0.7
	defaultConfidence = 0.3
)

// mealAmountBoundary is the 会議費/接待交際費 split for meal receipts where
// alcohol cannot be determined (tax guidance boundary, in yen).
const mealAmountBoundary = 3000

var defaultRules = []CategoryRule{
	{
		Category: domain.CategoryVehicle,
		Priority: 95,
		Keywords: []string{
			"車検", "整備", "オイル交換", "タイヤ交換", "洗車",
			"ガソリン", "エネオス", "eneos", "出光", "コスモ石油",
			"イエローハット", "オートバックス",
		},
	},
	{
		Category: domain.CategoryRepairs,
		Priority: 92,
		Keywords: []string{
			"修理", "修繕", "補修", "改修", "リフォーム",
			"塗装", "配管", "電気工事", "メンテナンス",
		},
	},
	{
		Category: domain.CategoryTravel,
		Priority: 90,
		Keywords: []string{
			"タクシー", "taxi", "駐車場", "パーキング", "タイムズ", "コインパーキング",
			"jr", "鉄道", "電車", "メトロ", "地下鉄", "新幹線", "suica", "pasmo",
			"バス", "高速道路", "etc", "通行料", "航空", "jal", "ana", "レンタカー",
		},
	},
	{
		Category: domain.CategoryEquipment,
		Priority: 88,
		Keywords: []string{
			"工具", "備品", "パソコン", "プリンター", "モニター",
			"デスク", "チェア", "キャビネット", "什器",
		},
	},
	{
		Category: domain.CategoryWelfare,
		Priority: 85,
		Keywords: []string{
			"健康診断", "予防接種", "懇親会", "歓送迎会", "忘年会", "新年会",
			"スポーツクラブ", "ジム", "弁当補助", "社員食堂",
		},
	},
	{
		Category: domain.CategoryTaxesDues,
		Priority: 85,
		Keywords: []string{
			"市役所", "区役所", "県庁", "税務署", "法務局", "年金事務所",
			"収入印紙", "印紙", "証紙",
		},
	},
	{
		Category: domain.CategoryComms,
		Priority: 70,
		Keywords: []string{"宅配", "郵便", "切手", "ゆうパック", "ヤマト運輸", "佐川急便"},
	},
	{
		Category: domain.CategoryBooks,
		Priority: 70,
		Keywords: []string{"書籍", "書店", "雑誌", "新聞", "紀伊國屋", "ジュンク堂"},
	},
	{
		Category: domain.CategorySupplies,
		Priority: 60,
		Keywords: []string{"文房具", "事務用品", "コピー用紙", "インク", "トナー", "100円ショップ", "ダイソー"},
	},
}

var restaurantKeywords = []string{
	"カフェ", "レストラン", "居酒屋", "食堂", "喫茶", "珈琲", "コーヒー",
	"スターバックス", "ドトール", "タリーズ", "すき家", "吉野家", "サイゼリヤ",
	"飲食", "ダイニング",
}

var alcoholKeywords = []string{
	"ビール", "日本酒", "ワイン", "焼酎", "ハイボール", "サワー", "カクテル", "生ビール", "酒",
}

// RuleEstimator estimates categories from keyword rules. Stateless and safe
// for concurrent use.
type RuleEstimator struct {
	rules []CategoryRule
}

// NewRuleEstimator returns an estimator with the default rule set.
func NewRuleEstimator() *RuleEstimator {
	return &RuleEstimator{rules: defaultRules}
}

// Estimate implements Estimator. It never fails; unmatched receipts land in
// 雑費 with low confidence.
func (e *RuleEstimator) Estimate(_ context.Context, q domain.ReceiptQuery, totalAmount int64) (domain.CategoryEstimate, error) {
	text := strings.ToLower(strings.Join([]string{q.StoreName, q.ItemDescription, q.Description}, " "))

	if containsAny(text, restaurantKeywords) {
		return e.estimateMeal(q, text, totalAmount), nil
	}

	var best *CategoryRule
	for i := range e.rules {
		r := &e.rules[i]
		if !containsAny(text, r.Keywords) {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}
	if best != nil {
		return domain.CategoryEstimate{
			Category:   best.Category,
			Subject:    subjectFor(q),
			Confidence: keywordConfidence,
		}, nil
	}

	return domain.CategoryEstimate{
		Category:   domain.CategoryMisc,
		Subject:    subjectFor(q),
		Confidence: defaultConfidence,
	}, nil
}

// estimateMeal applies the meal-receipt rule: alcohol present → 接待交際費;
// otherwise the ¥3,000 boundary decides between 接待交際費 and 会議費.
func (e *RuleEstimator) estimateMeal(q domain.ReceiptQuery, text string, totalAmount int64) domain.CategoryEstimate {
	category := domain.CategoryMeetings
	if containsAny(text, alcoholKeywords) || totalAmount >= mealAmountBoundary {
		category = domain.CategoryEntertainment
	}
	return domain.CategoryEstimate{
		Category:   category,
		Subject:    subjectFor(q),
		Confidence: mealConfidence,
	}
}

func subjectFor(q domain.ReceiptQuery) string {
	switch {
	case q.Description != "":
		return q.Description
	case q.ItemDescription != "":
		return q.ItemDescription + "の購入"
	case q.StoreName != "":
		return fmt.Sprintf("%sでの購入", q.StoreName)
	default:
		return "購入"
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
