package notify

import (
	"context"
	"strings"

	"github.com/IgesAI/AMautomation/internal/domain/model"

	"github.com/pkg/errors"
)

// Resolver は品目と通知種別から宛先を決める
type Resolver struct {
	rules    RuleStore
	defaults []string
}

func NewResolver(rules RuleStore, defaults []string) *Resolver {
	return &Resolver{rules: rules, defaults: normalizeEmails(defaults)}
}

// Resolve は 品目ルール → カテゴリ全体ルール の順（それぞれ優先度の高い順）に
// 通知種別が有効なルールの宛先を重複なしで集める。1件もなければ既定の宛先を返す。
func (r *Resolver) Resolve(ctx context.Context, it model.Item, t model.NotificationType) ([]string, error) {
	itemRules, err := r.rules.ListActiveForItem(ctx, it.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list item rules")
	}
	categoryRules, err := r.rules.ListActiveCategoryWide(ctx, it.CategoryID)
	if err != nil {
		return nil, errors.Wrap(err, "list category rules")
	}

	var emails []string
	for _, rules := range [][]model.NotificationRule{itemRules, categoryRules} {
		for _, rule := range rules {
			if !rule.IsActive || !rule.Enables(t) {
				continue
			}
			emails = append(emails, rule.Emails...)
		}
	}

	out := normalizeEmails(emails)
	if len(out) == 0 {
		return append([]string{}, r.defaults...), nil
	}
	return out, nil
}

// 前後の空白を落とし、大文字小文字を無視して重複を除く（最初に出た順）
func normalizeEmails(in []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
