package policy

import (
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
)

// EvaluateExpiration 根据组织策略计算或校验链接的生效过期时间
// 纯函数：不读库不写库，now 由调用方注入，便于测试
//
// 规则：
//  1. 公开链接在策略禁止公开分享时直接拒绝
//  2. 上限 = now + 对应可见性级别的最长有效天数
//  3. 请求的过期时间超过上限则拒绝
//  4. 未请求过期时间则默认取上限（链接创建后必然带过期时间）
func EvaluateExpiration(visibility models.VisibilityClass, requestedExpiresAt *time.Time, pol *models.SharePolicy, now time.Time) (time.Time, error) {
	if visibility == models.VisibilityPublic && !pol.AllowPublicSharing {
		return time.Time{}, xerr.ErrPublicSharingDisabled
	}

	maxDays := pol.MaxDurationInternal
	if visibility == models.VisibilityPublic {
		maxDays = pol.MaxDurationExternal
	}
	maxDate := now.AddDate(0, 0, maxDays)

	if requestedExpiresAt == nil {
		return maxDate, nil
	}
	if requestedExpiresAt.After(maxDate) {
		return time.Time{}, xerr.ErrExpiresExceedsLimit
	}
	return *requestedExpiresAt, nil
}
