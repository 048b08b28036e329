package xerr

import "errors"

var (
	// 通用错误
	ErrInternalServer = errors.New("服务器内部错误")
	ErrInvalidParams  = errors.New("无效的请求参数")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("邮箱或密码不正确")
	ErrEmailAlreadyExists = errors.New("邮箱已被注册")
	ErrAdminRequired      = errors.New("需要管理员权限")

	// 策略校验错误（PolicyViolation 系列，向调用方返回可读原因，不自动重试）
	ErrPublicSharingDisabled = errors.New("策略禁止公开分享")
	ErrExpiresExceedsLimit   = errors.New("过期时间超出策略允许的上限")

	// 资源未找到错误
	// 注意：无权访问与记录不存在统一返回 ErrLinkNotFound，避免泄露记录是否存在
	ErrUserNotFound = errors.New("用户不存在")
	ErrLinkNotFound = errors.New("链接不存在或无权访问")

	// 业务逻辑冲突
	ErrLinkAlreadyTracked = errors.New("该分享链接已在跟踪中")

	// 数据库与外部服务错误
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrSyncFailed    = errors.New("与远端分享平台同步失败")
	ErrMQError       = errors.New("消息队列操作失败")
)

// IsPolicyViolation 判断错误是否属于策略校验拒绝
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPublicSharingDisabled) || errors.Is(err, ErrExpiresExceedsLimit)
}
