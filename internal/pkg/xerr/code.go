package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode    = 40000 // 无效的请求参数
	ValidationFailedCode = 40001 // 参数验证失败

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 邮箱或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode             = 40300 // 通用无权限
	AdminRequiredCode         = 40301 // 需要管理员权限
	PublicSharingDisabledCode = 40302 // 策略禁止公开分享
	ExpiresExceedsLimitCode   = 40303 // 过期时间超出策略上限

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode     = 40400 // 通用资源未找到
	UserNotFoundCode = 40401 // 用户不存在
	LinkNotFoundCode = 40402 // 链接不存在（含无权访问，二者对外不区分）

	// --- 业务逻辑冲突系列 (409xx) ---
	EmailAlreadyExistsCode = 40900 // 邮箱已被注册
	LinkAlreadyTrackedCode = 40901 // 链接已在跟踪中

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	SyncErrorCode           = 50002 // 与远端分享平台同步失败
	MQErrorCode             = 50003 // 消息队列操作失败
)
