package config

// 构建时通过 -ldflags "-X" 注入
var (
	Version    = "dev"
	CommitHash = ""
)

// IsDevelopment 本地构建，启用 gin 请求日志
func IsDevelopment() bool {
	return Version == "dev"
}
