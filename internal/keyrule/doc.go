// Package keyrule 维护可按名称选择的缓存 key 规则。
//
// 规则作者需要：
//   1. 实现 responsecache.Keyer 签名的函数；
//   2. 在 init() 中通过 MustRegister 注册 Rule，名称大小写不敏感；
//   3. 保证返回的 key 不包含 ".."，filesystem 后端会拒绝越界路径。
//
// 配置文件中的 KeyRule 字段通过 Resolve 查找对应规则。
package keyrule
