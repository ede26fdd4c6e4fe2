// Package mediarec 是一个面向媒体追踪服务的本地推荐引擎。
//
// 设计要点：
// - 五路召回（协同 / 在看相似 / 内容相似 / 关联图 / 趋势兜底）并发 fan-out，来源全程可溯
// - 过滤、打分、重排、解释共用同一份特征记录，"为什么推荐"与"推了多少分"互相印证
// - 网络层自带滚动窗口限流、429 退避、请求去重与带签名的 TTL 缓存，所有调用方共享
// - 反馈（点赞/点踩/点击/曝光）落本地 KV，通过相似度直接改写后续打分，无需模型训练
package mediarec

import (
	"github.com/rushteam/mediarec/engine"
	"github.com/rushteam/mediarec/pipeline"
)

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type Engine = engine.Engine
type Recommendation = engine.Recommendation
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
)

// New 创建推荐引擎，参数与 engine.New 一致。
var New = engine.New
