package core

// Features 是 (候选, 画像) 的定形特征记录。
//
// 不变式：特征是 (Media, UserProfile) 的纯函数，抽取过程无隐藏状态、无网络与缓存访问。
// 打分器与解释生成器消费同一份特征，保证"为什么推荐"与"推了多少分"互相印证。
type Features struct {
	// 内容重合
	GenreOverlap float64 // 候选题材与评分加权题材历史的加权 Jaccard
	TagOverlap   float64 // 非剧透标签的 rank 加权匹配率
	StudioMatch  bool
	FormatMatch  bool
	SourceMatch  bool

	// 时间
	DaysSinceRelease float64
	Freshness        float64 // 365 天内从 1.0 线性衰减到 0.5，之后为 0
	TimeDecay        float64 // exp(-λ·days)，与 Freshness 独立的连续衰减乘子

	// 关联
	RelationBoost float64      // 候选自身关联边对"已看集合"的命中强度
	RelationType  RelationType // 最强命中边的类型，无命中为空

	// 追踪状态
	IsPlanning bool
	IsDropped  bool
	IsPaused   bool

	// 总时长分段：<2h → 0.5，4-12h → 1.0，>24h → 0.3，其余 0.7
	Bingeability float64

	// 反馈相似度：候选向量对所有被赞/被踩向量的最大余弦
	FeedbackPositive float64
	FeedbackNegative float64
	IsLiked          bool
	IsDisliked       bool

	// 隐式交互
	Clicked         bool
	Viewed          bool
	ImpressionCount int
}
