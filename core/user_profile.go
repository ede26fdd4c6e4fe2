package core

import "sort"

// AggStat 是按题材/标签/制作组聚合的历史统计：均分与出现次数。
type AggStat struct {
	Count     int
	MeanScore float64 // 0-100
}

// UserStatistics 是服务端聚合的用户口味统计，按维度分组。
// 可能为 nil（新用户或统计接口失败），所有消费方必须容忍缺失。
type UserStatistics struct {
	Genres  map[string]AggStat
	Tags    map[string]AggStat
	Studios map[string]AggStat
}

// Preferences 是用户显式设置的偏好，持久化在本地 KV 中。
type Preferences struct {
	ExcludedGenres  []string `json:"excluded_genres"`
	ExcludedTags    []string `json:"excluded_tags"`
	ExcludedStudios []string `json:"excluded_studios"`
	NeverShowIDs    []int64  `json:"never_show_ids"`
	FavoriteGenres  []string `json:"favorite_genres"`
	AllowAdult      bool     `json:"allow_adult"`
	DiversityMode   string   `json:"diversity_mode"` // safe / balanced / adventurous
	Rules           []string `json:"rules"`          // CEL 排除规则，命中即丢弃
}

// MediaSummary 是反馈存储里随点赞/点踩落盘的轻量作品摘要。
// 特征层据此构建被赞/被踩作品的词频向量，而无需回源抓取完整 Media。
type MediaSummary struct {
	Title   string      `json:"title"`
	Genres  []string    `json:"genres"`
	Tags    []MediaTag  `json:"tags"`
	Studios []string    `json:"studios"`
	Format  MediaFormat `json:"format"`
	Source  MediaSource `json:"source"`
}

// UserProfile 是一次推荐调用的聚合根。
//
// 每次 Recommend 调用整体重建，从不作为整体持久化：
// 媒体库每次重新抓取，反馈/交互各自落在 KV 中。
//
// 维度划分（与各阶段的消费关系）：
//
//	Entries       召回种子 / 已看过滤 / 状态乘子
//	Stats         内容分加成 / 解释中的具体统计
//	Prefs         排除过滤 / 多样性模式
//	Liked/Disliked 反馈相似度 / 硬惩罚
//	Clicked/Viewed/Impressions 交互加权
type UserProfile struct {
	UserID  string
	Entries []MediaListEntry
	Stats   *UserStatistics
	Prefs   Preferences

	// 显式反馈：点赞/点踩的作品 ID 与其摘要
	Liked             map[int64]bool
	Disliked          map[int64]bool
	LikedSummaries    map[int64]MediaSummary
	DislikedSummaries map[int64]MediaSummary

	// 隐式交互
	Clicked     map[int64]bool
	Viewed      map[int64]bool
	Impressions map[int64]int
}

// NewUserProfile 创建一个空画像，所有集合均已初始化。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:            userID,
		Liked:             make(map[int64]bool),
		Disliked:          make(map[int64]bool),
		LikedSummaries:    make(map[int64]MediaSummary),
		DislikedSummaries: make(map[int64]MediaSummary),
		Clicked:           make(map[int64]bool),
		Viewed:            make(map[int64]bool),
		Impressions:       make(map[int64]int),
	}
}

// EntryByID 返回指定作品的追踪条目；不存在时第二返回值为 false。
func (p *UserProfile) EntryByID(mediaID int64) (MediaListEntry, bool) {
	for _, e := range p.Entries {
		if e.Media != nil && e.Media.ID == mediaID {
			return e, true
		}
	}
	return MediaListEntry{}, false
}

// StatusOf 返回指定作品的追踪状态，未追踪时返回空串。
func (p *UserProfile) StatusOf(mediaID int64) ListStatus {
	if e, ok := p.EntryByID(mediaID); ok {
		return e.Status
	}
	return ""
}

// WatchedIDs 返回"已经看过"的作品 ID 集合：COMPLETED / CURRENT / REPEATING。
// 关联加成用它衡量候选与既有观看的接近程度。
func (p *UserProfile) WatchedIDs() map[int64]bool {
	out := make(map[int64]bool, len(p.Entries))
	for _, e := range p.Entries {
		if e.Media == nil {
			continue
		}
		switch e.Status {
		case StatusCompleted, StatusCurrent, StatusRepeating:
			out[e.Media.ID] = true
		}
	}
	return out
}

// CompletedByScore 返回评分不低于 minScore 的已完成条目，按评分降序。
// minScore <= 0 时返回全部已完成条目（仍按评分降序，未评分的排最后）。
func (p *UserProfile) CompletedByScore(minScore float64) []MediaListEntry {
	out := make([]MediaListEntry, 0, len(p.Entries))
	for _, e := range p.Entries {
		if e.Media == nil || e.Status != StatusCompleted {
			continue
		}
		if minScore > 0 && e.Score < minScore {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// CompletedByRecency 返回已完成条目，按更新时间降序（种子评分兜底用）。
func (p *UserProfile) CompletedByRecency() []MediaListEntry {
	out := make([]MediaListEntry, 0, len(p.Entries))
	for _, e := range p.Entries {
		if e.Media == nil || e.Status != StatusCompleted {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// CurrentEntries 返回正在观看的条目（CURRENT），按更新时间降序。
func (p *UserProfile) CurrentEntries() []MediaListEntry {
	out := make([]MediaListEntry, 0, 8)
	for _, e := range p.Entries {
		if e.Media == nil || e.Status != StatusCurrent {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// WeightedGenreHistory 返回评分加权的题材历史：genre → Σ(score/100)。
// 未评分条目按 0.5 计，避免新用户历史全为零。
func (p *UserProfile) WeightedGenreHistory() map[string]float64 {
	out := make(map[string]float64)
	for _, e := range p.Entries {
		if e.Media == nil || e.Status != StatusCompleted {
			continue
		}
		w := 0.5
		if e.Scored() {
			w = e.Score / 100
		}
		for _, g := range e.Media.Genres {
			out[g] += w
		}
	}
	return out
}

// GenreBreadth 返回历史覆盖的不同题材数量，MMR 的 λ 自适应据此判断口味宽窄。
func (p *UserProfile) GenreBreadth() int {
	seen := make(map[string]bool)
	for _, e := range p.Entries {
		if e.Media == nil {
			continue
		}
		for _, g := range e.Media.Genres {
			seen[g] = true
		}
	}
	return len(seen)
}

// DominantFormat 返回已完成条目中出现最多的载体形式，无历史时返回空串。
func (p *UserProfile) DominantFormat() MediaFormat {
	counts := make(map[MediaFormat]int)
	for _, e := range p.Entries {
		if e.Media == nil || e.Status != StatusCompleted || e.Media.Format == "" {
			continue
		}
		counts[e.Media.Format]++
	}
	var best MediaFormat
	bestN := 0
	for f, n := range counts {
		if n > bestN {
			best, bestN = f, n
		}
	}
	return best
}

// DominantSource 返回已完成条目中出现最多的改编来源，无历史时返回空串。
func (p *UserProfile) DominantSource() MediaSource {
	counts := make(map[MediaSource]int)
	for _, e := range p.Entries {
		if e.Media == nil || e.Status != StatusCompleted || e.Media.Source == "" {
			continue
		}
		counts[e.Media.Source]++
	}
	var best MediaSource
	bestN := 0
	for s, n := range counts {
		if n > bestN {
			best, bestN = s, n
		}
	}
	return best
}

// MeanEntryScore 返回用户自评分的均值（0-100），无评分时返回 0。
func (p *UserProfile) MeanEntryScore() float64 {
	var sum float64
	var n int
	for _, e := range p.Entries {
		if e.Scored() {
			sum += e.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// MeanTotalMinutes 返回已完成作品的平均总时长（分钟），解释生成器用于"适合一口气看完"类对比。
func (p *UserProfile) MeanTotalMinutes() float64 {
	var sum float64
	var n int
	for _, e := range p.Entries {
		if e.Media == nil || e.Status != StatusCompleted {
			continue
		}
		if m := e.Media.TotalMinutes(); m > 0 {
			sum += float64(m)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// FormatCompletionRate 返回用户对指定载体形式的完成率：
// completed / (completed + dropped)，无数据时返回 0。
func (p *UserProfile) FormatCompletionRate(format MediaFormat) float64 {
	var completed, dropped int
	for _, e := range p.Entries {
		if e.Media == nil || e.Media.Format != format {
			continue
		}
		switch e.Status {
		case StatusCompleted:
			completed++
		case StatusDropped:
			dropped++
		}
	}
	if completed+dropped == 0 {
		return 0
	}
	return float64(completed) / float64(completed+dropped)
}
