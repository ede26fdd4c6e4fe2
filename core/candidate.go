package core

import (
	"fmt"

	"github.com/rushteam/mediarec/pkg/utils"
)

// SourceKind 是候选的来源标记：哪个召回策略提出了它。
type SourceKind string

const (
	SourceCollaborative SourceKind = "collaborative"
	SourceWatching      SourceKind = "watching"
	SourceContent       SourceKind = "content"
	SourceRelation      SourceKind = "relation"
	SourceTrending      SourceKind = "trending"
)

// Candidate 是链路中流转的统一承载结构：作品快照 + 来源 + 种子 + 标记。
//
// 来源集合非空是构造不变式；多个召回源命中同一作品时合并来源而不是丢弃，
// 种子 ID（SeedIDs）解释"为什么"——它与用户看过的哪部作品相似。
type Candidate struct {
	Media   *Media
	Sources []SourceKind
	SeedIDs []int64

	// CFWeight 是协同召回按 log(1+rating) 聚合出的权重，其他来源为 0。
	CFWeight float64

	// SimScore 是内容/在看召回计算出的最大余弦相似度，其他来源为 0。
	SimScore float64

	Labels map[string]utils.Label
}

// NewCandidate 是唯一的候选构造入口：校验通过返回候选，否则返回拒绝原因。
//
// 有效性要求：有 ID、至少一个标题、题材/标签/制作组至少一项非空。
// 过滤管线对所有来源统一使用该校验，畸形候选静默丢弃而不是让整条链路失败。
func NewCandidate(media *Media, source SourceKind) (*Candidate, error) {
	if err := ValidateMedia(media); err != nil {
		return nil, err
	}
	c := &Candidate{
		Media:   media,
		Sources: []SourceKind{source},
		Labels:  make(map[string]utils.Label),
	}
	c.PutLabel("recall_source", utils.NewLabel(string(source), "recall"))
	return c, nil
}

// ValidateMedia 检查作品快照是否满足候选最低要求。
func ValidateMedia(media *Media) error {
	switch {
	case media == nil:
		return NewDomainError(ModuleFilter, ErrorCodeInvalidCandidate, "candidate: nil media")
	case media.ID <= 0:
		return NewDomainError(ModuleFilter, ErrorCodeInvalidCandidate, "candidate: missing id")
	case media.Title.IsEmpty():
		return NewDomainError(ModuleFilter, ErrorCodeInvalidCandidate,
			fmt.Sprintf("candidate %d: missing title", media.ID))
	case len(media.Genres) == 0 && len(media.Tags) == 0 && len(media.Studios) == 0:
		return NewDomainError(ModuleFilter, ErrorCodeInvalidCandidate,
			fmt.Sprintf("candidate %d: no content features", media.ID))
	}
	return nil
}

// HasSource 判断候选是否由指定来源提出。
func (c *Candidate) HasSource(kind SourceKind) bool {
	for _, s := range c.Sources {
		if s == kind {
			return true
		}
	}
	return false
}

// AddSource 追加来源，已存在时不重复。
func (c *Candidate) AddSource(kind SourceKind) {
	if !c.HasSource(kind) {
		c.Sources = append(c.Sources, kind)
	}
}

// AddSeed 追加种子 ID，已存在时不重复。
func (c *Candidate) AddSeed(seedID int64) {
	for _, id := range c.SeedIDs {
		if id == seedID {
			return
		}
	}
	c.SeedIDs = append(c.SeedIDs, seedID)
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// Merge 把同 ID 候选 other 的来源/种子/权重并入 c。
// CFWeight 取和（多种子贡献累积），SimScore 取最大（在看相似是更强信号，平手时保留先到者的来源顺序）。
func (c *Candidate) Merge(other *Candidate) {
	if other == nil || other.Media == nil || other.Media.ID != c.Media.ID {
		return
	}
	for _, s := range other.Sources {
		c.AddSource(s)
	}
	for _, id := range other.SeedIDs {
		c.AddSeed(id)
	}
	c.CFWeight += other.CFWeight
	if other.SimScore > c.SimScore {
		c.SimScore = other.SimScore
	}
	for k, v := range other.Labels {
		c.PutLabel(k, v)
	}
}
