package filter

import (
	"context"

	"github.com/rushteam/mediarec/core"
	"github.com/rushteam/mediarec/pipeline"
	"github.com/rushteam/mediarec/pkg/utils"
)

// Node 是过滤 Node，按固定阶段顺序收敛候选集：
//
//  1. 按作品 ID 去重，重复候选的来源/种子/权重合并进首个出现者
//  2. 丢弃无效候选（无 ID、无标题、题材/标签/制作组全空）
//  3. Before 过滤器（已看状态、点踩作品、成人内容、音乐类型）
//  4. 剥除（而非丢弃）剧透标签，供下游安全展示
//  5. After 过滤器（排除题材/标签/制作组、黑名单、CEL 规则）
//
// 顺序不可调换：剥除剧透标签必须发生在按标签排除之前，
// 否则用户按剧透标签设置的排除规则会失效；而已看/成人/音乐
// 过滤在剥除之前执行，避免对注定丢弃的候选做无谓的拷贝。
type Node struct {
	Before       []Filter
	StripSpoiler bool
	After        []Filter
}

func (n *Node) Name() string        { return "filter.node" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Node) Process(
	ctx context.Context,
	profile *core.UserProfile,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	merged := dedupMerge(candidates)

	out := make([]*core.Candidate, 0, len(merged))
	for _, c := range merged {
		if core.ValidateMedia(c.Media) != nil {
			continue
		}
		if n.apply(ctx, profile, c, n.Before) {
			continue
		}
		if n.StripSpoiler {
			c.Media = withoutSpoilerTags(c.Media)
		}
		if n.apply(ctx, profile, c, n.After) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (n *Node) apply(ctx context.Context, profile *core.UserProfile, c *core.Candidate, filters []Filter) bool {
	for _, f := range filters {
		ok, err := f.ShouldFilter(ctx, profile, c)
		if err != nil {
			// 过滤器错误时记录但不中断流程
			continue
		}
		if ok {
			c.PutLabel("filtered", utils.Label{Value: "true", Source: f.Name()})
			return true
		}
	}
	return false
}

// dedupMerge 按作品 ID 去重，保留第一个出现的候选，
// 把重复者的来源/种子/协同权重/相似度合并进去。
// 输入顺序即召回源优先级，先到者的来源标记排在前面。
func dedupMerge(candidates []*core.Candidate) []*core.Candidate {
	seen := make(map[int64]*core.Candidate, len(candidates))
	out := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Media == nil {
			continue
		}
		if first, ok := seen[c.Media.ID]; ok {
			first.Merge(c)
			continue
		}
		seen[c.Media.ID] = c
		out = append(out, c)
	}
	return out
}

// withoutSpoilerTags 返回剥除剧透标签的浅拷贝，保留其余标签的顺序。
// 不改原对象：候选里的 Media 指针来自网络缓存，在多次推荐间共享，
// 原地改写会让下一次运行拿到已剥除的快照。其余切片字段继续共享，
// 下游对 Media 只读。
func withoutSpoilerTags(m *core.Media) *core.Media {
	kept := make([]core.MediaTag, 0, len(m.Tags))
	for _, t := range m.Tags {
		if t.Spoiler() {
			continue
		}
		kept = append(kept, t)
	}
	clone := *m
	clone.Tags = kept
	return &clone
}
