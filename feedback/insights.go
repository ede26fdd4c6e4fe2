package feedback

import (
	"context"
	"sort"
)

// GenreCount 是口味洞察里的一个题材计数。
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// Insights 是从反馈与交互数据汇总出的口味画像，
// 供设置页向用户展示"系统学到了什么"。
type Insights struct {
	Likes          int          `json:"likes"`
	Dislikes       int          `json:"dislikes"`
	LikedGenres    []GenreCount `json:"liked_genres"`    // 点赞作品中的高频题材，降序
	DislikedGenres []GenreCount `json:"disliked_genres"` // 点踩作品中的高频题材，降序
	TopReasons     []string     `json:"top_reasons"`     // 点踩细分原因，按出现次数降序
	Clicks         int          `json:"clicks"`
	Views          int          `json:"views"`
	Impressions    int          `json:"impressions"`
	Skips          int          `json:"skips"`
}

// Insights 汇总一个用户的全部反馈信号。
func (s *Store) Insights(ctx context.Context, userID string) (*Insights, error) {
	records, err := s.Feedback(ctx, userID)
	if err != nil {
		return nil, err
	}
	in, err := s.Interactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &Insights{}
	likedGenres := make(map[string]int)
	dislikedGenres := make(map[string]int)
	reasons := make(map[string]int)

	for _, rec := range records {
		switch rec.Type {
		case TypeLike:
			out.Likes++
			for _, g := range rec.Summary.Genres {
				likedGenres[g]++
			}
		case TypeDislike:
			out.Dislikes++
			for _, g := range rec.Summary.Genres {
				dislikedGenres[g]++
			}
			for _, r := range rec.Reasons {
				reasons[r]++
			}
		}
	}

	out.LikedGenres = sortedGenres(likedGenres)
	out.DislikedGenres = sortedGenres(dislikedGenres)
	out.TopReasons = sortedKeys(reasons)

	out.Clicks = len(in.Clicked)
	out.Views = len(in.Viewed)
	for _, n := range in.Impressions {
		out.Impressions += n
	}
	for _, n := range in.Skipped {
		out.Skips += n
	}
	return out, nil
}

func sortedGenres(counts map[string]int) []GenreCount {
	out := make([]GenreCount, 0, len(counts))
	for g, n := range counts {
		out = append(out, GenreCount{Genre: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}

func sortedKeys(counts map[string]int) []string {
	type kv struct {
		key string
		n   int
	}
	pairs := make([]kv, 0, len(counts))
	for k, n := range counts {
		pairs = append(pairs, kv{k, n})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].n != pairs[j].n {
			return pairs[i].n > pairs[j].n
		}
		return pairs[i].key < pairs[j].key
	})
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.key)
	}
	return out
}
