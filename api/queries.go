package api

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/mediarec/core"
)

// Queries 是五个领域查询的薄封装：用户媒体库、用户统计、批量种子推荐、
// 趋势池、全文搜索，外加单作品详情。全部经由 Fetcher（限流/去重/缓存）。
type Queries struct {
	Transport Transport
	Fetcher   *Fetcher
	Config    *core.EngineConfig
}

// NewQueries 创建查询层；cfg 为 nil 时使用默认配置。
func NewQueries(transport Transport, fetcher *Fetcher, cfg *core.EngineConfig) *Queries {
	if cfg == nil {
		cfg = core.DefaultEngineConfig()
	}
	return &Queries{Transport: transport, Fetcher: fetcher, Config: cfg}
}

const mediaFields = `
id
title { romaji english native }
genres
tags { name rank isMediaSpoiler isGeneralSpoiler }
studios { nodes { name } }
format
source
episodes
duration
averageScore
popularity
startDate { year month day }
isAdult
`

const relationFields = `
relations {
  edges {
    relationType
    node {
      id
      title { romaji english native }
      genres
      tags { name rank isMediaSpoiler isGeneralSpoiler }
      studios { nodes { name } }
      format
      source
      episodes
      duration
      averageScore
      popularity
      startDate { year month day }
      isAdult
    }
  }
}
`

const userLibraryQuery = `
query ($userName: String) {
  MediaListCollection(userName: $userName, type: ANIME) {
    lists {
      entries {
        status
        progress
        score(format: POINT_100)
        updatedAt
        media {` + mediaFields + relationFields + `}
      }
    }
  }
}`

const userStatisticsQuery = `
query ($userName: String) {
  User(name: $userName) {
    statistics {
      anime {
        genres { genre count meanScore }
        tags { tag { name } count meanScore }
        studios { studio { name } count meanScore }
      }
    }
  }
}`

const recommendationsQuery = `
query ($ids: [Int], $perSeed: Int) {
  Page(page: 1, perPage: 10) {
    media(id_in: $ids, type: ANIME) {
      id
      recommendations(sort: RATING_DESC, perPage: $perSeed) {
        nodes {
          rating
          mediaRecommendation {` + mediaFields + `}
        }
      }
    }
  }
}`

const trendingQuery = `
query ($page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(sort: TRENDING_DESC, type: ANIME) {` + mediaFields + relationFields + `}
  }
}`

const searchQuery = `
query ($search: String) {
  Page(page: 1, perPage: 10) {
    media(search: $search, type: ANIME) {` + mediaFields + `}
  }
}`

const mediaDetailQuery = `
query ($id: Int) {
  Media(id: $id, type: ANIME) {` + mediaFields + relationFields + `}
}`

// UserLibrary 抓取用户全部追踪条目（含完整作品元数据与关联边），整体重建。
func (q *Queries) UserLibrary(ctx context.Context, userID string) ([]core.MediaListEntry, error) {
	return CachedFetch(ctx, q.Fetcher, "library", userID, func(ctx context.Context) ([]core.MediaListEntry, error) {
		raw, err := q.Transport.Do(ctx, userLibraryQuery, map[string]any{"userName": userID})
		if err != nil {
			return nil, err
		}
		var resp struct {
			MediaListCollection struct {
				Lists []struct {
					Entries []listEntryDTO `json:"entries"`
				} `json:"lists"`
			} `json:"MediaListCollection"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, err
		}
		var entries []core.MediaListEntry
		for _, list := range resp.MediaListCollection.Lists {
			for _, e := range list.Entries {
				entries = append(entries, e.toEntry())
			}
		}
		return entries, nil
	}, FetchOptions{TTL: q.Config.Cache.TTL})
}

// UserStatistics 抓取服务端聚合的用户口味统计。
func (q *Queries) UserStatistics(ctx context.Context, userID string) (*core.UserStatistics, error) {
	return CachedFetch(ctx, q.Fetcher, "stats", userID, func(ctx context.Context) (*core.UserStatistics, error) {
		raw, err := q.Transport.Do(ctx, userStatisticsQuery, map[string]any{"userName": userID})
		if err != nil {
			return nil, err
		}
		var resp struct {
			User struct {
				Statistics struct {
					Anime struct {
						Genres []struct {
							Genre     string  `json:"genre"`
							Count     int     `json:"count"`
							MeanScore float64 `json:"meanScore"`
						} `json:"genres"`
						Tags []struct {
							Tag       struct{ Name string } `json:"tag"`
							Count     int                   `json:"count"`
							MeanScore float64               `json:"meanScore"`
						} `json:"tags"`
						Studios []struct {
							Studio    struct{ Name string } `json:"studio"`
							Count     int                   `json:"count"`
							MeanScore float64               `json:"meanScore"`
						} `json:"studios"`
					} `json:"anime"`
				} `json:"statistics"`
			} `json:"User"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, err
		}
		stats := &core.UserStatistics{
			Genres:  make(map[string]core.AggStat),
			Tags:    make(map[string]core.AggStat),
			Studios: make(map[string]core.AggStat),
		}
		for _, g := range resp.User.Statistics.Anime.Genres {
			stats.Genres[g.Genre] = core.AggStat{Count: g.Count, MeanScore: g.MeanScore}
		}
		for _, t := range resp.User.Statistics.Anime.Tags {
			stats.Tags[t.Tag.Name] = core.AggStat{Count: t.Count, MeanScore: t.MeanScore}
		}
		for _, s := range resp.User.Statistics.Anime.Studios {
			stats.Studios[s.Studio.Name] = core.AggStat{Count: s.Count, MeanScore: s.MeanScore}
		}
		return stats, nil
	}, FetchOptions{TTL: q.Config.Cache.TTL})
}

// RecommendationsForSeeds 批量抓取"看过 X 也推荐 Y"的边：每批 ≤10 个种子，
// 每个种子 ≤20 条推荐；已缓存的种子直接取缓存。
func (q *Queries) RecommendationsForSeeds(ctx context.Context, seedIDs []int64) (map[int64][]core.RecEdge, error) {
	return BatchFetch(ctx, q.Fetcher, "recs", seedIDs, q.Config.Generation.SeedBatchSize,
		func(ctx context.Context, batch []int64) (map[int64][]core.RecEdge, error) {
			raw, err := q.Transport.Do(ctx, recommendationsQuery, map[string]any{
				"ids":     batch,
				"perSeed": q.Config.Generation.RecsPerSeed,
			})
			if err != nil {
				return nil, err
			}
			var resp struct {
				Page struct {
					Media []struct {
						ID              int64 `json:"id"`
						Recommendations struct {
							Nodes []struct {
								Rating              int       `json:"rating"`
								MediaRecommendation *mediaDTO `json:"mediaRecommendation"`
							} `json:"nodes"`
						} `json:"recommendations"`
					} `json:"media"`
				} `json:"Page"`
			}
			if err := json.Unmarshal(raw, &resp); err != nil {
				return nil, err
			}
			out := make(map[int64][]core.RecEdge, len(resp.Page.Media))
			for _, m := range resp.Page.Media {
				edges := make([]core.RecEdge, 0, len(m.Recommendations.Nodes))
				for _, n := range m.Recommendations.Nodes {
					if n.MediaRecommendation == nil {
						continue
					}
					edges = append(edges, core.RecEdge{Media: n.MediaRecommendation.toMedia(), Rating: n.Rating})
				}
				out[m.ID] = edges
			}
			return out, nil
		})
}

// Trending 抓取趋势池。page 区分用途：内容召回与在看召回使用不同的池。
func (q *Queries) Trending(ctx context.Context, page, perPage int) ([]*core.Media, error) {
	if perPage <= 0 {
		perPage = q.Config.Generation.TrendingPoolSize
	}
	key := "p" + strconv.Itoa(page) + ":" + strconv.Itoa(perPage)
	return CachedFetch(ctx, q.Fetcher, "trending", key, func(ctx context.Context) ([]*core.Media, error) {
		raw, err := q.Transport.Do(ctx, trendingQuery, map[string]any{"page": page, "perPage": perPage})
		if err != nil {
			return nil, err
		}
		return unmarshalMediaPage(raw)
	}, FetchOptions{TTL: q.Config.Cache.TTL})
}

// Search 全文搜索，最多 10 条结果。
func (q *Queries) Search(ctx context.Context, text string) ([]*core.Media, error) {
	return CachedFetch(ctx, q.Fetcher, "search", text, func(ctx context.Context) ([]*core.Media, error) {
		raw, err := q.Transport.Do(ctx, searchQuery, map[string]any{"search": text})
		if err != nil {
			return nil, err
		}
		return unmarshalMediaPage(raw)
	}, FetchOptions{TTL: q.Config.Cache.TTL})
}

// MediaDetail 抓取单个作品详情（含关联边）。
func (q *Queries) MediaDetail(ctx context.Context, id int64) (*core.Media, error) {
	return CachedFetch(ctx, q.Fetcher, "media", strconv.FormatInt(id, 10), func(ctx context.Context) (*core.Media, error) {
		raw, err := q.Transport.Do(ctx, mediaDetailQuery, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		var resp struct {
			Media *mediaDTO `json:"Media"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, err
		}
		if resp.Media == nil {
			return nil, core.NewDomainError(core.ModuleAPI, core.ErrorCodeNotFound, "api: media not found")
		}
		return resp.Media.toMedia(), nil
	}, FetchOptions{TTL: q.Config.Cache.TTL})
}

func unmarshalMediaPage(raw json.RawMessage) ([]*core.Media, error) {
	var resp struct {
		Page struct {
			Media []*mediaDTO `json:"media"`
		} `json:"Page"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	out := make([]*core.Media, 0, len(resp.Page.Media))
	for _, m := range resp.Page.Media {
		out = append(out, m.toMedia())
	}
	return out, nil
}

// ---- DTO 层：GraphQL 响应形状 → 领域类型 ----

type fuzzyDateDTO struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d fuzzyDateDTO) toTime() time.Time {
	if d.Year == 0 {
		return time.Time{}
	}
	month := d.Month
	if month == 0 {
		month = 1
	}
	day := d.Day
	if day == 0 {
		day = 1
	}
	return time.Date(d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

type mediaDTO struct {
	ID     int64            `json:"id"`
	Title  core.MediaTitle  `json:"title"`
	Genres []string         `json:"genres"`
	Tags   []core.MediaTag  `json:"tags"`
	Studios struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"studios"`
	Format       core.MediaFormat `json:"format"`
	Source       core.MediaSource `json:"source"`
	Episodes     int              `json:"episodes"`
	Duration     int              `json:"duration"`
	AverageScore int              `json:"averageScore"`
	Popularity   int              `json:"popularity"`
	StartDate    fuzzyDateDTO     `json:"startDate"`
	IsAdult      bool             `json:"isAdult"`
	Relations    *struct {
		Edges []struct {
			RelationType core.RelationType `json:"relationType"`
			Node         *mediaDTO         `json:"node"`
		} `json:"edges"`
	} `json:"relations"`
}

func (d *mediaDTO) toMedia() *core.Media {
	if d == nil {
		return nil
	}
	m := &core.Media{
		ID:           d.ID,
		Title:        d.Title,
		Genres:       d.Genres,
		Tags:         d.Tags,
		Format:       d.Format,
		Source:       d.Source,
		Episodes:     d.Episodes,
		Duration:     d.Duration,
		AverageScore: d.AverageScore,
		Popularity:   d.Popularity,
		StartDate:    d.StartDate.toTime(),
		IsAdult:      d.IsAdult,
	}
	for _, s := range d.Studios.Nodes {
		m.Studios = append(m.Studios, s.Name)
	}
	if d.Relations != nil {
		for _, e := range d.Relations.Edges {
			if e.Node == nil {
				continue
			}
			m.Relations = append(m.Relations, core.Relation{
				Type:    e.RelationType,
				MediaID: e.Node.ID,
				Media:   e.Node.toMedia(),
			})
		}
	}
	return m
}

type listEntryDTO struct {
	Status    core.ListStatus `json:"status"`
	Progress  int             `json:"progress"`
	Score     float64         `json:"score"`
	UpdatedAt int64           `json:"updatedAt"`
	Media     *mediaDTO       `json:"media"`
}

func (d listEntryDTO) toEntry() core.MediaListEntry {
	return core.MediaListEntry{
		Media:     d.Media.toMedia(),
		Status:    d.Status,
		Progress:  d.Progress,
		Score:     d.Score,
		UpdatedAt: time.Unix(d.UpdatedAt, 0),
	}
}
