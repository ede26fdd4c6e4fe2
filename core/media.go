package core

import "time"

// MediaFormat 是媒体的载体形式枚举（与追番服务的 GraphQL 枚举一一对应）。
type MediaFormat string

const (
	FormatTV      MediaFormat = "TV"
	FormatTVShort MediaFormat = "TV_SHORT"
	FormatMovie   MediaFormat = "MOVIE"
	FormatSpecial MediaFormat = "SPECIAL"
	FormatOVA     MediaFormat = "OVA"
	FormatONA     MediaFormat = "ONA"
	FormatMusic   MediaFormat = "MUSIC"
)

// MediaSource 是作品的改编来源枚举。
type MediaSource string

const (
	SourceOriginal    MediaSource = "ORIGINAL"
	SourceManga       MediaSource = "MANGA"
	SourceLightNovel  MediaSource = "LIGHT_NOVEL"
	SourceVisualNovel MediaSource = "VISUAL_NOVEL"
	SourceVideoGame   MediaSource = "VIDEO_GAME"
	SourceNovel       MediaSource = "NOVEL"
	SourceOther       MediaSource = "OTHER"
)

// RelationType 是作品之间的关联边类型。
// 推荐链路只关心强关联（续作/前作/番外），其余类型保留用于展示。
type RelationType string

const (
	RelationSequel      RelationType = "SEQUEL"
	RelationPrequel     RelationType = "PREQUEL"
	RelationSideStory   RelationType = "SIDE_STORY"
	RelationParent      RelationType = "PARENT"
	RelationSpinOff     RelationType = "SPIN_OFF"
	RelationAdaptation  RelationType = "ADAPTATION"
	RelationAlternative RelationType = "ALTERNATIVE"
	RelationCharacter   RelationType = "CHARACTER"
	RelationOther       RelationType = "OTHER"
)

// IsStrong 判断该关联类型是否属于推荐可用的强关联。
func (t RelationType) IsStrong() bool {
	switch t {
	case RelationSequel, RelationPrequel, RelationSideStory:
		return true
	}
	return false
}

// MediaTitle 是多语言标题。Display 按 English → Romaji → Native 的顺序取第一个非空值。
type MediaTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

func (t MediaTitle) Display() string {
	if t.English != "" {
		return t.English
	}
	if t.Romaji != "" {
		return t.Romaji
	}
	return t.Native
}

// IsEmpty 判断是否完全没有标题（校验候选时使用）。
func (t MediaTitle) IsEmpty() bool {
	return t.Romaji == "" && t.English == "" && t.Native == ""
}

// MediaTag 是带权重的标签。Rank 取值 0-100；
// 剧透标签（IsSpoiler / IsGeneralSpoiler）不参与向量构建，展示前必须剥离。
type MediaTag struct {
	Name             string `json:"name"`
	Rank             int    `json:"rank"`
	IsSpoiler        bool   `json:"isMediaSpoiler"`
	IsGeneralSpoiler bool   `json:"isGeneralSpoiler"`
}

// Spoiler 判断标签是否为任一类剧透。
func (t MediaTag) Spoiler() bool {
	return t.IsSpoiler || t.IsGeneralSpoiler
}

// Relation 是一条指向其他 Media 的关联边。
// Media 字段是抓取时随边返回的目标快照，可能为 nil（只有 ID 的裸边）。
type Relation struct {
	Type    RelationType
	MediaID int64
	Media   *Media
}

// Media 是一次抓取内不可变的作品快照。
//
// 不变式：ID 稳定且全局唯一，是缓存、去重、反馈存储共用的唯一身份键。
// 分数与热度都是服务端聚合值：AverageScore 取值 0-100，Popularity 是收藏人数。
type Media struct {
	ID           int64
	Title        MediaTitle
	Genres       []string
	Tags         []MediaTag
	Studios      []string
	Format       MediaFormat
	Source       MediaSource
	Episodes     int
	Duration     int // 单集时长（分钟）
	AverageScore int
	Popularity   int
	StartDate    time.Time
	IsAdult      bool
	Relations    []Relation
}

// TotalMinutes 返回作品总时长（分钟），用于 bingeability 分段。
func (m *Media) TotalMinutes() int {
	if m.Episodes <= 0 || m.Duration <= 0 {
		return 0
	}
	return m.Episodes * m.Duration
}

// HasGenre 判断作品是否包含指定题材（区分大小写，服务端枚举值固定）。
func (m *Media) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// NonSpoilerTags 返回剥离剧透后的标签列表。
func (m *Media) NonSpoilerTags() []MediaTag {
	out := make([]MediaTag, 0, len(m.Tags))
	for _, t := range m.Tags {
		if t.Spoiler() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SpoilerTagNames 返回该作品所有剧透标签名，解释生成器据此做最后一道脱敏。
func (m *Media) SpoilerTagNames() []string {
	var out []string
	for _, t := range m.Tags {
		if t.Spoiler() {
			out = append(out, t.Name)
		}
	}
	return out
}

// ListStatus 是用户与单个作品的追踪状态。
type ListStatus string

const (
	StatusCurrent   ListStatus = "CURRENT"
	StatusPlanning  ListStatus = "PLANNING"
	StatusCompleted ListStatus = "COMPLETED"
	StatusDropped   ListStatus = "DROPPED"
	StatusPaused    ListStatus = "PAUSED"
	StatusRepeating ListStatus = "REPEATING"
)

// MediaListEntry 是用户与单个 Media 的关系。
// 每次抓取用户媒体库时整体重建，不做增量 diff。
// Score 为 0-100 归一化评分，0 表示未打分。
type MediaListEntry struct {
	Media     *Media
	Status    ListStatus
	Progress  int
	Score     float64
	UpdatedAt time.Time
}

// Scored 判断该条目是否有有效评分。
func (e MediaListEntry) Scored() bool {
	return e.Score > 0
}

// RecEdge 是上游"看过 X 的人也推荐 Y"的一条边：目标作品与社区评价数。
type RecEdge struct {
	Media  *Media
	Rating int
}
